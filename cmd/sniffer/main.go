// The sniffer captures parlor traffic off the wire and prints one line per
// decoded frame. Useful for debugging clients without enabling packet
// logging on the server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jkwon/parlor/internal/packets"
)

var (
	device = flag.String("device", "lo", "network device to capture on")
	port   = flag.Int("port", 11021, "server port to filter")
)

func main() {
	flag.Parse()

	handle, err := pcap.OpenLive(*device, 65536, true, pcap.BlockForever)
	if err != nil {
		fmt.Printf("error opening capture on %s: %v\n", *device, err)
		os.Exit(1)
	}
	defer handle.Close()

	if err := handle.SetBPFFilter(fmt.Sprintf("tcp port %d", *port)); err != nil {
		fmt.Printf("error setting capture filter: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("capturing on %s (tcp port %d)\n", *device, *port)

	titleCaser := cases.Title(language.English)
	source := gopacket.NewPacketSource(handle, handle.LinkType())

	for packet := range source.Packets() {
		tcpLayer := packet.Layer(layers.LayerTypeTCP)
		if tcpLayer == nil {
			continue
		}
		tcp := tcpLayer.(*layers.TCP)

		// A TCP segment can carry multiple frames; frames split across
		// segments are skipped rather than reassembled.
		payload := tcp.Payload
		for len(payload) >= packets.HeaderSize {
			header := packets.ParseHeader(payload)

			total := int(header.TotalSize)
			if total < packets.HeaderSize || total > packets.HeaderSize+packets.MaxPacketBodySize {
				break
			}
			if total > len(payload) {
				break
			}

			fmt.Printf("%s %s id(%#04x) size(%d)\n",
				direction(tcp, *port), titleCaser.String(packets.Name(header.ID)), header.ID, total)
			payload = payload[total:]
		}
	}
}

func direction(tcp *layers.TCP, serverPort int) string {
	if int(tcp.DstPort) == serverPort {
		return "C->S"
	}
	return "S->C"
}
