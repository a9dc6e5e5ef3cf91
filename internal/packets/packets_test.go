package packets

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	original := Header{TotalSize: 263, ID: RoomChatRequest, Reserved: 0}

	data := make([]byte, HeaderSize)
	PutHeader(data, original)

	if parsed := ParseHeader(data); parsed != original {
		t.Errorf("ParseHeader(PutHeader(%+v)) = %+v", original, parsed)
	}
}

func TestHeaderWireFormat(t *testing.T) {
	data := make([]byte, HeaderSize)
	PutHeader(data, Header{TotalSize: 0x0107, ID: 0x00ed})

	// Little endian: size, then id, then the reserved byte.
	expected := []byte{0x07, 0x01, 0xed, 0x00, 0x00}
	for i := range expected {
		if data[i] != expected[i] {
			t.Fatalf("byte %d = %#02x, want %#02x", i, data[i], expected[i])
		}
	}
}

func TestName(t *testing.T) {
	if name := Name(LoginRequest); name != "login request" {
		t.Errorf("Name(LoginRequest) = %q", name)
	}
	if name := Name(0xffff); name != "unknown" {
		t.Errorf("Name of undefined id = %q", name)
	}
}
