// Package debug contains the optional info-providing mechanisms for the
// server: a pprof endpoint and frame dumps for the packet log.
package debug

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
)

// StartPprofServer starts the default pprof HTTP server that can be accessed
// via localhost to get runtime information about the process.
// See https://golang.org/pkg/net/http/pprof/
func StartPprofServer(logger *logrus.Logger, port int) {
	listenerAddr := fmt.Sprintf("localhost:%d", port)
	logger.Infof("starting pprof server on %s", listenerAddr)

	go func() {
		if err := http.ListenAndServe(listenerAddr, nil); err != nil {
			logger.Warnf("error starting pprof server: %s", err)
		}
	}()
}

var frameDumper = spew.ConfigState{Indent: "  ", DisableMethods: true}

// FormatFrame renders one frame for the packet log.
func FormatFrame(direction string, sessionIndex int, id uint16, name string, body []byte) string {
	if len(body) == 0 {
		return fmt.Sprintf("%s session(%d) id(%#04x %s) empty body", direction, sessionIndex, id, name)
	}
	return fmt.Sprintf("%s session(%d) id(%#04x %s) body:\n%s",
		direction, sessionIndex, id, name, frameDumper.Sdump(body))
}
