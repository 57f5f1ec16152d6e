package debug

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
)

// Direction tells which side of the connection a packet came from.
type Direction string

const (
	ClientToServer Direction = "client -> server"
	ServerToClient Direction = "server -> client"
)

// PacketLogger writes hex dumps of raw packets at debug level.
type PacketLogger struct {
	Logger     *logrus.Logger
	ServerName string
}

// PrintPacket dumps data along with the peer it was exchanged with.
func (l *PacketLogger) PrintPacket(dir Direction, peer string, data []byte) {
	if l == nil || l.Logger == nil || !l.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	l.Logger.WithFields(logrus.Fields{
		"server": l.ServerName,
		"peer":   peer,
		"size":   len(data),
	}).Debugf("[%s] %s packet\n%s", l.ServerName, dir, spew.Sdump(data))
}

// StartPprofServer starts the default pprof HTTP server that can be accessed via localhost
// to get runtime information about the server. See https://golang.org/pkg/net/http/pprof/
func StartPprofServer(logger *logrus.Logger, port int) *http.Server {
	listenerAddr := fmt.Sprintf("localhost:%d", port)
	logger.Infof("starting pprof server on %s", listenerAddr)

	srv := &http.Server{Addr: listenerAddr}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("error starting pprof server: %s", err)
		}
	}()
	return srv
}
