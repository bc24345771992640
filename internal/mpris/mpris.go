//go:build linux

package mpris

import (
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/sirupsen/logrus"
)

// Adapter exposes a Controller as an MPRIS media player over D-Bus.
type Adapter struct {
	server *server.Server
	log    logrus.FieldLogger
}

// New creates and starts a new MPRIS adapter.
func New(ctrl Controller, log logrus.FieldLogger) (*Adapter, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "mpris")

	a := &Adapter{
		server: server.NewServer("streamer", &rootAdapter{}, &playerAdapter{ctrl: ctrl, log: log}),
		log:    log,
	}

	go func() {
		if err := a.server.Listen(); err != nil {
			log.WithError(err).Warn("mpris server stopped")
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}
