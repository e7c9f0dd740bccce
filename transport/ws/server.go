// Package ws offers the same sender/receiver beam bridging as
// transport/spdy, but carried over a WebSocket connection instead of a
// raw TCP one, to show the beam's transport-agnosticism.
package ws

import (
	"errors"
	"net/http"

	"github.com/docker/spdystream"
	wsconn "github.com/docker/spdystream/ws"
	"github.com/gorilla/websocket"

	"github.com/docker/h2beam/beam"
	"github.com/docker/h2beam/transport/spdy"
)

// DialSession upgrades an already-established websocket.Conn to a
// spdy.Session, so callers can OpenStream on it exactly as over a raw
// connection.
func DialSession(wsConn *websocket.Conn, cfg beam.Config) (*spdy.Session, error) {
	return spdy.Dial(wsconn.NewConnection(wsConn), cfg)
}

// Upgrader wraps gorilla's websocket.Upgrader to additionally negotiate a
// multiplexed session over the upgraded connection.
type Upgrader struct {
	Upgrader websocket.Upgrader
	Cfg      beam.Config
}

// IsHandshakeError reports whether err occurred during the websocket
// handshake, meaning a response has already been written to the stream.
func IsHandshakeError(err error) bool {
	_, ok := err.(websocket.HandshakeError)
	return ok
}

// BeamFunc is invoked once per stream the upgraded session opens.
type BeamFunc func(c *spdy.Conn, stream *spdystream.Stream)

// Serve upgrades every accepted connection to a WebSocket, negotiates a
// multiplexed session over it, and invokes f for every stream it opens
// until the connection closes.
func Serve(u *Upgrader, f BeamFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			u.Upgrader.Error(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}

		wsConn, err := u.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			if !IsHandshakeError(err) {
				u.Upgrader.Error(w, r, http.StatusInternalServerError, errors.New("unable to upgrade connection to websocket"))
			}
			return
		}

		netConn := wsconn.NewConnection(wsConn)
		session := spdy.NewListenSession(nil, spdy.NoAuthenticator, u.Cfg)
		session.OnStream = f
		session.ServeConn(netConn)
	}
}
