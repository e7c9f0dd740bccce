// Package spdy bridges an accepted HTTP/2-predecessor multiplexer
// connection (github.com/docker/spdystream) to a pair of beams per stream:
// one carrying bytes inbound from the stream, one carrying bytes a local
// producer wants sent outbound on it.
package spdy

import (
	"net"
	"net/http"

	"github.com/Sirupsen/logrus"
	"github.com/docker/spdystream"

	"github.com/docker/h2beam/beam"
)

// Authenticator decides whether an incoming connection is allowed to
// establish streams at all, mirroring spdystream's own AuthHandler shape.
type Authenticator func(conn net.Conn) (spdystream.AuthHandler, error)

// NoAuthenticator accepts every stream unconditionally; useful for tests
// and for transports that authenticate at a layer below this one.
func NoAuthenticator(conn net.Conn) (spdystream.AuthHandler, error) {
	return func(header http.Header, slot uint8, parent uint32) bool {
		return true
	}, nil
}

// Conn is one multiplexed stream's duplex bridge to a pair of beams: bytes
// arriving on the stream are admitted to In and drained by the local
// consumer through InRecv; bytes the local producer admits to Out through
// OutSender are drained onto the stream. One beam per direction, because a
// beam is itself single-producer/single-consumer in one direction only.
type Conn struct {
	In        *beam.Beam
	InRecv    beam.Endpoint
	Out       *beam.Beam
	OutSender beam.Endpoint
}

// ListenSession accepts connections on a net.Listener, negotiates a
// spdystream.Connection over each one, and bridges every stream it opens
// to a Conn.
type ListenSession struct {
	listener net.Listener
	auth     Authenticator
	cfg      beam.Config
	log      *logrus.Entry

	// OnStream is invoked once per accepted stream with its duplex Conn.
	// The default, if nil, is to echo In straight back out through Out.
	OnStream func(c *Conn, stream *spdystream.Stream)
}

// NewListenSession wraps listener so that every accepted connection is
// upgraded to a spdystream multiplexer and every stream it opens gets its
// own pair of beams, configured per cfg.
func NewListenSession(listener net.Listener, auth Authenticator, cfg beam.Config) *ListenSession {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger().WithField("component", "spdy")
	}
	return &ListenSession{listener: listener, auth: auth, cfg: cfg, log: log}
}

// Serve accepts connections until the listener is closed or returns an
// error. It blocks; callers typically run it in its own goroutine.
func (l *ListenSession) Serve() error {
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			return err
		}
		go l.ServeConn(conn)
	}
}

// ServeConn negotiates a spdystream multiplexer directly over conn and
// bridges every stream it opens, without going through Accept. Exported
// so other transports (e.g. transport/ws, which already has an upgraded
// connection in hand) can reuse the same stream-bridging logic.
func (l *ListenSession) ServeConn(conn net.Conn) {
	authHandler, err := l.auth(conn)
	if err != nil {
		l.log.WithError(err).Warn("spdy: auth rejected connection")
		conn.Close()
		return
	}

	spdyConn, err := spdystream.NewConnection(conn, true)
	if err != nil {
		l.log.WithError(err).Warn("spdy: failed to negotiate connection")
		conn.Close()
		return
	}

	spdyConn.Serve(func(stream *spdystream.Stream) {
		l.handleStream(stream)
	}, authHandler)
}

func (l *ListenSession) handleStream(stream *spdystream.Stream) {
	if err := stream.SendReply(stream.Headers(), false); err != nil {
		l.log.WithError(err).Warn("spdy: failed to reply to stream")
		return
	}

	c := bridgeStream(stream.String(), "spdy-server", l.cfg, stream, l.log)

	if l.OnStream != nil {
		l.OnStream(c, stream)
		return
	}
	go echoInboundToOutbound(c, l.log)
}

// bridgeStream allocates the pair of single-direction beams a duplex
// stream bridge needs (one carrying bytes inbound from the stream, one
// carrying bytes a local producer wants sent outbound on it) and starts
// the two pump goroutines that keep them synced with stream.
func bridgeStream(id, tag string, cfg beam.Config, stream *spdystream.Stream, log *logrus.Entry) *Conn {
	in, inSender := beam.Create(id, tag+"-in", cfg)
	out, outSender := beam.Create(id, tag+"-out", cfg)

	go pumpStreamToBeam(in, inSender, stream, log)
	go pumpBeamToStream(out, out.Receiver(), stream, log)

	return &Conn{In: in, InRecv: in.Receiver(), Out: out, OutSender: outSender}
}

// Shutdown stops accepting new connections.
func (l *ListenSession) Shutdown() error {
	return l.listener.Close()
}
