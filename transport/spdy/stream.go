package spdy

import (
	"net"
	"net/http"

	"github.com/Sirupsen/logrus"
	"github.com/docker/spdystream"

	"github.com/docker/h2beam/beam"
)

// Session is the dial-out counterpart to ListenSession: it owns one
// spdystream.Connection and opens new streams on demand, each bridged to
// its own pair of beams.
type Session struct {
	conn *spdystream.Connection
	cfg  beam.Config
	log  *logrus.Entry
}

// Dial negotiates a spdystream connection over conn (already connected)
// and returns a Session ready to open streams.
func Dial(conn net.Conn, cfg beam.Config) (*Session, error) {
	spdyConn, err := spdystream.NewConnection(conn, false)
	if err != nil {
		return nil, err
	}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger().WithField("component", "spdy")
	}
	go spdyConn.Serve(func(*spdystream.Stream) {}, spdystream.NoAuthHandler)
	return &Session{conn: spdyConn, cfg: cfg, log: log}, nil
}

// OpenStream creates a new stream with the given headers and returns its
// duplex Conn: read the server's replies from In/InRecv, write requests to
// Out/OutSender.
func (s *Session) OpenStream(headers http.Header) (*Conn, error) {
	stream, err := s.conn.CreateStream(headers, nil, false)
	if err != nil {
		return nil, err
	}
	if err := stream.Wait(); err != nil {
		return nil, err
	}

	return bridgeStream(stream.String(), "spdy-client", s.cfg, stream, s.log), nil
}

// Close terminates the underlying multiplexed connection.
func (s *Session) Close() error {
	return s.conn.Close()
}
