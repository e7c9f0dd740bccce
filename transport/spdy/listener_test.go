package spdy

import (
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/docker/spdystream"

	"github.com/docker/h2beam/beam"
	"github.com/docker/h2beam/chunk"
)

func TestNoAuthenticatorAcceptsEverything(t *testing.T) {
	authHandler, err := NoAuthenticator(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !authHandler(http.Header{}, 1, 0) {
		t.Fatal("NoAuthenticator's handler should accept every stream")
	}
}

// A client opens a stream, writes a payload and closes its outbound side;
// the server's OnStream hook drains what arrived and reports it back over
// a channel, exercising the full duplex bridge end to end over a real
// loopback TCP connection.
func TestStreamBridgesClientBytesToServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	received := make(chan []byte, 1)
	session := NewListenSession(listener, NoAuthenticator, beam.Config{})
	session.OnStream = func(c *Conn, stream *spdystream.Stream) {
		go func() {
			var got []byte
			for {
				var out []chunk.Chunk
				_, recvErr := c.In.Receive(c.InRecv, &out, beam.Block(), 0)
				for _, ch := range out {
					if chunk.IsMetadata(ch) {
						continue
					}
					r, ok := ch.(chunk.Readable)
					if !ok {
						continue
					}
					data, readErr := r.Read(true)
					if readErr == nil {
						got = append(got, data...)
					}
				}
				if recvErr == io.EOF || recvErr == beam.ErrConnectionAborted {
					received <- got
					return
				}
			}
		}()
	}
	go session.Serve()
	defer session.Shutdown()

	conn, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	clientSession, err := Dial(conn, beam.Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer clientSession.Close()

	clientConn, err := clientSession.OpenStream(http.Header{"Verb": []string{"attach"}})
	if err != nil {
		t.Fatal(err)
	}

	payload := []byte("payload over spdy")
	if err := clientConn.Out.Send(clientConn.OutSender, []chunk.Chunk{chunk.NewHeap(payload)}, beam.Block()); err != nil {
		t.Fatal(err)
	}
	if err := clientConn.Out.Close(clientConn.OutSender); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-received:
		if string(got) != string(payload) {
			t.Fatalf("server observed %q, want %q", got, payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server to observe client bytes")
	}
}
