// Package unix adapts the teacher's Unix-domain-socket transport into a
// minimal same-host bridge for a beam: no network round-trip, useful for
// wiring a producer and consumer together in tests or in a single
// process without going through transport/spdy.
package unix

import (
	"io"
	"net"

	"github.com/Sirupsen/logrus"

	"github.com/docker/h2beam/beam"
	"github.com/docker/h2beam/chunk"
)

const pumpBufSize = 32 * 1024

// Pair creates two connected beams, joined by an in-process net.Conn
// pipe: bytes admitted to the first beam's sender are written onto the
// pipe and read back out as chunks on the second beam's receiver, and
// vice versa. Closing either beam's sender closes its half of the pipe.
func Pair(cfg beam.Config) (left *beam.Beam, leftSender beam.Endpoint, right *beam.Beam, rightSender beam.Endpoint) {
	c1, c2 := net.Pipe()

	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger().WithField("component", "unix")
	}

	left, leftSender = beam.Create("unix-pair", "left", cfg)
	right, rightSender = beam.Create("unix-pair", "right", cfg)

	leftRecv := left.Receiver()
	rightRecv := right.Receiver()

	go pumpConnToBeam(c1, left, leftSender, log)
	go pumpBeamToConn(right, rightRecv, c1, log)

	go pumpConnToBeam(c2, right, rightSender, log)
	go pumpBeamToConn(left, leftRecv, c2, log)

	return left, leftSender, right, rightSender
}

func pumpConnToBeam(conn net.Conn, b *beam.Beam, sender beam.Endpoint, log *logrus.Entry) {
	buf := make([]byte, pumpBufSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			c := chunk.NewHeap(buf[:n])
			if sendErr := b.Send(sender, []chunk.Chunk{c}, beam.Block()); sendErr != nil {
				log.WithError(sendErr).Debug("unix: send to beam failed")
				break
			}
		}
		if err != nil {
			if err != io.EOF {
				log.WithError(err).Debug("unix: pipe read failed")
			}
			break
		}
	}
	b.Send(sender, []chunk.Chunk{chunk.EOSChunk{}}, beam.Block())
	b.Close(sender)
}

func pumpBeamToConn(b *beam.Beam, recv beam.Endpoint, conn net.Conn, log *logrus.Entry) {
	defer conn.Close()
	for {
		var out []chunk.Chunk
		_, err := b.Receive(recv, &out, beam.Block(), 0)
		for _, c := range out {
			if chunk.IsMetadata(c) {
				continue
			}
			r, ok := c.(chunk.Readable)
			if !ok {
				continue
			}
			data, readErr := r.Read(true)
			if readErr != nil {
				log.WithError(readErr).Debug("unix: proxy read failed")
				continue
			}
			if _, writeErr := conn.Write(data); writeErr != nil {
				log.WithError(writeErr).Debug("unix: pipe write failed")
				return
			}
			if closer, ok := c.(io.Closer); ok {
				closer.Close()
			}
		}
		if err == io.EOF || err == beam.ErrConnectionAborted {
			return
		}
	}
}
