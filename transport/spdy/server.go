package spdy

import (
	"io"

	"github.com/Sirupsen/logrus"
	"github.com/docker/spdystream"

	"github.com/docker/h2beam/beam"
	"github.com/docker/h2beam/chunk"
)

const pumpBufSize = 32 * 1024

// pumpStreamToBeam reads from stream and admits what it reads to b as
// heap chunks, sending a synthesized eos when the stream is finished, and
// closing the beam's sender side once stream reads end.
func pumpStreamToBeam(b *beam.Beam, sender beam.Endpoint, stream *spdystream.Stream, log *logrus.Entry) {
	buf := make([]byte, pumpBufSize)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			c := chunk.NewHeap(buf[:n])
			if sendErr := b.Send(sender, []chunk.Chunk{c}, beam.Block()); sendErr != nil {
				log.WithError(sendErr).Debug("spdy: send to beam failed")
				break
			}
		}
		if err != nil {
			if err != io.EOF {
				log.WithError(err).Debug("spdy: stream read failed")
			}
			break
		}
	}
	b.Send(sender, []chunk.Chunk{chunk.EOSChunk{}}, beam.Block())
	b.Close(sender)
}

// pumpBeamToStream drains b via the receiver endpoint and writes every
// data chunk onto stream, closing the stream once the beam reports
// end-of-file or abort. An eos chunk is skipped like other metadata.
func pumpBeamToStream(b *beam.Beam, recv beam.Endpoint, stream *spdystream.Stream, log *logrus.Entry) {
	defer stream.Close()
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
				log.WithError(readErr).Debug("spdy: proxy read failed")
				continue
			}
			if _, writeErr := stream.Write(data); writeErr != nil {
				log.WithError(writeErr).Debug("spdy: stream write failed")
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

// echoInboundToOutbound is the default handling for a stream no OnStream
// hook claimed: whatever arrives inbound is sent straight back out.
func echoInboundToOutbound(c *Conn, log *logrus.Entry) {
	for {
		var out []chunk.Chunk
		_, err := c.In.Receive(c.InRecv, &out, beam.Block(), 0)
		if len(out) > 0 {
			if sendErr := c.Out.Send(c.OutSender, out, beam.Block()); sendErr != nil {
				log.WithError(sendErr).Debug("spdy: echo send failed")
				return
			}
		}
		if err == io.EOF {
			c.Out.Close(c.OutSender)
			return
		}
		if err == beam.ErrConnectionAborted {
			c.Out.Abort(c.OutSender)
			return
		}
	}
}
