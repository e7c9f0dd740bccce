package beam

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/docker/h2beam/chunk"
)

// Proxy is a receiver-side handle borrowing a sender-owned chunk. Reading
// through it reads the sender's bytes directly; dropping the last
// reference to it (Close) tells the beam the receiver is done with the
// underlying sender chunk, which may let the sender release it.
//
// A Proxy's beam and bsender back-references are cleared ("neutralized")
// by sender teardown if the beam goes away while the proxy is still
// live; after that, reads report connection-reset and Close is a no-op.
type Proxy struct {
	seq      int64
	refcount int32

	mu      sync.Mutex
	beam    *Beam
	bsender chunk.Chunk
	elem    *list.Element // this proxy's element in beam.proxies
}

func newProxy(b *Beam, seq int64, bsender chunk.Chunk) *Proxy {
	return &Proxy{seq: seq, refcount: 1, beam: b, bsender: bsender}
}

// Kind reports the borrowed chunk's kind, or KindErrorMeta if the proxy
// has been neutralized (sender torn down while this proxy was still
// live): a dead proxy carries no data, so it classifies as metadata
// rather than panicking on a nil bsender.
func (p *Proxy) Kind() chunk.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bsender == nil {
		return chunk.KindErrorMeta
	}
	return p.bsender.Kind()
}

func (p *Proxy) Length() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bsender == nil {
		return 0
	}
	return p.bsender.Length()
}

// Seq returns the proxy's monotonically increasing sequence number,
// assigned from the beam's buckets_sent counter at receive time.
func (p *Proxy) Seq() int64 { return p.seq }

// Ref increments the proxy's refcount; the underlying chunk is released
// only once every Ref has a matching Close.
func (p *Proxy) Ref() *Proxy {
	atomic.AddInt32(&p.refcount, 1)
	return p
}

// Read materializes bytes from the borrowed sender chunk. If the beam has
// neutralized this proxy (sender torn down while the proxy was still
// live), Read reports connection-reset instead of touching freed memory.
func (p *Proxy) Read(block bool) ([]byte, error) {
	p.mu.Lock()
	b, bsender := p.beam, p.bsender
	p.mu.Unlock()
	if b == nil || bsender == nil {
		return nil, ErrConnectionReset
	}
	readable, ok := bsender.(chunk.Readable)
	if !ok {
		return nil, ErrConnectionReset
	}
	return readable.Read(block)
}

// Close drops one reference to the proxy. When the last reference drops,
// the proxy removes itself from the beam's outstanding-proxy list and,
// if its sender chunk is still live, asks the beam to move that chunk and
// every metadata chunk ahead of it in hold into purge (the "emitted" sweep
// of §4.5).
func (p *Proxy) Close() error {
	if atomic.AddInt32(&p.refcount, -1) > 0 {
		return nil
	}

	p.mu.Lock()
	b := p.beam
	bsender := p.bsender
	p.beam = nil
	p.bsender = nil
	p.mu.Unlock()

	if b == nil {
		return nil
	}
	b.releaseProxy(p, bsender)
	return nil
}

// neutralize clears the proxy's back-references without touching the
// beam's queues. Called by sender teardown while walking the outstanding
// proxy list, with the beam's lock already held.
func (p *Proxy) neutralize() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.beam = nil
	p.bsender = nil
}
