package beam

import "github.com/docker/h2beam/chunk"

// splitOutChunkLocked divides c at byte offset at for the overflow-trim
// step of Receive. For an ordinary chunk this is just chunk.Splittable.
// For a Proxy, the split must happen on the underlying sender-owned
// chunk it borrows, producing a second proxy over the remainder so the
// receiver can still read it once the overflow buffer replays it. Called
// with b.mu held.
func (b *Beam) splitOutChunkLocked(c chunk.Chunk, at int64) (head, tail chunk.Chunk, ok bool) {
	p, isProxy := c.(*Proxy)
	if !isProxy {
		s, splittable := c.(chunk.Splittable)
		if !splittable {
			return nil, nil, false
		}
		t, err := s.Split(at)
		if err != nil {
			return nil, nil, false
		}
		return c, t, true
	}

	p.mu.Lock()
	bsender := p.bsender
	p.mu.Unlock()
	if bsender == nil {
		return nil, nil, false
	}
	s, splittable := bsender.(chunk.Splittable)
	if !splittable {
		return nil, nil, false
	}
	tailSender, err := s.Split(at)
	if err != nil {
		return nil, nil, false
	}

	b.hold.PushBack(tailSender)
	b.bucketsSent++
	tailProxy := newProxy(b, b.bucketsSent, tailSender)
	tailProxy.elem = b.proxies.PushBack(tailProxy)

	return p, tailProxy, true
}
