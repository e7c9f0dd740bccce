package beam

import (
	"github.com/docker/h2beam/chunk"
)

// releaseProxy implements the proxy-destruction protocol of §4.5: locate
// bsender in hold, then move every metadata chunk ahead of bsender, and
// bsender itself, from hold into purge. Data chunks ahead of bsender stay
// in hold until their own proxies are released, so data chunks are
// released out of order relative to each other.
func (b *Beam) releaseProxy(p *Proxy, bsender chunk.Chunk) {
	b.mu.Lock()

	if p.elem != nil {
		b.proxies.Remove(p.elem)
		p.elem = nil
	}

	if bsender == nil {
		b.mu.Unlock()
		return
	}

	var found bool
	for e := b.hold.Front(); e != nil; e = e.Next() {
		if e.Value == bsender {
			found = true
			break
		}
	}
	if !found {
		// Assertion failure per the error-handling design: log and
		// no-op defensively rather than corrupt the queues.
		b.log.WithField("seq", p.seq).Warn("proxy release: bsender not found in hold")
		b.mu.Unlock()
		return
	}

	// Sweep every leading metadata chunk (no proxy ever pins one) and
	// skip leading data chunks that are not the released target - they
	// are still pinned by their own live proxies, and data chunks may
	// be released out of order among themselves but never past a
	// metadata boundary. Stop once the target itself has been swept.
	for e := b.hold.Front(); e != nil; {
		next := e.Next()
		c := e.Value.(chunk.Chunk)
		if c == bsender {
			b.hold.Remove(e)
			b.purge.PushBack(c)
			break
		}
		if chunk.IsMetadata(c) {
			b.hold.Remove(e)
			b.purge.PushBack(c)
		}
		e = next
	}

	b.cond.Broadcast()
	b.mu.Unlock()
}
