package beam

import (
	"container/list"
	"io"

	"github.com/docker/h2beam/chunk"
)

// Receive transfers chunks to the receiver endpoint, appending them to
// *out up to readBytes bytes (0 means unbounded), honoring
// mode's blocking discipline. It reports whether the beam is now closed.
func (b *Beam) Receive(from Endpoint, out *[]chunk.Chunk, mode BlockMode, readBytes int64) (closedOut bool, err error) {
	if readBytes < 0 {
		return false, ErrInvalidArgument
	}
	remain := readBytes
	if readBytes == 0 {
		remain = -1 // sentinel: unbounded
	}

	b.mu.Lock()
	for {
		if b.aborted {
			drainListLocked(b.recv)
			closedOut = b.closed
			b.mu.Unlock()
			return closedOut, ErrConnectionAborted
		}

		before := len(*out)
		movedToHold := false

		remain = b.drainOverflowLocked(out, remain)
		moved := b.translateFromSendLocked(out, &remain)
		movedToHold = movedToHold || moved

		if remain >= 0 {
			b.trimOverflowLocked(out, before, readBytes)
		}

		if b.closed && b.emptyLocked() && !b.closeSent {
			*out = append(*out, chunk.EOSChunk{})
			b.closeSent = true
		}

		transferred := len(*out) > before

		if transferred {
			b.cond.Broadcast()
			closedOut = b.closed
			b.mu.Unlock()
			if movedToHold {
				b.fireConsEvent()
			}
			b.reportConsumption()
			return closedOut, nil
		}

		if b.closed {
			closedOut = true
			b.mu.Unlock()
			return closedOut, io.EOF
		}

		switch mode.kind {
		case blockNone:
			b.mu.Unlock()
			return false, ErrWouldBlock
		case blockIndefinite:
			b.cond.Wait()
		case blockTimed:
			if !condWaitTimeout(b.cond, mode.timeout) {
				b.mu.Unlock()
				return false, ErrTimeout
			}
		}
	}
}

// drainOverflowLocked pops chunks previously trimmed into recv, in
// order, appending them to out until remain is exhausted. remain < 0
// means unbounded.
func (b *Beam) drainOverflowLocked(out *[]chunk.Chunk, remain int64) int64 {
	for remain != 0 {
		e := b.recv.Front()
		if e == nil {
			break
		}
		c := e.Value.(chunk.Chunk)
		if c.Length() > 0 && remain == 0 {
			break
		}
		b.recv.Remove(e)
		*out = append(*out, c)
		if remain > 0 {
			remain -= c.Length()
			if remain < 0 {
				remain = 0
			}
		}
	}
	return remain
}

// translateFromSendLocked implements the per-chunk translation loop of
// the receive path (§4.4 step 3). Returns whether anything was moved to
// hold or purge (i.e. whether cons_ev_cb should fire).
func (b *Beam) translateFromSendLocked(out *[]chunk.Chunk, remain *int64) bool {
	moved := false
	for *remain != 0 {
		e := b.send.Front()
		if e == nil {
			break
		}
		c := e.Value.(chunk.Chunk)

		if c.Length() > 0 && *remain == 0 {
			break
		}

		b.send.Remove(e)

		switch {
		case chunk.IsMetadata(c):
			*out = append(*out, c)
			if c.Kind() == chunk.KindEOS {
				b.closeSent = true
			}
			b.hold.PushBack(c)
			moved = true

		case c.Length() == 0:
			b.hold.PushBack(c)
			moved = true

		case c.Kind() == chunk.KindFile && !isBorrowed(c):
			*out = append(*out, rehomeFile(c.(*chunk.File)))
			b.hold.PushBack(c)
			b.receivedBytes += c.Length()
			moved = true

		case c.Kind() == chunk.KindMmap && !isBorrowed(c):
			*out = append(*out, rehomeMmap(c.(*chunk.Mmap)))
			b.hold.PushBack(c)
			b.receivedBytes += c.Length()
			moved = true

		default:
			if translated, ok := b.tryProxyOrRegistryLocked(c); ok {
				*out = append(*out, translated...)
				b.hold.PushBack(c)
				b.receivedBytes += c.Length()
				moved = true
			} else {
				// Nothing could represent this chunk to the receiver;
				// drop it to purge directly rather than stall forever.
				b.purge.PushBack(c)
				moved = true
			}
		}

		if *remain > 0 {
			*remain -= c.Length()
			if *remain < 0 {
				*remain = 0
			}
		}
	}
	return moved
}

func isBorrowed(c chunk.Chunk) bool {
	bw, ok := c.(chunk.Borrowable)
	return ok && bw.IsBorrowed()
}

// rehomeFile produces the receiver-owned file reference inserted into out
// for a "must copy" file chunk: same offset/length, mmap translation
// disabled to avoid stale mappings if the backing file changes under it.
func rehomeFile(f *chunk.File) chunk.Chunk {
	return chunk.NewFile(f.Handle(), f.Offset(), f.Length(), true)
}

func rehomeMmap(m *chunk.Mmap) chunk.Chunk {
	// A "must copy" mmap (admitted under CopyFiles, never set aside)
	// reaches here unborrowed. It is handed to the receiver as the same
	// *chunk.Mmap value: no new mapping or copy is made, and the caller
	// also keeps that value in hold.
	return m
}

func (b *Beam) tryProxyOrRegistryLocked(c chunk.Chunk) ([]chunk.Chunk, bool) {
	switch c.Kind() {
	case chunk.KindHeap, chunk.KindFile, chunk.KindMmap:
		// File and mmap chunks only ever reach here already borrowed: the
		// explicit must-copy cases above route anything else to
		// rehomeFile/rehomeMmap first. Guard it anyway rather than hand
		// out a proxy onto a chunk admission never cleared for sharing.
		if bw, ok := c.(chunk.Borrowable); ok && !bw.IsBorrowed() {
			b.log.WithError(chunk.ErrNotBorrowed).Warn("beam: refusing to proxy an unborrowed chunk")
			return nil, false
		}
		b.bucketsSent++
		p := newProxy(b, b.bucketsSent, c)
		e := b.proxies.PushBack(p)
		p.elem = e
		return []chunk.Chunk{p}, true
	}
	return runBeamers(b, c)
}

// trimOverflowLocked enforces the readBytes budget: if more than
// readBytes worth of memory was appended to out since before, the
// surplus chunk is split and everything from the split point onward is
// moved into recv for the next call.
func (b *Beam) trimOverflowLocked(out *[]chunk.Chunk, before int, readBytes int64) {
	if readBytes <= 0 {
		return
	}
	var cost int64
	splitAt := -1
	var splitOffset int64
	for i := before; i < len(*out); i++ {
		c := (*out)[i]
		var chunkCost int64
		if b.cfg.TxMemLimits {
			chunkCost = chunk.MemUsed(c)
		} else if l := c.Length(); l >= 0 {
			chunkCost = l
		}
		if cost+chunkCost > readBytes {
			splitAt = i
			splitOffset = readBytes - cost
			break
		}
		cost += chunkCost
	}
	if splitAt < 0 {
		return
	}

	surplus := (*out)[splitAt]
	var head chunk.Chunk
	var tail chunk.Chunk
	if splitOffset > 0 {
		if h, t, ok := b.splitOutChunkLocked(surplus, splitOffset); ok {
			head, tail = h, t
		}
	}

	overflow := list.New()
	if tail != nil {
		overflow.PushBack(tail)
		(*out)[splitAt] = head
		splitAt++
	}
	for i := splitAt; i < len(*out); i++ {
		overflow.PushBack((*out)[i])
	}
	*out = (*out)[:splitAt]

	// recv must stay in order: chunks still queued in recv come after
	// this batch in the stream, so the new overflow goes in front of them.
	if b.recv.Len() == 0 {
		b.recv = overflow
	} else {
		b.recv.PushFrontList(overflow)
	}
}

func (b *Beam) fireConsEvent() {
	f, ctx := b.cb.getConsEvent()
	if f == nil {
		return
	}
	if b.cbDisabledSnapshot() {
		return
	}
	f(ctx, b)
}
