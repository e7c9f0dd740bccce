package beam

import (
	"time"

	"github.com/docker/h2beam/chunk"
)

// Send admits chunks, in order, from the sender endpoint. mode controls
// what happens when the send queue is full: Block() waits until space
// frees up, NonBlock() returns ErrWouldBlock immediately, and
// TimedBlock(d) bounds each wait by d, returning ErrTimeout on expiry.
func (b *Beam) Send(from Endpoint, chunks []chunk.Chunk, mode BlockMode) error {
	if from != b.from {
		return ErrWrongEndpoint
	}

	b.mu.Lock()
	drainListLocked(b.purge)

	if b.aborted {
		for _, c := range chunks {
			b.hold.PushBack(c)
		}
		b.mu.Unlock()
		return ErrConnectionAborted
	}
	if b.closed {
		for _, c := range chunks {
			b.hold.PushBack(c)
		}
		b.mu.Unlock()
		return nil
	}

	wasEmpty := b.emptyLocked()
	transitioned := false

	for _, c := range chunks {
		if err := b.admitOneLocked(c, mode); err != nil {
			b.mu.Unlock()
			return err
		}
	}

	if wasEmpty && !b.emptyLocked() {
		transitioned = true
	}

	b.cond.Broadcast()
	b.mu.Unlock()

	if transitioned {
		b.fireWasEmpty()
	}
	b.reportConsumption()
	return nil
}

// admitOneLocked implements the per-chunk admission algorithm of the
// admission table. Called with b.mu held; may release and reacquire it
// while waiting for space or while firing was_empty_cb/send_block_cb.
func (b *Beam) admitOneLocked(c chunk.Chunk, mode BlockMode) error {
	for {
		left := b.spaceLeftLocked()
		if left != 0 {
			break
		}
		drainListLocked(b.purge)
		left = b.spaceLeftLocked()
		if left != 0 {
			break
		}

		wasEmptyBeforeWait := b.emptyLocked()

		switch mode.kind {
		case blockNone:
			return ErrWouldBlock
		case blockIndefinite:
			b.fireSendBlockLocked()
			if wasEmptyBeforeWait {
				b.fireWasEmptyLocked()
			}
			b.cond.Wait()
		case blockTimed:
			b.fireSendBlockLocked()
			if wasEmptyBeforeWait {
				b.fireWasEmptyLocked()
			}
			if !condWaitTimeout(b.cond, mode.timeout) {
				return ErrTimeout
			}
		}
		if b.aborted {
			return ErrConnectionAborted
		}
	}

	switch v := c.(type) {
	case nil:
		return nil
	default:
		return b.admitClassifiedLocked(v)
	}
}

func (b *Beam) admitClassifiedLocked(c chunk.Chunk) error {
	if c.Length() == 0 && !chunk.IsMetadata(c) {
		return nil // zero-length data chunk: drop silently (B4)
	}

	if chunk.IsMetadata(c) {
		b.send.PushBack(c)
		return nil
	}

	switch c.Kind() {
	case chunk.KindHeap:
		if r, ok := c.(chunk.Rehomable); ok {
			if err := r.SetAside(b.scope); err != nil {
				return err
			}
		}
		b.send.PushBack(c)
		b.sentBytes += c.Length()
		return nil

	case chunk.KindFile:
		return b.admitFileLocked(c.(*chunk.File))

	case chunk.KindMmap:
		return b.admitMmapLocked(c.(*chunk.Mmap))

	case chunk.KindExternal:
		return b.admitExternalLocked(c)

	default:
		b.send.PushBack(c)
		if l := c.Length(); l > 0 {
			b.sentBytes += l
		}
		return nil
	}
}

func (b *Beam) admitFileLocked(f *chunk.File) error {
	if !b.cfg.CopyFiles && f.RefCount() == 1 {
		if err := f.SetAside(b.scope); err != nil {
			return err
		}
		b.send.PushBack(f)
		b.sentBytes += f.Length()
		return nil
	}
	return b.admitMustCopySplitLocked(f)
}

func (b *Beam) admitMmapLocked(m *chunk.Mmap) error {
	if !b.cfg.CopyFiles {
		if err := m.SetAside(b.scope); err != nil {
			return err
		}
		b.send.PushBack(m)
		b.sentBytes += m.Length()
		return nil
	}
	return b.admitMustCopySplitLocked(m)
}

// admitMustCopySplitLocked handles the "must copy" admission class: the
// chunk is split so its length fits the remaining space_left, the fitted
// head is admitted as-is (at receive time a file is handed over as a new
// chunk.File on the same handle, an mmap as the same value; see
// rehomeFile/rehomeMmap), and any remainder is recursively admitted
// against whatever space remains after.
func (b *Beam) admitMustCopySplitLocked(c chunk.Chunk) error {
	left := b.spaceLeftLocked()
	if left < 0 || c.Length() <= left {
		b.send.PushBack(c)
		b.sentBytes += c.Length()
		return nil
	}
	s, ok := c.(chunk.Splittable)
	if !ok {
		b.send.PushBack(c)
		b.sentBytes += c.Length()
		return nil
	}
	tail, err := s.Split(left)
	if err != nil {
		return err
	}
	b.send.PushBack(c)
	b.sentBytes += c.Length()
	return b.admitMustCopySplitLocked(tail)
}

func (b *Beam) admitExternalLocked(c chunk.Chunk) error {
	r, ok := c.(chunk.Readable)
	if !ok {
		b.send.PushBack(c)
		if l := c.Length(); l > 0 {
			b.sentBytes += l
		}
		return nil
	}

	if c.Length() < 0 {
		buf, err := r.Read(true)
		if err != nil {
			return err
		}
		b.send.PushBack(chunk.WrapHeap(buf))
		b.sentBytes += int64(len(buf))
		return nil
	}

	left := b.spaceLeftLocked()
	if left >= 0 && c.Length() > left {
		if s, ok := c.(chunk.Splittable); ok {
			tail, err := s.Split(left)
			if err != nil {
				return err
			}
			if err := b.admitExternalReadLocked(c, r); err != nil {
				return err
			}
			return b.admitExternalLocked(tail)
		}
	}
	return b.admitExternalReadLocked(c, r)
}

func (b *Beam) admitExternalReadLocked(c chunk.Chunk, r chunk.Readable) error {
	buf, err := r.Read(true)
	if err != nil {
		return err
	}
	b.send.PushBack(chunk.WrapHeap(buf))
	b.sentBytes += int64(len(buf))
	return nil
}

// BlockMode selects the blocking discipline of a Send or Receive call.
type BlockMode struct {
	kind    blockKind
	timeout time.Duration
}

type blockKind int

const (
	blockIndefinite blockKind = iota
	blockNone
	blockTimed
)

// Block waits indefinitely for space or data.
func Block() BlockMode { return BlockMode{kind: blockIndefinite} }

// NonBlock returns ErrWouldBlock immediately rather than suspending.
func NonBlock() BlockMode { return BlockMode{kind: blockNone} }

// TimedBlock waits up to d, returning ErrTimeout on expiry. If d is zero
// it behaves like Block.
func TimedBlock(d time.Duration) BlockMode {
	if d <= 0 {
		return Block()
	}
	return BlockMode{kind: blockTimed, timeout: d}
}

func (b *Beam) fireWasEmpty() {
	f, ctx := b.cb.getWasEmpty()
	if f == nil {
		return
	}
	if b.cbDisabledSnapshot() {
		return
	}
	f(ctx, b)
}

func (b *Beam) fireWasEmptyLocked() {
	f, ctx := b.cb.getWasEmpty()
	if f == nil || b.cbDisabled {
		return
	}
	b.mu.Unlock()
	f(ctx, b)
	b.mu.Lock()
}

func (b *Beam) fireSendBlockLocked() {
	f, ctx := b.cb.getSendBlock()
	if f == nil || b.cbDisabled {
		return
	}
	b.mu.Unlock()
	f(ctx, b)
	b.mu.Lock()
}

func (b *Beam) cbDisabledSnapshot() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cbDisabled
}
