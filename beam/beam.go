// Package beam implements a single-producer, single-consumer cross-thread
// byte-stream conduit. A sender goroutine admits data and metadata chunks;
// a receiver goroutine drains them under a bounded-buffer backpressure
// discipline, borrowing sender memory through Proxy handles rather than
// copying it, wherever that is safe to do.
package beam

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/Sirupsen/logrus"

	"github.com/docker/h2beam/chunk"
)

// Endpoint identifies one side of a beam. The zero value is never a valid
// endpoint; Create returns the sender endpoint that must be passed to
// every sender-only call.
type Endpoint struct {
	name string
}

func (e Endpoint) String() string { return e.name }

// Config holds the tunables a beam is created or later adjusted with.
type Config struct {
	// MaxBufSize bounds the memory footprint of the send queue. Zero
	// means unbounded: sends never block for space.
	MaxBufSize int64
	// Timeout is the beam's stored timeout setting (also set by
	// SetTimeout). No Send or Receive wait reads it: a timed wait is
	// bounded by the duration passed to TimedBlock, and Block() waits
	// indefinitely whatever Timeout holds.
	Timeout time.Duration
	// CopyFiles forces file and mmap chunks to always be treated as
	// "must copy" rather than borrowed, regardless of refcount.
	CopyFiles bool
	// TxMemLimits selects which cost function bounds the overflow-trim
	// walk in Receive: true costs file/mmap chunks at zero (matching
	// mem_used's accounting, see GetMemUsed), false costs every chunk at
	// its raw length.
	TxMemLimits bool
	// Log receives beam diagnostics. Defaults to a standard logrus
	// entry tagged with the beam's identity if nil.
	Log *logrus.Entry
}

// Beam is the cross-thread conduit. See the package doc and the queue
// field comments below for the queue discipline it implements.
type Beam struct {
	id, tag string
	from    Endpoint

	mu   sync.Mutex
	cond *sync.Cond

	send    *list.List // chunk.Chunk, sender thread appends, receiver removes
	hold    *list.List // chunk.Chunk, receiver-borrowed, sender-owned
	purge   *list.List // chunk.Chunk, ready for sender-thread destruction
	recv    *list.List // chunk.Chunk, receiver-owned overflow
	proxies *list.List // *Proxy, outstanding live proxies

	cfg Config

	closed      bool
	aborted     bool
	closeSent   bool
	cbDisabled  bool // set during scope teardown to suppress re-entry

	sentBytes         int64
	receivedBytes     int64
	consBytesReported int64
	bucketsSent       int64

	scope *chunk.Scope

	cb callbacks

	log *logrus.Entry
}

// Create allocates a beam for a sender identified by endpoint name id/tag
// (used only in logs) and returns it along with the Endpoint value that
// must be passed to every sender-only call.
func Create(id, tag string, cfg Config) (*Beam, Endpoint) {
	from := Endpoint{name: fmt.Sprintf("%s/%s/sender", id, tag)}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger().WithField("component", "beam")
	}
	b := &Beam{
		id:    id,
		tag:   tag,
		from:  from,
		send:  list.New(),
		hold:  list.New(),
		purge: list.New(),
		recv:  list.New(),
		proxies: list.New(),
		cfg:   cfg,
		scope: chunk.NewScope(),
		log:   log.WithField("beam", fmt.Sprintf("%s/%s", id, tag)),
	}
	b.cond = sync.NewCond(&b.mu)
	b.log.Info("beam created")
	return b, from
}

// Receiver returns the Endpoint identity the receiving side should pass
// to Close/Receive. It never equals the sender Endpoint returned by
// Create, so Close can tell the two apart.
func (b *Beam) Receiver() Endpoint {
	return Endpoint{name: fmt.Sprintf("%s/%s/receiver", b.id, b.tag)}
}

func (b *Beam) String() string {
	return fmt.Sprintf("beam(%s/%s)", b.id, b.tag)
}

// SetBufferSize adjusts the backpressure threshold. A shrink below the
// current send-queue footprint does not retroactively evict anything; it
// only changes future space_left computations. n must be non-negative;
// zero means unbounded, matching Config.MaxBufSize.
func (b *Beam) SetBufferSize(n int64) error {
	if n < 0 {
		return ErrInvalidArgument
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg.MaxBufSize = n
	return nil
}

func (b *Beam) SetTimeout(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg.Timeout = d
}

func (b *Beam) SetCopyFiles(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg.CopyFiles = v
}

// SetConsIOCallback registers the sender notification for bytes consumed
// since the last report.
func (b *Beam) SetConsIOCallback(f ConsIOFunc, ctx interface{}) {
	b.cb.setConsIO(f, ctx)
}

// SetConsEventCallback registers the sender notification for new buckets
// having just been handed to the receiver.
func (b *Beam) SetConsEventCallback(f ConsEventFunc, ctx interface{}) {
	b.cb.setConsEvent(f, ctx)
}

// SetWasEmptyCallback registers the sender notification for an
// empty-to-non-empty transition.
func (b *Beam) SetWasEmptyCallback(f WasEmptyFunc, ctx interface{}) {
	b.cb.setWasEmpty(f, ctx)
}

// SetSendBlockCallback registers the hook invoked just before the sender
// blocks waiting for space.
func (b *Beam) SetSendBlockCallback(f SendBlockFunc, ctx interface{}) {
	b.cb.setSendBlock(f, ctx)
}

// IsClosed reports whether close has been observed. Lock-guarded snapshot.
func (b *Beam) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// IsAborted reports whether abort has been observed.
func (b *Beam) IsAborted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.aborted
}

// GetBuffered returns buffered_data_len: the sum of length over every
// determinate-length chunk currently in the send queue.
func (b *Beam) GetBuffered() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bufferedDataLenLocked()
}

// GetMemUsed returns mem_used: the memory-pressure cost of the send
// queue, with file/mmap chunks contributing zero.
func (b *Beam) GetMemUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int64
	for e := b.send.Front(); e != nil; e = e.Next() {
		n += chunk.MemUsed(e.Value.(chunk.Chunk))
	}
	return n
}

func (b *Beam) bufferedDataLenLocked() int64 {
	var n int64
	for e := b.send.Front(); e != nil; e = e.Next() {
		if l := e.Value.(chunk.Chunk).Length(); l >= 0 {
			n += l
		}
	}
	return n
}

// backpressureBufferedLocked is the space_left accounting function: it
// excludes file/mmap chunks that admission decided to borrow, since those
// are accounted at zero memory cost, but includes "must copy" file/mmap
// chunks, which were already length-checked against space_left at
// admission time.
func (b *Beam) backpressureBufferedLocked() int64 {
	var n int64
	for e := b.send.Front(); e != nil; e = e.Next() {
		c := e.Value.(chunk.Chunk)
		if bw, ok := c.(chunk.Borrowable); ok && bw.IsBorrowed() {
			continue
		}
		if l := c.Length(); l >= 0 {
			n += l
		}
	}
	return n
}

func (b *Beam) spaceLeftLocked() int64 {
	if b.cfg.MaxBufSize == 0 {
		return -1 // unbounded; callers must treat negative as "infinite"
	}
	left := b.cfg.MaxBufSize - b.backpressureBufferedLocked()
	if left < 0 {
		return 0
	}
	return left
}

func (b *Beam) emptyLocked() bool {
	return b.send.Len() == 0 && b.recv.Len() == 0
}

// Empty reports whether both the send queue and the receiver's overflow
// buffer are drained.
func (b *Beam) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.emptyLocked()
}

// WaitEmpty blocks until the beam is empty, used by tests and by
// teardown. It does not itself tear anything down.
func (b *Beam) WaitEmpty() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for !b.emptyLocked() && !b.aborted {
		b.cond.Wait()
	}
}

// Destroy is the explicit-destroy teardown path: unregister nothing
// further (the caller owns the scope reference), then run sender
// cleanup.
func (b *Beam) Destroy() {
	b.senderCleanup()
}

// senderCleanup drains purge and send (destroying those chunks on this,
// the sender thread), then neutralizes every outstanding proxy so it
// reports connection-reset on read and no-ops on Close.
func (b *Beam) senderCleanup() {
	b.mu.Lock()
	drainListLocked(b.purge)
	drainListLocked(b.send)
	for e := b.proxies.Front(); e != nil; e = e.Next() {
		e.Value.(*Proxy).neutralize()
	}
	b.proxies.Init()
	drainListLocked(b.purge)
	drainListLocked(b.hold)
	b.cond.Broadcast()
	b.mu.Unlock()

	b.scope.Release()
	b.log.Debug("sender cleanup complete")
}

// DisableCallbacks suppresses further callback invocation, used by scope
// teardown to prevent re-entry into user code while the scope itself is
// being destroyed.
func (b *Beam) DisableCallbacks() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cbDisabled = true
}

func drainListLocked(l *list.List) {
	for e := l.Front(); e != nil; e = l.Front() {
		l.Remove(e)
		if closer, ok := e.Value.(interface{ Close() error }); ok {
			closer.Close()
		}
	}
}
