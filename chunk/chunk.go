// Package chunk implements the bucket-like value types that flow through a
// beam: opaque data buffers and metadata markers, plus the lifecycle scopes
// they can be re-homed into when ownership crosses a thread boundary.
package chunk

// Kind classifies a Chunk the way the beam needs to reason about it: how
// it must be admitted, whether it is safe to read from a foreign thread,
// and whether it counts against memory pressure.
type Kind int

const (
	KindHeap Kind = iota
	KindFile
	KindMmap
	KindExternal
	KindEOS
	KindFlush
	KindErrorMeta
)

func (k Kind) String() string {
	switch k {
	case KindHeap:
		return "heap"
	case KindFile:
		return "file"
	case KindMmap:
		return "mmap"
	case KindExternal:
		return "external"
	case KindEOS:
		return "eos"
	case KindFlush:
		return "flush"
	case KindErrorMeta:
		return "error"
	default:
		return "unknown"
	}
}

// Chunk is the unit of transfer on a beam. It is either a data chunk
// carrying bytes (Heap, File, Mmap, External) or a metadata chunk carrying
// no payload (EOS, Flush, ErrorMeta).
type Chunk interface {
	Kind() Kind
	// Length reports the chunk's length in bytes, or -1 if unknown until
	// the chunk is first read (only External chunks may report -1).
	Length() int64
}

// IsMetadata reports whether c is an end-of-stream, flush or error marker.
func IsMetadata(c Chunk) bool {
	switch c.Kind() {
	case KindEOS, KindFlush, KindErrorMeta:
		return true
	}
	return false
}

// MemUsed is the memory-pressure cost of c: zero for file and mmap chunks
// (they have no footprint until read), otherwise the chunk's length.
func MemUsed(c Chunk) int64 {
	switch c.Kind() {
	case KindFile, KindMmap:
		return 0
	default:
		if l := c.Length(); l >= 0 {
			return l
		}
		return 0
	}
}

// Splittable chunks can be divided at a byte offset: the receiver keeps the
// first `at` bytes and a new chunk is returned holding the remainder.
type Splittable interface {
	Split(at int64) (Chunk, error)
}

// Readable chunks can materialize their bytes, optionally blocking to do
// so. Heap chunks already have their bytes; file/mmap/external chunks may
// need to read or wait.
type Readable interface {
	Read(block bool) ([]byte, error)
}

// Rehomable chunks can be migrated to a different lifecycle Scope so they
// may safely outlive the scope that created them.
type Rehomable interface {
	SetAside(s *Scope) error
	Scope() *Scope
}

// RefCounted chunks report how many distinct handles alias the same
// backing storage. A refcount greater than one means the beam is not the
// sole owner and must not borrow the chunk across threads.
type RefCounted interface {
	RefCount() int32
}

// Borrowable chunks (file, mmap) record whether admission borrowed them
// (re-homed to the beam's scope, safe to hand out as a proxy) rather than
// scheduling them to be copied at receive time.
type Borrowable interface {
	IsBorrowed() bool
}
