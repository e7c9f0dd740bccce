package chunk

import (
	"os"

	"golang.org/x/sys/unix"
)

// Mmap is a chunk backed by a memory-mapped file region. Unlike File it
// has no refcount check: SetAside marks it borrowable (handed to the
// receiver as a proxy onto the same mapping) unless copyFiles is set.
type Mmap struct {
	data      []byte
	region    []byte // the whole page-aligned mapping returned by unix.Mmap
	f         *os.File
	copyFiles bool
	borrowed  bool
	scope     *Scope
	mapped    bool
}

// NewMmap maps length bytes of f starting at off. The caller retains
// ownership of f; the mapping itself is released by the Scope it is set
// aside into, or by unmap if it is never admitted to a beam.
func NewMmap(f *os.File, off, length int64) (*Mmap, error) {
	// mmap(2) needs a page-aligned offset: map from the page boundary at
	// or below off and slice the requested range out of that region.
	pageOff := off % int64(os.Getpagesize())
	region, err := unix.Mmap(int(f.Fd()), off-pageOff, int(length+pageOff), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &Mmap{data: region[pageOff:], region: region, f: f, mapped: true}, nil
}

func (c *Mmap) Kind() Kind     { return KindMmap }
func (c *Mmap) Length() int64  { return int64(len(c.data)) }
func (c *Mmap) Scope() *Scope  { return c.scope }
func (c *Mmap) IsBorrowed() bool { return c.borrowed }

// SetAside re-homes the mapping into s. It fails with ErrClosed if s has
// already been released, since the mapping cannot safely outlive a scope
// that no longer exists.
func (c *Mmap) SetAside(s *Scope) error {
	if !s.trackMmap(c) {
		return ErrClosed
	}
	c.borrowed = !c.copyFiles
	c.scope = s
	return nil
}

func (c *Mmap) Read(block bool) ([]byte, error) {
	return c.data, nil
}

func (c *Mmap) Split(at int64) (Chunk, error) {
	if at < 0 || at > int64(len(c.data)) {
		return nil, ErrInvalidArgument
	}
	tail := &Mmap{data: c.data[at:], f: c.f, copyFiles: c.copyFiles}
	c.data = c.data[:at]
	return tail, nil
}

func (c *Mmap) unmap() {
	if !c.mapped {
		return
	}
	c.mapped = false
	unix.Munmap(c.region)
}
