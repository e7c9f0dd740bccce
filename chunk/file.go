package chunk

import (
	"os"
	"sync/atomic"
)

// File is a chunk backed by a range of an open file. It carries a refcount
// shared by the File returned from NewFile and every File split from it
// (each Split adds one; nothing decrements it). Separate NewFile calls on
// the same *os.File each start their own count at 1. The beam's admission
// algorithm only borrows a file chunk (hands the receiver a proxy onto the
// same fd) while that count is 1.
type File struct {
	f          *os.File
	off, length int64
	refcount   *int32
	copyFiles  bool
	borrowed   bool
	scope      *Scope
}

// NewFile wraps a byte range of f. copyFiles forces the "must copy"
// admission class regardless of refcount, matching a beam configured to
// never hand out file-backed proxies across threads.
func NewFile(f *os.File, off, length int64, copyFiles bool) *File {
	rc := int32(1)
	return &File{f: f, off: off, length: length, refcount: &rc, copyFiles: copyFiles}
}

func (c *File) Kind() Kind    { return KindFile }
func (c *File) Length() int64 { return c.length }
func (c *File) Scope() *Scope { return c.scope }

// Handle and Offset expose the backing descriptor and byte offset so a
// receiver can construct its own re-homed reference onto the same file.
func (c *File) Handle() *os.File { return c.f }
func (c *File) Offset() int64    { return c.off }

func (c *File) RefCount() int32 {
	return atomic.LoadInt32(c.refcount)
}

func (c *File) addRef() *File {
	atomic.AddInt32(c.refcount, 1)
	dup := *c
	return &dup
}

// IsBorrowed reports whether admission decided this chunk could be handed
// to the receiver as a proxy onto the same file descriptor. It is only
// meaningful after SetAside has run.
func (c *File) IsBorrowed() bool { return c.borrowed }

// SetAside re-homes the file into s. A file is borrowable only when the
// beam was not configured to copy files and its refcount is 1 at the
// moment of admission. It fails with ErrClosed if
// s has already been released, since the chunk cannot safely outlive a
// scope that no longer exists.
func (c *File) SetAside(s *Scope) error {
	if !s.trackFile(c.f) {
		return ErrClosed
	}
	c.borrowed = !c.copyFiles && c.RefCount() == 1
	c.scope = s
	return nil
}

func (c *File) Read(block bool) ([]byte, error) {
	buf := make([]byte, c.length)
	n, err := c.f.ReadAt(buf, c.off)
	if err != nil && n == 0 {
		return nil, err
	}
	return buf[:n], nil
}

func (c *File) Split(at int64) (Chunk, error) {
	if at < 0 || at > c.length {
		return nil, ErrInvalidArgument
	}
	tail := c.addRef()
	tail.off = c.off + at
	tail.length = c.length - at
	c.length = at
	return tail, nil
}
