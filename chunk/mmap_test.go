package chunk

import (
	"os"
	"testing"
)

func tempMappedFile(t *testing.T, content string) *os.File {
	t.Helper()
	f, err := os.CreateTemp("", "chunk-mmap-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Remove(f.Name()) })
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestMmapReadReturnsMappedRegion(t *testing.T) {
	f := tempMappedFile(t, "hello mmap world")
	defer f.Close()

	c, err := NewMmap(f, 6, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer c.unmap()

	if c.Length() != 4 {
		t.Fatalf("length = %d, want 4", c.Length())
	}
	got, err := c.Read(true)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "mmap" {
		t.Fatalf("read = %q, want %q", got, "mmap")
	}
}

func TestMmapSetAsideBorrowsWhenNotCopying(t *testing.T) {
	f := tempMappedFile(t, "hello mmap world")
	defer f.Close()

	c, err := NewMmap(f, 0, int64(len("hello mmap world")))
	if err != nil {
		t.Fatal(err)
	}
	defer c.unmap()

	s := NewScope()
	if err := c.SetAside(s); err != nil {
		t.Fatal(err)
	}
	if !c.IsBorrowed() {
		t.Fatal("mmap chunk with copyFiles=false should be borrowed")
	}
	if c.Scope() != s {
		t.Fatal("Scope() should return the scope passed to SetAside")
	}
}

func TestMmapSplitDividesDataAndSharesFile(t *testing.T) {
	f := tempMappedFile(t, "hello mmap world")
	defer f.Close()

	c, err := NewMmap(f, 0, int64(len("hello mmap world")))
	if err != nil {
		t.Fatal(err)
	}
	defer c.unmap()

	tail, err := c.Split(6)
	if err != nil {
		t.Fatal(err)
	}
	if c.Length() != 6 {
		t.Fatalf("head length = %d, want 6", c.Length())
	}
	tm := tail.(*Mmap)
	if tm.Length() != int64(len("mmap world")) {
		t.Fatalf("tail length = %d, want %d", tm.Length(), len("mmap world"))
	}
	if tm.f != c.f {
		t.Fatal("split should keep the tail pointed at the same underlying file")
	}

	head, err := c.Read(true)
	if err != nil {
		t.Fatal(err)
	}
	if string(head) != "hello " {
		t.Fatalf("head read = %q, want %q", head, "hello ")
	}
	tailData, err := tm.Read(true)
	if err != nil {
		t.Fatal(err)
	}
	if string(tailData) != "mmap world" {
		t.Fatalf("tail read = %q, want %q", tailData, "mmap world")
	}
}

func TestMmapSplitRejectsOutOfRangeOffset(t *testing.T) {
	f := tempMappedFile(t, "short")
	defer f.Close()

	c, err := NewMmap(f, 0, int64(len("short")))
	if err != nil {
		t.Fatal(err)
	}
	defer c.unmap()

	if _, err := c.Split(-1); err != ErrInvalidArgument {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if _, err := c.Split(int64(len("short")) + 1); err != ErrInvalidArgument {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestMmapSetAsideFailsOnReleasedScope(t *testing.T) {
	f := tempMappedFile(t, "hello mmap world")
	defer f.Close()

	c, err := NewMmap(f, 0, int64(len("hello mmap world")))
	if err != nil {
		t.Fatal(err)
	}
	defer c.unmap()

	s := NewScope()
	s.Release()

	if err := c.SetAside(s); err != ErrClosed {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestMmapUnmapIsIdempotent(t *testing.T) {
	f := tempMappedFile(t, "hello mmap world")
	defer f.Close()

	c, err := NewMmap(f, 0, int64(len("hello mmap world")))
	if err != nil {
		t.Fatal(err)
	}
	c.unmap()
	c.unmap()
}
