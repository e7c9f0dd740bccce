package chunk

import (
	"os"
	"testing"
)

func tempFileWithContent(t *testing.T, content string) *os.File {
	t.Helper()
	f, err := os.CreateTemp("", "chunk-file-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Remove(f.Name()) })
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestFileReadAt(t *testing.T) {
	f := tempFileWithContent(t, "hello world")
	defer f.Close()

	c := NewFile(f, 6, 5, false)
	if c.Length() != 5 {
		t.Fatalf("length = %d, want 5", c.Length())
	}
	got, err := c.Read(true)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "world" {
		t.Fatalf("read = %q, want %q", got, "world")
	}
}

func TestFileSetAsideBorrowsAtRefcountOne(t *testing.T) {
	f := tempFileWithContent(t, "hello world")
	defer f.Close()

	c := NewFile(f, 0, 11, false)
	s := NewScope()
	if err := c.SetAside(s); err != nil {
		t.Fatal(err)
	}
	if !c.IsBorrowed() {
		t.Fatal("refcount-1 file with copyFiles=false should be borrowed")
	}
}

func TestFileSetAsideNeverBorrowsWithCopyFiles(t *testing.T) {
	f := tempFileWithContent(t, "hello world")
	defer f.Close()

	c := NewFile(f, 0, 11, true)
	s := NewScope()
	c.SetAside(s)
	if c.IsBorrowed() {
		t.Fatal("copyFiles=true file should never be borrowed")
	}
}

func TestFileSplitSharesRefcount(t *testing.T) {
	f := tempFileWithContent(t, "hello world")
	defer f.Close()

	c := NewFile(f, 0, 11, false)
	tail, err := c.Split(5)
	if err != nil {
		t.Fatal(err)
	}
	if c.Length() != 5 {
		t.Fatalf("head length = %d, want 5", c.Length())
	}
	tf := tail.(*File)
	if tf.Length() != 6 {
		t.Fatalf("tail length = %d, want 6", tf.Length())
	}
	if c.RefCount() != 2 || tf.RefCount() != 2 {
		t.Fatalf("refcount after split = %d/%d, want 2/2", c.RefCount(), tf.RefCount())
	}

	got, _ := tf.Read(true)
	if string(got) != " world" {
		t.Fatalf("tail read = %q, want %q", got, " world")
	}
}

func TestFileSetAsideFailsOnReleasedScope(t *testing.T) {
	f := tempFileWithContent(t, "hello world")
	defer f.Close()

	s := NewScope()
	s.Release()

	c := NewFile(f, 0, 11, false)
	if err := c.SetAside(s); err != ErrClosed {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestFileHandleAndOffset(t *testing.T) {
	f := tempFileWithContent(t, "hello world")
	defer f.Close()

	c := NewFile(f, 3, 4, false)
	if c.Handle() != f {
		t.Fatal("Handle() should return the same *os.File")
	}
	if c.Offset() != 3 {
		t.Fatalf("Offset() = %d, want 3", c.Offset())
	}
}
