package chunk

import (
	"io"
	"strings"
	"testing"
)

func TestExternalReadDrainsAndRecordsLength(t *testing.T) {
	c := NewExternal(strings.NewReader("abcdef"))
	if c.Length() != -1 {
		t.Fatalf("length before read = %d, want -1", c.Length())
	}
	got, err := c.Read(true)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abcdef" {
		t.Fatalf("read = %q, want %q", got, "abcdef")
	}
	if c.Length() != 6 {
		t.Fatalf("length after read = %d, want 6", c.Length())
	}
}

func TestExternalSecondReadReturnsEOF(t *testing.T) {
	c := NewExternal(strings.NewReader("x"))
	if _, err := c.Read(true); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Read(true); err != io.EOF {
		t.Fatalf("second read err = %v, want io.EOF", err)
	}
}
