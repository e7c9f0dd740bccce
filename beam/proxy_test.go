package beam

import (
	"os"
	"testing"

	"github.com/docker/h2beam/chunk"
)

func TestProxyRefKeepsChunkHeldUntilAllClosed(t *testing.T) {
	b, sender := Create("t", "pref1", Config{})
	if err := b.Send(sender, heapChunks("A"), Block()); err != nil {
		t.Fatal(err)
	}
	var out []chunk.Chunk
	if _, err := b.Receive(b.Receiver(), &out, Block(), 0); err != nil {
		t.Fatal(err)
	}
	p := out[0].(*Proxy)
	p.Ref()

	p.Close()
	if b.hold.Len() != 1 {
		t.Fatalf("hold len after first close of a double-ref'd proxy = %d, want 1 (still referenced)", b.hold.Len())
	}

	p.Close()
	if b.hold.Len() != 0 {
		t.Fatalf("hold len after second close = %d, want 0", b.hold.Len())
	}
}

// B5: file/mmap admission classification drives whether the receiver sees
// a Proxy (borrowed) or a fresh rehomed chunk.File (must copy).
func TestFileAdmissionBorrowsWhenRefcountOneAndNotCopying(t *testing.T) {
	f, err := os.CreateTemp("", "beam-file-admit")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	defer f.Close()
	f.WriteString("payload bytes")

	b, sender := Create("t", "file1", Config{CopyFiles: false})
	fc := chunk.NewFile(f, 0, 13, false)
	if err := b.Send(sender, []chunk.Chunk{fc}, Block()); err != nil {
		t.Fatal(err)
	}
	var out []chunk.Chunk
	if _, err := b.Receive(b.Receiver(), &out, Block(), 0); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d chunks, want 1", len(out))
	}
	if _, ok := out[0].(*Proxy); !ok {
		t.Fatalf("borrowed file chunk should arrive as a Proxy, got %T", out[0])
	}
}

func TestFileAdmissionCopiesWhenConfigured(t *testing.T) {
	f, err := os.CreateTemp("", "beam-file-admit-copy")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	defer f.Close()
	f.WriteString("payload bytes")

	b, sender := Create("t", "file2", Config{CopyFiles: true})
	fc := chunk.NewFile(f, 0, 13, true)
	if err := b.Send(sender, []chunk.Chunk{fc}, Block()); err != nil {
		t.Fatal(err)
	}
	var out []chunk.Chunk
	if _, err := b.Receive(b.Receiver(), &out, Block(), 0); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d chunks, want 1", len(out))
	}
	rf, ok := out[0].(*chunk.File)
	if !ok {
		t.Fatalf("must-copy file chunk should arrive as a rehomed chunk.File, got %T", out[0])
	}
	got, err := rf.Read(true)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload bytes" {
		t.Fatalf("rehomed file read = %q, want %q", got, "payload bytes")
	}
}

// tryProxyOrRegistryLocked must refuse to hand out a proxy onto a
// file/mmap chunk admission never marked borrowed, even though normal
// admission never routes an unborrowed chunk this far.
func TestTryProxyRefusesUnborrowedFileChunk(t *testing.T) {
	f, err := os.CreateTemp("", "beam-file-unborrowed")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	b, _ := Create("t", "unborrowed1", Config{})
	fc := chunk.NewFile(f, 0, 4, true) // copyFiles=true: SetAside never borrows
	fc.SetAside(b.scope)
	if fc.IsBorrowed() {
		t.Fatal("copyFiles=true file should never be borrowed")
	}

	b.mu.Lock()
	out, ok := b.tryProxyOrRegistryLocked(fc)
	b.mu.Unlock()
	if ok {
		t.Fatalf("tryProxyOrRegistryLocked should refuse an unborrowed chunk, got ok=%v out=%v", ok, out)
	}
}
