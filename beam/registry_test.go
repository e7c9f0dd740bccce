package beam

import (
	"testing"

	"github.com/docker/h2beam/chunk"
)

type customKindChunk struct{ n int }

func (customKindChunk) Kind() chunk.Kind { return chunk.KindExternal + 100 }
func (customKindChunk) Length() int64    { return 1 }

func TestRegisterBeamerHandlesUnrecognizedChunkKind(t *testing.T) {
	called := false
	RegisterBeamer(func(b *Beam, c chunk.Chunk) ([]chunk.Chunk, bool) {
		cc, ok := c.(customKindChunk)
		if !ok {
			return nil, false
		}
		called = true
		return []chunk.Chunk{chunk.NewHeap([]byte{byte(cc.n)})}, true
	})

	b, sender := Create("t", "reg1", Config{})
	if err := b.Send(sender, []chunk.Chunk{customKindChunk{n: 7}}, Block()); err != nil {
		t.Fatal(err)
	}
	var out []chunk.Chunk
	if _, err := b.Receive(b.Receiver(), &out, Block(), 0); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("registered beamer was not consulted")
	}
	if len(out) != 1 || out[0].Length() != 1 {
		t.Fatalf("out = %v, want a single one-byte chunk", out)
	}
}
