package beam

import (
	"sync"

	"github.com/docker/h2beam/chunk"
)

// Beamer is a process-wide plugin consulted for a sender chunk the beam
// could not translate into a proxy or a re-homed chunk natively. It
// returns the receiver-side chunks to emit in place of the input, or ok
// false to decline.
type Beamer func(b *Beam, c chunk.Chunk) (out []chunk.Chunk, ok bool)

var (
	beamerMu sync.RWMutex
	beamers  []Beamer
)

// RegisterBeamer adds f to the process-wide beamer registry.
func RegisterBeamer(f Beamer) {
	beamerMu.Lock()
	defer beamerMu.Unlock()
	beamers = append(beamers, f)
}

func runBeamers(b *Beam, c chunk.Chunk) ([]chunk.Chunk, bool) {
	beamerMu.RLock()
	defer beamerMu.RUnlock()
	for _, f := range beamers {
		if out, ok := f(b, c); ok {
			return out, true
		}
	}
	return nil, false
}
