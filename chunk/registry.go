package chunk

import "sync"

// Translator converts a chunk of a kind the beam core does not understand
// into one it does (typically an External wrapping an io.Reader), so that
// a producer can hand the beam domain-specific buckets without the beam
// package needing to know about them.
type Translator func(c Chunk) (Chunk, bool)

var (
	registryMu sync.RWMutex
	registry   []Translator
)

// Register adds t to the process-wide list of chunk translators, which
// Translate consults in registration order. The beam package does not
// call Translate; beams consult their own beam.RegisterBeamer list for
// chunks whose Kind they do not recognize natively.
func Register(t Translator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, t)
}

// Translate runs c through the registry, returning the first translation
// offered, or c unchanged if no translator claims it.
func Translate(c Chunk) Chunk {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, t := range registry {
		if out, ok := t(c); ok {
			return out
		}
	}
	return c
}
