package beam

// Abort marks the beam aborted, from either endpoint. Sender abort clears
// the consumption callbacks (there is no longer a producer worth
// notifying), drains send and purge, and flushes consumption; further
// sends fail with ErrConnectionAborted. Receiver abort discards the
// receiver's overflow buffer and marks the beam both aborted and closed.
func (b *Beam) Abort(from Endpoint) error {
	isSender := from == b.from

	b.mu.Lock()
	if b.aborted {
		b.mu.Unlock()
		return nil
	}
	b.aborted = true

	if isSender {
		b.cb.clearConsumption()
		drainListLocked(b.send)
		drainListLocked(b.purge)
	} else {
		drainListLocked(b.recv)
		b.closed = true
	}

	b.cond.Broadcast()
	b.mu.Unlock()

	if isSender {
		b.reportConsumption()
	}
	return nil
}
