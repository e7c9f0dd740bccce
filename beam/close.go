package beam

// Close marks the beam closed. Sender-side close drains purge, reports
// consumption, possibly fires was_empty_cb, and broadcasts; it is
// non-destructive of pending data, which the receiver still drains.
// Receiver-side close is treated as abort, per §5.
func (b *Beam) Close(from Endpoint) error {
	if from != b.from {
		return b.Abort(from)
	}

	b.mu.Lock()
	if b.aborted {
		b.mu.Unlock()
		return ErrConnectionAborted
	}
	wasEmpty := b.emptyLocked()
	b.closed = true
	drainListLocked(b.purge)
	b.cond.Broadcast()
	b.mu.Unlock()

	if wasEmpty {
		b.fireWasEmpty()
	}
	b.reportConsumption()
	return nil
}

// reportConsumption computes the unreported delta between received_bytes
// and cons_bytes_reported, and if positive and a cons_io_cb is
// registered, invokes it outside the lock before advancing the counter.
func (b *Beam) reportConsumption() {
	b.mu.Lock()
	delta := b.receivedBytes - b.consBytesReported
	if delta <= 0 {
		b.mu.Unlock()
		return
	}
	f, ctx := b.cb.getConsIO()
	disabled := b.cbDisabled
	b.mu.Unlock()

	if f != nil && !disabled {
		f(ctx, b, delta)
	}

	b.mu.Lock()
	b.consBytesReported += delta
	b.mu.Unlock()
}
