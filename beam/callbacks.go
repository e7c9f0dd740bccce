package beam

import "sync"

// ConsIOFunc is invoked with the number of bytes the receiver has
// consumed since the last report. Invoked without the beam's lock held.
type ConsIOFunc func(ctx interface{}, b *Beam, length int64)

// ConsEventFunc is invoked whenever new chunks have just been handed to
// the receiver. Invoked without the beam's lock held.
type ConsEventFunc func(ctx interface{}, b *Beam)

// WasEmptyFunc is invoked when the beam transitions from empty to
// non-empty. Invoked without the beam's lock held.
type WasEmptyFunc func(ctx interface{}, b *Beam)

// SendBlockFunc is invoked just before the sender blocks waiting for
// space. Invoked without the beam's lock held.
type SendBlockFunc func(ctx interface{}, b *Beam)

// callbacks holds the beam's single-slot hook registrations. Every field
// is read and written only while c.mu is held; invocation always
// happens after a snapshot copy is taken and the beam's own lock has been
// released, per the no-callbacks-under-lock rule.
type callbacks struct {
	mu sync.Mutex

	consIO    ConsIOFunc
	consIOCtx interface{}

	consEvent    ConsEventFunc
	consEventCtx interface{}

	wasEmpty    WasEmptyFunc
	wasEmptyCtx interface{}

	sendBlock    SendBlockFunc
	sendBlockCtx interface{}
}

func (c *callbacks) setConsIO(f ConsIOFunc, ctx interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consIO, c.consIOCtx = f, ctx
}

func (c *callbacks) setConsEvent(f ConsEventFunc, ctx interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consEvent, c.consEventCtx = f, ctx
}

func (c *callbacks) setWasEmpty(f WasEmptyFunc, ctx interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wasEmpty, c.wasEmptyCtx = f, ctx
}

func (c *callbacks) setSendBlock(f SendBlockFunc, ctx interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendBlock, c.sendBlockCtx = f, ctx
}

// clearConsumption clears the consumption-reporting hooks, used when the
// sender aborts: there is no longer a producer worth notifying.
func (c *callbacks) clearConsumption() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consIO, c.consIOCtx = nil, nil
	c.consEvent, c.consEventCtx = nil, nil
}

func (c *callbacks) getConsIO() (ConsIOFunc, interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consIO, c.consIOCtx
}

func (c *callbacks) getConsEvent() (ConsEventFunc, interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consEvent, c.consEventCtx
}

func (c *callbacks) getWasEmpty() (WasEmptyFunc, interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wasEmpty, c.wasEmptyCtx
}

func (c *callbacks) getSendBlock() (SendBlockFunc, interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendBlock, c.sendBlockCtx
}
