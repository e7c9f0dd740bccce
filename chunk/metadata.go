package chunk

// EOSChunk marks the end of the stream. A beam delivers at most one.
type EOSChunk struct{}

func (EOSChunk) Kind() Kind    { return KindEOS }
func (EOSChunk) Length() int64 { return 0 }

// FlushChunk asks the receiver to push any data buffered downstream of it
// without waiting for more to accumulate. It carries no payload.
type FlushChunk struct{}

func (FlushChunk) Kind() Kind    { return KindFlush }
func (FlushChunk) Length() int64 { return 0 }

// ErrorChunk carries a sender-side failure to the receiver in-band, so the
// receiver observes it at the same position in the stream the sender
// observed it, rather than racing it against a side channel.
type ErrorChunk struct {
	Err error
}

func (ErrorChunk) Kind() Kind    { return KindErrorMeta }
func (ErrorChunk) Length() int64 { return 0 }
