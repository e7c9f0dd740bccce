package beam

import "errors"

// Status errors returned by Send/Receive/Close/Abort. end-of-file is
// reported as the stdlib's own io.EOF rather than a beam-local sentinel,
// reusing the convention the rest of the package already leans on for
// "stream is done."
var (
	ErrWouldBlock        = errors.New("beam: would block")
	ErrTimeout           = errors.New("beam: timed out")
	ErrConnectionAborted = errors.New("beam: connection aborted")
	ErrConnectionReset   = errors.New("beam: connection reset")
	ErrWrongEndpoint     = errors.New("beam: caller is not the owning endpoint")
	ErrInvalidArgument   = errors.New("beam: invalid argument")
)
