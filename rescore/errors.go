package rescore

import (
	"errors"
	"fmt"

	"github.com/pascaldekloe/redis/v2/respio"
)

// ServerError is re-exported from respio so callers comparing reply errors
// with errors.As never need to import the wire-level package directly.
type ServerError = respio.ServerError

// ErrClosed rejects command submission after Endpoint.Close.
var ErrClosed = errors.New("rescore: endpoint closed")

// ErrQueueOverflow rejects submission once buffer plus in-flight reach
// EndpointConfig.RequestQueueSize.
var ErrQueueOverflow = errors.New("rescore: request queue overflow")

// ErrConnLost marks a command failed due to channel loss under
// at-most-once delivery, or a submission rejected while DISCONNECTED under
// RejectCommandsBehavior. Close uses ErrClosed instead.
var ErrConnLost = errors.New("rescore: connection lost")

// ErrCancelled marks a command cancelled via an explicit Command.Cancel
// call, as opposed to a disconnect or Close.
var ErrCancelled = errors.New("rescore: command cancelled")

// ErrReconnectFailed marks commands drained after a failed reconnect
// attempt with CancelCommandsOnReconnectFailure set.
var ErrReconnectFailed = errors.New("rescore: reconnect failed")

// ErrRestoreFailed marks the endpoint fatally closed because AUTH (or
// another mandatory restoration step) was rejected by the server.
var ErrRestoreFailed = errors.New("rescore: session restoration failed")

// ErrNilArgument rejects a command submission carrying a nil Output or
// other required-but-missing argument.
var ErrNilArgument = errors.New("rescore: nil argument")

// EncodeError wraps a panic/error raised while a Command's Output encoded
// its argument vector. The command never enters the in-flight queue.
type EncodeError struct {
	Command string
	Err     error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("rescore: encode %s: %v", e.Command, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError wraps a failure of a Command's Output to make sense of an
// otherwise well-formed RESP reply. The connection is not affected; the
// stream continues with the next reply.
type DecodeError struct {
	Command string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("rescore: decode %s: %v", e.Command, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
