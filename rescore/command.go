package rescore

import (
	"sync/atomic"

	"github.com/pascaldekloe/redis/v2/respio"
)

// Output decodes one command's reply. Implementations hold the decoded
// value as typed fields (mirroring the wire shape of the command, e.g. an
// integer reply output carries an int64 field) rather than boxing it behind
// an interface{}; callers read the concrete Output back out after Await.
type Output interface {
	// Reset restores the Output to its pre-encode state so the owning
	// Command may be resubmitted by the retry engine.
	Reset()
	// Encode writes the command's argument vector.
	Encode(e *respio.Encoder)
	// Feed receives one fully decoded RESP reply value. done reports
	// whether the command is now complete; err, when non-nil alongside
	// done, is either the reply's ServerError (for an error reply) or a
	// DecodeError-worthy failure to make sense of an otherwise
	// well-formed reply. Feed is called at most once for
	// ordinary request/reply commands.
	Feed(v respio.Value) (done bool, err error)
}

type commandState int32

const (
	statePending commandState = iota
	stateCancelled
	stateCompleted
)

// Command is an immutable (type, argument bytes via Output.Encode, output
// decoder) triple paired with a mutable completion cell. A Command may be
// submitted at most once; the retry engine resubmits it by resetting the
// Output and re-encoding, never by constructing a new Command (so the
// Future identity a caller is awaiting survives a retry).
type Command struct {
	ID     string
	Name   string
	Output Output
	Future *Future

	state int32 // commandState, atomic

	// endpoint is set once, synchronously, by Endpoint.tryEnqueue before
	// cmd is returned to the caller; nil until then, and never reassigned
	// afterwards. Cancel relies on it to reach the buffer it may need to
	// remove cmd from.
	endpoint *Endpoint

	// bookkeeping owned exclusively by the handler goroutine that
	// currently holds this command, never touched concurrently.
	encoded bool // Output.Encode succeeded, bytes are in the write buffer
	flushed bool // bytes handed to the transport's Write
}

// NewCommand constructs a pending Command. name is used for diagnostics and
// DecodeError/EncodeError messages only; it does not affect wire behavior.
func NewCommand(name string, output Output) *Command {
	return &Command{
		Name:   name,
		Output: output,
		Future: newFuture(),
	}
}

// Cancel cancels the command's submission. An unsent command still in the
// endpoint's buffer is removed outright and its Future completes
// immediately with ErrCancelled. A command already flushed to the wire
// cannot be recalled — mayInterrupt has no effect on it, since there is no
// way to un-send bytes already handed to the transport — so it is instead
// marked cancelled: its Future still completes immediately, but the
// in-flight reply it eventually provokes is discarded on arrival instead of
// delivered. Cancel reports whether it transitioned the command to
// cancelled; it is a no-op returning false once the command has already
// completed (successfully, with an error, or via an earlier Cancel).
func (c *Command) Cancel(mayInterrupt bool) bool {
	if c.endpoint == nil {
		// Never submitted via an Endpoint (e.g. under construction, or in
		// a unit test exercising Command directly): nothing to remove
		// from a buffer, just cancel and resolve.
		if c.markCancelled() {
			c.Future.completeCancelled(ErrCancelled)
			return true
		}
		return false
	}
	return c.endpoint.cancelCommand(c)
}

// IsDone reports whether the command's future has completed.
func (c *Command) IsDone() bool { return c.Future.IsDone() }

// IsCancelled reports whether Cancel succeeded on this command.
func (c *Command) IsCancelled() bool {
	return commandState(atomic.LoadInt32(&c.state)) == stateCancelled
}

// markCancelled transitions PENDING -> CANCELLED exactly once.
func (c *Command) markCancelled() bool {
	return atomic.CompareAndSwapInt32((*int32)(&c.state), int32(statePending), int32(stateCancelled))
}

// markCompleted transitions PENDING -> COMPLETED exactly once. Cancelled
// commands stay cancelled even when their reply eventually arrives.
func (c *Command) markCompleted() bool {
	return atomic.CompareAndSwapInt32((*int32)(&c.state), int32(statePending), int32(stateCompleted))
}

// resetForRetry restores a command to its pre-write state, ready for
// re-encoding, per the at-least-once retry contract in EndpointConfig.
func (c *Command) resetForRetry() {
	c.encoded = false
	c.flushed = false
	c.Output.Reset()
}
