package rescore

import "time"

// DisconnectedBehavior governs what happens to submissions while the
// endpoint lifecycle is DISCONNECTED.
type DisconnectedBehavior int

const (
	// DefaultDisconnectedBehavior buffers submissions (same as
	// AcceptCommands) unless RequestQueueSize is exceeded.
	DefaultDisconnectedBehavior DisconnectedBehavior = iota
	// AcceptCommandsBehavior buffers submissions while disconnected; the
	// RequestQueueSize bound still applies.
	AcceptCommandsBehavior
	// RejectCommandsBehavior fails submissions immediately while
	// disconnected, without buffering.
	RejectCommandsBehavior
)

// DeliveryGuarantee selects the fate of a flushed-but-unacknowledged
// command when the channel is lost.
type DeliveryGuarantee int

const (
	// AtLeastOnce re-enqueues a flushed-but-unacknowledged command at
	// the front of the buffer for transparent retry after reconnect.
	// This is the default when AutoReconnect is on.
	AtLeastOnce DeliveryGuarantee = iota
	// AtMostOnce fails a flushed-but-unacknowledged command with
	// ErrConnLost instead of retrying it.
	AtMostOnce
)

// EndpointConfig carries the enumerated options from the core data model.
type EndpointConfig struct {
	// AutoReconnect attempts reconnect on channel loss. Default on.
	AutoReconnect bool

	// Delivery selects AtLeastOnce or AtMostOnce semantics for commands
	// that were flushed to the wire but not yet acknowledged when the
	// channel was lost.
	Delivery DeliveryGuarantee

	// CancelCommandsOnReconnectFailure fails all queued and buffered
	// commands if the first reconnect attempt after a loss fails,
	// instead of retrying forever.
	CancelCommandsOnReconnectFailure bool

	// SuspendReconnectOnProtocolFailure stops the watchdog from
	// scheduling further reconnects once a protocol-level decode
	// failure is observed on the wire.
	SuspendReconnectOnProtocolFailure bool

	// PingBeforeActivateConnection issues PING as the first command on
	// every new channel and requires +PONG before the endpoint is
	// released to user traffic.
	PingBeforeActivateConnection bool

	// RequestQueueSize bounds buffer+in-flight. Submissions past the
	// bound fail fast with ErrQueueOverflow. Zero means unbounded.
	RequestQueueSize int

	// DisconnectedBehavior governs submissions while DISCONNECTED.
	Disconnected DisconnectedBehavior

	// Password, if non-empty, is replayed via AUTH on every (re)connect.
	Password string

	// DB, if non-zero, is replayed via SELECT on every (re)connect.
	DB int64

	// ReconnectBaseDelay and ReconnectMaxDelay parameterize the
	// watchdog's backoff: attempt n (1-indexed) waits
	// min(MaxDelay, BaseDelay*2^(n-1)).
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration

	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration

	// CommandTimeout, when nonzero, sets the write and read deadline of
	// the channel each time a command is written, so a server that does
	// not answer within it ends the channel with a read error. It does
	// not bound Future.Await, which honors only its context.
	CommandTimeout time.Duration
}

// DefaultEndpointConfig returns reasonable defaults for production use.
func DefaultEndpointConfig() EndpointConfig {
	return EndpointConfig{
		AutoReconnect:      true,
		Delivery:           AtLeastOnce,
		ReconnectBaseDelay: time.Millisecond,
		ReconnectMaxDelay:  30 * time.Second,
		DialTimeout:        time.Second,
		RequestQueueSize:   0,
	}
}
