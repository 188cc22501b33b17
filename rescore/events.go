package rescore

import (
	"fmt"
	"time"
)

// LifecycleState enumerates the endpoint states from the core data model.
// Transitions are monotonic except ACTIVE <-> DISCONNECTED, which may
// oscillate across the life of an Endpoint.
type LifecycleState int32

const (
	NotConnected LifecycleState = iota
	Registered
	Connected
	Activating
	Active
	Disconnected
	Closed
)

func (s LifecycleState) String() string {
	switch s {
	case NotConnected:
		return "NOT_CONNECTED"
	case Registered:
		return "REGISTERED"
	case Connected:
		return "CONNECTED"
	case Activating:
		return "ACTIVATING"
	case Active:
		return "ACTIVE"
	case Disconnected:
		return "DISCONNECTED"
	case Closed:
		return "CLOSED"
	default:
		return fmt.Sprintf("LifecycleState(%d)", int32(s))
	}
}

// EventKind identifies the kind of an observable Event.
type EventKind int

const (
	LifecycleChanged EventKind = iota
	ReconnectScheduled
	ReconnectFailed
	SubscriptionRestored
)

// Event is published on an Endpoint's event channel for every observable
// lifecycle or reconnect transition. Tests use this instead of
// reflection-based inspection of private queues.
type Event struct {
	Kind EventKind

	// LifecycleChanged
	From, To LifecycleState

	// ReconnectScheduled / ReconnectFailed
	Attempt int
	Delay   time.Duration
	LastErr error

	// SubscriptionRestored
	ChannelCount int
	PatternCount int
}
