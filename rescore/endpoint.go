package rescore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pascaldekloe/redis/v2/respio"
	"github.com/pascaldekloe/redis/v2/restransport"
)

// fatalRestoreError marks a restoreStep failure that must close the
// endpoint outright rather than fall back to reconnect, e.g. a rejected
// AUTH.
type fatalRestoreError struct{ err error }

func (e *fatalRestoreError) Error() string { return e.err.Error() }
func (e *fatalRestoreError) Unwrap() error { return e.err }

// Endpoint is a single logical connection to one Redis address: connection
// state machine (C3), command buffer, and the glue between the command
// handler (C4), the watchdog (C5), and session restoration (C6). Exactly
// one goroutine — the run loop started by Endpoint.Start — ever mutates
// the in-flight queue or the connection itself; every other method is
// safe to call from any goroutine.
type Endpoint struct {
	Addr      string
	resources *ClientResources
	config    EndpointConfig
	transport restransport.Transport
	watchdog  *watchdog

	events chan Event

	ctx    context.Context
	cancel context.CancelFunc

	state int32 // LifecycleState, atomic

	bufMu  sync.Mutex
	buffer []*Command

	handler   atomic.Pointer[commandHandler]
	inFlightN atomic.Int32

	flushReq  chan struct{}
	autoFlush atomic.Bool

	closeOnce sync.Once

	subs *subscriptionSet // non-nil only for pub/sub endpoints

	runDone chan struct{}
}

// NewEndpoint constructs an Endpoint bound to addr, ready for Start. withPubSub
// enables the subscription set; plain command endpoints leave it nil.
func NewEndpoint(addr string, transport restransport.Transport, config EndpointConfig, resources *ClientResources, withPubSub bool) *Endpoint {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Endpoint{
		Addr:      addr,
		resources: resources,
		config:    config,
		transport: transport,
		watchdog:  newWatchdog(config.ReconnectBaseDelay, config.ReconnectMaxDelay),
		events:    make(chan Event, 64),
		ctx:       ctx,
		cancel:    cancel,
		flushReq:  make(chan struct{}, 1),
		runDone:   make(chan struct{}),
	}
	atomic.StoreInt32(&e.state, int32(Registered))
	e.autoFlush.Store(true)
	if withPubSub {
		e.subs = newSubscriptionSet()
	}
	return e
}

// Events returns the channel Lifecycle and reconnect observability events
// are published on. The channel is buffered; a caller not draining it may
// miss events once the buffer fills, but publication never blocks the run
// loop (see publishEvent).
func (e *Endpoint) Events() <-chan Event { return e.events }

// State returns the endpoint's current lifecycle state.
func (e *Endpoint) State() LifecycleState {
	return LifecycleState(atomic.LoadInt32(&e.state))
}

func (e *Endpoint) setState(s LifecycleState) {
	old := LifecycleState(atomic.SwapInt32(&e.state, int32(s)))
	if old == s {
		return
	}
	e.publishEvent(Event{Kind: LifecycleChanged, From: old, To: s})
}

func (e *Endpoint) publishEvent(ev Event) {
	select {
	case e.events <- ev:
	default:
		if e.resources != nil {
			e.resources.Logger.Warn("rescore: event dropped, channel full", zap.String("addr", e.Addr))
		}
	}
}

// SetListenOnChannelInactive and SetReconnectSuspended expose the
// watchdog's controls directly on the endpoint so callers never need to
// reach into rescore internals.
func (e *Endpoint) SetListenOnChannelInactive(on bool) { e.watchdog.SetListenOnChannelInactive(on) }
func (e *Endpoint) SetReconnectSuspended(suspended bool) {
	e.watchdog.SetReconnectSuspended(suspended)
}
func (e *Endpoint) ScheduleReconnect() { e.watchdog.ScheduleReconnect() }

// Start launches the run loop goroutine. Start must be called exactly
// once.
func (e *Endpoint) Start() {
	go func() {
		defer close(e.runDone)
		e.run()
	}()
}

// Write buffers cmd for delivery, flushing immediately if the endpoint is
// ACTIVE and auto-flush applies. Safe from any goroutine.
func (e *Endpoint) Write(cmd *Command) *Future {
	if cmd.Output == nil {
		cmd.Future.complete(ErrNilArgument)
		return cmd.Future
	}
	if err := e.tryEnqueue(cmd); err != nil {
		cmd.Future.complete(err)
		return cmd.Future
	}
	if e.autoFlush.Load() {
		// Always nudge the run loop, even if it isn't ACTIVE yet: flushReq
		// is a buffered size-1 latch, so a signal sent during CONNECTED or
		// ACTIVATING is still pending once the loop reaches its select and
		// catches this command, closing the race against the state
		// transition itself.
		e.requestFlush()
	}
	return cmd.Future
}

func (e *Endpoint) tryEnqueue(cmd *Command) error {
	state := e.State()
	if state == Closed {
		return ErrClosed
	}
	if state == Disconnected && e.config.Disconnected == RejectCommandsBehavior {
		return ErrConnLost
	}
	if e.resources != nil {
		if cmd.ID == "" {
			cmd.ID = e.resources.NewCommandID()
		}
		if cmd.Future.dispatch == nil {
			cmd.Future.dispatch = func(fn func()) { e.resources.Dispatch(e.ctx, fn) }
		}
	}
	e.bufMu.Lock()
	defer e.bufMu.Unlock()
	if e.config.RequestQueueSize > 0 {
		total := len(e.buffer) + int(e.inFlightN.Load())
		if total >= e.config.RequestQueueSize {
			return ErrQueueOverflow
		}
	}
	cmd.endpoint = e
	e.buffer = append(e.buffer, cmd)
	return nil
}

// cancelCommand implements Command.Cancel: an unsent command is removed
// from the buffer outright; one already flushed to the wire cannot be
// recalled, so it is only marked cancelled, and the handler discards its
// reply on arrival (handleValue, advanceRestore) instead of delivering it.
// Either way cmd's Future completes immediately with ErrCancelled.
func (e *Endpoint) cancelCommand(cmd *Command) bool {
	e.bufMu.Lock()
	for i, c := range e.buffer {
		if c == cmd {
			e.buffer = append(e.buffer[:i:i], e.buffer[i+1:]...)
			break
		}
	}
	e.bufMu.Unlock()

	if cmd.markCancelled() {
		cmd.Future.completeCancelled(ErrCancelled)
		return true
	}
	return false
}

func (e *Endpoint) requestFlush() {
	select {
	case e.flushReq <- struct{}{}:
	default:
	}
}

// Flush requests an immediate write of any buffered commands, regardless
// of auto-flush configuration. It is a no-op unless the endpoint reaches
// ACTIVE to service it.
func (e *Endpoint) Flush() { e.requestFlush() }

// SetAutoFlushCommands toggles whether Write nudges the run loop to flush
// immediately. Disabling it lets a caller batch several Write calls and
// flush them together with one Flush, trading latency for fewer wake-ups
// of the run loop.
func (e *Endpoint) SetAutoFlushCommands(on bool) { e.autoFlush.Store(on) }

// Subscribe registers interest in channel and returns the Command whose
// Future resolves once the subscription is acknowledged, plus the sink
// messages are delivered to.
func (e *Endpoint) Subscribe(channel string) (*Command, <-chan PubSubMessage) {
	sink := make(chan PubSubMessage, 1)
	e.subs.addChannel(channel, sink)
	cmd := NewCommand("SUBSCRIBE", NewSubscribeAckOutput("SUBSCRIBE", channel))
	e.Write(cmd)
	return cmd, sink
}

// PSubscribe is Subscribe for a glob pattern.
func (e *Endpoint) PSubscribe(pattern string) (*Command, <-chan PubSubMessage) {
	sink := make(chan PubSubMessage, 1)
	e.subs.addPattern(pattern, sink)
	cmd := NewCommand("PSUBSCRIBE", NewSubscribeAckOutput("PSUBSCRIBE", pattern))
	e.Write(cmd)
	return cmd, sink
}

// Unsubscribe removes channel from the subscription set and sends the
// corresponding UNSUBSCRIBE.
func (e *Endpoint) Unsubscribe(channel string) *Command {
	e.subs.removeChannel(channel)
	cmd := NewCommand("UNSUBSCRIBE", NewSubscribeAckOutput("UNSUBSCRIBE", channel))
	e.Write(cmd)
	return cmd
}

// PUnsubscribe removes pattern from the subscription set and sends the
// corresponding PUNSUBSCRIBE.
func (e *Endpoint) PUnsubscribe(pattern string) *Command {
	e.subs.removePattern(pattern)
	cmd := NewCommand("PUNSUBSCRIBE", NewSubscribeAckOutput("PUNSUBSCRIBE", pattern))
	e.Write(cmd)
	return cmd
}

// Close cancels the run loop, fails every buffered and in-flight command
// with ErrClosed, and tears down the active channel if any. Close is
// idempotent and safe from any goroutine. It does not block for the run
// loop to exit; use Done for that.
func (e *Endpoint) Close() error {
	e.closeOnce.Do(func() {
		e.setState(Closed)
		e.cancel()

		e.bufMu.Lock()
		pending := e.buffer
		e.buffer = nil
		e.bufMu.Unlock()
		for _, cmd := range pending {
			if cmd.markCancelled() {
				cmd.Future.completeCancelled(ErrClosed)
			}
		}

		if h := e.handler.Load(); h != nil {
			h.channel.Close()
		}
	})
	return nil
}

// Done reports when the run loop has fully exited, e.g. after Close.
func (e *Endpoint) Done() <-chan struct{} { return e.runDone }

// run is the outer reconnect loop: dial, run one channel to exhaustion,
// repeat until AutoReconnect says stop or the endpoint is Closed.
func (e *Endpoint) run() {
	for {
		if e.State() == Closed {
			return
		}
		ch, ok := e.connectWithBackoff()
		if !ok {
			return
		}

		h := newCommandHandler(ch, e.config.CommandTimeout)
		e.handler.Store(h)
		runErr := e.runChannel(h)
		e.handler.Store(nil)

		closedNow := e.onChannelEnd(h, runErr)
		ch.Close()
		if closedNow {
			return
		}
		if !e.config.AutoReconnect || !e.watchdog.isListening() {
			e.setState(Disconnected)
			return
		}
	}
}

// connectWithBackoff dials until it succeeds, the endpoint closes, or
// CancelCommandsOnReconnectFailure drains everything and suspends further
// attempts pending an external ScheduleReconnect.
func (e *Endpoint) connectWithBackoff() (restransport.Channel, bool) {
	attempt := 0
	for {
		if e.State() == Closed {
			return nil, false
		}
		if e.watchdog.isSuspended() {
			if !e.watchdog.waitResume(e.ctx) {
				return nil, false
			}
		}

		dialCtx := e.ctx
		var dialCancel context.CancelFunc
		if e.config.DialTimeout > 0 {
			dialCtx, dialCancel = context.WithTimeout(e.ctx, e.config.DialTimeout)
		}
		ch, err := e.transport.Dial(dialCtx, e.Addr)
		if dialCancel != nil {
			dialCancel()
		}
		if err == nil {
			e.setState(Connected)
			return ch, true
		}
		if e.ctx.Err() != nil {
			return nil, false
		}

		attempt++
		e.publishEvent(Event{Kind: ReconnectFailed, Attempt: attempt, LastErr: err})

		if attempt == 1 && e.config.CancelCommandsOnReconnectFailure {
			e.drainAll(fmt.Errorf("%w: %v", ErrReconnectFailed, err))
			e.setState(Disconnected)
			e.watchdog.SetReconnectSuspended(true)
			continue
		}

		delay := e.watchdog.nextDelay(attempt)
		e.publishEvent(Event{Kind: ReconnectScheduled, Attempt: attempt, Delay: delay})
		if !e.sleep(delay) {
			return nil, false
		}
	}
}

func (e *Endpoint) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-e.ctx.Done():
		return false
	}
}

// drainAll empties both the buffer and, if a handler is current, its
// in-flight queue, completing every command with err.
func (e *Endpoint) drainAll(err error) {
	e.bufMu.Lock()
	pending := e.buffer
	e.buffer = nil
	e.bufMu.Unlock()
	for _, cmd := range pending {
		if cmd.markCancelled() {
			cmd.Future.completeCancelled(err)
		}
	}
	if h := e.handler.Load(); h != nil {
		h.drain(func(cmd *Command) {
			e.inFlightN.Add(-1)
			if cmd.markCancelled() {
				cmd.Future.completeCancelled(err)
			}
		})
	}
}

// runChannel drives one connected channel from CONNECTED through
// ACTIVATING, ACTIVE, and back down to disconnection. It returns the
// error that ended the channel: an I/O error, a protocol desync, a
// fatalRestoreError, or context cancellation.
func (e *Endpoint) runChannel(h *commandHandler) error {
	decoded := make(chan respio.Value, 16)
	readErr := make(chan error, 1)
	go e.readLoop(h, decoded, readErr)

	steps := e.buildRestoreSteps()
	stepIdx := 0

	if len(steps) == 0 {
		e.setState(Active)
		e.flushBuffered(h)
	} else {
		e.setState(Activating)
		queued, err := h.write(steps[0].cmd)
		if err != nil {
			return err
		}
		if !queued {
			// The restore step's own Output.Encode panicked; write already
			// completed its Future with the resulting EncodeError.
			return steps[0].cmd.Future.Err()
		}
		e.inFlightN.Add(1)
	}

	for {
		select {
		case <-e.flushReq:
			if e.State() == Active {
				e.flushBuffered(h)
			}

		case v, ok := <-decoded:
			if !ok {
				continue
			}
			if e.State() == Activating && stepIdx < len(steps) {
				front := h.writeQueue.Front()
				if front != nil && front.Value.(*Command) == steps[stepIdx].cmd {
					if err := e.advanceRestore(h, &steps, &stepIdx, v); err != nil {
						return err
					}
					continue
				}
			}
			if err := h.handleValue(v, e.routePush); err != nil {
				return err
			}
			e.inFlightN.Store(int32(h.writeQueue.Len()))

		case err := <-readErr:
			return err

		case <-e.ctx.Done():
			return e.ctx.Err()
		}
	}
}

// advanceRestore feeds v to the current restore step, then either writes
// the next one or flips the endpoint ACTIVE once the sequence is
// exhausted. A non-nil error ends the channel (restore failures are
// treated as any other disconnect, except a fatal step closes the
// endpoint instead).
func (e *Endpoint) advanceRestore(h *commandHandler, steps *[]restoreStep, idx *int, v respio.Value) error {
	step := (*steps)[*idx]
	cmd := step.cmd

	feedDone, feedErr := safeFeed(cmd, v)
	if !feedDone {
		return nil
	}
	if status, ok := cmd.Output.(*StatusOutput); ok && feedErr == nil && status.Status != "PONG" {
		feedErr = fmt.Errorf("rescore: PING before activate: want PONG, got %q", status.Status)
	}
	h.writeQueue.Remove(h.writeQueue.Front())
	e.inFlightN.Add(-1)
	cmd.markCompleted()
	cmd.Future.complete(feedErr)

	if feedErr != nil {
		if step.fatal {
			e.drainAll(fmt.Errorf("%w: %v", ErrRestoreFailed, feedErr))
			return &fatalRestoreError{err: feedErr}
		}
		return feedErr
	}

	*idx++
	if *idx < len(*steps) {
		next := (*steps)[*idx]
		queued, werr := h.write(next.cmd)
		if werr != nil {
			return werr
		}
		if !queued {
			return next.cmd.Future.Err()
		}
		e.inFlightN.Add(1)
		return nil
	}

	e.setState(Active)
	if e.subs != nil {
		cc, pc := e.subs.counts()
		e.publishEvent(Event{Kind: SubscriptionRestored, ChannelCount: cc, PatternCount: pc})
	}
	e.flushBuffered(h)
	return nil
}

// routePush delivers pub/sub pushes directly, bypassing the in-flight
// queue entirely, and reports whether v was such a push.
func (e *Endpoint) routePush(v respio.Value) bool {
	if e.subs == nil {
		return false
	}
	kind, ok := isPushFrame(v)
	if !ok {
		return false
	}
	switch kind {
	case "message":
		if len(v.Array) != 3 {
			return true
		}
		e.subs.dispatch(PubSubMessage{Channel: string(v.Array[1].Bulk), Payload: v.Array[2].Bulk})
		return true
	case "pmessage":
		if len(v.Array) != 4 {
			return true
		}
		e.subs.dispatch(PubSubMessage{
			Pattern: string(v.Array[1].Bulk),
			Channel: string(v.Array[2].Bulk),
			Payload: v.Array[3].Bulk,
		})
		return true
	case "subscribe", "psubscribe", "unsubscribe", "punsubscribe":
		// Ordinary (non-restoration) subscribe/unsubscribe acks are
		// matched against the in-flight queue like any other reply,
		// since SubscribeAckOutput.Feed understands this exact shape.
		return false
	}
	return false
}

func (e *Endpoint) flushBuffered(h *commandHandler) {
	e.bufMu.Lock()
	pending := e.buffer
	e.buffer = nil
	e.bufMu.Unlock()

	for i, cmd := range pending {
		if cmd.IsCancelled() {
			continue
		}
		queued, err := h.write(cmd)
		if err != nil {
			e.bufMu.Lock()
			e.buffer = append(append([]*Command{}, pending[i:]...), e.buffer...)
			e.bufMu.Unlock()
			return
		}
		if queued {
			e.inFlightN.Add(1)
		}
		// !queued, err == nil means Output.Encode panicked: cmd's Future
		// is already completed with an EncodeError, and it never touched
		// writeQueue, so inFlightN must not count it.
	}
}

// readLoop decodes replies off h's channel until it fails, forwarding each
// to decoded. It never touches writeQueue; only the run loop goroutine
// does.
func (e *Endpoint) readLoop(h *commandHandler, decoded chan<- respio.Value, readErr chan<- error) {
	defer close(decoded)
	r := h.channel.Reader()
	for {
		v, err := respio.ReadReply(r)
		if err != nil {
			readErr <- err
			return
		}
		select {
		case decoded <- v:
		case <-e.ctx.Done():
			return
		}
	}
}

// onChannelEnd resolves the in-flight queue against the delivery
// guarantee (or unconditionally with ErrClosed, if the endpoint closed
// mid-flight), logs, and reports whether the endpoint is now Closed.
func (e *Endpoint) onChannelEnd(h *commandHandler, runErr error) bool {
	closed := e.State() == Closed

	var fatal *fatalRestoreError
	if errors.As(runErr, &fatal) {
		closed = true
		e.Close()
	}

	if closed {
		h.drain(func(cmd *Command) {
			e.inFlightN.Add(-1)
			if cmd.markCancelled() {
				cmd.Future.completeCancelled(ErrClosed)
			}
		})
		return true
	}

	e.setState(Disconnected)

	var requeue []*Command
	h.drain(func(cmd *Command) {
		e.inFlightN.Add(-1)
		if cmd.IsCancelled() {
			return
		}
		switch e.config.Delivery {
		case AtMostOnce:
			if cmd.markCompleted() {
				cmd.Future.complete(ErrConnLost)
			}
		default: // AtLeastOnce
			cmd.resetForRetry()
			requeue = append(requeue, cmd)
			if e.resources != nil {
				e.resources.Logger.Debug("rescore: requeueing in-flight command for retry",
					zap.String("addr", e.Addr), zap.String("cmd", cmd.Name), zap.String("id", cmd.ID))
			}
		}
	})
	if len(requeue) > 0 {
		e.bufMu.Lock()
		e.buffer = append(requeue, e.buffer...)
		e.bufMu.Unlock()
	}

	if e.config.SuspendReconnectOnProtocolFailure && errors.Is(runErr, respio.ErrProtocol) {
		e.watchdog.SetReconnectSuspended(true)
	}

	if e.resources != nil {
		e.resources.Logger.Info("rescore: channel inactive",
			zap.String("addr", e.Addr), zap.Error(runErr))
	}
	return false
}
