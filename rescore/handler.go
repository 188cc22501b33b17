package rescore

import (
	"container/list"
	"fmt"
	"time"

	"github.com/pascaldekloe/redis/v2/respio"
	"github.com/pascaldekloe/redis/v2/restransport"
)

// commandHandler is bound to one channel instance, from the moment it is
// dialed until that channel goes inactive. It owns the in-flight FIFO
// exclusively: writeQueue is mutated only by the Endpoint's run loop
// goroutine, never concurrently.
type commandHandler struct {
	channel        restransport.Channel
	writeQueue     *list.List // of *Command, front = oldest awaiting reply
	commandTimeout time.Duration
}

func newCommandHandler(ch restransport.Channel, commandTimeout time.Duration) *commandHandler {
	return &commandHandler{channel: ch, writeQueue: list.New(), commandTimeout: commandTimeout}
}

// write encodes cmd and flushes it to the channel, appending it to the
// in-flight queue on success. An encode panic (a hostile Output) completes
// cmd with an EncodeError without ever touching the wire, so the command
// never occupies an in-flight slot. queued reports whether cmd actually
// entered writeQueue, so callers can keep their own in-flight accounting
// (Endpoint.inFlightN) exact: a non-nil err always means queued is false,
// but queued can also be false with a nil err on an encode failure.
func (h *commandHandler) write(cmd *Command) (queued bool, err error) {
	enc := respio.GetEncoder()
	defer enc.Put()

	encodeOK := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
				cmd.markCompleted()
				cmd.Future.complete(&EncodeError{Command: cmd.Name, Err: asError(r)})
			}
		}()
		cmd.Output.Encode(enc)
		return true
	}()
	if !encodeOK {
		return false, nil
	}
	cmd.encoded = true

	if h.commandTimeout > 0 {
		deadline := time.Now().Add(h.commandTimeout)
		h.channel.SetWriteDeadline(deadline)
		// A reply is now expected within commandTimeout; a server that
		// never answers surfaces as a read error off this deadline,
		// driving the usual disconnect/reconnect path instead of hanging
		// the run loop forever.
		h.channel.SetReadDeadline(deadline)
	}
	if _, err := h.channel.Write(enc.Bytes()); err != nil {
		// Partially or wholly unsent: the server never saw it, so it is
		// safe to retry verbatim once the caller re-buffers it.
		cmd.encoded = false
		return false, err
	}
	cmd.flushed = true
	h.writeQueue.PushBack(cmd)
	return true, nil
}

// handleValue processes one decoded reply against the in-flight queue,
// or — for unsolicited pub/sub pushes — routes it to dispatch without
// touching the queue at all. route is supplied by the Endpoint so the
// handler stays ignorant of subscription bookkeeping.
func (h *commandHandler) handleValue(v respio.Value, route func(respio.Value) (consumed bool)) error {
	if route != nil && route(v) {
		return nil
	}

	front := h.writeQueue.Front()
	if front == nil {
		return fmt.Errorf("%w: unsolicited reply with empty in-flight queue (%v)", respio.ErrProtocol, v.Type)
	}
	cmd := front.Value.(*Command)

	done, err := safeFeed(cmd, v)
	if !done {
		// The decoder wants more frames before it is satisfied; leave
		// cmd at the head for the next reply.
		return nil
	}
	h.writeQueue.Remove(front)

	if cmd.IsCancelled() {
		return nil // reply discarded; future already resolved at Cancel time
	}
	if cmd.markCompleted() {
		cmd.Future.complete(err)
	}
	return nil
}

// drain empties the in-flight queue, applying fn to each command in FIFO
// order, used on disconnect and close.
func (h *commandHandler) drain(fn func(*Command)) {
	for el := h.writeQueue.Front(); el != nil; el = el.Next() {
		fn(el.Value.(*Command))
	}
	h.writeQueue.Init()
}

func safeFeed(cmd *Command, v respio.Value) (done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			done = true
			err = &DecodeError{Command: cmd.Name, Err: asError(r)}
		}
	}()

	done, feedErr := cmd.Output.Feed(v)
	if feedErr == nil {
		return done, nil
	}
	if se, ok := feedErr.(ServerError); ok {
		return done, se
	}
	return done, &DecodeError{Command: cmd.Name, Err: feedErr}
}

func asError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// isPushFrame reports whether v is a RESP array shaped like a pub/sub push:
// ["message", channel, payload], ["pmessage", pattern, channel, payload],
// or a subscribe/unsubscribe confirmation array.
func isPushFrame(v respio.Value) (kind string, ok bool) {
	if v.Type != respio.Array || len(v.Array) < 2 {
		return "", false
	}
	if v.Array[0].Type != respio.Bulk {
		return "", false
	}
	k := string(v.Array[0].Bulk)
	switch k {
	case "message", "pmessage", "subscribe", "psubscribe", "unsubscribe", "punsubscribe":
		return k, true
	default:
		return "", false
	}
}
