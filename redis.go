// Package redis implements the reliable core of an asynchronous Redis
// client: a connection state machine, an in-flight command queue, a
// reconnect/retry engine, and pub/sub subscription restoration. It wraps
// rescore.Endpoint with a small, representative command surface — GET,
// SET, DEL, EXPIRE, PUBLISH, and the pub/sub verbs — rather than the full
// Redis command set, which is out of scope for the core.
package redis

import (
	"context"

	"go.uber.org/zap"

	"github.com/pascaldekloe/redis/v2/rescore"
	"github.com/pascaldekloe/redis/v2/resuri"
	"github.com/pascaldekloe/redis/v2/restransport"
)

// Client is a thin, typed front for one rescore.Endpoint.
type Client struct {
	endpoint  *rescore.Endpoint
	resources *rescore.ClientResources
}

// Dial parses uri (see resuri.Parse) and starts an Endpoint against it.
// The returned Client is usable immediately; commands submitted before
// the connection reaches ACTIVE are buffered per config.Disconnected.
func Dial(uri string, config rescore.EndpointConfig, logger *zap.Logger) (*Client, error) {
	ep, err := resuri.Parse(uri)
	if err != nil {
		return nil, err
	}
	if config.Password == "" {
		config.Password = ep.Password
	}
	if config.DB == 0 {
		config.DB = ep.DB
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = resuri.DefaultDialTimeout()
	}
	return newClient(ep.Addr, ep.Transport, config, logger), nil
}

// NewClient builds a Client against addr using an explicit transport,
// bypassing URI parsing entirely — the constructor tests and embedders
// reach for.
func NewClient(addr string, transport restransport.Transport, config rescore.EndpointConfig, logger *zap.Logger) *Client {
	return newClient(addr, transport, config, logger)
}

func newClient(addr string, transport restransport.Transport, config rescore.EndpointConfig, logger *zap.Logger) *Client {
	resources := rescore.NewClientResources(logger, 0)
	ep := rescore.NewEndpoint(addr, transport, config, resources, false)
	ep.Start()
	return &Client{endpoint: ep, resources: resources}
}

// Endpoint exposes the underlying state machine for callers that need
// lifecycle events, watchdog controls, or raw Command submission.
func (c *Client) Endpoint() *rescore.Endpoint { return c.endpoint }

// Close releases the connection and fails every pending command with
// rescore.ErrClosed.
func (c *Client) Close() error { return c.endpoint.Close() }

func (c *Client) do(ctx context.Context, name string, output rescore.Output) error {
	cmd := rescore.NewCommand(name, output)
	c.endpoint.Write(cmd)
	return cmd.Future.Await(ctx)
}

// Get issues GET. ok is false when the key does not exist.
func (c *Client) Get(ctx context.Context, key string) (value []byte, ok bool, err error) {
	out := rescore.NewBulkOutput("GET", key)
	if err := c.do(ctx, "GET", out); err != nil {
		return nil, false, err
	}
	return out.Bytes, !out.Null, nil
}

// Set issues SET.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	return c.do(ctx, "SET", rescore.NewOKOutput("SET", key, value))
}

// Del issues DEL and returns the number of keys removed.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	out := rescore.NewIntegerOutput("DEL", toArgs(keys)...)
	if err := c.do(ctx, "DEL", out); err != nil {
		return 0, err
	}
	return out.Int, nil
}

// Expire issues EXPIRE with a second-resolution TTL.
func (c *Client) Expire(ctx context.Context, key string, seconds int64) (bool, error) {
	out := rescore.NewIntegerOutput("EXPIRE", key, seconds)
	if err := c.do(ctx, "EXPIRE", out); err != nil {
		return false, err
	}
	return out.Int == 1, nil
}

// Publish issues PUBLISH and returns the number of subscribers that
// received the message.
func (c *Client) Publish(ctx context.Context, channel string, payload []byte) (int64, error) {
	out := rescore.NewIntegerOutput("PUBLISH", channel, payload)
	if err := c.do(ctx, "PUBLISH", out); err != nil {
		return 0, err
	}
	return out.Int, nil
}

func toArgs(keys []string) []any {
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	return args
}

// Listener is a Client specialized for pub/sub: it carries a subscription
// set that survives reconnects, restored transparently by rescore before
// the endpoint reports ACTIVE again.
type Listener struct {
	endpoint *rescore.Endpoint
}

// NewListener builds a Listener against addr. Unlike Client, a Listener's
// Endpoint enables subscription tracking.
func NewListener(addr string, transport restransport.Transport, config rescore.EndpointConfig, logger *zap.Logger) *Listener {
	resources := rescore.NewClientResources(logger, 0)
	ep := rescore.NewEndpoint(addr, transport, config, resources, true)
	ep.Start()
	return &Listener{endpoint: ep}
}

// Endpoint exposes the underlying state machine, as Client.Endpoint does.
func (l *Listener) Endpoint() *rescore.Endpoint { return l.endpoint }

// Subscribe subscribes to an exact channel name and returns the Command
// whose Future resolves once the server confirms it, plus the message
// sink. Cancelling that Command withdraws only the SUBSCRIBE request: the
// channel stays in the subscription set until Unsubscribe removes it.
func (l *Listener) Subscribe(channel string) (*rescore.Command, <-chan rescore.PubSubMessage) {
	return l.endpoint.Subscribe(channel)
}

// PSubscribe subscribes to a glob pattern.
func (l *Listener) PSubscribe(pattern string) (*rescore.Command, <-chan rescore.PubSubMessage) {
	return l.endpoint.PSubscribe(pattern)
}

// Unsubscribe removes channel from the subscription set.
func (l *Listener) Unsubscribe(channel string) *rescore.Command {
	return l.endpoint.Unsubscribe(channel)
}

// PUnsubscribe removes a glob pattern from the subscription set.
func (l *Listener) PUnsubscribe(pattern string) *rescore.Command {
	return l.endpoint.PUnsubscribe(pattern)
}

// Close releases the connection.
func (l *Listener) Close() error { return l.endpoint.Close() }
