package sentinel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nutcracker-tools/beholder/internal/models"
)

// SwitchMasterChannel is the sentinel pub/sub channel announcing failovers.
const SwitchMasterChannel = "+switch-master"

const dialTimeout = 5 * time.Second

var (
	ErrClientStopped = errors.New("sentinel client stopped")
	ErrNotConnected  = errors.New("sentinel client not connected")
)

// Client owns the single long-lived subscription to sentinel. There is
// exactly one meaningful notification stream, so it never pools
// connections. Retry policy belongs to the caller: every failure here is
// surfaced, not retried.
type Client struct {
	addr  string
	state atomic.Int32

	mu  sync.Mutex
	rdb *redis.Client
	sub *redis.PubSub
}

func NewClient(addr string) *Client {
	return &Client{addr: addr}
}

func (c *Client) State() models.ConnState {
	return models.ConnState(c.state.Load())
}

func (c *Client) setState(s models.ConnState) {
	c.state.Store(int32(s))
}

// Connect dials sentinel and subscribes to the switch-master channel,
// replacing any stale connection from a previous session.
func (c *Client) Connect(ctx context.Context) error {
	if c.State() == models.Stopped {
		return ErrClientStopped
	}
	c.teardown()
	c.setState(models.Connecting)

	rdb := redis.NewClient(&redis.Options{
		Addr:        c.addr,
		DialTimeout: dialTimeout,
		// the reconciliation loop owns the retry policy
		MaxRetries: -1,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		c.setState(models.Disconnected)
		return fmt.Errorf("failed to connect to sentinel %s: %w", c.addr, err)
	}

	sub := rdb.Subscribe(ctx, SwitchMasterChannel)
	// the first reply confirms the subscription
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		_ = rdb.Close()
		c.setState(models.Disconnected)
		return fmt.Errorf("failed to subscribe to %s on %s: %w", SwitchMasterChannel, c.addr, err)
	}

	c.mu.Lock()
	if c.State() == models.Stopped {
		c.mu.Unlock()
		_ = sub.Close()
		_ = rdb.Close()
		return ErrClientStopped
	}
	c.rdb, c.sub = rdb, sub
	c.setState(models.Subscribed)
	c.mu.Unlock()
	return nil
}

// Next blocks until a notification payload arrives, the connection drops or
// the client is closed.
func (c *Client) Next(ctx context.Context) (string, error) {
	c.mu.Lock()
	sub := c.sub
	c.mu.Unlock()
	if sub == nil {
		if c.State() == models.Stopped {
			return "", ErrClientStopped
		}
		return "", ErrNotConnected
	}

	c.setState(models.Listening)
	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		if c.State() != models.Stopped {
			c.setState(models.Disconnected)
		}
		return "", fmt.Errorf("failed to receive sentinel message: %w", err)
	}
	return msg.Payload, nil
}

// Close transitions the client to its terminal state and closes the
// underlying connection, unblocking a concurrent Next.
func (c *Client) Close() error {
	c.setState(models.Stopped)
	return c.teardown()
}

func (c *Client) teardown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.sub != nil {
		err = c.sub.Close()
		c.sub = nil
	}
	if c.rdb != nil {
		if cerr := c.rdb.Close(); err == nil {
			err = cerr
		}
		c.rdb = nil
	}
	return err
}
