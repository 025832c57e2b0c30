package udp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	lights "wiz-fleet/internal/lights/domain"
)

const (
	// DefaultPort is the UDP port WiZ fixtures listen on.
	DefaultPort = 38899
	// DefaultTimeout bounds the wait for a reply datagram.
	DefaultTimeout    = 2 * time.Second
	defaultBufferSize = 4096
)

// ErrTimeout is returned when no reply arrives within the timeout.
var ErrTimeout = errors.New("udp: timeout waiting for reply")

// TransportError wraps socket and decode failures.
type TransportError struct {
	Op   string
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("udp: %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Dialer opens the per-call socket.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Client performs one request/reply exchange per call. It holds no socket
// between calls and is safe for concurrent use.
type Client struct {
	port       int
	timeout    time.Duration
	bufferSize int
	dialer     Dialer
}

// Option configures the client.
type Option func(*Client)

// WithTimeout overrides the reply timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithBufferSize overrides the receive buffer size.
func WithBufferSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.bufferSize = size
		}
	}
}

// WithDialer overrides the socket dialer.
func WithDialer(dialer Dialer) Option {
	return func(c *Client) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

// NewClient constructs a client for fixtures listening on port.
func NewClient(port int, opts ...Option) (*Client, error) {
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("udp: invalid port %d", port)
	}
	c := &Client{
		port:       port,
		timeout:    DefaultTimeout,
		bufferSize: defaultBufferSize,
		dialer:     &net.Dialer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Timeout returns the configured reply timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Send writes cmd as one datagram to address and waits for one reply.
// It returns ErrTimeout when nothing arrives in time, ctx.Err() when the
// context ends first and *TransportError for everything else.
func (c *Client) Send(ctx context.Context, address string, cmd lights.Command) (*lights.Reply, error) {
	target := net.JoinHostPort(address, strconv.Itoa(c.port))
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, &TransportError{Op: "encode", Addr: target, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := c.dialer.DialContext(ctx, "udp", target)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &TransportError{Op: "dial", Addr: target, Err: err}
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, &TransportError{Op: "deadline", Addr: target, Err: err}
	}
	// Unblock the read as soon as the caller gives up.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := conn.Write(payload); err != nil {
		return nil, c.classify(ctx, "write", target, err)
	}

	buf := make([]byte, c.bufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, c.classify(ctx, "read", target, err)
	}

	var reply lights.Reply
	if err := json.Unmarshal(buf[:n], &reply); err != nil {
		return nil, &TransportError{Op: "decode", Addr: target, Err: err}
	}
	return &reply, nil
}

func (c *Client) classify(ctx context.Context, op, target string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return &TransportError{Op: op, Addr: target, Err: err}
}
