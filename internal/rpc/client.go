package rpc

import (
	"fmt"
	"net"
	"time"

	"github.com/wok-dev/wok/internal/op"
)

// Client is a thin synchronous RPC client over the daemon's Unix-domain
// socket. A connection carries one Hello handshake plus one request, so
// each logical call dials, handshakes, exchanges, and closes.
type Client struct {
	socketPath string
	version    string
	timeout    time.Duration

	// conn is non-nil only right after a mismatched handshake: the
	// server keeps that connection open for a follow-up Shutdown, and
	// the next call consumes it.
	conn net.Conn
}

// Dial probes the daemon at socketPath with a Hello handshake carrying
// clientVersion. A *VersionMismatchError is returned if the daemon
// reports a different protocol version; the caller is expected to
// Shutdown the daemon and respawn.
func Dial(socketPath, clientVersion string, timeout time.Duration) (*Client, error) {
	c := &Client{socketPath: socketPath, version: clientVersion, timeout: timeout}

	conn, resp, err := c.handshake()
	if err != nil {
		return nil, err
	}
	switch r := resp.(type) {
	case *Ready:
		conn.Close()
		return c, nil
	case *VersionMismatch:
		c.conn = conn // held open so Shutdown can ride this connection
		return c, &VersionMismatchError{Daemon: r.Daemon, Client: r.Client}
	default:
		conn.Close()
		return nil, fmt.Errorf("rpc: unexpected handshake response %T", resp)
	}
}

// handshake opens a fresh connection and exchanges Hello for the
// daemon's verdict.
func (c *Client) handshake() (net.Conn, Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("rpc: dial %s: %w", c.socketPath, err)
	}
	if err := WriteRequest(conn, NewHello(c.version)); err != nil {
		conn.Close()
		return nil, nil, err
	}
	resp, err := ReadResponse(conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, resp, nil
}

// call performs one request/response exchange on its own connection,
// reusing the held-open mismatch connection if there is one.
func (c *Client) call(req Request) (Response, error) {
	if held := c.conn; held != nil {
		c.conn = nil
		defer held.Close()
		if err := WriteRequest(held, req); err != nil {
			return nil, err
		}
		return ReadResponse(held)
	}

	conn, resp, err := c.handshake()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	if mm, ok := resp.(*VersionMismatch); ok {
		return nil, &VersionMismatchError{Daemon: mm.Daemon, Client: mm.Client}
	}
	if _, ok := resp.(*Ready); !ok {
		return nil, fmt.Errorf("rpc: unexpected handshake response %T", resp)
	}
	if err := WriteRequest(conn, req); err != nil {
		return nil, err
	}
	return ReadResponse(conn)
}

// VersionMismatchError reports a protocol version disagreement with
// the daemon. The handshake connection is still open so the caller can
// send Shutdown over it.
type VersionMismatchError struct {
	Daemon string
	Client string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("rpc: version mismatch: daemon=%s client=%s", e.Daemon, e.Client)
}

// Close releases the held-open handshake connection, if any.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Ping sends a health probe and waits for Pong.
func (c *Client) Ping() error {
	return expectResponse[*Pong](c, NewPing())
}

// Status fetches daemon metadata.
func (c *Client) Status() (*StatusResp, error) {
	return typedResponse[*StatusResp](c, NewStatusReq())
}

// Shutdown asks the daemon to stop in an orderly fashion and waits for
// its acknowledgement.
func (c *Client) Shutdown() error {
	return expectResponse[*ShutdownAck](c, NewShutdownReq())
}

// Query issues a typed read and returns the precise result variant.
func (c *Client) Query(tag QueryTag) (QueryResultPayload, error) {
	result, err := typedResponse[*QueryResult](c, NewQuery(tag))
	if err != nil {
		return nil, err
	}
	return result.Result, nil
}

// Mutate applies one operation through the daemon's single-owner
// write path.
func (c *Client) Mutate(o op.Op) (*MutateResult, error) {
	return typedResponse[*MutateResult](c, NewMutate(o))
}

func expectResponse[T Response](c *Client, req Request) error {
	_, err := typedResponse[T](c, req)
	return err
}

func typedResponse[T Response](c *Client, req Request) (T, error) {
	var zero T
	resp, err := c.call(req)
	if err != nil {
		return zero, err
	}
	if e, ok := resp.(*ErrorResp); ok {
		return zero, fmt.Errorf("rpc: %s: %s", e.Kind, e.Message)
	}
	t, ok := resp.(T)
	if !ok {
		return zero, fmt.Errorf("rpc: unexpected response %T, want %T", resp, zero)
	}
	return t, nil
}
