package driver

import (
	"bufio"
	"net"
	"strings"
	"time"
)

// DefaultTimeout bounds a single command round trip.
const DefaultTimeout = 5 * time.Second

// Client is a line protocol connection to a netkv server.
type Client struct {
	addr    string
	timeout time.Duration
	conn    net.Conn
	br      *bufio.Reader
}

// NewClient creates a client for the given address. The connection is
// established lazily on first use.
func NewClient(addr string) *Client {
	return &Client{addr: addr, timeout: DefaultTimeout}
}

// Connect dials the server.
func (c *Client) Connect() error {
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return err
	}
	c.conn = conn
	c.br = bufio.NewReader(conn)
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Execute sends one command and returns its single-line reply with the
// trailing newline stripped.
func (c *Client) Execute(cmd string) (string, error) {
	if c.conn == nil {
		if err := c.Connect(); err != nil {
			return "", err
		}
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if _, err := c.conn.Write([]byte(cmd + "\n")); err != nil {
		return "", err
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	line, err := c.br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ExecuteMulti sends one command and collects reply lines until the
// server goes quiet for the wait window. Used for dump, whose reply
// spans a line per entry.
func (c *Client) ExecuteMulti(cmd string, wait time.Duration) ([]string, error) {
	if c.conn == nil {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if _, err := c.conn.Write([]byte(cmd + "\n")); err != nil {
		return nil, err
	}

	var lines []string
	deadline := c.timeout
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(deadline))
		line, err := c.br.ReadString('\n')
		if err != nil {
			if len(lines) > 0 && isTimeout(err) {
				return lines, nil
			}
			return lines, err
		}
		lines = append(lines, strings.TrimRight(line, "\r\n"))
		deadline = wait
	}
}

func isTimeout(err error) bool {
	netErr, ok := err.(net.Error)
	return ok && netErr.Timeout()
}
