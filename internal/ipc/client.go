package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client issues single-shot requests against the daemon's control socket.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: 5 * time.Second}
}

// roundTrip opens a connection, sends one request, and decodes the response.
func (c *Client) roundTrip(req Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.socketPath, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return nil, fmt.Errorf("connection closed before response")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

// Ping checks whether the daemon is alive.
func (c *Client) Ping() error {
	_, err := c.roundTrip(Request{Command: "ping"})
	return err
}

// Status fetches the daemon's status.
func (c *Client) Status() (*StatusData, error) {
	resp, err := c.roundTrip(Request{Command: "status"})
	if err != nil {
		return nil, err
	}

	// Data arrives as generic JSON; re-encode into the typed struct.
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, err
	}
	var status StatusData
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

// RequestStop asks the daemon to shut down.
func (c *Client) RequestStop() error {
	_, err := c.roundTrip(Request{Command: "stop"})
	return err
}
