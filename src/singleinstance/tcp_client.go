package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

func (c *tcpClient) Send(ctx context.Context, cmd Command) (string, bool, error) {
	timeout := timeoutFrom(ctx, 2*time.Second)
	port, ok := findResident(ctx)
	if !ok {
		return "", false, nil
	}
	status, body, err := roundTrip(addrFor(port), string(cmd), timeout)
	if err != nil {
		return "", true, err
	}
	switch status {
	case "OK":
		return body, true, nil
	case "ERROR":
		return "", true, errors.New(body)
	default:
		return "", true, errors.New("unexpected resident reply " + strconv.Quote(status))
	}
}

// findResident returns the first port in range whose listener answers PING.
func findResident(ctx context.Context) (int, bool) {
	timeout := timeoutFrom(ctx, 300*time.Millisecond)
	for port := range rangeFromEnv().ports() {
		if ctx.Err() != nil {
			return 0, false
		}
		if status, _, err := roundTrip(addrFor(port), "PING", timeout); err == nil && status == "PONG" {
			return port, true
		}
	}
	return 0, false
}

func addrFor(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}

func timeoutFrom(ctx context.Context, def time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return def
}

// roundTrip writes one request line and reads the status line plus the rest
// of the reply until the server closes the connection.
func roundTrip(addr, request string, timeout time.Duration) (status, body string, err error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", "", err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	if _, err := io.WriteString(conn, request+"\n"); err != nil {
		return "", "", err
	}
	br := bufio.NewReader(conn)
	line, err := br.ReadString('\n')
	if err != nil {
		return "", "", err
	}
	rest, _ := io.ReadAll(br)
	return strings.TrimSuffix(line, "\n"), strings.TrimSpace(string(rest)), nil
}
