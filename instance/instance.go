// Package instance keeps clipkeep to one running copy per user session.
//
// The first process binds a well-known loopback port and becomes the owner.
// A later launch fails to bind, becomes a challenger, sends SHOW to the
// owner and exits.
package instance

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"markestedt/clipkeep/bus"
)

// DefaultAddr is the well-known owner address
const DefaultAddr = "127.0.0.1:50677"

const (
	// DialTimeout bounds the challenger's connect and reply wait
	DialTimeout = 250 * time.Millisecond

	acceptTimeout = 500 * time.Millisecond
	connTimeout   = 500 * time.Millisecond
)

// ErrAlreadyRunning is returned by Listen when another instance owns the address
var ErrAlreadyRunning = errors.New("another instance is already running")

const (
	showCommand = "SHOW"
	ack         = "OK\n"
)

// Owner is the listening side of the arbiter
type Owner struct {
	ln  *net.TCPListener
	pub bus.Publisher

	closing   atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// Listen binds addr exclusively and starts the accept loop. Any bind failure
// is treated as "someone else owns it" and wrapped in ErrAlreadyRunning.
func Listen(addr string, pub bus.Publisher) (*Owner, error) {
	ln, err := listenExclusive(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlreadyRunning, err)
	}

	o := &Owner{
		ln:   ln,
		pub:  pub,
		done: make(chan struct{}),
	}
	go o.acceptLoop()

	slog.Info("Single-instance server listening", "addr", ln.Addr().String())
	return o, nil
}

// Addr returns the bound address
func (o *Owner) Addr() string {
	return o.ln.Addr().String()
}

func (o *Owner) acceptLoop() {
	defer close(o.done)

	for !o.closing.Load() {
		_ = o.ln.SetDeadline(time.Now().Add(acceptTimeout))
		conn, err := o.ln.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if o.closing.Load() {
				return
			}
			slog.Debug("Single-instance accept failed", "error", err)
			continue
		}
		o.handle(conn)
	}
}

func (o *Owner) handle(conn net.Conn) {
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(connTimeout))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		slog.Debug("Single-instance read failed", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}

	if !isShow(line) {
		slog.Debug("Single-instance ignored payload", "payload", strings.TrimSpace(line))
		return
	}

	o.pub.Publish(bus.Event{Type: bus.Show})
	if _, err := conn.Write([]byte(ack)); err != nil {
		slog.Debug("Single-instance ack failed", "error", err)
	}
}

func isShow(line string) bool {
	payload := strings.TrimSpace(line)
	return len(payload) >= len(showCommand) && strings.EqualFold(payload[:len(showCommand)], showCommand)
}

// Close stops accepting, releases the address and waits for the loop to exit
func (o *Owner) Close() error {
	var err error
	o.closeOnce.Do(func() {
		o.closing.Store(true)
		err = o.ln.Close()
		<-o.done
		slog.Debug("Single-instance server closed")
	})
	return err
}

// Notify asks the owner at addr to show its window and returns its reply.
// The caller exits whether or not this succeeds.
func Notify(addr string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DialTimeout
	}

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", fmt.Errorf("failed to reach running instance: %w", err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := conn.Write([]byte(showCommand + "\n")); err != nil {
		return "", fmt.Errorf("failed to send show request: %w", err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && reply == "" {
		return "", fmt.Errorf("failed to read reply: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
