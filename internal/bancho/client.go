package bancho

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/park285/bancho-mp-bot/internal/event"
	"github.com/park285/bancho-mp-bot/internal/irc"
	"github.com/park285/bancho-mp-bot/internal/lobby"
	"github.com/park285/bancho-mp-bot/internal/msgcat"
	"github.com/park285/bancho-mp-bot/internal/obslog"
	"github.com/park285/bancho-mp-bot/internal/sendq"
	"go.uber.org/zap"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

// session is everything tied to one TCP connection.
type session struct {
	conn    net.Conn
	queue   *sendq.Queue
	writeMu sync.Mutex
	closing atomic.Bool
	once    sync.Once
	ready   *event.Signal[string]
}

// Client is one Bancho connection plus the channel registry built on it.
type Client struct {
	cfg      Config
	log      *zap.Logger
	commands *msgcat.Catalog
	dial     DialFunc

	Events Events

	mu    sync.Mutex
	state State
	sess  *session
	nick  string

	chMu     sync.RWMutex
	channels map[string]*lobby.Lobby

	waitMu  sync.Mutex
	joins   map[string][]*event.Signal[*lobby.Lobby]
	creates []*createWaiter
	claimed map[*lobby.Lobby]struct{}
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:      cfg.withDefaults(),
		channels: make(map[string]*lobby.Lobby),
		joins:    make(map[string][]*event.Signal[*lobby.Lobby]),
		claimed:  make(map[*lobby.Lobby]struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = obslog.L()
	}
	if c.commands == nil {
		c.commands = msgcat.Default()
	}
	if c.dial == nil {
		d := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
		c.dial = d.DialContext
	}
	return c
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Nick is the username sent in the handshake.
func (c *Client) Nick() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nick
}

func (c *Client) Config() Config { return c.cfg }

// Connect opens the TCP connection and starts the receive loop. It does not
// authenticate.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateClosed:
		c.mu.Unlock()
		return ErrClosed
	case StateConnecting, StateConnected, StateReady:
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	addr := c.cfg.addr()
	conn, err := c.dial(ctx, "tcp", addr)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	s := &session{conn: conn, ready: event.NewSignal[string]()}
	s.queue = sendq.New(c.cfg.MessageDelay, c.cfg.MessageSize,
		sendq.WithLogger(c.log),
		sendq.WithOnWrite(c.onSent),
	)

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrClosed
	}
	c.sess = s
	c.state = StateConnected
	c.mu.Unlock()

	c.log.Info("bancho_connected", zap.String("addr", addr))
	c.Events.Connected.Publish(addr)
	go c.readLoop(s)
	return nil
}

// Authenticate sends PASS, USER and NICK back to back. Readiness is reported
// later through the Ready stream or Login.
func (c *Client) Authenticate(username, password string) error {
	s := c.session()
	if s == nil {
		return ErrNotConnected
	}
	if hasLineBreak(username, password) {
		return ErrLineBreak
	}
	c.mu.Lock()
	c.nick = username
	c.mu.Unlock()
	for _, line := range []string{irc.Pass(password), irc.User(username), irc.Nick(username)} {
		if err := c.write(s, line); err != nil {
			return fmt.Errorf("handshake: %w", err)
		}
	}
	c.log.Debug("bancho_handshake_sent", zap.String("nick", username))
	return nil
}

// Login connects, authenticates and waits until the server accepts the
// credentials. A rejected password returns ErrBadAuth.
func (c *Client) Login(ctx context.Context, cred Credentials) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	s := c.session()
	if s == nil {
		return ErrNotConnected
	}
	if err := c.Authenticate(cred.Username, cred.Password); err != nil {
		return err
	}
	_, err := s.ready.Wait(ctx)
	return err
}

// Close tears the connection down. Queued lines fail with
// sendq.ErrQueueClosed. The client cannot be reused. Sent handlers must not
// call Close.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosed
	s := c.sess
	c.mu.Unlock()

	if s != nil {
		s.closing.Store(true)
		c.teardown(s, nil)
	} else {
		c.rejectWaiters(ErrClosed)
	}
	return nil
}

func (c *Client) setState(st State) {
	c.mu.Lock()
	if c.state != StateClosed {
		c.state = st
	}
	c.mu.Unlock()
}

func (c *Client) session() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// write puts one line on the wire, bypassing the send governor.
func (c *Client) write(s *session, line string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if c.cfg.IdleTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(c.cfg.IdleTimeout))
	}
	_, err := io.WriteString(s.conn, line+"\r\n")
	return err
}

func (c *Client) onSent(line string) {
	c.log.Debug("bancho_sent", zap.String("line", line))
	c.Events.Sent.Publish(line)
}

func (c *Client) readLoop(s *session) {
	buf := make([]byte, 4096)
	var fr irc.Framer
	for {
		if c.cfg.IdleTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))
		}
		n, err := s.conn.Read(buf)
		if n > 0 {
			for _, line := range fr.Feed(buf[:n]) {
				if ferr := c.handleLine(s, line); ferr != nil {
					c.teardown(s, ferr)
					return
				}
			}
		}
		if err != nil {
			c.teardown(s, c.classifyReadErr(s, err))
			return
		}
	}
}

func (c *Client) classifyReadErr(s *session, err error) error {
	if s.closing.Load() {
		return nil
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrTimedOut
	}
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("bancho: connection closed by server: %w", err)
	}
	return fmt.Errorf("bancho: read: %w", err)
}

// teardown destroys the session once. A nil cause means a requested close.
func (c *Client) teardown(s *session, cause error) {
	s.once.Do(func() {
		_ = s.conn.Close()
		s.queue.Stop()

		c.mu.Lock()
		if c.sess == s {
			c.sess = nil
			if c.state != StateClosed {
				c.state = StateDisconnected
			}
		}
		c.mu.Unlock()

		c.chMu.Lock()
		c.channels = make(map[string]*lobby.Lobby)
		c.chMu.Unlock()

		waitErr := cause
		if waitErr == nil {
			waitErr = ErrClosed
		}
		s.ready.Reject(waitErr)
		c.rejectWaiters(waitErr)

		if cause != nil {
			c.log.Error("bancho_session_error", zap.Error(cause))
			c.Events.Error.Publish(cause)
		} else {
			c.log.Info("bancho_disconnected")
		}
		c.Events.Disconnected.Publish(cause)
	})
}

// enqueue hands a line to the send governor of the current session.
func (c *Client) enqueue(line string) (*sendq.Pending, error) {
	s := c.session()
	if s == nil {
		if c.State() == StateClosed {
			return nil, ErrClosed
		}
		return nil, ErrNotConnected
	}
	return s.queue.Enqueue(line)
}

// Send queues a PRIVMSG to a channel or user.
func (c *Client) Send(target, text string) (*sendq.Pending, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.New("bancho: target is required")
	}
	if text == "" {
		return nil, errors.New("bancho: message is required")
	}
	if hasLineBreak(target, text) {
		return nil, ErrLineBreak
	}
	return c.enqueue(irc.Privmsg(target, text))
}

// PM sends a private message to user.
func (c *Client) PM(user, text string) (*sendq.Pending, error) { return c.Send(user, text) }

// Join queues a JOIN; the leading '#' is optional.
func (c *Client) Join(channel string) (*sendq.Pending, error) {
	if hasLineBreak(channel) {
		return nil, ErrLineBreak
	}
	return c.enqueue(irc.Join(channel))
}

// Leave queues a PART; the leading '#' is optional.
func (c *Client) Leave(channel string) (*sendq.Pending, error) {
	if hasLineBreak(channel) {
		return nil, ErrLineBreak
	}
	return c.enqueue(irc.Part(channel))
}

func hasLineBreak(parts ...string) bool {
	for _, p := range parts {
		if strings.ContainsAny(p, "\r\n") {
			return true
		}
	}
	return false
}
