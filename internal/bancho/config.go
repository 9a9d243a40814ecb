package bancho

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/park285/bancho-mp-bot/internal/msgcat"
	"github.com/park285/bancho-mp-bot/internal/sendq"
	"go.uber.org/zap"
)

const (
	DefaultHost         = "irc.ppy.sh"
	DefaultPort         = 6667
	DefaultMessageDelay = time.Second
	DefaultMessageSize  = 449
	DefaultIdleTimeout  = 10 * time.Second
	DefaultAssistant    = "BanchoBot"
)

// Fatal session errors end the connection; soft errors travel in event
// payloads and only fail the operation they belong to.
var (
	ErrBadAuth       = errors.New("bancho: bad auth")
	ErrTimedOut      = errors.New("bancho: timed out")
	ErrNotConnected  = errors.New("bancho: not connected")
	ErrClosed        = errors.New("bancho: client closed")
	ErrNoSuchChannel = errors.New("bancho: no such channel")
	ErrNoSuchNick    = errors.New("bancho: no such nick")
	// ErrLineBreak rejects outbound text carrying CR or LF.
	ErrLineBreak = sendq.ErrLineBreak
)

// Config carries connection settings. Zero fields take the defaults above;
// a negative IdleTimeout disables the idle check.
type Config struct {
	Host         string
	Port         int
	MessageDelay time.Duration
	MessageSize  int
	IdleTimeout  time.Duration
	Assistant    string
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.MessageDelay <= 0 {
		c.MessageDelay = DefaultMessageDelay
	}
	if c.MessageSize <= 0 {
		c.MessageSize = DefaultMessageSize
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.Assistant == "" {
		c.Assistant = DefaultAssistant
	}
	return c
}

func (c Config) addr() string { return net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) }

// Credentials are used once for the handshake and not retained.
type Credentials struct {
	Username string
	Password string
}

type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

type Option func(*Client)

func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

func WithCommands(cat *msgcat.Catalog) Option { return func(c *Client) { c.commands = cat } }

// WithDialer replaces the TCP dialer, mainly for tests.
func WithDialer(d DialFunc) Option { return func(c *Client) { c.dial = d } }
