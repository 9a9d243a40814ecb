package recorder

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/bancho-mp-bot/internal/lobby"
	"github.com/park285/bancho-mp-bot/internal/sendq"
	"github.com/park285/bancho-mp-bot/pkg/mpdto"
)

// Commander is the session surface relay commands act on.
type Commander interface {
	Send(target, text string) (*sendq.Pending, error)
	Join(channel string) (*sendq.Pending, error)
	Leave(channel string) (*sendq.Pending, error)
	Channel(name string) *lobby.Lobby
}

var ErrNoCommander = errors.New("recorder has no session attached")

// SetCommander replaces the command target; Attach sets it to the client.
func (r *Recorder) SetCommander(c Commander) {
	r.mu.Lock()
	r.cmd = c
	r.mu.Unlock()
}

// HandleCommand applies one inbound relay command. Lines are only queued;
// delivery happens on the session's send governor.
func (r *Recorder) HandleCommand(cmd *mpdto.Command) error {
	r.mu.Lock()
	c := r.cmd
	r.mu.Unlock()
	if c == nil {
		return ErrNoCommander
	}
	if cmd == nil || strings.TrimSpace(cmd.Channel) == "" {
		return errors.New("command without channel")
	}

	var err error
	switch cmd.Type {
	case mpdto.CommandSay:
		_, err = c.Send(cmd.Channel, cmd.Text)
	case mpdto.CommandJoin:
		_, err = c.Join(cmd.Channel)
	case mpdto.CommandPart:
		_, err = c.Leave(cmd.Channel)
	case mpdto.CommandSettings:
		l := c.Channel(cmd.Channel)
		if l == nil {
			return fmt.Errorf("unknown channel: %s", cmd.Channel)
		}
		_, err = l.RequestSettings()
	default:
		return fmt.Errorf("unknown command type: %s", cmd.Type)
	}
	if err != nil {
		r.log.Warn("recorder_command_failed", zap.String("type", cmd.Type), zap.String("channel", cmd.Channel), zap.Error(err))
	}
	return err
}
