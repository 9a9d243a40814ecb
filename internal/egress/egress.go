package egress

import (
    "context"
    "errors"

    "go.uber.org/zap"

    "github.com/park285/bancho-mp-bot/pkg/mpdto"
)

// Egress relays lobby events out of the process.
type Egress interface {
    Publish(ctx context.Context, ev *mpdto.Event) error
}

const (
    ModeNone = "none"
    ModeHTTP = "http"
    ModeWS   = "ws"
    ModeAuto = "auto"
)

// New picks a transport by mode. auto prefers the WebSocket when connected
// and falls back to HTTP once on failure. Unknown or empty modes yield Nop.
func New(mode string, dryrun bool, c *Client, ws *WebSocket, logger *zap.Logger) Egress {
    if logger == nil {
        logger = zap.NewNop()
    }
    var out Egress
    switch mode {
    case ModeHTTP:
        out = &httpEgress{c: c}
    case ModeWS:
        out = &wsEgress{ws: ws}
    case ModeAuto:
        out = &autoEgress{ws: &wsEgress{ws: ws}, http: &httpEgress{c: c}, logger: logger}
    default:
        return Nop{}
    }
    if dryrun {
        return &dryrunEgress{mode: mode, logger: logger}
    }
    return out
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, *mpdto.Event) error { return nil }

type dryrunEgress struct {
    mode   string
    logger *zap.Logger
}

func (d *dryrunEgress) Publish(_ context.Context, ev *mpdto.Event) error {
    d.logger.Info("egress_dryrun",
        zap.String("mode", d.mode),
        zap.String("type", ev.Type),
        zap.String("channel", ev.Channel),
        zap.String("kind", ev.Kind),
    )
    return nil
}

type httpEgress struct{ c *Client }

func (h *httpEgress) Publish(ctx context.Context, ev *mpdto.Event) error {
    if h == nil || h.c == nil { return errors.New("http egress not available") }
    return h.c.PostEvent(ctx, ev)
}

type wsEgress struct{ ws *WebSocket }

func (w *wsEgress) Publish(ctx context.Context, ev *mpdto.Event) error {
    if w == nil || w.ws == nil { return errors.New("ws egress not available") }
    return w.ws.WriteEvent(ctx, ev)
}

type autoEgress struct {
    ws     *wsEgress
    http   *httpEgress
    logger *zap.Logger
}

func (a *autoEgress) Publish(ctx context.Context, ev *mpdto.Event) error {
    if a.ws.ws != nil && a.ws.ws.State() == WSStateConnected {
        if err := a.ws.Publish(ctx, ev); err == nil { return nil }
        a.logger.Warn("egress_fallback", zap.String("type", ev.Type), zap.String("channel", ev.Channel))
    }
    return a.http.Publish(ctx, ev)
}
