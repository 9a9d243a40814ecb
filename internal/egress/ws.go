package egress

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "sync"
    "time"

    "nhooyr.io/websocket"
    "nhooyr.io/websocket/wsjson"

    "github.com/park285/bancho-mp-bot/pkg/mpdto"
)

type WSState int

const (
    WSStateDisconnected WSState = iota
    WSStateConnecting
    WSStateConnected
    WSStateReconnecting
    WSStateFailed
)

func (s WSState) String() string {
    switch s {
    case WSStateConnecting:
        return "connecting"
    case WSStateConnected:
        return "connected"
    case WSStateReconnecting:
        return "reconnecting"
    case WSStateFailed:
        return "failed"
    default:
        return "disconnected"
    }
}

var ErrWSNotConnected = errors.New("ws not connected")

// CommandCallback receives inbound relay frames.
type CommandCallback func(cmd *mpdto.Command)

type StateCallback func(state WSState)

type callbackEntry struct {
    id       int
    callback CommandCallback
}

type stateCallbackEntry struct {
    id       int
    callback StateCallback
}

// WebSocket is a reconnecting relay connection. Outbound frames are
// mpdto.Event, inbound frames are mpdto.Command.
type WebSocket struct {
    wsURL string

    conn   *websocket.Conn
    state  WSState
    stateM sync.RWMutex
    writeM sync.Mutex

    cmdCbs   []callbackEntry
    stateCbs []stateCallbackEntry
    nextCbID int
    cbM      sync.RWMutex

    maxReconnectAttempts int
    pingInterval         time.Duration

    stopCh   chan struct{}
    stopOnce sync.Once
    wg       sync.WaitGroup

    rootCtx    context.Context
    rootCancel context.CancelFunc

    headerProvider HeaderProvider
}

func NewWebSocket(wsURL string, maxReconnectAttempts int) *WebSocket {
    ctx, cancel := context.WithCancel(context.Background())
    return &WebSocket{
        wsURL:                wsURL,
        state:                WSStateDisconnected,
        maxReconnectAttempts: maxReconnectAttempts,
        pingInterval:         30 * time.Second,
        stopCh:               make(chan struct{}),
        rootCtx:              ctx,
        rootCancel:           cancel,
    }
}

// SetHeaderProvider allows injecting headers into the WS handshake.
func (ws *WebSocket) SetHeaderProvider(h HeaderProvider) { ws.headerProvider = h }

func (ws *WebSocket) State() WSState {
    ws.stateM.RLock()
    defer ws.stateM.RUnlock()
    return ws.state
}

func (ws *WebSocket) Connect(ctx context.Context) error {
    if st := ws.State(); st == WSStateConnected || st == WSStateConnecting {
        return nil
    }
    if ws.isStopping() {
        return errors.New("ws closed")
    }
    ws.setState(WSStateConnecting)

    conn, err := ws.dial(ctx)
    if err != nil {
        ws.setState(WSStateFailed)
        ws.scheduleReconnect()
        return err
    }
    ws.attach(conn)
    return nil
}

func (ws *WebSocket) dial(ctx context.Context) (*websocket.Conn, error) {
    dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()
    conn, _, err := websocket.Dial(dialCtx, ws.wsURL, &websocket.DialOptions{
        CompressionMode: websocket.CompressionNoContextTakeover,
        HTTPHeader:      ws.buildHeaders(),
    })
    return conn, err
}

func (ws *WebSocket) attach(conn *websocket.Conn) {
    ws.stateM.Lock()
    ws.conn = conn
    ws.stateM.Unlock()
    ws.setState(WSStateConnected)

    ws.wg.Add(2)
    go ws.listen(conn)
    go ws.pingLoop(conn)
}

func (ws *WebSocket) current() *websocket.Conn {
    ws.stateM.RLock()
    defer ws.stateM.RUnlock()
    if ws.state != WSStateConnected {
        return nil
    }
    return ws.conn
}

// WriteEvent writes ev as one JSON frame. Writes are serialized.
func (ws *WebSocket) WriteEvent(ctx context.Context, ev *mpdto.Event) error {
    conn := ws.current()
    if conn == nil {
        return ErrWSNotConnected
    }
    if _, ok := ctx.Deadline(); !ok {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
        defer cancel()
    }
    ws.writeM.Lock()
    defer ws.writeM.Unlock()
    return wsjson.Write(ctx, conn, ev)
}

func (ws *WebSocket) listen(conn *websocket.Conn) {
    defer ws.wg.Done()
    for {
        var cmd mpdto.Command
        if err := wsjson.Read(ws.rootCtx, conn, &cmd); err != nil {
            ws.drop(conn, "reconnect")
            return
        }

        ws.cbM.RLock()
        callbacks := make([]callbackEntry, len(ws.cmdCbs))
        copy(callbacks, ws.cmdCbs)
        ws.cbM.RUnlock()
        for _, entry := range callbacks {
            if entry.callback != nil {
                entry.callback(&cmd)
            }
        }
    }
}

func (ws *WebSocket) pingLoop(conn *websocket.Conn) {
    defer ws.wg.Done()
    t := time.NewTicker(ws.pingInterval)
    defer t.Stop()
    failures := 0
    for {
        select {
        case <-ws.stopCh:
            return
        case <-t.C:
            if ws.current() != conn {
                return
            }
            ctx, cancel := context.WithTimeout(ws.rootCtx, 3*time.Second)
            err := conn.Ping(ctx)
            cancel()
            if err == nil {
                failures = 0
                continue
            }
            failures++
            if failures >= 2 {
                ws.drop(conn, "ping failure")
                return
            }
        }
    }
}

// drop closes conn once and schedules a reconnect unless the socket is
// stopping or conn was already replaced.
func (ws *WebSocket) drop(conn *websocket.Conn, reason string) {
    ws.stateM.Lock()
    if ws.conn != conn {
        ws.stateM.Unlock()
        return
    }
    ws.conn = nil
    ws.stateM.Unlock()
    _ = conn.Close(websocket.StatusGoingAway, reason)
    if ws.isStopping() {
        return
    }
    ws.setState(WSStateDisconnected)
    ws.scheduleReconnect()
}

func (ws *WebSocket) scheduleReconnect() {
    if ws.maxReconnectAttempts <= 0 || ws.isStopping() {
        return
    }
    ws.setState(WSStateReconnecting)

    go func() {
        for attempt := 1; attempt <= ws.maxReconnectAttempts; attempt++ {
            select {
            case <-ws.stopCh:
                return
            case <-time.After(backoffDuration(attempt)):
            }
            conn, err := ws.dial(ws.rootCtx)
            if err != nil {
                continue
            }
            if ws.isStopping() {
                _ = conn.Close(websocket.StatusNormalClosure, "close")
                return
            }
            ws.attach(conn)
            return
        }
        ws.setState(WSStateFailed)
    }()
}

func (ws *WebSocket) OnCommand(cb CommandCallback) int {
    ws.cbM.Lock()
    defer ws.cbM.Unlock()
    ws.nextCbID++
    ws.cmdCbs = append(ws.cmdCbs, callbackEntry{id: ws.nextCbID, callback: cb})
    return ws.nextCbID
}

func (ws *WebSocket) RemoveCommandCallback(id int) {
    ws.cbM.Lock()
    defer ws.cbM.Unlock()
    for i, cb := range ws.cmdCbs {
        if cb.id == id {
            ws.cmdCbs = append(ws.cmdCbs[:i], ws.cmdCbs[i+1:]...)
            break
        }
    }
}

func (ws *WebSocket) OnStateChange(cb StateCallback) int {
    ws.cbM.Lock()
    defer ws.cbM.Unlock()
    ws.nextCbID++
    ws.stateCbs = append(ws.stateCbs, stateCallbackEntry{id: ws.nextCbID, callback: cb})
    return ws.nextCbID
}

func (ws *WebSocket) setState(state WSState) {
    ws.stateM.Lock()
    ws.state = state
    ws.stateM.Unlock()

    ws.cbM.RLock()
    callbacks := make([]stateCallbackEntry, len(ws.stateCbs))
    copy(callbacks, ws.stateCbs)
    ws.cbM.RUnlock()
    for _, entry := range callbacks {
        if entry.callback != nil {
            entry.callback(state)
        }
    }
}

func (ws *WebSocket) Close(ctx context.Context) error {
    ws.stopOnce.Do(func() { close(ws.stopCh) })

    ws.stateM.Lock()
    conn := ws.conn
    ws.conn = nil
    ws.state = WSStateDisconnected
    ws.stateM.Unlock()
    if conn != nil {
        _ = conn.Close(websocket.StatusNormalClosure, "close")
    }
    ws.rootCancel()

    done := make(chan struct{})
    go func() {
        ws.wg.Wait()
        close(done)
    }()
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-done:
        return nil
    }
}

func (ws *WebSocket) isStopping() bool {
    select {
    case <-ws.stopCh:
        return true
    default:
        return false
    }
}

func (ws *WebSocket) buildHeaders() http.Header {
    hdr := http.Header{}
    if ws.headerProvider == nil {
        return hdr
    }
    for k, v := range ws.headerProvider() {
        if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
            continue
        }
        hdr.Set(k, v)
    }
    return hdr
}
