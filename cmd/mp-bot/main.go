package main

import (
    "context"
    "errors"
    "fmt"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/spf13/pflag"
    "go.uber.org/zap"

    "github.com/park285/bancho-mp-bot/internal/bancho"
    appcfg "github.com/park285/bancho-mp-bot/internal/config"
    "github.com/park285/bancho-mp-bot/internal/egress"
    "github.com/park285/bancho-mp-bot/internal/mpstore"
    "github.com/park285/bancho-mp-bot/internal/msgcat"
    "github.com/park285/bancho-mp-bot/internal/obslog"
    "github.com/park285/bancho-mp-bot/internal/recorder"
    "github.com/park285/bancho-mp-bot/internal/results"
    "github.com/park285/bancho-mp-bot/pkg/mpdto"
)

func main() {
    if err := run(); err != nil {
        fmt.Fprintf(os.Stderr, "error: %v\n", err)
        os.Exit(1)
    }
}

func run() error {
    var configPath string
    var create []string
    flagSet := pflag.NewFlagSet("mp-bot", pflag.ContinueOnError)
    flagSet.StringVar(&configPath, "config", "", "YAML config file (default: $BANCHO_CONFIG)")
    flagSet.StringArrayVar(&create, "create", nil, "create a multiplayer match with this title after login (repeatable)")
    if err := flagSet.Parse(os.Args[1:]); err != nil {
        if errors.Is(err, pflag.ErrHelp) {
            return nil
        }
        return err
    }

    cfg, err := appcfg.Load(configPath)
    if err != nil {
        return fmt.Errorf("config error: %w", err)
    }

    logger, err := obslog.Init(obslog.Options{
        Level:   cfg.Log.Level,
        Format:  cfg.Log.Format,
        Console: cfg.Log.Console,
        File:    cfg.Log.File,
        Caller:  cfg.Log.Caller,
    })
    if err != nil {
        return fmt.Errorf("logger init: %w", err)
    }
    defer func() { _ = logger.Sync() }()

    commands, err := msgcat.New(cfg.CommandsDir)
    if err != nil {
        return fmt.Errorf("commands init: %w", err)
    }

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    // Redis 스냅샷 저장소 (선택)
    var store recorder.SnapshotStore
    if cfg.RedisURL != "" {
        s, err := mpstore.Open(ctx, cfg.RedisURL)
        if err != nil {
            return fmt.Errorf("redis init: %w", err)
        }
        defer func() { _ = s.Close() }()
        store = s
    }

    var repo results.Repository
    if cfg.DatabaseURL != "" {
        repo, err = results.NewRepository(cfg.DatabaseURL)
        if err != nil {
            return fmt.Errorf("results repo init: %w", err)
        }
    } else {
        logger.Warn("results_memory_repository")
        repo = results.NewMemoryRepository()
    }
    defer func() { _ = repo.Close() }()

    headers := func() map[string]string {
        if cfg.Egress.Token == "" {
            return nil
        }
        return map[string]string{"Authorization": "Bearer " + cfg.Egress.Token}
    }
    var httpClient *egress.Client
    if cfg.Egress.HTTPURL != "" {
        httpClient = egress.NewClient(cfg.Egress.HTTPURL, egress.WithHeaderProvider(headers))
    }
    var ws *egress.WebSocket
    if cfg.Egress.WSURL != "" {
        ws = egress.NewWebSocket(cfg.Egress.WSURL, 5)
        ws.SetHeaderProvider(headers)
        ws.OnStateChange(func(state egress.WSState) {
            logger.Info("egress_ws_state", zap.String("state", state.String()))
        })
    }
    out := egress.New(cfg.Egress.Mode, cfg.Egress.DryRun, httpClient, ws, logger)

    client := bancho.NewClient(bancho.Config{
        Host:         cfg.Bancho.Host,
        Port:         cfg.Bancho.Port,
        MessageDelay: cfg.Bancho.MessageDelay,
        MessageSize:  cfg.Bancho.MessageSize,
        IdleTimeout:  cfg.Bancho.IdleTimeout,
        Assistant:    cfg.Bancho.Assistant,
    }, bancho.WithLogger(logger), bancho.WithCommands(commands))

    rec := recorder.New(recorder.Options{Store: store, Results: repo, Egress: out, Logger: logger})
    rec.Attach(client)
    if ws != nil {
        ws.OnCommand(func(cmd *mpdto.Command) { _ = rec.HandleCommand(cmd) })
        cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
        if err := ws.Connect(cctx); err != nil {
            logger.Warn("egress_ws_connect_failed", zap.Error(err))
        }
        cancel()
    }

    client.Events.PrivateMessage.Subscribe(func(ch bancho.Chat) {
        logger.Info("bancho_pm", zap.String("from", ch.From), zap.String("text", ch.Text))
    })
    client.Events.NickNotFound.Subscribe(func(ev bancho.NickNotFound) {
        logger.Warn("bancho_nick_not_found", zap.String("nick", ev.Nick))
    })

    err = serve(ctx, client, cfg, create, logger)

    _ = client.Close()
    shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := rec.Close(shutdown); err != nil {
        logger.Warn("recorder_close_timeout", zap.Error(err))
    }
    if ws != nil {
        _ = ws.Close(shutdown)
    }
    return err
}

// serve keeps the session up until ctx ends. Dropped connections are
// re-established with backoff; a rejected password is final.
func serve(ctx context.Context, client *bancho.Client, cfg *appcfg.AppConfig, create []string, logger *zap.Logger) error {
    dropped := make(chan error, 1)
    client.Events.Disconnected.Subscribe(func(err error) {
        select {
        case dropped <- err:
        default:
        }
    })

    cred := bancho.Credentials{Username: cfg.Bancho.Username, Password: cfg.Bancho.Password}
    first := true
    failures := 0
    for {
        if failures > 0 {
            select {
            case <-ctx.Done():
                return nil
            case <-time.After(reconnectDelay(failures)):
            }
        }

        lctx, cancel := context.WithTimeout(ctx, 30*time.Second)
        err := client.Login(lctx, cred)
        cancel()
        if errors.Is(err, bancho.ErrBadAuth) {
            return err
        }
        if err != nil {
            if ctx.Err() != nil {
                return nil
            }
            // 연결이 살아있는데 로그인만 실패한 경우는 재시도하지 않음
            if client.State() != bancho.StateDisconnected {
                return fmt.Errorf("login: %w", err)
            }
            failures++
            logger.Warn("bancho_login_failed", zap.Error(err), zap.Int("failures", failures))
            continue
        }
        failures = 0

        for _, ch := range cfg.Bancho.Channels {
            if _, err := client.Join(ch); err != nil {
                logger.Warn("bancho_join_failed", zap.String("channel", ch), zap.Error(err))
            }
        }
        if first {
            first = false
            for _, title := range create {
                go createMatch(ctx, client, title, logger)
            }
        }

        if err := waitDropped(ctx, client, dropped); err != nil {
            return err
        }
        if ctx.Err() != nil {
            return nil
        }
        failures = 1
    }
}

// waitDropped blocks until the live session ends. Stale notifications from
// an earlier session are skipped while the client is still ready.
func waitDropped(ctx context.Context, client *bancho.Client, dropped <-chan error) error {
    for {
        select {
        case <-ctx.Done():
            return nil
        case err := <-dropped:
            if errors.Is(err, bancho.ErrBadAuth) {
                return err
            }
            if client.State() == bancho.StateReady {
                continue
            }
            obslog.L().Warn("bancho_disconnected", zap.Error(err))
            return nil
        }
    }
}

func createMatch(ctx context.Context, client *bancho.Client, title string, logger *zap.Logger) {
    cctx, cancel := context.WithTimeout(ctx, time.Minute)
    defer cancel()
    l, err := client.CreateMultiplayer(cctx, title)
    if err != nil {
        logger.Warn("bancho_create_failed", zap.String("title", title), zap.Error(err))
        return
    }
    logger.Info("bancho_match_ready", zap.String("channel", l.Name()), zap.Int64("match_id", l.MatchID()))
}

func reconnectDelay(attempt int) time.Duration {
    if attempt > 6 {
        attempt = 6
    }
    return time.Duration(1<<uint(attempt-1)) * time.Second
}
