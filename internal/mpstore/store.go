package mpstore

import (
    "context"
    "encoding/json"
    "fmt"
    "net/url"
    "sort"
    "strconv"
    "strings"
    "time"

    "github.com/park285/bancho-mp-bot/pkg/mpdto"
    "github.com/redis/go-redis/v9"
)

const (
    ttlSnapshot = 24 * time.Hour
)

// Store keeps the latest snapshot of every tracked match in Redis plus an
// index of active match ids.
type Store struct{ rdb *redis.Client }

func NewStore(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

// Open connects to redisURL (redis:// or rediss://) and pings it.
func Open(ctx context.Context, redisURL string) (*Store, error) {
    opts, err := parseRedisURL(redisURL)
    if err != nil { return nil, err }
    rdb := redis.NewClient(opts)
    if err := rdb.Ping(ctx).Err(); err != nil {
        _ = rdb.Close()
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    return &Store{rdb: rdb}, nil
}

func (s *Store) Close() error {
    if s == nil || s.rdb == nil { return nil }
    return s.rdb.Close()
}

func (s *Store) keySnapshot(matchID int64) string { return "mp:" + strconv.FormatInt(matchID, 10) }
func (s *Store) keyPlays(matchID int64) string    { return s.keySnapshot(matchID) + ":plays" }
func (s *Store) keyActive() string                { return "mp:active" }

// SaveSnapshot replaces the stored snapshot and marks the match active.
func (s *Store) SaveSnapshot(ctx context.Context, snap *mpdto.LobbySnapshot) error {
    if snap == nil || snap.MatchID == 0 { return nil }
    raw, err := json.Marshal(snap)
    if err != nil { return err }
    pipe := s.rdb.TxPipeline()
    pipe.Set(ctx, s.keySnapshot(snap.MatchID), raw, ttlSnapshot)
    pipe.SAdd(ctx, s.keyActive(), snap.MatchID)
    pipe.Expire(ctx, s.keyActive(), ttlSnapshot)
    _, err = pipe.Exec(ctx)
    return err
}

// LoadSnapshot returns nil, nil when nothing is stored for matchID.
func (s *Store) LoadSnapshot(ctx context.Context, matchID int64) (*mpdto.LobbySnapshot, error) {
    raw, err := s.rdb.Get(ctx, s.keySnapshot(matchID)).Bytes()
    if err == redis.Nil { return nil, nil }
    if err != nil { return nil, err }
    var snap mpdto.LobbySnapshot
    if err := json.Unmarshal(raw, &snap); err != nil { return nil, err }
    return &snap, nil
}

// Deactivate drops matchID from the active index. The snapshot itself stays
// until its TTL runs out.
func (s *Store) Deactivate(ctx context.Context, matchID int64) error {
    return s.rdb.SRem(ctx, s.keyActive(), matchID).Err()
}

// Active lists the snapshots of active matches ordered by match id. Index
// entries whose snapshot expired are pruned.
func (s *Store) Active(ctx context.Context) ([]*mpdto.LobbySnapshot, error) {
    ids, err := s.rdb.SMembers(ctx, s.keyActive()).Result()
    if err != nil { return nil, err }
    var out []*mpdto.LobbySnapshot
    for _, raw := range ids {
        id, err := strconv.ParseInt(raw, 10, 64)
        if err != nil { continue }
        snap, err := s.LoadSnapshot(ctx, id)
        if err != nil { return nil, err }
        if snap == nil {
            // 스냅샷 TTL 만료: 인덱스에서도 정리
            _ = s.rdb.SRem(ctx, s.keyActive(), raw).Err()
            continue
        }
        out = append(out, snap)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
    return out, nil
}

// AppendPlay records a finished play id for the match, newest last.
func (s *Store) AppendPlay(ctx context.Context, matchID int64, playID string) error {
    if strings.TrimSpace(playID) == "" { return nil }
    if err := s.rdb.RPush(ctx, s.keyPlays(matchID), playID).Err(); err != nil { return err }
    return s.rdb.Expire(ctx, s.keyPlays(matchID), ttlSnapshot).Err()
}

func (s *Store) Plays(ctx context.Context, matchID int64) ([]string, error) {
    return s.rdb.LRange(ctx, s.keyPlays(matchID), 0, -1).Result()
}

func parseRedisURL(raw string) (*redis.Options, error) {
    u, err := url.Parse(raw)
    if err != nil { return nil, err }
    if u.Scheme != "redis" && u.Scheme != "rediss" { return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme) }
    db := 0
    if p := strings.TrimPrefix(u.Path, "/"); p != "" { if n, err := strconv.Atoi(p); err == nil { db = n } }
    pass, _ := u.User.Password()
    return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
