package results

import (
    "context"
    "sort"
    "sync"

    "github.com/park285/bancho-mp-bot/internal/domain"
)

// memrepo is used when no DATABASE_URL is configured.
type memrepo struct {
    mu sync.RWMutex

    nextID int64

    byUUID  map[string]*domain.Play
    byMatch map[int64][]*domain.Play // matchID -> plays, latest last
}

func NewMemoryRepository() Repository {
    return &memrepo{
        byUUID:  make(map[string]*domain.Play),
        byMatch: make(map[int64][]*domain.Play),
    }
}

func (m *memrepo) SavePlay(ctx context.Context, play *domain.Play) (int64, error) {
    if play == nil || play.PlayUUID == "" {
        return 0, ErrDuplicatePlay
    }

    m.mu.Lock()
    defer m.mu.Unlock()

    if _, exists := m.byUUID[play.PlayUUID]; exists {
        return 0, ErrDuplicatePlay
    }

    m.nextID++
    cp := clonePlay(play)
    cp.ID = m.nextID

    m.byUUID[cp.PlayUUID] = cp
    m.byMatch[cp.MatchID] = append(m.byMatch[cp.MatchID], cp)
    return cp.ID, nil
}

func (m *memrepo) RecentPlays(ctx context.Context, matchID int64, limit int) ([]*domain.Play, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    list := m.byMatch[matchID]
    items := make([]*domain.Play, 0, len(list))
    for _, p := range list {
        items = append(items, clonePlay(p))
    }
    // EndedAt desc, ID desc
    sort.Slice(items, func(i, j int) bool {
        if !items[i].EndedAt.Equal(items[j].EndedAt) {
            return items[i].EndedAt.After(items[j].EndedAt)
        }
        return items[i].ID > items[j].ID
    })
    if limit > 0 && len(items) > limit {
        items = items[:limit]
    }
    return items, nil
}

func (m *memrepo) GetPlay(ctx context.Context, playUUID string) (*domain.Play, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    if p, ok := m.byUUID[playUUID]; ok {
        return clonePlay(p), nil
    }
    return nil, nil
}

func (m *memrepo) Close() error { return nil }

func clonePlay(p *domain.Play) *domain.Play {
    cp := *p
    cp.Mods = append([]string(nil), p.Mods...)
    cp.Scores = make([]domain.PlayScore, len(p.Scores))
    for i, s := range p.Scores {
        s.Mods = append([]string(nil), s.Mods...)
        cp.Scores[i] = s
    }
    return &cp
}
