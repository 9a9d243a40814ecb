package results

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/park285/bancho-mp-bot/internal/domain"
)

func samplePlay(uuid string, ended time.Time) *domain.Play {
	return &domain.Play{
		PlayUUID:  uuid,
		MatchID:   42,
		Channel:   "#mp_42",
		BeatmapID: 75,
		Mods:      []string{"HD"},
		StartedAt: ended.Add(-2 * time.Minute),
		EndedAt:   ended,
		Scores: []domain.PlayScore{
			{Username: "Alice", Slot: 0, Team: "blue", Score: 1000, Passed: true},
			{Username: "Bob", Slot: 1, Team: "red", Score: 500},
		},
	}
}

func TestMemoryRepositorySaveAndRecent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if _, err := repo.SavePlay(ctx, samplePlay(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("SavePlay %s: %v", id, err)
		}
	}
	if _, err := repo.SavePlay(ctx, samplePlay("a", base)); !errors.Is(err, ErrDuplicatePlay) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	plays, err := repo.RecentPlays(ctx, 42, 2)
	if err != nil {
		t.Fatalf("RecentPlays: %v", err)
	}
	if len(plays) != 2 || plays[0].PlayUUID != "c" || plays[1].PlayUUID != "b" {
		t.Fatalf("unexpected order %+v", plays)
	}
	if other, _ := repo.RecentPlays(ctx, 7, 0); len(other) != 0 {
		t.Fatalf("expected no plays for other match")
	}
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	p := samplePlay("x", time.Now())
	if _, err := repo.SavePlay(ctx, p); err != nil {
		t.Fatalf("SavePlay: %v", err)
	}
	p.Scores[0].Score = 0

	got, err := repo.GetPlay(ctx, "x")
	if err != nil || got == nil {
		t.Fatalf("GetPlay: %v", err)
	}
	if got.Scores[0].Score != 1000 {
		t.Fatalf("stored play aliased caller slice")
	}
	totals := got.TeamTotals()
	if totals["blue"] != 1000 || totals["red"] != 500 {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if missing, _ := repo.GetPlay(ctx, "nope"); missing != nil {
		t.Fatalf("expected nil for unknown play")
	}
}

func TestNewRepositoryRequiresURL(t *testing.T) {
	if _, err := NewRepository("  "); err == nil {
		t.Fatalf("expected error for empty DATABASE_URL")
	}
}
