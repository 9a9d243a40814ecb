package results

import (
	"context"
	"errors"

	"github.com/park285/bancho-mp-bot/internal/domain"
)

var ErrDuplicatePlay = errors.New("play already recorded")

// Repository persists finished plays.
type Repository interface {
	SavePlay(ctx context.Context, play *domain.Play) (int64, error)
	RecentPlays(ctx context.Context, matchID int64, limit int) ([]*domain.Play, error)
	GetPlay(ctx context.Context, playUUID string) (*domain.Play, error)
	Close() error
}
