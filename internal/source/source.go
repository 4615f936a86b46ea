// Package source defines where online metadata for subscribed mods comes from.
package source

import (
	"context"

	"github.com/DonovanMods/twlm/internal/domain"
)

// MetadataSource looks up online records for the Workshop ids of a game
type MetadataSource interface {
	ID() string
	Name() string

	// Serves reports whether the source hosts mods for game.
	Serves(game *domain.Game) bool

	// FetchRecords returns what the source knows about ids. Ids the source
	// cannot resolve are omitted from the result rather than reported as errors.
	FetchRecords(ctx context.Context, ids []string) ([]domain.OnlineRecord, error)
}
