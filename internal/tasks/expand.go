package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/shared"
)

// Expand returns the total episode count and synthetic manifests of a show.
//
// Season 0 (specials) is excluded from both. On lookup failure it returns (0, nil, err)
// with err wrapping [shared.ErrMetadataFetch].
func (e *SyncEngine) Expand(ctx context.Context, showID int) (int, []models.EpisodeManifest, error) {
	if e.metadata == nil {
		return 0, nil, fmt.Errorf("%w: %w: metadata service not initialized", shared.ErrMetadataFetch, shared.ErrServiceUnavailable)
	}

	show, err := e.metadata.ShowDetails(ctx, showID)
	if err != nil {
		return 0, nil, shared.WrapKind(shared.ErrMetadataFetch, err)
	}

	total, manifests := ManifestsFor(show)
	return total, manifests, nil
}

// ManifestsFor derives manifests from show details, skipping non-positive season numbers.
func ManifestsFor(show *models.ShowDetails) (int, []models.EpisodeManifest) {
	total := 0
	manifests := make([]models.EpisodeManifest, 0, len(show.Seasons))
	for _, season := range show.Seasons {
		manifest := models.NewEpisodeManifest(season.SeasonNumber, season.EpisodeCount)
		if manifest.Validate() != nil {
			continue
		}
		total += len(manifest.EpisodeNumbers)
		manifests = append(manifests, manifest)
	}
	return total, manifests
}
