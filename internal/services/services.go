// package services defines the remote APIs used by an import: Simkl, TMDB and Letterboxd
package services

import (
	"context"

	"github.com/desertthunder/simklx/internal/models"
	"golang.org/x/oauth2"
)

// HistoryService is a media tracker that accepts watched items and reports its history.
type HistoryService interface {
	// RequestPin starts a device-code login and returns the pairing code.
	RequestPin(ctx context.Context) (*models.DeviceCode, error)

	// ResolvePin exchanges a confirmed user code for an access token.
	ResolvePin(ctx context.Context, userCode string) (*oauth2.Token, error)

	// AddToHistory submits watched movies and shows in a single request.
	AddToHistory(ctx context.Context, token *oauth2.Token, payload *models.SyncPayload) (*models.SyncResponse, error)

	// AddToList places items on a named list such as the watchlist.
	AddToList(ctx context.Context, token *oauth2.Token, payload *models.ListPayload) (*models.SyncResponse, error)

	// AllItems returns the authoritative remote history.
	AllItems(ctx context.Context, token *oauth2.Token) (*models.RemoteHistorySnapshot, error)

	// Name returns the name of the service (e.g., "Simkl")
	Name() string
}

// MetadataService looks up show structure by TMDB ID.
type MetadataService interface {
	ShowDetails(ctx context.Context, id int) (*models.ShowDetails, error)
	Name() string
}

// ReviewService finds member reviews of a film by TMDB ID.
type ReviewService interface {
	ResolveFilm(ctx context.Context, tmdbID int) (string, error)
	Reviews(ctx context.Context, filmURL string, limit int) ([]models.Review, error)
	Name() string
}

var (
	_ HistoryService  = (*SimklService)(nil)
	_ MetadataService = (*TMDBService)(nil)
	_ ReviewService   = (*LetterboxdService)(nil)
)
