// TMDB v3 API implementation of [MetadataService]
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/shared"
	"golang.org/x/time/rate"
)

const TMDBBaseURL = "https://api.themoviedb.org/3"

// TMDBService looks up show metadata on TMDB with a v3 API key.
type TMDBService struct {
	api     *APIService
	apiKey  string
	limiter *rate.Limiter
}

// NewTMDBService creates a TMDB client. An empty baseURL uses [TMDBBaseURL].
//
// A positive requestsPerSecond paces lookups; zero disables pacing.
func NewTMDBService(baseURL, apiKey string, requestsPerSecond float64, client *http.Client) (*TMDBService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: tmdb api_key", shared.ErrMissingCredentials)
	}
	if baseURL == "" {
		baseURL = TMDBBaseURL
	}

	svc := &TMDBService{api: NewAPIService(baseURL, client), apiKey: apiKey}
	if requestsPerSecond > 0 {
		svc.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return svc, nil
}

func (t *TMDBService) Name() string {
	return "TMDB"
}

// ShowDetails fetches /tv/{id}. Any status other than 200 wraps [shared.ErrMetadataFetch].
func (t *TMDBService) ShowDetails(ctx context.Context, id int) (*models.ShowDetails, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrMetadataFetch, err)
		}
	}

	resp, err := t.api.Get(ctx, "/tv/"+strconv.Itoa(id), url.Values{"api_key": {t.apiKey}}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: show %d: %w", shared.ErrMetadataFetch, id, err)
	}
	if err := resp.Expect(fmt.Sprintf("show %d lookup", id), shared.ErrMetadataFetch, http.StatusOK); err != nil {
		return nil, err
	}

	var show models.ShowDetails
	if err := resp.Decode(&show); err != nil {
		return nil, fmt.Errorf("%w: show %d: %w", shared.ErrMetadataFetch, id, err)
	}
	return &show, nil
}
