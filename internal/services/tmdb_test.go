package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/simklx/internal/shared"
)

func TestTMDBService(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		if _, err := NewTMDBService("", "", 0, nil); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("ShowDetails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/tv/1399" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("api_key") != "key" {
				t.Errorf("missing api_key")
			}
			io.WriteString(w, `{
				"id": 1399,
				"name": "Game of Thrones",
				"number_of_seasons": 2,
				"seasons": [
					{"season_number": 0, "episode_count": 3},
					{"season_number": 1, "episode_count": 10},
					{"season_number": 2, "episode_count": 10}
				]
			}`)
		}))
		defer server.Close()

		svc, err := NewTMDBService(server.URL, "key", 50, server.Client())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		show, err := svc.ShowDetails(context.Background(), 1399)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if show.Name != "Game of Thrones" || len(show.Seasons) != 3 {
			t.Errorf("unexpected show %+v", show)
		}
		if show.Seasons[1].SeasonNumber != 1 || show.Seasons[1].EpisodeCount != 10 {
			t.Errorf("unexpected season %+v", show.Seasons[1])
		}
	})

	t.Run("not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"status_code":34}`)
		}))
		defer server.Close()

		svc, _ := NewTMDBService(server.URL, "key", 0, server.Client())
		if _, err := svc.ShowDetails(context.Background(), 1); !errors.Is(err, shared.ErrMetadataFetch) {
			t.Errorf("expected ErrMetadataFetch, got %v", err)
		}
	})

	t.Run("limiter honors context", func(t *testing.T) {
		svc, _ := NewTMDBService("http://127.0.0.1:0", "key", 1, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := svc.ShowDetails(ctx, 1); !errors.Is(err, shared.ErrMetadataFetch) {
			t.Errorf("expected ErrMetadataFetch, got %v", err)
		}
	})
}
