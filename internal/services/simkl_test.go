package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/shared"
	"golang.org/x/oauth2"
)

func newTestSimkl(t *testing.T, handler http.HandlerFunc) *SimklService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewSimklService(server.URL, "client-123", server.Client())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

var testToken = &oauth2.Token{AccessToken: "tok", TokenType: "Bearer"}

func TestNewSimklService(t *testing.T) {
	if _, err := NewSimklService("", "", nil); !errors.Is(err, shared.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}

	svc, err := NewSimklService("", "id", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.api.BaseURL() != SimklBaseURL {
		t.Errorf("expected default base URL, got %s", svc.api.BaseURL())
	}
	if svc.Name() != "Simkl" {
		t.Errorf("unexpected name %s", svc.Name())
	}
}

func TestSimklRequestPin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := newTestSimkl(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/oauth/pin" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("client_id") != "client-123" {
				t.Errorf("missing client_id query")
			}
			if r.Header.Get("simkl-api-key") != "client-123" {
				t.Errorf("missing simkl-api-key header")
			}
			json.NewEncoder(w).Encode(map[string]any{
				"result":           "OK",
				"user_code":        "ABCDE",
				"verification_url": "https://simkl.com/pin",
				"expires_in":       900,
				"interval":         5,
			})
		})

		code, err := svc.RequestPin(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if code.UserCode != "ABCDE" || code.VerificationURL != "https://simkl.com/pin" {
			t.Errorf("unexpected code %+v", code)
		}
		if code.ExpiresIn != 900 {
			t.Errorf("expected expires_in 900, got %d", code.ExpiresIn)
		}
	})

	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"non-success status", http.StatusUnauthorized, `{"error":"client_id_failed"}`},
		{"missing user code", http.StatusOK, `{"verification_url":"https://simkl.com/pin"}`},
		{"missing verification url", http.StatusOK, `{"user_code":"ABCDE"}`},
		{"invalid json", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestSimkl(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.payload)
			})

			if _, err := svc.RequestPin(context.Background()); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	}
}

func TestSimklResolvePin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := newTestSimkl(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/oauth/pin/ABCDE" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			io.WriteString(w, `{"result":"OK","access_token":"secret"}`)
		})

		token, err := svc.ResolvePin(context.Background(), "ABCDE")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token.AccessToken != "secret" || !token.Valid() {
			t.Errorf("unexpected token %+v", token)
		}
	})

	t.Run("pending authorization", func(t *testing.T) {
		svc := newTestSimkl(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"result":"KO","message":"Authorization pending"}`)
		})

		_, err := svc.ResolvePin(context.Background(), "ABCDE")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}
		if !strings.Contains(err.Error(), "Authorization pending") {
			t.Errorf("expected server message in error, got %v", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		svc := newTestSimkl(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		if _, err := svc.ResolvePin(context.Background(), "ABCDE"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("empty code", func(t *testing.T) {
		svc := newTestSimkl(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		if _, err := svc.ResolvePin(context.Background(), ""); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})
}

func TestSimklAddToHistory(t *testing.T) {
	payload := models.NewSyncPayload()
	payload.AddShow(models.ShowIntent(200, ""), []models.EpisodeManifest{models.NewEpisodeManifest(1, 3)})

	t.Run("created", func(t *testing.T) {
		svc := newTestSimkl(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/sync/history" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer tok" {
				t.Errorf("unexpected Authorization %q", r.Header.Get("Authorization"))
			}
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("unexpected Content-Type %q", r.Header.Get("Content-Type"))
			}

			var got models.SyncPayload
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if len(got.Shows) != 1 || len(got.Shows[0].Seasons[0].Episodes) != 3 {
				t.Errorf("unexpected payload %+v", got)
			}

			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"added":{"movies":0,"shows":1,"episodes":3},"not_found":{"movies":[],"shows":[]}}`)
		})

		resp, err := svc.AddToHistory(context.Background(), testToken, payload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusCreated || resp.Added.Episodes != 3 {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("ok is not created", func(t *testing.T) {
		svc := newTestSimkl(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, `{}`)
		})

		resp, err := svc.AddToHistory(context.Background(), testToken, payload)
		if !errors.Is(err, shared.ErrSubmission) {
			t.Fatalf("expected ErrSubmission, got %v", err)
		}
		if resp == nil || resp.StatusCode != http.StatusOK {
			t.Errorf("expected response with status 200, got %+v", resp)
		}
	})

	t.Run("error body is preserved", func(t *testing.T) {
		svc := newTestSimkl(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"bad payload"}`)
		})

		resp, err := svc.AddToHistory(context.Background(), testToken, payload)
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected *StatusError, got %v", err)
		}
		if string(resp.Body) != `{"error":"bad payload"}` || statusErr.StatusCode != http.StatusBadRequest {
			t.Errorf("unexpected failure details %q %d", resp.Body, statusErr.StatusCode)
		}
	})

	t.Run("requires token", func(t *testing.T) {
		svc := newTestSimkl(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		if _, err := svc.AddToHistory(context.Background(), nil, payload); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestSimklAddToList(t *testing.T) {
	svc := newTestSimkl(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sync/add-to-list" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"to":"plantowatch"`) {
			t.Errorf("expected list label in body, got %s", body)
		}
		w.WriteHeader(http.StatusCreated)
	})

	payload := models.NewListPayload("plantowatch", []models.MediaIntent{models.MovieIntent(1, nil, "")}, nil)
	if _, err := svc.AddToList(context.Background(), testToken, payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSimklAllItems(t *testing.T) {
	t.Run("decodes all lists", func(t *testing.T) {
		svc := newTestSimkl(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/sync/all-items" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			io.WriteString(w, `{
				"movies": [{"movie": {"title": "Heat", "ids": {"simkl": 1, "tmdb": "949"}}}],
				"shows": [{"show": {"title": "Twin Peaks", "ids": {"tmdb": 1920}}}],
				"anime": [{"show": {"title": "Akira", "ids": {"mal": "47"}}}]
			}`)
		})

		snapshot, err := svc.AllItems(context.Background(), testToken)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snapshot.Len() != 3 {
			t.Fatalf("expected 3 entries, got %d", snapshot.Len())
		}
		if id, ok := snapshot.Movies[0].Movie.TMDBID(); !ok || id != "949" {
			t.Errorf("unexpected movie id %q %v", id, ok)
		}
		if id, ok := snapshot.Shows[0].Show.TMDBID(); !ok || id != "1920" {
			t.Errorf("unexpected show id %q %v", id, ok)
		}
		if _, ok := snapshot.Anime[0].Show.TMDBID(); ok {
			t.Error("anime entry without tmdb id should report absence")
		}
	})

	t.Run("empty library", func(t *testing.T) {
		svc := newTestSimkl(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `null`)
		})

		snapshot, err := svc.AllItems(context.Background(), testToken)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snapshot.Len() != 0 {
			t.Errorf("expected empty snapshot, got %d", snapshot.Len())
		}
	})

	t.Run("non-success status", func(t *testing.T) {
		svc := newTestSimkl(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		if _, err := svc.AllItems(context.Background(), testToken); !errors.Is(err, shared.ErrHistoryFetch) {
			t.Errorf("expected ErrHistoryFetch, got %v", err)
		}
	})
}
