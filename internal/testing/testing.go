// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/shared"
	"golang.org/x/oauth2"
)

// FakeHistory is a test double for services.HistoryService that records every call.
//
// Zero values succeed: submissions answer 201 and the history is empty.
type FakeHistory struct {
	Code       *models.DeviceCode
	PinErr     error
	Token      *oauth2.Token
	ResolveErr error

	SubmitStatus int
	SubmitBody   string
	SubmitErr    error
	ListStatus   int
	ListErr      error

	Snapshot   *models.RemoteHistorySnapshot
	HistoryErr error

	Calls         []string
	ResolvedCodes []string
	Submitted     []*models.SyncPayload
	Listed        []*models.ListPayload
}

func (f *FakeHistory) Name() string { return "fake-history" }

func (f *FakeHistory) RequestPin(ctx context.Context) (*models.DeviceCode, error) {
	f.Calls = append(f.Calls, "pin")
	if f.PinErr != nil {
		return nil, f.PinErr
	}
	if f.Code != nil {
		return f.Code, nil
	}
	return &models.DeviceCode{UserCode: "ABCDE", VerificationURL: "https://simkl.com/pin"}, nil
}

func (f *FakeHistory) ResolvePin(ctx context.Context, userCode string) (*oauth2.Token, error) {
	f.Calls = append(f.Calls, "resolve")
	f.ResolvedCodes = append(f.ResolvedCodes, userCode)
	if f.ResolveErr != nil {
		return nil, f.ResolveErr
	}
	if f.Token != nil {
		return f.Token, nil
	}
	return &oauth2.Token{AccessToken: "fake-token", TokenType: "Bearer"}, nil
}

func (f *FakeHistory) AddToHistory(ctx context.Context, token *oauth2.Token, payload *models.SyncPayload) (*models.SyncResponse, error) {
	f.Calls = append(f.Calls, "history")
	f.Submitted = append(f.Submitted, payload)
	if f.SubmitErr != nil {
		return nil, f.SubmitErr
	}

	status := f.SubmitStatus
	if status == 0 {
		status = http.StatusCreated
	}
	resp := &models.SyncResponse{StatusCode: status, Body: []byte(f.SubmitBody)}
	if status != http.StatusCreated {
		return resp, fmt.Errorf("%w: status %d", shared.ErrSubmission, status)
	}
	resp.Added = models.SyncCounts{Movies: len(payload.Movies), Shows: len(payload.Shows), Episodes: payload.EpisodeCount()}
	return resp, nil
}

func (f *FakeHistory) AddToList(ctx context.Context, token *oauth2.Token, payload *models.ListPayload) (*models.SyncResponse, error) {
	f.Calls = append(f.Calls, "list")
	f.Listed = append(f.Listed, payload)
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	status := f.ListStatus
	if status == 0 {
		status = http.StatusCreated
	}
	resp := &models.SyncResponse{StatusCode: status}
	if status != http.StatusCreated {
		return resp, fmt.Errorf("%w: status %d", shared.ErrSubmission, status)
	}
	return resp, nil
}

func (f *FakeHistory) AllItems(ctx context.Context, token *oauth2.Token) (*models.RemoteHistorySnapshot, error) {
	f.Calls = append(f.Calls, "all-items")
	if f.HistoryErr != nil {
		return nil, f.HistoryErr
	}
	if f.Snapshot != nil {
		return f.Snapshot, nil
	}
	return &models.RemoteHistorySnapshot{}, nil
}

// FakeMetadata is a test double for services.MetadataService keyed by show ID.
type FakeMetadata struct {
	Shows  map[int]*models.ShowDetails
	Errs   map[int]error
	Lookup []int
}

func (f *FakeMetadata) Name() string { return "fake-metadata" }

func (f *FakeMetadata) ShowDetails(ctx context.Context, id int) (*models.ShowDetails, error) {
	f.Lookup = append(f.Lookup, id)
	if err := f.Errs[id]; err != nil {
		return nil, err
	}
	if show, ok := f.Shows[id]; ok {
		return show, nil
	}
	return nil, fmt.Errorf("%w: show %d not stubbed", shared.ErrMetadataFetch, id)
}

// Show builds show details from season number / episode count pairs.
func Show(id int, pairs ...int) *models.ShowDetails {
	show := &models.ShowDetails{ID: id}
	for i := 0; i+1 < len(pairs); i += 2 {
		show.Seasons = append(show.Seasons, models.SeasonSummary{SeasonNumber: pairs[i], EpisodeCount: pairs[i+1]})
	}
	return show
}

// Entry builds a history entry whose nested media carries the given raw tmdb id.
func Entry(title, rawID string, asShow bool) models.HistoryEntry {
	media := &models.HistoryMedia{Title: title, IDs: map[string]json.RawMessage{}}
	if rawID != "" {
		media.IDs["tmdb"] = json.RawMessage(rawID)
	}
	if asShow {
		return models.HistoryEntry{Show: media}
	}
	return models.HistoryEntry{Movie: media}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// MustWriteFile writes content to dir/name and returns the path.
func MustWriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}
