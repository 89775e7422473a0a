// Simkl API implementation of [HistoryService]
//
// Endpoints documented at https://simkl.docs.apiary.io/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/shared"
	"golang.org/x/oauth2"
)

const SimklBaseURL = "https://api.simkl.com"

// SimklService talks to the Simkl API with a client ID and a PIN-flow access token.
type SimklService struct {
	api      *APIService
	clientID string
}

// NewSimklService creates a Simkl client. An empty baseURL uses [SimklBaseURL].
func NewSimklService(baseURL, clientID string, client *http.Client) (*SimklService, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: simkl client_id", shared.ErrMissingCredentials)
	}
	if baseURL == "" {
		baseURL = SimklBaseURL
	}

	api := NewAPIService(baseURL, client)
	api.SetHeader("Content-Type", "application/json")
	api.SetHeader("simkl-api-key", clientID)

	return &SimklService{api: api, clientID: clientID}, nil
}

func (s *SimklService) Name() string {
	return "Simkl"
}

type pinResolution struct {
	Result      string `json:"result"`
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
}

// RequestPin starts the device-code flow and returns the code the user must enter.
func (s *SimklService) RequestPin(ctx context.Context) (*models.DeviceCode, error) {
	resp, err := s.api.Get(ctx, "/oauth/pin", s.clientQuery(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if err := resp.Expect("pin request", shared.ErrAuthFailed, http.StatusOK); err != nil {
		return nil, err
	}

	var code models.DeviceCode
	if err := resp.Decode(&code); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if code.UserCode == "" || code.VerificationURL == "" {
		return nil, fmt.Errorf("%w: pin response missing user_code or verification_url", shared.ErrAuthFailed)
	}
	return &code, nil
}

// ResolvePin exchanges a confirmed user code for an access token.
func (s *SimklService) ResolvePin(ctx context.Context, userCode string) (*oauth2.Token, error) {
	if userCode == "" {
		return nil, fmt.Errorf("%w: empty user code", shared.ErrAuthFailed)
	}

	resp, err := s.api.Get(ctx, "/oauth/pin/"+url.PathEscape(userCode), s.clientQuery(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if err := resp.Expect("pin resolution", shared.ErrAuthFailed, http.StatusOK); err != nil {
		return nil, err
	}

	var res pinResolution
	if err := resp.Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if res.AccessToken == "" {
		msg := res.Message
		if msg == "" {
			msg = res.Result
		}
		return nil, fmt.Errorf("%w: no access token in pin response (%s)", shared.ErrAuthFailed, msg)
	}

	return &oauth2.Token{AccessToken: res.AccessToken, TokenType: "Bearer"}, nil
}

// AddToHistory marks every item of payload as watched in one request.
//
// Only 201 Created counts as success; other statuses return the response and a [StatusError] wrapping [shared.ErrSubmission].
func (s *SimklService) AddToHistory(ctx context.Context, token *oauth2.Token, payload *models.SyncPayload) (*models.SyncResponse, error) {
	return s.sync(ctx, token, "/sync/history", "history submission", payload)
}

// AddToList places every item of payload on the list named in each entry.
func (s *SimklService) AddToList(ctx context.Context, token *oauth2.Token, payload *models.ListPayload) (*models.SyncResponse, error) {
	return s.sync(ctx, token, "/sync/add-to-list", "watchlist submission", payload)
}

func (s *SimklService) sync(ctx context.Context, token *oauth2.Token, path, op string, payload any) (*models.SyncResponse, error) {
	header, err := authHeader(token)
	if err != nil {
		return nil, err
	}

	resp, err := s.api.PostJSON(ctx, path, payload, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrSubmission, err)
	}

	result := &models.SyncResponse{StatusCode: resp.StatusCode, Body: resp.Body}
	if err := resp.Expect(op, shared.ErrSubmission, http.StatusCreated); err != nil {
		return result, err
	}

	// The counts are informational; a 201 with an unexpected body is still a success.
	_ = resp.Decode(result)
	return result, nil
}

// AllItems fetches the user's full library as the authoritative history.
func (s *SimklService) AllItems(ctx context.Context, token *oauth2.Token) (*models.RemoteHistorySnapshot, error) {
	header, err := authHeader(token)
	if err != nil {
		return nil, err
	}

	resp, err := s.api.Get(ctx, "/sync/all-items", nil, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrHistoryFetch, err)
	}
	if err := resp.Expect("history fetch", shared.ErrHistoryFetch, http.StatusOK); err != nil {
		return nil, err
	}

	snapshot := &models.RemoteHistorySnapshot{}
	if err := resp.Decode(snapshot); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrHistoryFetch, err)
	}
	return snapshot, nil
}

func (s *SimklService) clientQuery() url.Values {
	return url.Values{"client_id": {s.clientID}}
}

// authHeader builds the Authorization header for token.
func authHeader(token *oauth2.Token) (http.Header, error) {
	if !token.Valid() {
		return nil, shared.ErrNotAuthenticated
	}
	header := make(http.Header)
	header.Set("Authorization", token.Type()+" "+token.AccessToken)
	return header, nil
}
