package models

import (
	"encoding/json"
	"time"
)

// DeviceCode is the pairing code issued by the Simkl PIN endpoint.
type DeviceCode struct {
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// Expiry returns when the code stops being accepted, or the zero time if unknown.
func (d *DeviceCode) Expiry(issued time.Time) time.Time {
	if d.ExpiresIn <= 0 {
		return time.Time{}
	}
	return issued.Add(time.Duration(d.ExpiresIn) * time.Second)
}

// SyncCounts is the per-kind tally in a sync response.
type SyncCounts struct {
	Movies   int `json:"movies"`
	Shows    int `json:"shows"`
	Episodes int `json:"episodes"`
}

// SyncNotFound lists submitted items Simkl could not match.
type SyncNotFound struct {
	Movies []json.RawMessage `json:"movies"`
	Shows  []json.RawMessage `json:"shows"`
}

// Len is the number of unmatched items.
func (n SyncNotFound) Len() int {
	return len(n.Movies) + len(n.Shows)
}

// SyncResponse is the decoded body of a sync or list call plus its status.
type SyncResponse struct {
	StatusCode int          `json:"-"`
	Body       []byte       `json:"-"`
	Added      SyncCounts   `json:"added"`
	NotFound   SyncNotFound `json:"not_found"`
}

// SeasonSummary is one entry of a TMDB show's seasons list.
type SeasonSummary struct {
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	Name         string `json:"name"`
	AirDate      string `json:"air_date"`
}

// ShowDetails is the subset of the TMDB /tv/{id} response used for expansion.
type ShowDetails struct {
	ID               int             `json:"id"`
	Name             string          `json:"name"`
	NumberOfSeasons  int             `json:"number_of_seasons"`
	NumberOfEpisodes int             `json:"number_of_episodes"`
	Seasons          []SeasonSummary `json:"seasons"`
}

// Review is one Letterboxd member review.
type Review struct {
	Author    string `json:"author"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Rating    string `json:"rating,omitempty"`
	Text      string `json:"text"`
	URL       string `json:"url,omitempty"`
}
