package models

import (
	"fmt"
	"strings"
)

// MediaKind is the category of a watched item.
type MediaKind string

const (
	KindMovie MediaKind = "movie"
	KindShow  MediaKind = "show"
	KindAnime MediaKind = "anime"
)

// ParseMediaKind maps a source record's Type column to a kind.
//
// Only movies and shows are importable; anything else reports false.
func ParseMediaKind(s string) (MediaKind, bool) {
	switch MediaKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindMovie:
		return KindMovie, true
	case KindShow:
		return KindShow, true
	default:
		return "", false
	}
}

// MediaIntent is one item the source export marks as watched (or wanted).
type MediaIntent struct {
	ExternalID int
	Kind       MediaKind
	Rating     *int   // movies only, 1..10
	SourceRef  string // Letterboxd URL of the source row
}

// MovieIntent returns a movie intent with an optional rating.
func MovieIntent(id int, rating *int, ref string) MediaIntent {
	return MediaIntent{ExternalID: id, Kind: KindMovie, Rating: rating, SourceRef: ref}
}

// ShowIntent returns a show intent; shows never carry ratings.
func ShowIntent(id int, ref string) MediaIntent {
	return MediaIntent{ExternalID: id, Kind: KindShow, SourceRef: ref}
}

// EpisodeManifest lists the episode numbers of one season.
type EpisodeManifest struct {
	SeasonNumber   int
	EpisodeNumbers []int
}

// NewEpisodeManifest builds the synthetic manifest 1..count for a season.
func NewEpisodeManifest(season, count int) EpisodeManifest {
	episodes := make([]int, 0, max(count, 0))
	for n := 1; n <= count; n++ {
		episodes = append(episodes, n)
	}
	return EpisodeManifest{SeasonNumber: season, EpisodeNumbers: episodes}
}

// Validate rejects specials (season 0) and negative season numbers.
func (m EpisodeManifest) Validate() error {
	if m.SeasonNumber <= 0 {
		return fmt.Errorf("season number must be positive, got %d", m.SeasonNumber)
	}
	return nil
}
