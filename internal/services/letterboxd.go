// Letterboxd review scraping for [ReviewService]
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	LetterboxdBaseURL  = "https://letterboxd.com"
	reviewsPerPage     = 10
	defaultReviewLimit = 20
)

// LetterboxdService resolves TMDB IDs to Letterboxd film pages and scrapes their reviews.
type LetterboxdService struct {
	api     *APIService
	limiter *rate.Limiter
}

// NewLetterboxdService creates a scraper. An empty baseURL uses [LetterboxdBaseURL].
func NewLetterboxdService(baseURL string, limiter *rate.Limiter, client *http.Client) *LetterboxdService {
	if baseURL == "" {
		baseURL = LetterboxdBaseURL
	}
	api := NewAPIService(baseURL, client)
	api.SetHeader("Accept", "text/html")
	return &LetterboxdService{api: api, limiter: limiter}
}

func (l *LetterboxdService) Name() string {
	return "Letterboxd"
}

// ResolveFilm follows the /tmdb/{id} redirect and returns the film page URL with a trailing slash.
func (l *LetterboxdService) ResolveFilm(ctx context.Context, tmdbID int) (string, error) {
	resp, err := l.get(ctx, "/tmdb/"+strconv.Itoa(tmdbID))
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: no Letterboxd film for TMDB ID %d", shared.ErrNotFound, tmdbID)
	}
	if err := resp.Expect("film lookup", shared.ErrReviewsFetch, http.StatusOK); err != nil {
		return "", err
	}
	if resp.URL == nil || strings.HasPrefix(resp.URL.Path, "/tmdb/") {
		return "", fmt.Errorf("%w: TMDB ID %d did not redirect to a film page", shared.ErrNotFound, tmdbID)
	}

	film := *resp.URL
	film.RawQuery = ""
	film.Fragment = ""
	if !strings.HasSuffix(film.Path, "/") {
		film.Path += "/"
	}
	return film.String(), nil
}

// Reviews scrapes up to limit reviews from filmURL ordered by activity.
func (l *LetterboxdService) Reviews(ctx context.Context, filmURL string, limit int) ([]models.Review, error) {
	if limit <= 0 {
		limit = defaultReviewLimit
	}

	path, err := l.relative(filmURL)
	if err != nil {
		return nil, err
	}

	reviews := make([]models.Review, 0, limit)
	pages := (limit + reviewsPerPage - 1) / reviewsPerPage
	for page := 1; page <= pages; page++ {
		pagePath := path + "reviews/by/activity/"
		if page > 1 {
			pagePath += fmt.Sprintf("page/%d/", page)
		}

		resp, err := l.get(ctx, pagePath)
		if err != nil {
			return reviews, err
		}
		if resp.StatusCode == http.StatusNotFound {
			break
		}
		if err := resp.Expect("reviews page", shared.ErrReviewsFetch, http.StatusOK); err != nil {
			return reviews, err
		}

		found, err := ParseReviews(bytes.NewReader(resp.Body), l.api.BaseURL())
		if err != nil {
			return reviews, err
		}
		if len(found) == 0 {
			break
		}

		for _, r := range found {
			if len(reviews) == limit {
				return reviews, nil
			}
			reviews = append(reviews, r)
		}
		if len(found) < reviewsPerPage {
			break
		}
	}

	return reviews, nil
}

// ParseReviews extracts reviews from a Letterboxd reviews page.
//
// Relative review links are resolved against base.
func ParseReviews(r io.Reader, base string) ([]models.Review, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse HTML: %v", shared.ErrReviewsFetch, err)
	}

	var reviews []models.Review
	doc.Find("li.film-detail").Each(func(_ int, s *goquery.Selection) {
		var paragraphs []string
		s.Find("div.body-text p").Each(func(_ int, p *goquery.Selection) {
			if text := strings.TrimSpace(p.Text()); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})

		review := models.Review{
			Author: strings.TrimSpace(s.Find("a.context strong.name").First().Text()),
			Rating: strings.TrimSpace(s.Find("span.rating").First().Text()),
			Text:   strings.Join(paragraphs, "\n\n"),
		}
		if src, ok := s.Find("a.avatar img").First().Attr("src"); ok {
			review.AvatarURL = src
		}
		if href, ok := s.Find("a.context").First().Attr("href"); ok && href != "" {
			if strings.HasPrefix(href, "/") {
				href = strings.TrimRight(base, "/") + href
			}
			review.URL = href
		}

		if review.Author == "" && review.Text == "" {
			return
		}
		reviews = append(reviews, review)
	})

	return reviews, nil
}

func (l *LetterboxdService) get(ctx context.Context, path string) (*APIResponse, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrReviewsFetch, err)
		}
	}

	resp, err := l.api.Get(ctx, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrReviewsFetch, err)
	}
	return resp, nil
}

// relative strips the base URL from filmURL so pages are fetched through the same client.
func (l *LetterboxdService) relative(filmURL string) (string, error) {
	path := strings.TrimPrefix(filmURL, l.api.BaseURL())
	if strings.Contains(path, "://") {
		return "", fmt.Errorf("%w: film URL %s is not on %s", shared.ErrInvalidArgument, filmURL, l.api.BaseURL())
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path, nil
}
