package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/simklx/internal/shared"
	"github.com/urfave/cli/v3"
)

type expandOutput struct {
	ShowID        int            `json:"show_id"`
	TotalEpisodes int            `json:"total_episodes"`
	Seasons       []seasonOutput `json:"seasons"`
}

type seasonOutput struct {
	Number   int   `json:"number"`
	Episodes []int `json:"episodes"`
}

// Expand prints the seasons and episodes that an import would submit for a show.
func (r *Runner) Expand(ctx context.Context, cmd *cli.Command) error {
	id := cmd.IntArg("tmdb-id")
	if id <= 0 {
		return fmt.Errorf("%w: tmdb-id must be a positive integer", shared.ErrMissingArgument)
	}

	metadata, err := r.metadataService()
	if err != nil {
		return err
	}

	engine := r.newEngine(nil, metadata, engineOpts{})
	total, manifests, err := engine.Expand(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := expandOutput{ShowID: id, TotalEpisodes: total, Seasons: []seasonOutput{}}
		for _, m := range manifests {
			out.Seasons = append(out.Seasons, seasonOutput{Number: m.SeasonNumber, Episodes: m.EpisodeNumbers})
		}
		return r.writeJSON(out, true)
	}

	r.writePlainHeader(fmt.Sprintf("TMDB show %d", id))
	if total == 0 {
		return r.writePlain("No episodes found; an import would submit the show without seasons\n")
	}
	for _, m := range manifests {
		n := len(m.EpisodeNumbers)
		r.writePlain("Season %-3d %d %s\n", m.SeasonNumber, n, shared.Pluralize(n, "episode"))
	}
	return r.writePlain("Total: %d %s\n", total, shared.Pluralize(total, "episode"))
}

// Reviews resolves a film on Letterboxd and prints its popular reviews.
func (r *Runner) Reviews(ctx context.Context, cmd *cli.Command) error {
	id := cmd.IntArg("tmdb-id")
	if id <= 0 {
		return fmt.Errorf("%w: tmdb-id must be a positive integer", shared.ErrMissingArgument)
	}

	limit := r.config.Letterboxd.MaxReviews
	if cmd.IsSet("limit") {
		limit = cmd.Int("limit")
	}
	if limit <= 0 {
		return fmt.Errorf("%w: --limit must be positive", shared.ErrInvalidFlag)
	}

	svc := r.reviewService()
	filmURL, err := svc.ResolveFilm(ctx, id)
	if err != nil {
		return shared.WrapKind(shared.ErrReviewsFetch, err)
	}
	r.logger.Debug("film resolved", "tmdb_id", id, "url", filmURL)

	reviews, err := svc.Reviews(ctx, filmURL, limit)
	if err != nil {
		return shared.WrapKind(shared.ErrReviewsFetch, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(reviews, cmd.Bool("pretty"))
	}

	r.writePlainHeader(filmURL)
	if len(reviews) == 0 {
		return r.writePlain("No reviews found\n")
	}
	for i, review := range reviews {
		rating := ""
		if review.Rating != "" {
			rating = " " + review.Rating
		}
		r.writePlain("%d. %s%s\n", i+1, review.Author, rating)
		r.writePlain("   %s\n\n", strings.ReplaceAll(strings.TrimSpace(review.Text), "\n", "\n   "))
	}
	return nil
}
