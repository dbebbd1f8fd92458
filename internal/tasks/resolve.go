package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/desertthunder/riff/internal/models"
	"github.com/desertthunder/riff/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var errNoMatch = errors.New("no match")

// resolve turns suggestions into tracks. Without a connected account every suggestion becomes a
// placeholder. Otherwise each is searched in the catalog, paced by a rate limiter, and misses are
// dropped. Order follows the suggestions.
func (e *PlaylistEngine) resolve(ctx context.Context, progress chan<- ProgressUpdate, suggestions []models.Suggestion, result *GenerateResult) error {
	total := len(suggestions)

	if !e.authenticated() {
		now := e.now()
		result.Tracks = make([]models.Track, total)
		for i, s := range suggestions {
			result.Tracks[i] = models.NewPlaceholderTrack(s, now, i)
		}
		e.sendProgress(progress, placeholderUpdate(total))
		return nil
	}

	e.sendProgress(progress, searchTracksUpdate(0, total, nil, false))

	limiter := rate.NewLimiter(rate.Limit(e.rateLimit), 1)
	matches := make([]*models.Track, total)
	var done atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, s := range suggestions {
		g.Go(func() error {
			track, err := e.lookup(gctx, limiter, s)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			if err != nil && !errors.Is(err, errNoMatch) {
				e.logger.Warn("failed to find track", "title", s.Title, "artist", s.Artist, "error", err)
			}
			matches[i] = track
			e.sendProgress(progress, searchTracksUpdate(int(done.Add(1)), total, &s, track != nil))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("track search interrupted: %w", err)
	}

	for i, m := range matches {
		if m == nil {
			result.Missing = append(result.Missing, suggestions[i])
			continue
		}
		result.Tracks = append(result.Tracks, *m)
		result.Found++
	}

	e.sendProgress(progress, foundTracksUpdate(result.Found, total))
	return nil
}

// lookup consults the cache before searching. Cache failures never fail a lookup.
func (e *PlaylistEngine) lookup(ctx context.Context, limiter *rate.Limiter, s models.Suggestion) (*models.Track, error) {
	if e.cache != nil {
		if hit, err := e.cache.Lookup(s.Title, s.Artist); err != nil {
			e.logger.Debug("track cache read failed", "error", err)
		} else if hit != nil {
			return hit, nil
		}
	}

	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}

	track, err := e.catalog.SearchTrack(ctx, s.Title, s.Artist)
	if errors.Is(err, shared.ErrTrackNotFound) {
		return nil, errNoMatch
	}
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Store(s.Title, s.Artist, *track); err != nil {
			e.logger.Debug("track cache write failed", "error", err)
		}
	}
	return track, nil
}
