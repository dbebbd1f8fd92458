package services

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/desertthunder/riff/internal/models"
	"github.com/desertthunder/riff/internal/shared"
)

// ParseSuggestions extracts the playlist object spanning the first "{" to the last "}" of reply.
func ParseSuggestions(reply string) (*models.SuggestedPlaylist, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in model reply", shared.ErrInvalidResponse)
	}

	span := reply[start : end+1]
	if !gjson.Valid(span) {
		return nil, fmt.Errorf("%w: malformed JSON in model reply", shared.ErrInvalidResponse)
	}

	doc := gjson.Parse(span)
	tracks := doc.Get("tracks")
	if !tracks.IsArray() {
		return nil, fmt.Errorf("%w: model reply has no tracks", shared.ErrInvalidResponse)
	}

	out := &models.SuggestedPlaylist{
		Name:        strings.TrimSpace(doc.Get("playlistName").String()),
		Description: strings.TrimSpace(doc.Get("description").String()),
	}
	tracks.ForEach(func(_, item gjson.Result) bool {
		title := strings.TrimSpace(item.Get("title").String())
		if title == "" {
			return true
		}
		out.Tracks = append(out.Tracks, models.Suggestion{
			Title:  title,
			Artist: strings.TrimSpace(item.Get("artist").String()),
		})
		return true
	})
	return out, nil
}
