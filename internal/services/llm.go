package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/desertthunder/riff/internal/models"
	"github.com/desertthunder/riff/internal/shared"
)

const (
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"
	DefaultTemperature   = 0.8
	DefaultTitle         = "AI Playlist Creator"

	// remixTrackLimit caps how many source tracks go into a remix prompt.
	remixTrackLimit = 20
)

const generateSystemPrompt = `You are a music expert AI assistant that helps create Spotify playlists.
When given a description, you suggest specific songs that match the mood, genre, or theme.

IMPORTANT: Always respond with a JSON object containing an array of track suggestions.
Format your response EXACTLY like this, with no additional text before or after:
{
    "playlistName": "A creative name for this playlist",
    "description": "A brief description of the playlist",
    "tracks": [
        {"title": "Song Name", "artist": "Artist Name"},
        {"title": "Another Song", "artist": "Another Artist"}
    ]
}

Suggest 8-12 tracks that are REAL songs available on Spotify. Be specific with song titles and artist names.
Vary your suggestions - include both popular and lesser-known tracks that fit the description.`

const remixSystemPrompt = `You are a music expert AI that remixes playlists.
Given an existing playlist and a modification request, suggest new tracks that fit the request while maintaining the vibe.

IMPORTANT: Respond ONLY with this JSON format:
{
    "playlistName": "A creative remixed name",
    "description": "Description of the remixed playlist",
    "tracks": [
        {"title": "Song Name", "artist": "Artist Name"}
    ]
}

Suggest 8-12 tracks. Include some from the original if they fit, but mostly new suggestions.`

// GeneratePrompt returns the system and user prompts for a new playlist.
func GeneratePrompt(prompt string) (system, user string) {
	return generateSystemPrompt, prompt
}

// RemixPrompt returns the prompts for remixing source with the requested change.
func RemixPrompt(source *models.Playlist, prompt string) (system, user string) {
	tracks := source.Tracks
	if len(tracks) > remixTrackLimit {
		tracks = tracks[:remixTrackLimit]
	}

	lines := make([]string, len(tracks))
	for i, t := range tracks {
		lines[i] = fmt.Sprintf(`"%s" by %s`, t.Title, t.Artist)
	}

	user = fmt.Sprintf("Original playlist \"%s\":\n%s\n\nModification request: %s", source.Name, strings.Join(lines, "\n"), prompt)
	return remixSystemPrompt, user
}

// ModelName appends the ":online" suffix when web search is on, unless the model is already
// online or a free variant.
func ModelName(model string, webSearch bool) string {
	if webSearch && !strings.Contains(model, ":online") && !strings.Contains(model, ":free") {
		return model + ":online"
	}
	return model
}

// LLMConfig configures [OpenRouter].
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	WebSearch   bool
	Temperature float32
	Referer     string
	Title       string
	HTTPClient  *http.Client
}

// OpenRouter sends chat completions to OpenRouter.
type OpenRouter struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenRouter creates a completer. The API key is required.
func NewOpenRouter(cfg LLMConfig) (*OpenRouter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: OpenRouter API key is not set", shared.ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenRouterURL
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}

	base := http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		base = cfg.HTTPClient.Transport
	}
	headers := http.Header{}
	if cfg.Referer != "" {
		headers.Set("HTTP-Referer", cfg.Referer)
	}
	headers.Set("X-Title", cfg.Title)

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{Transport: &headerTransport{base: base, headers: headers}}

	return &OpenRouter{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       ModelName(cfg.Model, cfg.WebSearch),
		temperature: cfg.Temperature,
	}, nil
}

// Model returns the model identifier sent with each request.
func (o *OpenRouter) Model() string {
	return o.model
}

// Complete sends one chat completion and returns the first choice's content.
func (o *OpenRouter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: o.temperature,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: %s", shared.ErrAPIRequest, apiErr.Message)
		}
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in completion", shared.ErrInvalidResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header[k] = v
	}
	return t.base.RoundTrip(req)
}
