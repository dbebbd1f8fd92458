package server

import (
	"context"
	"html/template"
	"net/http"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/riff/internal/auth"
)

// Processor interprets a callback URL. [auth.CallbackHandler] satisfies it.
type Processor interface {
	Handle(ctx context.Context, u *url.URL) (auth.State, error)
}

// Outcome is the terminal result of a login attempt.
type Outcome struct {
	State   auth.State
	Err     error
	Notices []auth.Notice
}

// CallbackServer serves the redirect path of the PKCE flow.
//
// A request carrying a code or error is handed to the [Processor]. When the processor scrubs the
// URL, a 303 to the clean path is flushed to the browser straight away, before any token exchange;
// the clean path renders the outcome once processing ends. The first terminal outcome is kept for
// the page and delivered on [CallbackServer.Result].
type CallbackServer struct {
	path      string
	processor Processor
	logger    *log.Logger

	mu         sync.Mutex
	w          http.ResponseWriter
	redirected bool
	notices    []auth.Notice
	last       *Outcome

	once   sync.Once
	result chan Outcome
}

// NewCallbackServer creates a server for path. build receives the server as the processor's
// navigator and notifier and returns the processor to drive.
func NewCallbackServer(path string, build func(auth.Navigator, auth.Notifier) Processor, logger *log.Logger) *CallbackServer {
	if path == "" {
		path = "/"
	}
	s := &CallbackServer{
		path:   path,
		logger: logger,
		result: make(chan Outcome, 1),
	}
	s.processor = build(s, s)
	return s
}

// Routes returns the HTTP routes this handler serves.
func (s *CallbackServer) Routes() []string {
	return []string{"GET " + s.path}
}

// ReplaceURL sends the current request's browser to u and flushes the response.
func (s *CallbackServer) ReplaceURL(u *url.URL) {
	if s.w == nil || s.redirected {
		return
	}
	s.redirected = true

	h := s.w.Header()
	h.Set("Location", u.RequestURI())
	h.Set("Cache-Control", "no-store")
	h.Set("Content-Length", "0")
	s.w.WriteHeader(http.StatusSeeOther)
	if err := http.NewResponseController(s.w).Flush(); err != nil {
		s.logger.Debug("could not flush callback redirect", "error", err)
	}
}

// Notify records a notice for the current request.
func (s *CallbackServer) Notify(n auth.Notice) {
	s.notices = append(s.notices, n)
}

// ServeHTTP handles one callback request. Requests are processed one at a time.
func (s *CallbackServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w, s.redirected, s.notices = w, false, nil
	defer func() { s.w = nil }()

	state, err := s.processor.Handle(r.Context(), r.URL)
	if state == auth.NoCallback {
		if s.redirected {
			return
		}
		if s.last != nil {
			s.render(w, http.StatusOK, *s.last)
			return
		}
		s.render(w, http.StatusOK, Outcome{State: auth.NoCallback})
		return
	}

	outcome := Outcome{State: state, Err: err, Notices: s.notices}
	if err != nil {
		s.logger.Warn("login callback failed", "state", state, "error", err)
	}
	if s.last == nil {
		s.last = &outcome
		s.deliver(outcome)
	} else {
		s.logger.Debug("ignoring callback after login finished", "state", state)
	}

	if s.redirected {
		return
	}
	s.render(w, statusFor(state), *s.last)
}

// Result yields the first terminal outcome and is then closed.
func (s *CallbackServer) Result() <-chan Outcome {
	return s.result
}

func (s *CallbackServer) deliver(o Outcome) {
	s.once.Do(func() {
		s.result <- o
		close(s.result)
	})
}

func statusFor(state auth.State) int {
	switch state {
	case auth.Success:
		return http.StatusOK
	case auth.ExchangeFailed:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

type pageData struct {
	Title   string
	Color   template.CSS
	Notices []auth.Notice
	Hint    string
}

func (s *CallbackServer) render(w http.ResponseWriter, status int, o Outcome) {
	data := pageData{Notices: o.Notices}
	switch o.State {
	case auth.Success:
		data.Title, data.Color = "✓ Connected to Spotify", "#1DB954"
		data.Hint = "You can close this window and return to the terminal."
	case auth.NoCallback:
		data.Title, data.Color = "Waiting for Spotify", "#666666"
		data.Hint = "Finish signing in from the browser window opened by riff."
	default:
		data.Title, data.Color = "✗ Authorization failed", "#E22134"
		data.Hint = "Return to the terminal and run riff auth login again."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := outcomePage.Execute(w, data); err != nil {
		s.logger.Error("failed to render callback page", "error", err)
	}
}

var outcomePage = template.Must(template.New("outcome").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: {{.Color}}; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0.25rem 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        {{range .Notices}}<p>{{.Message}}</p>
        {{end}}<p>{{.Hint}}</p>
    </div>
</body>
</html>
`))
