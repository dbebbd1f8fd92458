package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/riff/internal/auth"
	"github.com/desertthunder/riff/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// fakeProcessor mimics the callback handler: any query is terminal and scrubbed.
type fakeProcessor struct {
	nav   auth.Navigator
	note  auth.Notifier
	state auth.State
	err   error
	calls int
}

func (p *fakeProcessor) Handle(ctx context.Context, u *url.URL) (auth.State, error) {
	p.calls++
	if u.RawQuery == "" {
		return auth.NoCallback, nil
	}
	p.note.Notify(auth.Notice{Level: auth.LevelError, Message: "State mismatch. Please try again."})
	clean := *u
	clean.RawQuery = ""
	p.nav.ReplaceURL(&clean)
	return p.state, p.err
}

func newFakeServer(state auth.State, err error) (*CallbackServer, *fakeProcessor) {
	fp := &fakeProcessor{state: state, err: err}
	cs := NewCallbackServer("/callback", func(n auth.Navigator, no auth.Notifier) Processor {
		fp.nav, fp.note = n, no
		return fp
	}, quietLogger())
	return cs, fp
}

func TestCallbackServer(t *testing.T) {
	t.Run("scrubs with a redirect then renders the outcome", func(t *testing.T) {
		cs, fp := newFakeServer(auth.StateMismatch, auth.ErrStateMismatch)
		router := NewBasicRouter()
		router.Handler(cs)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=c&state=s", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/callback", rec.Header().Get("Location"))

		select {
		case out := <-cs.Result():
			assert.Equal(t, auth.StateMismatch, out.State)
			assert.ErrorIs(t, out.Err, auth.ErrStateMismatch)
			require.Len(t, out.Notices, 1)
		default:
			t.Fatal("expected an outcome")
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Authorization failed")
		assert.Contains(t, rec.Body.String(), "State mismatch. Please try again.")
		assert.Equal(t, 2, fp.calls)
	})

	t.Run("waiting page before any callback", func(t *testing.T) {
		cs, _ := newFakeServer(auth.Success, nil)
		rec := httptest.NewRecorder()
		cs.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Waiting for Spotify")

		select {
		case <-cs.Result():
			t.Fatal("no outcome expected")
		default:
		}
	})

	t.Run("delivers only the first outcome", func(t *testing.T) {
		cs, fp := newFakeServer(auth.Success, nil)
		cs.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=a&state=b", nil))
		fp.state, fp.err = auth.StateMismatch, auth.ErrStateMismatch
		cs.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=a&state=b", nil))

		out, ok := <-cs.Result()
		require.True(t, ok)
		assert.Equal(t, auth.Success, out.State)
		_, ok = <-cs.Result()
		assert.False(t, ok)

		rec := httptest.NewRecorder()
		cs.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback", nil))
		assert.Contains(t, rec.Body.String(), "Connected to Spotify")
		assert.NotContains(t, rec.Body.String(), "Authorization failed")
	})

	t.Run("escapes provider text", func(t *testing.T) {
		cs := NewCallbackServer("/cb", func(n auth.Navigator, no auth.Notifier) Processor {
			return processorFunc(func(ctx context.Context, u *url.URL) (auth.State, error) {
				no.Notify(auth.Notice{Level: auth.LevelError, Message: "Spotify auth error: <script>x</script>"})
				return auth.ErrorFromProvider, errors.New("provider")
			})
		}, quietLogger())

		rec := httptest.NewRecorder()
		cs.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cb?error=x", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotContains(t, rec.Body.String(), "<script>")
		assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
	})
}

type processorFunc func(ctx context.Context, u *url.URL) (auth.State, error)

func (f processorFunc) Handle(ctx context.Context, u *url.URL) (auth.State, error) { return f(ctx, u) }

func TestCallbackServerWithAuthHandler(t *testing.T) {
	ctx := context.Background()
	logger := quietLogger()
	kv := store.NewMemory()
	sessions := auth.NewSessionStore(kv, logger)
	tokens := auth.NewTokenManager(kv, time.Now, logger)

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	redirectURI := "http://127.0.0.1:0/callback"
	cs := NewCallbackServer("/callback", func(n auth.Navigator, no auth.Notifier) Processor {
		return auth.NewCallbackHandler("client-1", redirectURI, sessions, tokens,
			auth.NewTokenEndpoint(tokenServer.URL, tokenServer.Client(), time.Now), nil,
			auth.WithNavigator(n), auth.WithNotifier(no), auth.WithLogger(logger))
	}, logger)

	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handler(cs)

	srv, err := Start("127.0.0.1:0", router, logger)
	require.NoError(t, err)
	defer srv.Shutdown(ctx)

	require.NoError(t, sessions.Save(ctx, auth.PendingAuthorization{Verifier: strings.Repeat("v", 64), State: "s1", CreatedAt: time.Now()}))

	resp, err := http.Get("http://" + srv.Addr() + "/callback?code=AUTH1&state=s1")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/callback", resp.Request.URL.RequestURI())
	assert.Contains(t, string(body), "Connected to Spotify")

	out := <-cs.Result()
	assert.Equal(t, auth.Success, out.State)
	assert.NoError(t, out.Err)
	assert.True(t, tokens.IsAuthenticated())
}

func TestCallbackServerRedirectsBeforeExchange(t *testing.T) {
	ctx := context.Background()
	logger := quietLogger()
	kv := store.NewMemory()
	sessions := auth.NewSessionStore(kv, logger)
	tokens := auth.NewTokenManager(kv, time.Now, logger)

	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	cs := NewCallbackServer("/callback", func(n auth.Navigator, no auth.Notifier) Processor {
		return auth.NewCallbackHandler("client-1", "http://127.0.0.1:0/callback", sessions, tokens,
			auth.NewTokenEndpoint(tokenServer.URL, tokenServer.Client(), time.Now), nil,
			auth.WithNavigator(n), auth.WithNotifier(no), auth.WithLogger(logger))
	}, logger)

	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handler(cs)

	srv, err := Start("127.0.0.1:0", router, logger)
	require.NoError(t, err)
	defer srv.Shutdown(ctx)
	defer unblock()

	require.NoError(t, sessions.Save(ctx, auth.PendingAuthorization{Verifier: strings.Repeat("v", 64), State: "s1", CreatedAt: time.Now()}))

	client := &http.Client{
		Timeout: 2 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	callbackURL := "http://" + srv.Addr() + "/callback?code=AUTH1&state=s1"

	resp, err := client.Get(callbackURL)
	require.NoError(t, err, "redirect should arrive while the exchange is pending")
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/callback", resp.Header.Get("Location"))
	assert.False(t, tokens.IsAuthenticated())

	replayed := make(chan int, 1)
	go func() {
		resp, err := client.Get(callbackURL)
		if err != nil {
			replayed <- 0
			return
		}
		resp.Body.Close()
		replayed <- resp.StatusCode
	}()

	time.Sleep(50 * time.Millisecond)
	unblock()

	assert.Equal(t, http.StatusSeeOther, <-replayed)

	page, err := client.Get("http://" + srv.Addr() + "/callback")
	require.NoError(t, err)
	body, _ := io.ReadAll(page.Body)
	page.Body.Close()
	assert.Contains(t, string(body), "Connected to Spotify")
	assert.NotContains(t, string(body), "Authorization failed")

	out := <-cs.Result()
	assert.Equal(t, auth.Success, out.State)
	assert.True(t, tokens.IsAuthenticated())
}

func TestBasicRouter(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	router := NewBasicRouter()
	router.Use(mw("first"), mw("second"))
	router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, []string{"first", "second"}, order)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
