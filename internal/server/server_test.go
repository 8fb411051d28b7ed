package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/shared"
	tu "github.com/desertthunder/lbx/internal/testing"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *errorBody      `json:"error"`
	Meta  *responseMeta   `json:"meta"`
}

func setupServer(t *testing.T) (*httptest.Server, *services.AssetService) {
	t.Helper()

	db := tu.NewTestDB(t)
	logger := log.New(io.Discard)
	svc := services.NewAssetService(db, logger)

	srv := httptest.NewServer(NewRouter(svc, db, logger, nil))
	t.Cleanup(srv.Close)
	return srv, svc
}

func doJSON(t *testing.T, method, url string, body io.Reader) (*http.Response, envelope) {
	t.Helper()

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestAssetRoutes(t *testing.T) {
	srv, svc := setupServer(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, models.NewBook("Dune", "Herbert", "123", "813")))
	require.NoError(t, svc.Add(ctx, models.NewVideo("Arrival", "Villeneuve")))

	tc := []struct {
		name   string
		path   string
		status int
		want   string
	}{
		{name: "get book", path: "/assets/1", status: http.StatusOK, want: `"author":"Herbert"`},
		{name: "get missing", path: "/assets/99", status: http.StatusNotFound, want: "not_found"},
		{name: "bad id", path: "/assets/abc", status: http.StatusBadRequest, want: "bad_request"},
		{name: "negative id", path: "/assets/-1", status: http.StatusBadRequest, want: "bad_request"},
		{name: "type book", path: "/assets/1/type", status: http.StatusOK, want: `"type":"Book"`},
		{name: "type missing reports video", path: "/assets/99/type", status: http.StatusOK, want: `"type":"Video"`},
		{name: "kind video", path: "/assets/2/kind", status: http.StatusOK, want: `"kind":"video"`},
		{name: "kind missing", path: "/assets/99/kind", status: http.StatusNotFound, want: "not_found"},
		{name: "author", path: "/assets/1/author", status: http.StatusOK, want: `"author_or_director":"Herbert"`},
		{name: "director", path: "/assets/2/author", status: http.StatusOK, want: `"author_or_director":"Villeneuve"`},
		{name: "isbn book", path: "/assets/1/isbn", status: http.StatusOK, want: `"isbn":"123"`},
		{name: "isbn video", path: "/assets/2/isbn", status: http.StatusOK, want: `"isbn":"N/A"`},
		{name: "dewey", path: "/assets/1/dewey", status: http.StatusOK, want: `"dewey_index":"813"`},
		{name: "dewey video", path: "/assets/2/dewey", status: http.StatusOK, want: `"dewey_index":""`},
		{name: "title", path: "/assets/2/title", status: http.StatusOK, want: `"title":"Arrival"`},
		{name: "title missing", path: "/assets/99/title", status: http.StatusNotFound, want: "not_found"},
		{name: "no location", path: "/assets/1/location", status: http.StatusNotFound, want: "not_found"},
		{name: "no card", path: "/assets/1/card", status: http.StatusNotFound, want: "not_found"},
		{name: "describe", path: "/assets/1/describe", status: http.StatusOK, want: `"type":"Book"`},
		{name: "unknown route", path: "/shelves", status: http.StatusNotFound, want: "route not found"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.status, resp.StatusCode, string(body))
			assert.Contains(t, string(body), tt.want)
			assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
		})
	}
}

func TestListAndCreate(t *testing.T) {
	srv, _ := setupServer(t)

	t.Run("Empty List", func(t *testing.T) {
		resp, env := doJSON(t, http.MethodGet, srv.URL+"/assets", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `[]`, string(env.Data))
	})

	t.Run("Create Book", func(t *testing.T) {
		body := strings.NewReader(`{"kind":"book","title":"Dune","author":"Herbert","isbn":"123","dewey_index":"813"}`)
		resp, env := doJSON(t, http.MethodPost, srv.URL+"/assets", body)

		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "/assets/1", resp.Header.Get("Location"))

		var asset models.Asset
		require.NoError(t, json.Unmarshal(env.Data, &asset))
		assert.Equal(t, int64(1), asset.ID)
		b, ok := asset.Book()
		require.True(t, ok)
		assert.Equal(t, "Herbert", b.Author)
	})

	t.Run("Create Unknown Kind", func(t *testing.T) {
		body := strings.NewReader(`{"kind":"map","title":"Atlas"}`)
		resp, env := doJSON(t, http.MethodPost, srv.URL+"/assets", body)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		require.NotNil(t, env.Error)
		assert.Equal(t, "unknown_variant", env.Error.Code)
	})

	t.Run("Create Malformed", func(t *testing.T) {
		resp, env := doJSON(t, http.MethodPost, srv.URL+"/assets", strings.NewReader(`{"kind":`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.NotNil(t, env.Error)
	})

	t.Run("Create Empty Title", func(t *testing.T) {
		body := strings.NewReader(`{"kind":"video","title":"","director":"Nobody"}`)
		resp, env := doJSON(t, http.MethodPost, srv.URL+"/assets", body)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.NotNil(t, env.Error)
		assert.Equal(t, "an internal error occurred", env.Error.Message)
	})

	t.Run("List", func(t *testing.T) {
		resp, env := doJSON(t, http.MethodGet, srv.URL+"/assets", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var assets []models.Asset
		require.NoError(t, json.Unmarshal(env.Data, &assets))
		assert.Len(t, assets, 1)
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/assets/1", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestSeededRoutes(t *testing.T) {
	srv, svc := setupServer(t)
	_, err := services.SeedCatalog(context.Background(), svc, time.Now())
	require.NoError(t, err)

	resp, env := doJSON(t, http.MethodGet, srv.URL+"/assets/1/card", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var card models.Card
	require.NoError(t, json.Unmarshal(env.Data, &card))
	assert.True(t, card.Holds(1))

	resp, env = doJSON(t, http.MethodGet, srv.URL+"/assets/3/location", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var branch models.Branch
	require.NoError(t, json.Unmarshal(env.Data, &branch))
	assert.Equal(t, "Eastside", branch.Name)
}

func TestHealth(t *testing.T) {
	srv, _ := setupServer(t)

	resp, env := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))

	t.Run("Unavailable", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

		router := NewChiRouter()
		router.Handler(NewHealthHandler(failingPinger{}))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("down") }

func TestMiddleware(t *testing.T) {
	t.Run("RequestID Propagation", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFrom(r.Context())
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, "abc-123")
		h.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
	})

	t.Run("AccessLog", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		h := AccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

		out := buf.String()
		assert.Contains(t, out, "path=/brew")
		assert.Contains(t, out, "status=418")
	})

	t.Run("Recover", func(t *testing.T) {
		var buf bytes.Buffer
		h := Recover(log.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, buf.String(), "panic recovered")
	})

	t.Run("RateLimiter", func(t *testing.T) {
		rl := NewRateLimiter(1, 2)
		now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
		rl.now = func() time.Time { return now }

		h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		codes := make([]int, 0, 3)
		for range 3 {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.1:5000"
			h.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}
		assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.2:5000"
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code, "other clients have their own budget")

		now = now.Add(10 * time.Minute)
		rl.limiterFor("10.0.0.3")
		assert.Len(t, rl.limiters, 1, "idle clients should be swept")
	})

	t.Run("clientKey", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		assert.Equal(t, "192.0.2.1", clientKey(req))

		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		assert.Equal(t, "203.0.113.7", clientKey(req))
	})
}

func TestStatusFor(t *testing.T) {
	tc := []struct {
		err  error
		want int
	}{
		{err: shared.ErrAssetNotFound, want: http.StatusNotFound},
		{err: fmt.Errorf("wrapped: %w", shared.ErrCardNotFound), want: http.StatusNotFound},
		{err: shared.ErrInvalidArgument, want: http.StatusBadRequest},
		{err: shared.ErrVariantMismatch, want: http.StatusConflict},
		{err: shared.ErrUnknownVariant, want: http.StatusUnprocessableEntity},
		{err: errors.New("disk on fire"), want: http.StatusInternalServerError},
	}

	for _, tt := range tc {
		got, _ := statusFor(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
	}
}

func TestServerRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := New("127.0.0.1:0", NewChiRouter(), log.New(io.Discard))

	addrs := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, func(addr string) { addrs <- addr })
	}()

	addr := <-addrs
	resp, err := http.Get("http://" + addr + "/nothing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
