package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearth/internal/auth"
	"hearth/internal/config"
	"hearth/internal/events"
	"hearth/internal/luma"
	"hearth/internal/probe"
)

const liveBody = `{
  "entries": [
    {"api_id": "evt-1", "event": {"api_id": "evt-1", "name": "Crypto over Tea", "start_at": "2025-07-24T10:00:00Z", "cover_url": "https://images.example.com/tea.png", "url": "https://lu.ma/tea"}},
    {"api_id": "evt-2", "event": {"api_id": "evt-2", "name": "After Dark", "start_at": ""}}
  ],
  "has_more": false
}`

func fixedNow() time.Time {
	return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
}

type fixture struct {
	server *Server
	calls  *int32
	cfg    *config.Config
}

// newFixture starts a fake provider answering every request with h and wires
// a Server against it. An empty apiKey leaves the provider unconfigured.
func newFixture(t *testing.T, apiKey string, h http.HandlerFunc, opts ...Option) fixture {
	t.Helper()

	var calls int32
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(provider.Close)

	cfg := config.DefaultConfig()
	cfg.Luma.BaseURL = provider.URL
	cfg.Luma.APIKey = apiKey
	cfg.PreviewPath = filepath.Join(t.TempDir(), "preview.png")

	client := luma.NewClient(luma.WithBaseURL(provider.URL), luma.WithClock(fixedNow))
	svc := events.NewService(client, cfg.Credentials(), cfg.Luma.EventLimit)

	opts = append([]Option{WithClock(fixedNow)}, opts...)
	s, err := NewServer(cfg, svc, nil, opts...)
	require.NoError(t, err)
	return fixture{server: s, calls: &calls, cfg: cfg}
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t, "key", jsonHandler(http.StatusOK, liveBody))
	rec := get(t, f.server.Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.Zero(t, atomic.LoadInt32(f.calls))
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t, "key", jsonHandler(http.StatusOK, liveBody))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestIndexLive(t *testing.T) {
	f := newFixture(t, "key", jsonHandler(http.StatusOK, liveBody))
	rec := get(t, f.server.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Equal(t, 2, strings.Count(body, "data-event-id="))
	assert.Contains(t, body, `src="https://images.example.com/tea.png"`)
	assert.Contains(t, body, `href="https://lu.ma/tea"`)
	assert.Contains(t, body, "Jul 24")
	assert.Contains(t, body, "TBD")
	assert.Contains(t, body, `data-date-short="24/07"`)
	assert.Contains(t, body, `data-live="true"`)
	assert.NotContains(t, body, events.FailureNotice)
	assert.Contains(t, body, "View All Events")
	assert.Contains(t, body, `href="https://lu.ma/hearthgatherings"`)
	assert.Contains(t, body, `data-ready="true"`)
	assert.EqualValues(t, 1, atomic.LoadInt32(f.calls))
}

func TestIndexShowsEventLocalDay(t *testing.T) {
	body := `{"entries":[{"api_id":"evt-la","event":{"api_id":"evt-la","name":"Sunset Social","start_at":"2025-07-25T02:00:00.000Z","timezone":"America/Los_Angeles"}}]}`
	f := newFixture(t, "key", jsonHandler(http.StatusOK, body))
	page := get(t, f.server.Handler(), "/").Body.String()

	assert.Contains(t, page, `<p class="date">Jul 24</p>`)
	assert.Contains(t, page, `data-date-short="24/07"`)
	assert.NotContains(t, page, "Jul 25")
}

func TestIndexProviderFailureShowsFallbackWithNotice(t *testing.T) {
	f := newFixture(t, "key", jsonHandler(http.StatusInternalServerError, `{"message":"boom"}`))
	rec := get(t, f.server.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Equal(t, 4, strings.Count(body, "data-event-id="))
	assert.Contains(t, body, "Failed to load events")
	assert.Contains(t, body, "Showing sample events below")
	for _, img := range events.PlaceholderImages() {
		assert.Contains(t, body, `src="`+img+`"`)
	}
	assert.Contains(t, body, `data-live="false"`)
}

func TestIndexEmptyShowsFallbackWithoutNotice(t *testing.T) {
	f := newFixture(t, "key", jsonHandler(http.StatusOK, `{"entries":[],"has_more":false}`))
	body := get(t, f.server.Handler(), "/").Body.String()

	assert.Equal(t, 4, strings.Count(body, "data-event-id="))
	assert.Contains(t, body, "Crypto over Tea")
	assert.Contains(t, body, "Night at Hearth.")
	assert.NotContains(t, body, events.FailureNotice)
}

func TestIndexUnconfiguredNeverCallsProvider(t *testing.T) {
	f := newFixture(t, "", jsonHandler(http.StatusOK, liveBody))
	body := get(t, f.server.Handler(), "/").Body.String()

	assert.Equal(t, 4, strings.Count(body, "data-event-id="))
	assert.Contains(t, body, events.FailureNotice)
	assert.Zero(t, atomic.LoadInt32(f.calls))
}

func TestIndexRendersMemberships(t *testing.T) {
	f := newFixture(t, "key", jsonHandler(http.StatusOK, liveBody))
	body := get(t, f.server.Handler(), "/").Body.String()

	for _, p := range plans {
		assert.Contains(t, body, p.Price)
	}
	assert.Contains(t, body, "Join Community")
	assert.Contains(t, body, "Hearth Space")
	assert.Contains(t, body, "2025 Hearth.")
}

func TestAPIEventsSuccess(t *testing.T) {
	f := newFixture(t, "key", jsonHandler(http.StatusOK, liveBody))
	rec := get(t, f.server.Handler(), "/api/events")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var resp struct {
		Success   bool             `json:"success"`
		Events    []map[string]any `json:"events"`
		Count     int              `json:"count"`
		Timestamp string           `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, "evt-1", resp.Events[0]["api_id"])
	assert.Equal(t, "https://images.example.com/tea.png", resp.Events[0]["cover_url"])
	assert.Equal(t, "2025-07-01T12:00:00.000Z", resp.Timestamp)
}

func TestAPIEventsEmpty(t *testing.T) {
	f := newFixture(t, "key", jsonHandler(http.StatusOK, `{"entries":[]}`))
	rec := get(t, f.server.Handler(), "/api/events")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"events":[],"count":0,"timestamp":"2025-07-01T12:00:00.000Z"}`, rec.Body.String())
}

func TestAPIEventsFailure(t *testing.T) {
	f := newFixture(t, "key", jsonHandler(http.StatusInternalServerError, `{"message":"boom"}`))
	rec := get(t, f.server.Handler(), "/api/events")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Failed to fetch events", resp["error"])
	assert.Equal(t, "Luma API request failed: 500 Internal Server Error", resp["message"])
	assert.Equal(t, []any{}, resp["events"])
}

func TestAPIEventsUnconfigured(t *testing.T) {
	f := newFixture(t, "", jsonHandler(http.StatusOK, liveBody))
	rec := get(t, f.server.Handler(), "/api/events")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Zero(t, atomic.LoadInt32(f.calls))
}

func TestAPIEventsICS(t *testing.T) {
	f := newFixture(t, "key", jsonHandler(http.StatusOK, liveBody))
	rec := get(t, f.server.Handler(), "/api/events.ics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "SUMMARY:Crypto over Tea")
	// evt-2 has no parsable start and is left out.
	assert.Equal(t, 1, strings.Count(body, "BEGIN:VEVENT"))
}

func TestAPIEventsICSFailure(t *testing.T) {
	f := newFixture(t, "key", jsonHandler(http.StatusBadGateway, ""))
	rec := get(t, f.server.Handler(), "/api/events.ics")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDebugNeverLeaksKey(t *testing.T) {
	environ := func() []string {
		return []string{
			"PATH=/usr/bin",
			"LUMA_API_KEY=super-secret",
			"HEARTH_LISTEN=:8080",
			"LUMA_CALENDAR_ID=hearthgatherings",
			"HOME=/root",
		}
	}
	f := newFixture(t, "super-secret", jsonHandler(http.StatusOK, liveBody), WithEnviron(environ))
	rec := get(t, f.server.Handler(), "/api/debug")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "super-secret")

	var resp struct {
		Environment debugEnvironment `json:"environment"`
		Probe       *probe.Status    `json:"probe"`
		Timestamp   string           `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Environment.HasLumaAPIKey)
	assert.Equal(t, "hearthgatherings", resp.Environment.LumaCalendarID)
	assert.Equal(t, len("super-secret"), resp.Environment.APIKeyLength)
	assert.Equal(t, []string{"HEARTH_LISTEN", "LUMA_API_KEY", "LUMA_CALENDAR_ID"}, resp.Environment.AllEnvKeys)
	assert.Nil(t, resp.Probe)
	assert.Zero(t, atomic.LoadInt32(f.calls))
}

func TestBasicAuthGuardsDiagnostics(t *testing.T) {
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)

	f := newFixture(t, "key", jsonHandler(http.StatusOK, liveBody))
	f.cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", PasswordHash: hash}
	s, err := NewServer(f.cfg, f.server.events, nil, WithClock(fixedNow))
	require.NoError(t, err)
	h := s.Handler()

	for _, path := range []string{"/api/debug", "/metrics", "/preview.png"} {
		rec := get(t, h, path)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `realm="Hearth"`, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/debug", nil)
	req.SetBasicAuth("admin", "hunter2")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, path := range []string{"/", "/health", "/api/events", "/event1.png"} {
		assert.Equal(t, http.StatusOK, get(t, h, path).Code, path)
	}
}

func TestMetricsExposition(t *testing.T) {
	f := newFixture(t, "key", jsonHandler(http.StatusOK, liveBody))
	h := f.server.Handler()
	get(t, h, "/api/events")

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hearth_luma_requests_total")
	assert.Contains(t, rec.Body.String(), "hearth_http_requests_total")
}

func TestPreview(t *testing.T) {
	f := newFixture(t, "key", jsonHandler(http.StatusOK, liveBody))
	h := f.server.Handler()
	assert.Equal(t, http.StatusNotFound, get(t, h, "/preview.png").Code)

	png, err := embedded.ReadFile("static/event1.png")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.cfg.PreviewPath, png, 0o644))

	rec := get(t, h, "/preview.png")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestStaticAssets(t *testing.T) {
	f := newFixture(t, "key", jsonHandler(http.StatusOK, liveBody))
	h := f.server.Handler()

	for _, img := range events.PlaceholderImages() {
		rec := get(t, h, img)
		assert.Equal(t, http.StatusOK, rec.Code, img)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"), img)
	}
	assert.Equal(t, http.StatusOK, get(t, h, "/site.css").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/unknown").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/nope.png").Code)
}

func TestFilterEnvKeys(t *testing.T) {
	assert.Equal(t, []string{}, filterEnvKeys(nil))
	assert.Equal(t, []string{"LUMA_X"}, filterEnvKeys([]string{"LUMA_X=1", "LUMAX=2", "luma_y=3"}))
}
