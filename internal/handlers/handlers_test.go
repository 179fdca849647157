package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiaole5211314/portfolio/internal/browser"
	"github.com/xiaole5211314/portfolio/internal/content"
	"github.com/xiaole5211314/portfolio/internal/session"
	"github.com/xiaole5211314/portfolio/internal/store"
)

type recordedEvent struct {
	kind   store.EventKind
	target string
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (f *fakeEvents) RecordEvent(_ context.Context, kind store.EventKind, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{kind, target})
	return f.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type testServer struct {
	router   *gin.Engine
	sessions *session.Manager
	events   *fakeEvents
}

func newTestServer(t *testing.T, origins ...string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := session.NewManager(time.Hour, zap.NewNop())
	t.Cleanup(sessions.Close)
	events := &fakeEvents{}

	router := BuildRouter(RouterDeps{
		ServiceName: "portfolio",
		Version:     "test",
		Content:     content.Default(),
		Sessions:    sessions,
		Events:      events,
		DB:          fakePinger{},
		CORSOrigins: origins,
		Logger:      zap.NewNop(),
		Now:         func() time.Time { return time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC) },
	})
	return &testServer{router: router, sessions: sessions, events: events}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

var sessionAttr = regexp.MustCompile(`data-session="([^"]+)"`)

func (s *testServer) loadPage(t *testing.T, target string, header http.Header) (string, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rr := s.do(req)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	m := sessionAttr.FindStringSubmatch(body)
	require.Len(t, m, 2, "page carries a session id")
	return body, m[1]
}

type requestsBody struct {
	Requests []browser.ScrollRequest `json:"requests"`
}

func decodeRequests(t *testing.T, rr *httptest.ResponseRecorder) []browser.ScrollRequest {
	t.Helper()
	var body requestsBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotNil(t, body.Requests)
	return body.Requests
}

func TestIndexRendersPage(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := srv.do(req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ReducedMotionHint, rr.Header().Get("Accept-CH"))
	assert.Contains(t, rr.Header().Get("Vary"), ReducedMotionHint)

	body := rr.Body.String()
	assert.Contains(t, body, "© 2025 Kant(Qiankang) Wang")
	assert.Contains(t, body, `datetime="2025-06-15"`)
	assert.Contains(t, body, `data-enter-delay="0.6"`)
	assert.NotContains(t, body, "data-back-to-top")
	assert.Equal(t, 1, srv.sessions.Len())
}

func TestIndexHonoursReducedMotionHint(t *testing.T) {
	srv := newTestServer(t)

	body, _ := srv.loadPage(t, "/", http.Header{ReducedMotionHint: {"reduce"}})
	assert.Contains(t, body, `data-motion="reduced"`)
	assert.NotContains(t, body, "data-enter-")

	body, _ = srv.loadPage(t, "/", http.Header{ReducedMotionHint: {`"no-preference"`}})
	assert.Contains(t, body, `data-motion="normal"`)

	body, _ = srv.loadPage(t, "/?motion=reduce", nil)
	assert.Contains(t, body, `data-motion="reduced"`)
}

func TestIndexInitialScrollOffset(t *testing.T) {
	srv := newTestServer(t)

	body, _ := srv.loadPage(t, "/?y=400", nil)
	assert.NotContains(t, body, "data-back-to-top")

	body, _ = srv.loadPage(t, "/?y=401", nil)
	assert.Contains(t, body, "data-back-to-top")
}

func TestScrollFragment(t *testing.T) {
	srv := newTestServer(t)
	_, id := srv.loadPage(t, "/", nil)

	rr := srv.postForm("/session/"+id+"/scroll", url.Values{"y": {"401"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "data-back-to-top")

	rr = srv.postForm("/session/"+id+"/scroll", url.Values{"y": {"400"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, strings.TrimSpace(rr.Body.String()))

	rr = srv.postForm("/session/"+id+"/scroll", url.Values{"y": {"far"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMotionEndpoint(t *testing.T) {
	srv := newTestServer(t)
	_, id := srv.loadPage(t, "/", nil)

	rr := srv.postForm("/session/"+id+"/motion", url.Values{"reduce": {"1"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"reducedMotion": true}`, rr.Body.String())

	rr = srv.postForm("/session/"+id+"/motion", url.Values{"reduce": {"false"}})
	assert.JSONEq(t, `{"reducedMotion": false}`, rr.Body.String())

	rr = srv.postForm("/session/"+id+"/motion", url.Values{"reduce": {"maybe"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBackToTopIssuesOneRequestPerClick(t *testing.T) {
	srv := newTestServer(t)
	_, id := srv.loadPage(t, "/", nil)

	rr := srv.postForm("/session/"+id+"/top", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeRequests(t, rr), "hidden control issues nothing")
	assert.Empty(t, srv.events.events)

	srv.postForm("/session/"+id+"/scroll", url.Values{"y": {"1200"}})

	for i := 0; i < 3; i++ {
		reqs := decodeRequests(t, srv.postForm("/session/"+id+"/top", nil))
		require.Len(t, reqs, 1)
		assert.Equal(t, 0.0, reqs[0].Top)
		assert.Equal(t, browser.BehaviorSmooth, reqs[0].Behavior)
		assert.Empty(t, reqs[0].Target)
	}
	assert.Len(t, srv.events.events, 3)
	assert.Equal(t, store.EventBackToTop, srv.events.events[0].kind)
}

func TestNavigate(t *testing.T) {
	srv := newTestServer(t)
	_, id := srv.loadPage(t, "/", nil)

	for _, section := range []string{"about", "experience", "projects", "skills"} {
		rr := srv.postForm("/session/"+id+"/nav/"+section, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		reqs := decodeRequests(t, rr)
		require.Len(t, reqs, 1)
		assert.Equal(t, section, reqs[0].Target)
		assert.Equal(t, -70.0, reqs[0].Top)
		assert.Equal(t, int64(500), reqs[0].DurationMs)
	}
	assert.Len(t, srv.events.events, 4)

	rr := srv.postForm("/session/"+id+"/nav/contact", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Len(t, srv.events.events, 4)
}

func TestNavigateToleratesRecorderFailure(t *testing.T) {
	srv := newTestServer(t)
	srv.events.err = errors.New("disk full")
	_, id := srv.loadPage(t, "/", nil)

	rr := srv.postForm("/session/"+id+"/nav/about", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCloseSession(t *testing.T) {
	srv := newTestServer(t)
	_, first := srv.loadPage(t, "/", nil)
	_, second := srv.loadPage(t, "/", nil)
	require.Equal(t, 2, srv.sessions.Len())

	rr := srv.do(httptest.NewRequest(http.MethodDelete, "/session/"+first, nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = srv.postForm("/session/"+second+"/close", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Zero(t, srv.sessions.Len())

	rr = srv.postForm("/session/"+first+"/close", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/session/nope/scroll", "/session/nope/motion", "/session/nope/top", "/session/nope/nav/about"} {
		rr := srv.postForm(path, url.Values{"y": {"1"}, "reduce": {"1"}})
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
	}
}

func TestContentAPI(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(httptest.NewRequest(http.MethodGet, "/api/content", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var doc content.Document
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	assert.Equal(t, "Kant(Qiankang) Wang", doc.Profile.Name)
	assert.Len(t, doc.Skills, 7)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestContentAPICORS(t *testing.T) {
	srv := newTestServer(t, "https://cv.example")

	req := httptest.NewRequest(http.MethodGet, "/api/content", nil)
	req.Header.Set("Origin", "https://cv.example")
	rr := srv.do(req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://cv.example", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/content", nil)
	req.Header.Set("Origin", "https://cv.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr = srv.do(req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://cv.example", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/content", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = srv.do(req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	srv.loadPage(t, "/", nil)

	rr := srv.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "up", resp.DB)
	assert.Equal(t, 1, resp.Sessions)
}

func TestHealthDBDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHealthHandler("portfolio", "test", fakePinger{err: errors.New("closed")}, nil).RegisterRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "down", resp.DB)
	assert.Zero(t, resp.Sessions)
}

func TestStaticAssetsServed(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "sendBeacon")
}

func TestAnonymousPageLoadsStayUnderSessionLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := session.NewManager(time.Hour, zap.NewNop(), session.WithLimit(25))
	t.Cleanup(sessions.Close)

	router := BuildRouter(RouterDeps{
		ServiceName: "portfolio",
		Version:     "test",
		Content:     content.Default(),
		Sessions:    sessions,
		Logger:      zap.NewNop(),
	})

	for i := 0; i < 500; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	assert.Equal(t, 25, sessions.Len())
}

func TestHealthWithoutStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHealthHandler("portfolio", "test", nil, func() int { return 4 }).RegisterRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "disabled", resp.DB)
	assert.Equal(t, 4, resp.Sessions)
}
