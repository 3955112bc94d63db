package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/skillmatrix/internal/ai"
	"github.com/spigell/skillmatrix/internal/extraction"
	"github.com/spigell/skillmatrix/internal/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingRemote struct {
	err error
}

func (f failingRemote) Extract(context.Context, string) (*matrix.SkillMatrix, error) {
	return nil, f.err
}

func newTestServer(mode extraction.Mode, remote ai.Extractor) *Server {
	strategies := extraction.Select(mode, extraction.NewRemote(remote, extraction.RemoteConfig{Provider: "gemini"}), extraction.NewHeuristic(nil))
	return New(Config{MaxBodyBytes: 4096}, extraction.NewPipeline(zap.NewNop(), strategies...), zap.NewNop())
}

type extractBody struct {
	Data  *matrix.SkillMatrix `json:"data"`
	Error *string             `json:"error"`
}

func post(t *testing.T, s *Server, path, body string) (*httptest.ResponseRecorder, extractBody) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var decoded extractBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func TestExtractHeuristic(t *testing.T) {
	s := newTestServer(extraction.ModeAuto, nil)

	rec, body := post(t, s, "/api/extract", `{"jd": "Title: Senior Go Engineer\nGo, Docker. $120k-$150k"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Nil(t, body.Error)
	require.NotNil(t, body.Data)
	assert.Equal(t, "Senior Go Engineer", body.Data.Title)
	assert.Equal(t, matrix.SenioritySenior, body.Data.Seniority)
	require.NotNil(t, body.Data.Salary)
	assert.Equal(t, matrix.CurrencyUSD, body.Data.Salary.Currency)
	assert.Contains(t, rec.Body.String(), `"error":null`)
}

func TestExtractFallbackReportsRemoteError(t *testing.T) {
	s := newTestServer(extraction.ModeAuto, failingRemote{err: &ai.StrategyFailure{Provider: "gemini", Message: "quota exceeded"}})

	rec, body := post(t, s, "/api/extract", `{"jd": "Backend developer with Django"}`)

	assert.Equal(t, http.StatusMultiStatus, rec.Code)
	require.NotNil(t, body.Data)
	assert.Equal(t, []string{"django"}, body.Data.Skills.Backend)
	require.NotNil(t, body.Error)
	assert.Contains(t, *body.Error, "quota exceeded")
}

func TestExtractAllStrategiesFail(t *testing.T) {
	s := newTestServer(extraction.ModeRemote, failingRemote{err: errors.New("model unavailable")})

	rec, body := post(t, s, "/api/extract", `{"jd": "Backend developer"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Nil(t, body.Data)
	require.NotNil(t, body.Error)
	assert.Equal(t, "model unavailable", *body.Error)
}

func TestExtractWithoutStrategies(t *testing.T) {
	s := newTestServer(extraction.ModeRemote, nil)

	rec, body := post(t, s, "/api/extract", `{"jd": "Backend developer"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, extraction.ErrNoStrategy.Error(), *body.Error)
}

func TestExtractBadRequests(t *testing.T) {
	s := newTestServer(extraction.ModeHeuristic, nil)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{name: "malformed json", body: `{"jd": `, status: http.StatusBadRequest, message: msgInvalidPayload},
		{name: "not an object", body: `[1, 2]`, status: http.StatusBadRequest, message: msgInvalidPayload},
		{name: "missing jd", body: `{}`, status: http.StatusBadRequest, message: msgMissingJD},
		{name: "blank jd", body: `{"jd": "  \n\t "}`, status: http.StatusBadRequest, message: msgMissingJD},
		{name: "jd not a string", body: `{"jd": 42}`, status: http.StatusBadRequest, message: msgMissingJD},
		{name: "unknown format", body: `{"jd": "Go", "format": "pdf"}`, status: http.StatusBadRequest, message: msgInvalidFormat},
		{name: "too large", body: `{"jd": "` + strings.Repeat("a", 5000) + `"}`, status: http.StatusRequestEntityTooLarge, message: msgBodyTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := post(t, s, "/api/extract", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.Nil(t, body.Data)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.message, *body.Error)
		})
	}
}

func TestExtractHTMLFormat(t *testing.T) {
	s := newTestServer(extraction.ModeHeuristic, nil)

	payload, err := json.Marshal(map[string]string{
		"jd":     "<nav>Jobs</nav><main><h1>Frontend Engineer</h1><h2>Requirements</h2><ul><li>React</li></ul></main>",
		"format": "html",
	})
	require.NoError(t, err)

	rec, body := post(t, s, "/api/extract", string(payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, body.Data)
	assert.Equal(t, "Frontend Engineer", body.Data.Title)
	assert.Equal(t, []string{"React"}, body.Data.MustHave)
	assert.Equal(t, []string{"react"}, body.Data.Skills.Frontend)
}

func TestValidateEndpoint(t *testing.T) {
	s := newTestServer(extraction.ModeHeuristic, nil)

	valid := `{"title":"Go Engineer","seniority":"mid","skills":{"frontend":[],"backend":["go"],"devops":[],"web3":[],"other":[]},"mustHave":[],"niceToHave":[],"summary":"Detected mid role: Go Engineer."}`

	req := httptest.NewRequest(http.MethodPost, "/api/validate", strings.NewReader(valid))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var ok validateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.True(t, ok.Valid)
	assert.Equal(t, "Go Engineer", ok.Data.Title)

	req = httptest.NewRequest(http.MethodPost, "/api/validate", strings.NewReader(`{"title":"","seniority":"principal"}`))
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var bad validateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bad))
	assert.False(t, bad.Valid)

	paths := make([]string, 0, len(bad.Violations))
	for _, v := range bad.Violations {
		paths = append(paths, v.Path)
	}
	assert.Contains(t, paths, "title")
	assert.Contains(t, paths, "seniority")
	assert.Contains(t, paths, "skills")
}

func TestStrategiesAndHealth(t *testing.T) {
	s := newTestServer(extraction.ModeHeuristic, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/strategies", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Strategies []extraction.Status `json:"strategies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Strategies, 2)
	assert.Equal(t, extraction.StrategyRemote, body.Strategies[0].Name)
	assert.False(t, body.Strategies[0].Enabled)
	assert.True(t, body.Strategies[1].Enabled)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/extract", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestID(t *testing.T) {
	s := newTestServer(extraction.ModeHeuristic, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, id)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(extraction.ModeHeuristic, nil)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, listener) }()

	url := "http://" + listener.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(extraction.ErrNoStrategy))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(&extraction.ExhaustedError{Failures: []extraction.Failure{{Strategy: "remote", Err: context.DeadlineExceeded}}}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
