package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FundSentinel/internal/metrics"
	"FundSentinel/internal/model"
)

type fakeEvaluator struct {
	lastInput model.FundInput
	err       error
}

func (f *fakeEvaluator) EvaluateCode(_ context.Context, code string) (model.Outcome, error) {
	if f.err != nil {
		return model.Outcome{}, f.err
	}
	return model.Outcome{Code: code, Name: "基金" + code, Status: model.OutcomeOK}, nil
}

func (f *fakeEvaluator) EvaluateInput(_ context.Context, in model.FundInput) model.Outcome {
	f.lastInput = in
	if in.Dwjz == nil {
		return model.Outcome{Code: in.Code, Status: model.OutcomeSkip, Reason: "估值数据缺失"}
	}
	return model.Outcome{Code: in.Code, Status: model.OutcomeOK}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func newTestServer(ev Evaluator) *Server {
	return NewServer(NewHandler(ev, nil), WithGatherer(prometheus.NewRegistry()))
}

func TestHealthz(t *testing.T) {
	rec, env := do(t, newTestServer(&fakeEvaluator{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 200, env.Status)
	assert.JSONEq(t, `{"state":"ok"}`, string(env.Data))
}

func TestGetFund(t *testing.T) {
	srv := newTestServer(&fakeEvaluator{})

	rec, env := do(t, srv, http.MethodGet, "/api/v1/funds/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out model.Outcome
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "000001", out.Code)

	rec, env = do(t, srv, http.MethodGet, "/api/v1/funds/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_CODE")
}

func TestGetFund_UpstreamError(t *testing.T) {
	srv := newTestServer(&fakeEvaluator{err: errors.New("collect 000001: timeout")})
	rec, env := do(t, srv, http.MethodGet, "/api/v1/funds/000001", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, string(env.Data), "timeout")
}

func TestEvaluate(t *testing.T) {
	ev := &fakeEvaluator{}
	srv := newTestServer(ev)

	body := `{"code":"110022","dwjz":1.5,"gsz":1.52,"history":[
		{"date":"2024-06-03","value":1.48},{"date":"2024-06-04","value":1.5}]}`
	rec, env := do(t, srv, http.MethodPost, "/api/v1/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "OK", env.Message)
	assert.True(t, ev.lastInput.Live, "live defaults to true")
	assert.False(t, ev.lastInput.AsOf.IsZero())
	assert.Len(t, ev.lastInput.History, 2)

	rec, env = do(t, srv, http.MethodPost, "/api/v1/evaluate", strings.Replace(body, `"dwjz":1.5,`, "", 1))
	require.Equal(t, http.StatusOK, rec.Code)
	var out model.Outcome
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, model.OutcomeSkip, out.Status)

	_, _ = do(t, srv, http.MethodPost, "/api/v1/evaluate", strings.Replace(body, `"code"`, `"live":false,"code"`, 1))
	assert.False(t, ev.lastInput.Live)
}

func TestEvaluate_Validation(t *testing.T) {
	srv := newTestServer(&fakeEvaluator{})

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing code", `{"history":[{"date":"2024-06-03","value":1},{"date":"2024-06-04","value":1}]}`, "ERR_REQUIRED"},
		{"short code", `{"code":"123","history":[{"date":"2024-06-03","value":1},{"date":"2024-06-04","value":1}]}`, "ERR_LEN"},
		{"short history", `{"code":"000001","history":[{"date":"2024-06-03","value":1}]}`, "ERR_MIN"},
		{"bad date", `{"code":"000001","history":[{"date":"06/03","value":1},{"date":"2024-06-04","value":1}]}`, "ERR_DATETIME"},
		{"negative nav", `{"code":"000001","dwjz":-1,"history":[{"date":"2024-06-03","value":1},{"date":"2024-06-04","value":1}]}`, "ERR_GT"},
		{"bad commitment", `{"code":"000001","manager_commitment":"x","history":[{"date":"2024-06-03","value":1},{"date":"2024-06-04","value":1}]}`, "ERR_ONEOF"},
		{"malformed", `{"code":`, "ERR_UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, srv, http.MethodPost, "/api/v1/evaluate", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, string(env.Data), tt.code)
		})
	}
}

func TestNotFoundUsesEnvelope(t *testing.T) {
	rec, env := do(t, newTestServer(&fakeEvaluator{}), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 404, env.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg).RecordEvaluation("ok")
	srv := NewServer(NewHandler(&fakeEvaluator{}, nil), WithGatherer(reg))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fundsentinel_evaluations_total{outcome="ok"} 1`)
}
