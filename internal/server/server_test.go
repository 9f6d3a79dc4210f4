// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/symptomatch/internal/classifier"
	"github.com/pdiddy/symptomatch/internal/diagnose"
	"github.com/pdiddy/symptomatch/internal/knowledge"
	"github.com/pdiddy/symptomatch/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeHistory is an in-memory HistoryStore.
type fakeHistory struct {
	records []types.DiagnosisRecord
	err     error
}

func (f *fakeHistory) RecordDiagnosis(_ context.Context, input string, result types.DiagnosisResult) (types.DiagnosisRecord, error) {
	if f.err != nil {
		return types.DiagnosisRecord{}, f.err
	}
	rec := types.DiagnosisRecord{
		ID:        "01J0000000000000000000000" + string(rune('A'+len(f.records))),
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Input:     input,
		Result:    result,
	}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeHistory) History(_ context.Context, limit int) ([]types.DiagnosisRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]types.DiagnosisRecord, 0, len(f.records))
	for i := len(f.records) - 1; i >= 0; i-- {
		out = append(out, f.records[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func testServer(t *testing.T, cfg types.ServerConfig, c classifier.Classifier, opts ...Option) *gin.Engine {
	t.Helper()
	kb, err := knowledge.Build([]types.DatasetRecord{
		{Disease: "A", Symptoms: "fever, cough"},
		{Disease: "B", Symptoms: "fever, rash, nausea"},
	})
	require.NoError(t, err)
	return New(cfg, kb, diagnose.New(kb, c), opts...).Router()
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	router := testServer(t, types.ServerConfig{}, nil)
	w := do(router, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReadyz(t *testing.T) {
	router := testServer(t, types.ServerConfig{}, nil, WithClassifierName("http"))
	w := do(router, "GET", "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","diseases":2,"symptoms":4,"classifier":"http"}`, w.Body.String())
}

func TestReadyzWithoutKnowledgeBase(t *testing.T) {
	router := New(types.ServerConfig{}, nil, diagnose.New(nil, nil)).Router()
	w := do(router, "GET", "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestDiagnose(t *testing.T) {
	c := classifier.Func(func(_ context.Context, text string) (string, error) {
		return "Influenza", nil
	})
	router := testServer(t, types.ServerConfig{}, c)

	w := do(router, "POST", "/api/diagnose", `{"text":"I have a fever"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got diagnoseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Empty(t, got.ID)
	assert.Equal(t, "Influenza", got.ClassifiedDisease)
	assert.Equal(t, "A", got.BestMatchDisease)
	assert.InDelta(t, 50.0, got.BestMatchPercentage, 1e-9)
	assert.Equal(t, []string{"fever"}, got.Extracted)
	require.Len(t, got.Ranking, 2)
	assert.Equal(t, "B", got.Ranking[1].Disease)
}

func TestDiagnoseNoMatch(t *testing.T) {
	router := testServer(t, types.ServerConfig{}, nil)
	w := do(router, "POST", "/api/diagnose", `{"text":"my elbow is sore"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"best_match_percentage":0}`, w.Body.String())
}

func TestDiagnoseValidation(t *testing.T) {
	router := testServer(t, types.ServerConfig{MaxBodyBytes: 64}, nil)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"empty text", `{"text":"   "}`, http.StatusBadRequest},
		{"missing text", `{}`, http.StatusBadRequest},
		{"malformed json", `{"text":`, http.StatusBadRequest},
		{"too large", `{"text":"` + strings.Repeat("fever ", 20) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, "POST", "/api/diagnose", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestDiagnoseRecordsHistory(t *testing.T) {
	h := &fakeHistory{}
	router := testServer(t, types.ServerConfig{RecordHistory: true}, nil, WithHistory(h))

	w := do(router, "POST", "/api/diagnose", `{"text":"rash"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got diagnoseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, h.records, 1)
	assert.Equal(t, h.records[0].ID, got.ID)
	assert.Equal(t, "rash", h.records[0].Input)
	assert.Equal(t, "B", h.records[0].Result.BestMatchDisease)
}

func TestDiagnoseHistoryFailureStillAnswers(t *testing.T) {
	h := &fakeHistory{err: errors.New("disk full")}
	router := testServer(t, types.ServerConfig{RecordHistory: true}, nil, WithHistory(h))

	w := do(router, "POST", "/api/diagnose", `{"text":"rash"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"id"`)
}

func TestDiseases(t *testing.T) {
	router := testServer(t, types.ServerConfig{}, nil)

	w := do(router, "GET", "/api/diseases", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[
		{"disease":"A","symptoms":["cough","fever"]},
		{"disease":"B","symptoms":["fever","nausea","rash"]}
	]`, w.Body.String())

	w = do(router, "GET", "/api/diseases/B", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"disease":"B","symptoms":["fever","nausea","rash"]}`, w.Body.String())

	w = do(router, "GET", "/api/diseases/Zika", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistory(t *testing.T) {
	h := &fakeHistory{}
	router := testServer(t, types.ServerConfig{RecordHistory: true}, nil, WithHistory(h))
	do(router, "POST", "/api/diagnose", `{"text":"rash"}`)
	do(router, "POST", "/api/diagnose", `{"text":"cough"}`)

	w := do(router, "GET", "/api/history?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got []types.DiagnosisRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "cough", got[0].Input)

	w = do(router, "GET", "/api/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	h.err = errors.New("locked")
	w = do(router, "GET", "/api/history", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHistoryNotRegisteredWithoutStore(t *testing.T) {
	router := testServer(t, types.ServerConfig{}, nil)
	w := do(router, "GET", "/api/history", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	router := testServer(t, types.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

// Ensure limitBodySize middleware allows small payloads and blocks large ones.
func TestLimitBodySize(t *testing.T) {
	router := gin.New()
	router.Use(limitBodySize(10))
	router.POST("/echo", func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too large"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := do(router, "POST", "/echo", "12345")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, "POST", "/echo", "01234567890")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestListenAndServeShutsDown(t *testing.T) {
	kb, err := knowledge.Build([]types.DatasetRecord{{Disease: "A", Symptoms: "fever"}})
	require.NoError(t, err)
	s := New(types.ServerConfig{Addr: "127.0.0.1:0"}, kb, diagnose.New(kb, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}
