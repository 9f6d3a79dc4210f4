// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/symptomatch/internal/container"
	"github.com/pdiddy/symptomatch/internal/httputil"
	"github.com/pdiddy/symptomatch/internal/secrets"
	"github.com/pdiddy/symptomatch/pkg/types"
)

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	httputil.RetryBaseDelay = time.Millisecond
	os.Exit(m.Run())
}

// --- label encoder ---

func TestLabelEncoder(t *testing.T) {
	enc := NewLabelEncoder([]string{"Measles", "Acne", "Flu", "Acne"})
	assert.Equal(t, 3, enc.Len())

	for i, want := range []string{"Acne", "Flu", "Measles"} {
		got, err := enc.Decode(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		idx, ok := enc.Encode(want)
		require.True(t, ok)
		assert.Equal(t, i, idx)
	}

	_, err := enc.Decode(3)
	assert.ErrorIs(t, err, ErrUnknownLabel)
	_, err = enc.Decode(-1)
	assert.ErrorIs(t, err, ErrUnknownLabel)
	_, ok := enc.Encode("Zika")
	assert.False(t, ok)
}

// --- http backend ---

func modelServer(t *testing.T, handler func(req classifyRequest, r *http.Request) (int, string)) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		status, body := handler(req, r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTPBackend(t *testing.T) {
	labels := NewLabelEncoder([]string{"Acne", "Flu", "Gastroenteritis"})

	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
		errText string
	}{
		{name: "label response", status: 200, body: `{"label": " Flu "}`, want: "Flu"},
		{name: "class index response", status: 200, body: `{"class_index": 2, "confidence": 0.91}`, want: "Gastroenteritis"},
		{name: "label wins over index", status: 200, body: `{"label": "Acne", "class_index": 1}`, want: "Acne"},
		{name: "out of range index", status: 200, body: `{"class_index": 7}`, wantErr: ErrUnknownLabel},
		{name: "empty response", status: 200, body: `{}`, wantErr: ErrEmptyLabel},
		{name: "server error", status: 500, body: `model crashed`, errText: "HTTP 500: model crashed"},
		{name: "malformed json", status: 200, body: `{"label":`, errText: "decoding model server response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := modelServer(t, func(classifyRequest, *http.Request) (int, string) {
				return tt.status, tt.body
			})
			b := &HTTPBackend{URL: ts.URL, Labels: labels, Client: ts.Client()}

			got, err := b.Classify(context.Background(), "fever, cough")
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestHTTPBackendSendsTextAndHeaders(t *testing.T) {
	var gotText, gotAuth, gotUA string
	ts := modelServer(t, func(req classifyRequest, r *http.Request) (int, string) {
		gotText = req.Text
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		return 200, `{"label":"Flu"}`
	})

	b := &HTTPBackend{URL: ts.URL, APIKey: "tok", UserAgent: "symptomatch/test", Client: ts.Client()}
	_, err := b.Classify(context.Background(), "fever, chills")
	require.NoError(t, err)

	assert.Equal(t, "fever, chills", gotText)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "symptomatch/test", gotUA)
}

func TestHTTPBackendIndexWithoutEncoder(t *testing.T) {
	ts := modelServer(t, func(classifyRequest, *http.Request) (int, string) {
		return 200, `{"class_index": 0}`
	})
	b := &HTTPBackend{URL: ts.URL, Client: ts.Client()}
	_, err := b.Classify(context.Background(), "fever")
	assert.ErrorIs(t, err, ErrUnknownLabel)
}

func TestHTTPBackendTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	b := &HTTPBackend{URL: ts.URL, Client: ts.Client(), Timeout: 20 * time.Millisecond}
	_, err := b.Classify(context.Background(), "fever")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// --- container backend ---

type fakeRuntime struct {
	output string
	err    error
	stdin  string
}

func (f *fakeRuntime) Name() string { return "fake" }
func (f *fakeRuntime) Available(context.Context) bool { return true }
func (f *fakeRuntime) ImageExists(context.Context, string) error { return nil }
func (f *fakeRuntime) Run(_ context.Context, _ string, _ container.RunOptions, stdin io.Reader, stdout io.Writer) error {
	data, _ := io.ReadAll(stdin)
	f.stdin = string(data)
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(stdout, f.output)
	return err
}

func TestContainerBackend(t *testing.T) {
	rt := &fakeRuntime{output: "\n  Common Cold \nextra line\n"}
	b := &ContainerBackend{Runtime: rt, Image: "disease-model:latest"}

	got, err := b.Classify(context.Background(), "sneezing, cough")
	require.NoError(t, err)
	assert.Equal(t, "Common Cold", got)
	assert.Equal(t, "sneezing, cough\n", rt.stdin)
}

func TestContainerBackendErrors(t *testing.T) {
	b := &ContainerBackend{Runtime: &fakeRuntime{output: "  \n"}, Image: "m"}
	_, err := b.Classify(context.Background(), "fever")
	assert.ErrorIs(t, err, ErrEmptyLabel)

	b = &ContainerBackend{Runtime: &fakeRuntime{err: errors.New("exit status 137")}, Image: "m"}
	_, err = b.Classify(context.Background(), "fever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 137")
}

// --- retry ---

// failNTimes fails the first N calls, then succeeds.
type failNTimes struct {
	failures int
	calls    int
	err      error
}

func (f *failNTimes) Classify(context.Context, string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		if f.err != nil {
			return "", f.err
		}
		return "", errors.New("transient error")
	}
	return "Flu", nil
}

func TestWithRetry(t *testing.T) {
	inner := &failNTimes{failures: 2}
	got, err := WithRetry(inner, 3).Classify(context.Background(), "fever")
	require.NoError(t, err)
	assert.Equal(t, "Flu", got)
	assert.Equal(t, 3, inner.calls)
}

func TestWithRetryExhausted(t *testing.T) {
	inner := &failNTimes{failures: 10}
	_, err := WithRetry(inner, 2).Classify(context.Background(), "fever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, 3, inner.calls)
}

func TestWithRetrySkipsPermanentErrors(t *testing.T) {
	inner := &failNTimes{failures: 10, err: ErrEmptyLabel}
	_, err := WithRetry(inner, 5).Classify(context.Background(), "fever")
	assert.ErrorIs(t, err, ErrEmptyLabel)
	assert.Equal(t, 1, inner.calls)
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	c := Func(func(context.Context, string) (string, error) {
		calls++
		cancel()
		return "", errors.New("boom")
	})
	_, err := WithRetry(c, 5).Classify(ctx, "fever")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

// --- config ---

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	c, err := NewFromConfig(ctx, types.ClassifierConfig{Backend: types.ClassifierNone}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = NewFromConfig(ctx, types.ClassifierConfig{}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = NewFromConfig(ctx, types.ClassifierConfig{Backend: types.ClassifierHTTP}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a url")

	_, err = NewFromConfig(ctx, types.ClassifierConfig{Backend: types.ClassifierContainer}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires an image")

	_, err = NewFromConfig(ctx, types.ClassifierConfig{Backend: "grpc"}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported classifier backend")
}

func TestNewFromConfigHTTPUsesSecret(t *testing.T) {
	var gotAuth string
	ts := modelServer(t, func(_ classifyRequest, r *http.Request) (int, string) {
		gotAuth = r.Header.Get("Authorization")
		return 200, `{"label":"Flu"}`
	})

	cfg := types.ClassifierConfig{Backend: types.ClassifierHTTP, URL: ts.URL, MaxRetries: 1}
	c, err := NewFromConfig(context.Background(), cfg, nil, secrets.Set{secrets.ClassifierAPIKey: "from-secrets"})
	require.NoError(t, err)

	got, err := c.Classify(context.Background(), "fever")
	require.NoError(t, err)
	assert.Equal(t, "Flu", got)
	assert.True(t, strings.HasSuffix(gotAuth, "from-secrets"))
}
