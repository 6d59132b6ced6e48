package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirrorsync/internal/model"
	"mirrorsync/pkg/trace"
)

func testRecord() model.SubmissionRecord {
	return model.SubmissionRecord{
		ID:          "3f1c9a52-5d0b-4a8e-9d55-5d8f2f7b8e11",
		FormID:      "hero",
		Email:       "a@b.com",
		Identity:    "ABC123",
		SubmittedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHTTP_PostJSON(t *testing.T) {
	var got model.Payload
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		headers = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	h, err := NewHTTP(HTTPOptions{URL: srv.URL, Method: "post"})
	require.NoError(t, err)

	ctx := trace.WithContext(context.Background(), "trace-1")
	require.NoError(t, h.Send(ctx, testRecord()))

	assert.Equal(t, "a@b.com", got.Email)
	assert.Equal(t, "ABC123", got.Wallet)
	assert.Equal(t, "hero", got.FormID)
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, testRecord().Fingerprint(), headers.Get("Idempotency-Key"))
	assert.Equal(t, "trace-1", headers.Get(trace.HeaderName))
	assert.Empty(t, headers.Get("Authorization"))
}

func TestHTTP_GetQuery(t *testing.T) {
	var query map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		query = r.URL.Query()
	}))
	defer srv.Close()

	h, err := NewHTTP(HTTPOptions{URL: srv.URL + "/exec?sheet=waitlist", Method: http.MethodGet})
	require.NoError(t, err)
	require.NoError(t, h.Send(context.Background(), testRecord()))

	assert.Equal(t, []string{"waitlist"}, query["sheet"], "existing query params are kept")
	assert.Equal(t, []string{"a@b.com"}, query["email"])
	assert.Equal(t, []string{"ABC123"}, query["wallet"])
}

func TestHTTP_AckModes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	t.Run("status requires 2xx", func(t *testing.T) {
		h, err := NewHTTP(HTTPOptions{URL: srv.URL, Ack: AckStatus})
		require.NoError(t, err)

		err = h.Send(context.Background(), testRecord())
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	})

	t.Run("dispatch ignores status", func(t *testing.T) {
		h, err := NewHTTP(HTTPOptions{URL: srv.URL, Ack: AckDispatch})
		require.NoError(t, err)
		assert.NoError(t, h.Send(context.Background(), testRecord()))
	})
}

func TestHTTP_DispatchStillFailsOnNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	h, err := NewHTTP(HTTPOptions{URL: url, Ack: AckDispatch, Timeout: time.Second})
	require.NoError(t, err)

	err = h.Send(context.Background(), testRecord())
	require.Error(t, err)
	cause, retryable := Classify(err)
	assert.Equal(t, CauseNetwork, cause)
	assert.True(t, retryable)
}

func TestHTTP_Timeout(t *testing.T) {
	var release = make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	h, err := NewHTTP(HTTPOptions{URL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	err = h.Send(context.Background(), testRecord())
	require.Error(t, err)
	cause, _ := Classify(err)
	assert.Equal(t, CauseTimeout, cause)
}

func TestHTTP_SignsWhenSecretSet(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	h, err := NewHTTP(HTTPOptions{URL: srv.URL, SigningSecret: "shh"})
	require.NoError(t, err)
	require.NoError(t, h.Send(context.Background(), freshRecord()))

	header, _ := auth.Load().(string)
	require.True(t, strings.HasPrefix(header, "Bearer "))
	claims, err := VerifyToken("shh", strings.TrimPrefix(header, "Bearer "))
	require.NoError(t, err)
	assert.Equal(t, testRecord().Fingerprint(), claims.Subject)
	assert.Equal(t, testRecord().ID, claims.ID)
}

func TestNewHTTP_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts HTTPOptions
	}{
		{"missing url", HTTPOptions{}},
		{"bad scheme", HTTPOptions{URL: "ftp://example.com"}},
		{"bad method", HTTPOptions{URL: "https://example.com", Method: "PUT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHTTP(tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestHTTP_Name(t *testing.T) {
	h, err := NewHTTP(HTTPOptions{URL: "https://example.com", Method: "GET", Ack: AckDispatch})
	require.NoError(t, err)
	assert.Equal(t, "http_get_dispatch", h.Name())
}

func TestParseAckMode(t *testing.T) {
	m, err := ParseAckMode("")
	require.NoError(t, err)
	assert.Equal(t, AckStatus, m)

	m, err = ParseAckMode("Dispatch")
	require.NoError(t, err)
	assert.Equal(t, AckDispatch, m)

	_, err = ParseAckMode("maybe")
	assert.Error(t, err)
}
