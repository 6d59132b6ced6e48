package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mirrorsync/internal/model"
	"mirrorsync/internal/transport"
	"mirrorsync/internal/waitlist"
)

func newServer(t *testing.T, secret string, limit int) (*httptest.Server, *Handler) {
	t.Helper()
	h := NewHandler(secret, limit, zap.NewNop())
	srv := httptest.NewServer(NewRouter(h, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, h
}

func entries(t *testing.T, srv *httptest.Server) []model.Payload {
	t.Helper()
	resp, err := http.Get(srv.URL + "/waitlist/entries")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Entries []model.Payload `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Entries
}

func record(email string) model.SubmissionRecord {
	return model.SubmissionRecord{
		ID:          "c2a0d1e4-7b5f-4b7e-8a36-1f0e9d8c7b6a",
		FormID:      "hero",
		Email:       email,
		Identity:    "ABC123",
		SubmittedAt: time.Now().UTC(),
	}
}

func TestSink_ReceivesBothHTTPVariants(t *testing.T) {
	srv, _ := newServer(t, "", 0)

	for _, method := range []string{http.MethodPost, http.MethodGet} {
		tr, err := transport.NewHTTP(transport.HTTPOptions{URL: srv.URL + "/waitlist", Method: method})
		require.NoError(t, err)
		require.NoError(t, tr.Send(context.Background(), record("a@b.com")), method)
	}

	got := entries(t, srv)
	require.Len(t, got, 2)
	for _, p := range got {
		assert.Equal(t, "a@b.com", p.Email)
		assert.Equal(t, "ABC123", p.Wallet)
	}
}

func TestSink_EndToEndWithSubmitter(t *testing.T) {
	srv, _ := newServer(t, "s3cr3t", 0)

	tr, err := transport.NewHTTP(transport.HTTPOptions{URL: srv.URL + "/waitlist", SigningSecret: "s3cr3t"})
	require.NoError(t, err)
	s, err := waitlist.NewSubmitter(waitlist.Options{FormID: "hero", Transport: tr})
	require.NoError(t, err)

	out := s.Submit(context.Background(), "a@b.com")
	require.Equal(t, waitlist.Accepted, out.Kind, out.String())

	got := entries(t, srv)
	require.Len(t, got, 1)
	assert.Equal(t, "hero", got[0].FormID)
}

func TestSink_RejectsUnsigned(t *testing.T) {
	srv, _ := newServer(t, "s3cr3t", 0)

	tr, err := transport.NewHTTP(transport.HTTPOptions{URL: srv.URL + "/waitlist"})
	require.NoError(t, err)

	err = tr.Send(context.Background(), record("a@b.com"))
	var statusErr *transport.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Empty(t, entries(t, srv))
}

func TestSink_RejectsTokenForAnotherRecord(t *testing.T) {
	srv, _ := newServer(t, "s3cr3t", 0)

	token, err := transport.SignRecord("s3cr3t", record("other@b.com"))
	require.NoError(t, err)
	body, _ := json.Marshal(record("a@b.com").Payload())

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/waitlist", strings.NewReader(string(body)))
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSink_RejectsExpiredToken(t *testing.T) {
	srv, _ := newServer(t, "s3cr3t", 0)

	rec := record("a@b.com")
	rec.SubmittedAt = time.Now().Add(-transport.TokenTTL - time.Minute)
	tr, err := transport.NewHTTP(transport.HTTPOptions{URL: srv.URL + "/waitlist", SigningSecret: "s3cr3t"})
	require.NoError(t, err)

	err = tr.Send(context.Background(), rec)
	var statusErr *transport.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Empty(t, entries(t, srv))
}

func TestSink_RejectsBadInput(t *testing.T) {
	srv, _ := newServer(t, "", 0)

	resp, err := http.Post(srv.URL+"/waitlist", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/waitlist", "application/json", strings.NewReader(`{"email":"nope"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestSink_KeepsMostRecent(t *testing.T) {
	srv, _ := newServer(t, "", 2)

	for _, email := range []string{"a@b.com", "c@d.com", "e@f.com"} {
		body := `{"id":"x","email":"` + email + `"}`
		resp, err := http.Post(srv.URL+"/waitlist", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	got := entries(t, srv)
	require.Len(t, got, 2)
	assert.Equal(t, "c@d.com", got[0].Email)
	assert.Equal(t, "e@f.com", got[1].Email)
}

func TestSink_Health(t *testing.T) {
	srv, _ := newServer(t, "", 0)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
