package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mirrorsync/internal/model"
	"mirrorsync/pkg/trace"
)

// AckMode decides what counts as success for a remote endpoint.
type AckMode string

const (
	// AckStatus requires a 2xx response.
	AckStatus AckMode = "status"
	// AckDispatch succeeds once the round trip completes without a
	// transport-level error; the response status is ignored.
	AckDispatch AckMode = "dispatch"
)

func ParseAckMode(s string) (AckMode, error) {
	switch m := AckMode(strings.ToLower(strings.TrimSpace(s))); m {
	case AckStatus, AckDispatch:
		return m, nil
	case "":
		return AckStatus, nil
	default:
		return "", fmt.Errorf("unknown ack mode %q", s)
	}
}

type HTTPOptions struct {
	URL string
	// Method is POST (JSON body) or GET (query parameters).
	Method        string
	Ack           AckMode
	Timeout       time.Duration
	SigningSecret string
	// Client overrides the default client; Timeout is ignored when set.
	Client *http.Client
}

// HTTP sends records to a remote endpoint such as a spreadsheet macro or a
// hosted forms service.
type HTTP struct {
	endpoint      *url.URL
	method        string
	ack           AckMode
	signingSecret string
	httpClient    *http.Client
}

func NewHTTP(opts HTTPOptions) (*HTTP, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("http transport: url is required")
	}
	endpoint, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("http transport: invalid url: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("http transport: unsupported scheme %q", endpoint.Scheme)
	}

	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodPost
	}
	if method != http.MethodPost && method != http.MethodGet {
		return nil, fmt.Errorf("http transport: unsupported method %q", opts.Method)
	}

	ack := opts.Ack
	if ack == "" {
		ack = AckStatus
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTP{
		endpoint:      endpoint,
		method:        method,
		ack:           ack,
		signingSecret: opts.SigningSecret,
		httpClient:    client,
	}, nil
}

func (h *HTTP) Name() string {
	return "http_" + strings.ToLower(h.method) + "_" + string(h.ack)
}

func (h *HTTP) Send(ctx context.Context, rec model.SubmissionRecord) error {
	req, err := h.newRequest(ctx, rec)
	if err != nil {
		return err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send waitlist record: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if h.ack == AckDispatch {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

func (h *HTTP) newRequest(ctx context.Context, rec model.SubmissionRecord) (*http.Request, error) {
	payload := rec.Payload()

	var (
		req *http.Request
		err error
	)
	switch h.method {
	case http.MethodGet:
		u := *h.endpoint
		q := u.Query()
		for k, vs := range payload.Values() {
			q[k] = vs
		}
		u.RawQuery = q.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	default:
		body, mErr := json.Marshal(payload)
		if mErr != nil {
			return nil, mErr
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint.String(), bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return nil, err
	}

	req.Header.Set("Idempotency-Key", rec.Fingerprint())
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName, traceID)
	}
	if h.signingSecret != "" {
		token, err := SignRecord(h.signingSecret, rec)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}
