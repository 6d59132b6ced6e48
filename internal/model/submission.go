package model

import (
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// SubmissionRecord is one waitlist entry on its way to a transport. It is
// built per submit attempt and dropped once the transport call returns.
type SubmissionRecord struct {
	ID     string
	FormID string
	Email  string
	// Identity is the wallet public key read at submit time. Empty means
	// no wallet was connected.
	Identity    string
	SubmittedAt time.Time
	TraceID     string
}

func (r SubmissionRecord) HasIdentity() bool {
	return r.Identity != ""
}

// Fingerprint is a stable, non-reversible key for the email address, used as
// an idempotency key by the remote transports.
func (r SubmissionRecord) Fingerprint() string {
	return Fingerprint(r.Email)
}

func Fingerprint(email string) string {
	sum := blake2b.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// Payload is the wire form shared by every transport.
type Payload struct {
	ID          string    `json:"id"`
	FormID      string    `json:"form_id,omitempty"`
	Email       string    `json:"email"`
	Wallet      string    `json:"wallet,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	TraceID     string    `json:"trace_id,omitempty"`
}

func (r SubmissionRecord) Payload() Payload {
	return Payload{
		ID:          r.ID,
		FormID:      r.FormID,
		Email:       r.Email,
		Wallet:      r.Identity,
		SubmittedAt: r.SubmittedAt.UTC(),
		TraceID:     r.TraceID,
	}
}

// Values encodes the payload as query parameters. wallet is omitted when no
// identity is present.
func (p Payload) Values() url.Values {
	v := url.Values{}
	v.Set("id", p.ID)
	v.Set("email", p.Email)
	v.Set("submitted_at", p.SubmittedAt.Format(time.RFC3339Nano))
	if p.FormID != "" {
		v.Set("form_id", p.FormID)
	}
	if p.Wallet != "" {
		v.Set("wallet", p.Wallet)
	}
	return v
}

// Record converts a received payload back into a record.
func (p Payload) Record() SubmissionRecord {
	return SubmissionRecord{
		ID:          p.ID,
		FormID:      p.FormID,
		Email:       p.Email,
		Identity:    p.Wallet,
		SubmittedAt: p.SubmittedAt,
		TraceID:     p.TraceID,
	}
}

// PayloadFromValues is the inverse of Payload.Values.
func PayloadFromValues(v url.Values) (Payload, error) {
	p := Payload{
		ID:     v.Get("id"),
		FormID: v.Get("form_id"),
		Email:  v.Get("email"),
		Wallet: v.Get("wallet"),
	}
	if ts := v.Get("submitted_at"); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Payload{}, err
		}
		p.SubmittedAt = t
	}
	return p, nil
}
