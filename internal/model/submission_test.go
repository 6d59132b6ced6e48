package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_NormalizesCaseAndSpace(t *testing.T) {
	a := Fingerprint("Alice@Example.com")
	b := Fingerprint("  alice@example.com ")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, Fingerprint("bob@example.com"))
}

func TestPayload_OmitsWalletWhenNotConnected(t *testing.T) {
	rec := SubmissionRecord{ID: "1", Email: "a@b.com", SubmittedAt: time.Unix(0, 0)}
	v := rec.Payload().Values()

	assert.Equal(t, "a@b.com", v.Get("email"))
	_, present := v["wallet"]
	assert.False(t, present)
	assert.False(t, rec.HasIdentity())
}

func TestPayloadFromValues(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := SubmissionRecord{ID: "id-1", FormID: "hero", Email: "a@b.com", Identity: "ABC123", SubmittedAt: at}

	got, err := PayloadFromValues(rec.Payload().Values())
	require.NoError(t, err)
	assert.Equal(t, "ABC123", got.Wallet)
	assert.True(t, at.Equal(got.SubmittedAt))
	assert.Equal(t, "hero", got.Record().FormID)
}

func TestPayloadFromValues_BadTimestamp(t *testing.T) {
	_, err := PayloadFromValues(map[string][]string{"submitted_at": {"yesterday"}})
	assert.Error(t, err)
}
