package transport

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirrorsync/internal/model"
)

// freshRecord is testRecord submitted now, so its token has not expired.
func freshRecord() model.SubmissionRecord {
	rec := testRecord()
	rec.SubmittedAt = time.Now()
	return rec
}

func TestSignAndVerify(t *testing.T) {
	rec := freshRecord()
	token, err := SignRecord("secret", rec)
	require.NoError(t, err)

	claims, err := VerifyToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, rec.SubmittedAt.Add(TokenTTL), claims.ExpiresAt.Time, time.Second)

	_, err = VerifyToken("other", token)
	assert.Error(t, err)
}

func TestVerifyToken_RejectsExpired(t *testing.T) {
	rec := testRecord()
	rec.SubmittedAt = time.Now().Add(-TokenTTL - time.Minute)
	token, err := SignRecord("secret", rec)
	require.NoError(t, err)

	_, err = VerifyToken("secret", token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerifyToken_RequiresExpiry(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:   tokenIssuer,
		Subject:  testRecord().Fingerprint(),
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = VerifyToken("secret", token)
	assert.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)
}

func TestSignRecord_EmptySecret(t *testing.T) {
	_, err := SignRecord("", testRecord())
	assert.Error(t, err)
}
