package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signetpay/payment-ledger-service/internal/models"
)

const testSecret = "s3cret"

func inbound(t *testing.T, amount string) models.InboundTransaction {
	t.Helper()

	amt, err := decimal.NewFromString(amount)
	require.NoError(t, err)

	return models.InboundTransaction{
		TransactionID: uuid.MustParse("7f9c24e5-2b4a-4f10-9f6e-01a2b3c4d5e6"),
		UserID:        7,
		AccountID:     3,
		Amount:        amt,
	}
}

func TestDigestMatchesSpecifiedConcatenation(t *testing.T) {
	v := NewVerifier(testSecret)
	in := inbound(t, "100.00")

	// account_id + amount + transaction_id + user_id + secret, no
	// delimiters, hex SHA-256.
	payload := "3" + "100.00" + "7f9c24e5-2b4a-4f10-9f6e-01a2b3c4d5e6" + "7" + testSecret
	sum := sha256.Sum256([]byte(payload))
	want := hex.EncodeToString(sum[:])

	assert.Equal(t, want, v.Digest(in))
}

func TestVerifyAcceptsCorrectSignature(t *testing.T) {
	v := NewVerifier(testSecret)

	in := inbound(t, "100.00")
	in.Signature = v.Digest(in)

	assert.True(t, v.Verify(in))
}

func TestVerifyRejectsAnyOtherString(t *testing.T) {
	v := NewVerifier(testSecret)
	in := inbound(t, "100.00")

	for _, sig := range []string{
		"",
		"deadbeef",
		NewVerifier("other-secret").Digest(in),
	} {
		in.Signature = sig
		assert.False(t, v.Verify(in), "signature %q must not verify", sig)
	}
}

func TestVerifyRejectsTamperedFields(t *testing.T) {
	v := NewVerifier(testSecret)

	in := inbound(t, "100.00")
	in.Signature = v.Digest(in)

	tampered := in
	tampered.Amount = decimal.RequireFromString("100.01")
	assert.False(t, v.Verify(tampered))

	tampered = in
	tampered.UserID = 8
	assert.False(t, v.Verify(tampered))

	tampered = in
	tampered.AccountID = 4
	assert.False(t, v.Verify(tampered))
}

func TestDigestCanonicalizesAmountScale(t *testing.T) {
	v := NewVerifier(testSecret)

	// "100" and "100.00" are the same amount; both sides must hash the
	// same two-digit rendering.
	assert.Equal(t, v.Digest(inbound(t, "100")), v.Digest(inbound(t, "100.00")))
}

func TestVerifyIsDeterministic(t *testing.T) {
	v := NewVerifier(testSecret)

	in := inbound(t, "42.50")
	in.Signature = v.Digest(in)

	for i := 0; i < 10; i++ {
		assert.True(t, v.Verify(in))
	}
}
