package signature

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"

	"github.com/signetpay/payment-ledger-service/internal/models"
)

// Verifier checks that an inbound transaction was produced by a sender
// holding the shared secret. It is pure: no I/O, no state beyond the
// secret itself.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Digest computes the expected signature for an inbound transaction:
// the hex SHA-256 of account_id + amount + transaction_id + user_id +
// secret, concatenated in that order with no delimiters. The amount is
// rendered with exactly two fractional digits ("100.00", not "100") so
// both sides hash the same string.
func (v *Verifier) Digest(in models.InboundTransaction) string {
	payload := strconv.FormatInt(in.AccountID, 10) +
		in.Amount.StringFixed(2) +
		in.TransactionID.String() +
		strconv.FormatInt(in.UserID, 10) +
		v.secret

	sum := sha256.Sum256([]byte(payload))

	return hex.EncodeToString(sum[:])
}

// Verify reports whether the supplied signature matches the recomputed
// digest. The comparison is constant-time; malformed input simply
// produces a digest that will not match.
func (v *Verifier) Verify(in models.InboundTransaction) bool {
	digest := v.Digest(in)

	return subtle.ConstantTimeCompare([]byte(digest), []byte(in.Signature)) == 1
}
