package devbackend

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// GrantVerifier checks the key/expiry/signature triples callers attach to their
// requests. The signature is an HMAC-SHA256 over "key:expiry" with a shared
// secret, hex-encoded.
type GrantVerifier struct {
	secret []byte
}

// NewGrantVerifier returns a verifier bound to the given secret.
func NewGrantVerifier(secret string) *GrantVerifier {
	return &GrantVerifier{secret: []byte(secret)}
}

// Sign computes the signature for a key and a unix-seconds expiry.
func (v *GrantVerifier) Sign(key, expiry string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(key + ":" + expiry))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks that all grant fields are present, the expiry is still in the
// future, and the signature matches.
func (v *GrantVerifier) Verify(key, expiry, signature string) error {
	if key == "" || expiry == "" || signature == "" {
		return fmt.Errorf("incomplete grant")
	}

	exp, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed expiry: %w", err)
	}
	if time.Now().Unix() >= exp {
		return fmt.Errorf("grant expired")
	}

	want := v.Sign(key, expiry)
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return fmt.Errorf("bad signature")
	}
	return nil
}
