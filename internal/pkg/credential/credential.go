// Package credential extracts the wallet credential reference from the
// identity token the verifier returns on transaction completion.
//
// The token's signature is NOT verified here: the verifier connection is
// authenticated at the transport level and the token is only mined for the
// credential id and expiry, never used to grant access. If that trust
// boundary ever moves, signature and issuer checks belong here.
package credential

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// credentialPathMarker is the fixed path segment preceding the credential id
// in the jti claim, e.g. "https://wallet.example.com/credentials/abc123".
const credentialPathMarker = "/credentials/"

// Extract pulls the credential id (from the jti URL claim) and the
// credential expiry (from the exp claim) out of an identity token. A token
// whose jti does not carry the expected URL shape yields an empty id, not
// an error; only an unparseable token errors.
func Extract(identityToken string) (string, time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(identityToken, claims); err != nil {
		return "", time.Time{}, fmt.Errorf("parse identity token: %w", err)
	}

	var id string
	if jti, _ := claims["jti"].(string); jti != "" {
		if i := strings.LastIndex(jti, credentialPathMarker); i >= 0 {
			id = jti[i+len(credentialPathMarker):]
		}
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return id, expiresAt, nil
}
