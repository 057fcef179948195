package domain

import "time"

// Visitor is the long-lived profile built from completed identity
// verifications, keyed by email. It is the durable side-effect of the
// otherwise ephemeral registration protocol: the cache entries that feed it
// all expire, the profile does not.
type Visitor struct {
	Email        string `json:"email" dynamodbav:"email"`
	Name         string `json:"name" dynamodbav:"name"`
	Company      string `json:"company" dynamodbav:"company"`
	Phone        string `json:"phone" dynamodbav:"phone"`
	CredentialID string `json:"credential_id,omitempty" dynamodbav:"credential_id,omitempty"`
	// CredentialExpiresAt is a Unix timestamp; zero when no credential has
	// been issued yet.
	CredentialExpiresAt int64     `json:"credential_expires_at,omitempty" dynamodbav:"credential_expires_at,omitempty"`
	CreatedAt           time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" dynamodbav:"updated_at"`
}
