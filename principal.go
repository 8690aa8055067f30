package auth

import (
	"fmt"
	"time"
)

// Principal is the identity attached to a request after its token verified.
// It is built once from the token claims and never mutated.
type Principal struct {
	SubjectID string `json:"sub"`
	Issuer    string `json:"iss"`
	TokenID   string `json:"jti"`
	ExpiresAt int64  `json:"exp"`
}

// Subject returns the subject id
func (p *Principal) Subject() string {
	if p == nil {
		return ""
	}
	return p.SubjectID
}

// Expires returns the token expiration as a time.Time
func (p *Principal) Expires() time.Time {
	if p == nil || p.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(p.ExpiresAt, 0)
}

func (p Principal) String() string {
	return fmt.Sprintf("sub=%s iss=%s jti=%s exp=%d", p.SubjectID, p.Issuer, p.TokenID, p.ExpiresAt)
}
