package shared

import (
	"golang.org/x/crypto/bcrypt"
)

// TokenVerifier checks hook bearer tokens against a bcrypt hash.
type TokenVerifier struct {
	hash []byte
}

// NewTokenVerifier builds a verifier. An empty hash rejects every token.
func NewTokenVerifier(hash string) *TokenVerifier {
	return &TokenVerifier{hash: []byte(hash)}
}

// Verify returns ErrInvalidToken when token does not match.
func (v *TokenVerifier) Verify(token string) error {
	if v == nil || len(v.hash) == 0 || token == "" {
		return ErrInvalidToken
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(token)); err != nil {
		return ErrInvalidToken
	}
	return nil
}

// HashToken produces the value stored in HOOK_TOKEN_HASH.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
