package inbound

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

type Verifier interface {
	Verify(r *http.Request) error
}

// BearerVerifier accepts requests carrying "Authorization: Bearer <token>".
// An empty token disables the check.
type BearerVerifier struct {
	Token string
}

func NewBearerVerifier(token string) BearerVerifier {
	return BearerVerifier{Token: strings.TrimSpace(token)}
}

func (v BearerVerifier) Enabled() bool {
	return strings.TrimSpace(v.Token) != ""
}

func (v BearerVerifier) Verify(r *http.Request) error {
	if !v.Enabled() {
		return nil
	}
	if r == nil {
		return inboundUnauthorized("inbound: unauthorized")
	}
	expected := "Bearer " + strings.TrimSpace(v.Token)
	got := r.Header.Get("Authorization")
	if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
		return inboundUnauthorized("inbound: unauthorized")
	}
	return nil
}

type allowAll struct{}

func (allowAll) Verify(*http.Request) error { return nil }
