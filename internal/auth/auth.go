// Package auth guards the automation callback endpoint with the shared
// secret the relay echoes back on every delivery.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/syllabus-hq/syllabot/internal/relay"
)

var (
	ErrMissingSecret = errors.New("missing shared secret")
	ErrInvalidSecret = errors.New("invalid shared secret")
)

// SharedSecret validates the X-Syllabot-Secret header with a constant-time
// comparison. An empty configured secret disables the check so local
// development works without one.
type SharedSecret struct {
	Secret string
}

func (a *SharedSecret) Authenticate(r *http.Request) error {
	if a == nil || a.Secret == "" {
		return nil
	}
	got := r.Header.Get(relay.SecretHeader)
	if got == "" {
		return ErrMissingSecret
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(a.Secret)) != 1 {
		return ErrInvalidSecret
	}
	return nil
}
