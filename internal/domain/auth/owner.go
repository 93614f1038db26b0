// Package auth verifies the shop owner's credentials.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned for unknown ids and wrong keys alike.
var ErrUnauthorized = errors.New("unauthorized")

// Owner holds the configured owner identity. KeyHash is the hex
// HMAC-SHA256 of the owner key under the pepper.
type Owner struct {
	ID      string
	KeyHash string
}

// Verifier checks owner credentials.
type Verifier struct {
	owner  Owner
	hash   []byte
	pepper []byte
}

// NewVerifier returns a Verifier for owner. An empty owner disables owner
// access entirely.
func NewVerifier(owner Owner, pepper []byte) (*Verifier, error) {
	v := &Verifier{owner: owner, pepper: pepper}
	if owner.ID == "" && owner.KeyHash == "" {
		return v, nil
	}
	hash, err := hex.DecodeString(owner.KeyHash)
	if err != nil {
		return nil, errors.Wrap(err, "decode owner key hash")
	}
	if len(hash) != sha256.Size {
		return nil, errors.Errorf("owner key hash must be %d bytes, got %d", sha256.Size, len(hash))
	}
	v.hash = hash
	return v, nil
}

// Enabled reports whether an owner is configured.
func (v *Verifier) Enabled() bool {
	return v.hash != nil
}

// Verify checks id and key in constant time with respect to the key.
func (v *Verifier) Verify(id, key string) error {
	if !v.Enabled() {
		return ErrUnauthorized
	}
	sum := hashKey(v.pepper, key)
	idOK := subtle.ConstantTimeCompare([]byte(id), []byte(v.owner.ID))
	keyOK := subtle.ConstantTimeCompare(sum, v.hash)
	if idOK&keyOK != 1 {
		return ErrUnauthorized
	}
	return nil
}

// HashKey returns the hex hash to configure for key.
func HashKey(pepper []byte, key string) string {
	return hex.EncodeToString(hashKey(pepper, key))
}

func hashKey(pepper []byte, key string) []byte {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return mac.Sum(nil)
}

type ownerKey struct{}

// WithOwner marks ctx as carrying an authenticated owner.
func WithOwner(ctx context.Context) context.Context {
	return context.WithValue(ctx, ownerKey{}, true)
}

// IsOwner reports whether ctx was marked by WithOwner.
func IsOwner(ctx context.Context) bool {
	v, _ := ctx.Value(ownerKey{}).(bool)
	return v
}
