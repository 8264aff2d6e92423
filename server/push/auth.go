// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package push

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	a2a "github.com/go-a2a/a2a-core"
)

// Authenticator applies endpoint authentication to a delivery request.
// body is the request payload, available for schemes that bind the
// credential to the content.
type Authenticator interface {
	Apply(req *http.Request, body []byte, info *a2a.AuthenticationInfo) error
}

// SchemeAuthenticator maps declared schemes onto standard headers. The
// credential hint from the registration is used verbatim; unknown schemes
// are rejected so misconfigurations fail loudly at delivery time.
type SchemeAuthenticator struct{}

var _ Authenticator = SchemeAuthenticator{}

// Apply implements [Authenticator].
func (SchemeAuthenticator) Apply(req *http.Request, body []byte, info *a2a.AuthenticationInfo) error {
	if info == nil {
		return nil
	}
	for _, scheme := range info.Schemes {
		switch scheme {
		case "bearer":
			if info.Credentials != "" {
				req.Header.Set("Authorization", "Bearer "+info.Credentials)
			}
		case "basic":
			if info.Credentials != "" {
				req.Header.Set("Authorization", "Basic "+info.Credentials)
			}
		case "api_key":
			if info.Credentials != "" {
				req.Header.Set("X-API-Key", info.Credentials)
			}
		default:
			return fmt.Errorf("unsupported authentication scheme: %s", scheme)
		}
	}
	return nil
}

// JWTAuthenticator signs each delivery with a short-lived JWT carrying a
// SHA-256 digest of the payload, so the endpoint can verify both the
// sender and the content. The verification key is published through
// [JWTAuthenticator.JWKS].
type JWTAuthenticator struct {
	signingKey jwk.Key
	publicKey  jwk.Key
	issuer     string
	ttl        time.Duration
}

var _ Authenticator = (*JWTAuthenticator)(nil)

// NewJWTAuthenticator creates a JWTAuthenticator from an RSA private key
// in JWK form. The key ID is assigned when the key carries none.
func NewJWTAuthenticator(signingKey jwk.Key, issuer string) (*JWTAuthenticator, error) {
	if signingKey == nil {
		return nil, fmt.Errorf("signing key cannot be nil")
	}
	if _, ok := signingKey.KeyID(); !ok {
		if err := signingKey.Set(jwk.KeyIDKey, uuid.NewString()); err != nil {
			return nil, fmt.Errorf("assign key ID: %w", err)
		}
	}
	if err := signingKey.Set(jwk.AlgorithmKey, jwa.RS256()); err != nil {
		return nil, fmt.Errorf("assign key algorithm: %w", err)
	}

	publicKey, err := signingKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	return &JWTAuthenticator{
		signingKey: signingKey,
		publicKey:  publicKey,
		issuer:     issuer,
		ttl:        5 * time.Minute,
	}, nil
}

// Apply implements [Authenticator].
func (a *JWTAuthenticator) Apply(req *http.Request, body []byte, info *a2a.AuthenticationInfo) error {
	digest := sha256.Sum256(body)

	now := time.Now()
	token, err := jwt.NewBuilder().
		Issuer(a.issuer).
		IssuedAt(now).
		Expiration(now.Add(a.ttl)).
		Claim("request_body_sha256", hex.EncodeToString(digest[:])).
		Build()
	if err != nil {
		return fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256(), a.signingKey))
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+string(signed))
	return nil
}

// JWKS returns the key set the endpoint uses to verify deliveries.
func (a *JWTAuthenticator) JWKS() (jwk.Set, error) {
	set := jwk.NewSet()
	if err := set.AddKey(a.publicKey); err != nil {
		return nil, fmt.Errorf("add public key: %w", err)
	}
	return set, nil
}
