package jwtutil

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// KeySetValidator validates RS256 tokens signed by an external identity
// provider, fetching the provider's public keys from a JWKS endpoint. Keys
// are cached process-wide and refreshed on miss or TTL expiry; the refresh is
// idempotent and safe to run concurrently from multiple requests.
type KeySetValidator struct {
	jwksURL string
	issuer  string
	client  *http.Client

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
	ttl       time.Duration
}

// KeySetConfig configures a KeySetValidator.
type KeySetConfig struct {
	JWKSURL string
	// Issuer, when set, is validated against the token's iss claim.
	Issuer string
	// CacheTTL controls how long fetched keys are trusted. Default: 1 hour.
	CacheTTL time.Duration
	// HTTPClient allows injecting a client for testing. Default: http.DefaultClient.
	HTTPClient *http.Client
}

// NewKeySetValidator creates a JWKS-backed validator.
func NewKeySetValidator(cfg KeySetConfig) *KeySetValidator {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &KeySetValidator{
		jwksURL: cfg.JWKSURL,
		issuer:  cfg.Issuer,
		client:  cfg.HTTPClient,
		keys:    make(map[string]*rsa.PublicKey),
		ttl:     cfg.CacheTTL,
	}
}

// Validate parses and verifies an RS256 token against the cached key set,
// returning its subject.
func (v *KeySetValidator) Validate(ctx context.Context, tokenString string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"})}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}

			kid, ok := token.Header["kid"].(string)
			if !ok || kid == "" {
				return nil, errors.New("token missing kid header")
			}

			key, fetchErr := v.getKey(ctx, kid)
			if fetchErr != nil {
				return nil, fetchErr
			}
			return key, nil
		},
		opts...,
	)
	if err != nil {
		// A keyfunc failure caused by the provider being unreachable must
		// surface as a transient infrastructure error, not a 401.
		if errors.Is(err, ErrProviderUnavailable) {
			return "", err
		}
		return "", mapValidationError(err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}

// getKey returns the public key for kid, refreshing the key set on miss or
// TTL expiry.
func (v *KeySetValidator) getKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	if key, ok := v.keys[kid]; ok && time.Since(v.fetchedAt) < v.ttl {
		v.mu.RUnlock()
		return key, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	// Another request may have refreshed while we waited for the lock.
	if key, ok := v.keys[kid]; ok && time.Since(v.fetchedAt) < v.ttl {
		return key, nil
	}

	if err := v.fetchKeySet(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	key, ok := v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("signing key %q not found in key set", kid)
	}
	return key, nil
}

// fetchKeySet fetches the JWKS document and replaces the cached keys.
// Must be called with the write lock held.
func (v *KeySetValidator) fetchKeySet(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("creating JWKS request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading JWKS response: %w", err)
	}

	var doc jwksDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, parseErr := k.publicKey()
		if parseErr != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	v.keys = keys
	v.fetchedAt = time.Now()
	return nil
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// publicKey decodes the base64url modulus and exponent into an RSA key.
func (k jwk) publicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e == 0 {
		return nil, errors.New("zero exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
