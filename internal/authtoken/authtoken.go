// Package authtoken mints and verifies the opaque capability tokens peers
// present on Open/Update/Keepalive/Close. A token is three dot-separated
// base64url segments (header, claims, signature), the same outward shape as
// a JWT, but hand-rolled: HMAC-SHA256 over header+claims, verified with
// hmac.Equal. ribcore never parses these; only internal/transport (verify),
// cmd/meshrib (mint, for bootstrap peers) and internal/sink (attach) touch
// them.
package authtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMalformed        = errors.New("authtoken: malformed token")
	ErrBadSignature     = errors.New("authtoken: signature mismatch")
	ErrExpired          = errors.New("authtoken: expired")
	ErrPeerNameMismatch = errors.New("authtoken: peer name does not match claims")
)

const headerSegment = `{"alg":"HS256","typ":"MRT"}`

// Claims is the payload carried by a token, matching spec.md §6's token
// content: the peer it authorizes, the node that minted it, and validity.
type Claims struct {
	PeerName  string `json:"peerName"`
	NodeName  string `json:"nodeName"`
	IssuedAt  int64  `json:"issuedAt"`  // unix millis
	ExpiresAt int64  `json:"expiresAt"` // unix millis, 0 means never
}

// Minter mints tokens under a single secret, scoped to the minting node.
type Minter struct {
	secret   []byte
	nodeName string
}

func NewMinter(secret []byte, nodeName string) *Minter {
	return &Minter{secret: secret, nodeName: nodeName}
}

// Mint returns an opaque token authorizing peerName, valid for ttl (0 means
// no expiry).
func (m *Minter) Mint(peerName string, issuedAt time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		PeerName: peerName,
		NodeName: m.nodeName,
		IssuedAt: issuedAt.UnixMilli(),
	}
	if ttl > 0 {
		claims.ExpiresAt = issuedAt.Add(ttl).UnixMilli()
	}
	return encode(m.secret, claims)
}

func encode(secret []byte, claims Claims) (string, error) {
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("authtoken: marshal claims: %w", err)
	}
	header := base64.RawURLEncoding.EncodeToString([]byte(headerSegment))
	body := base64.RawURLEncoding.EncodeToString(claimsJSON)
	signed := header + "." + body
	sig := sign(secret, signed)
	return signed + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

func sign(secret []byte, signed string) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(signed))
	return mac.Sum(nil)
}

// Verifier checks tokens minted by any node sharing secret. A mesh-wide
// shared secret is the simplest policy satisfying spec.md §6's "some shared
// secret or trust anchor" — per-peer secrets can be layered on by keying a
// Verifier per caller if a deployment needs that.
type Verifier struct {
	secret []byte
	clock  func() time.Time
}

func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret, clock: time.Now}
}

// WithClock overrides the verifier's notion of "now", for deterministic
// expiry tests.
func (v *Verifier) WithClock(clock func() time.Time) *Verifier {
	v.clock = clock
	return v
}

// Verify checks the token's signature and expiry, and that its PeerName
// matches expectedPeer (the identity the transport believes it's talking
// to). Returns the decoded claims on success.
func (v *Verifier) Verify(token, expectedPeer string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, ErrMalformed
	}
	signed := parts[0] + "." + parts[1]
	wantSig := sign(v.secret, signed)
	gotSig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %s", ErrMalformed, err)
	}
	if !hmac.Equal(wantSig, gotSig) {
		return Claims{}, ErrBadSignature
	}
	claimsJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %s", ErrMalformed, err)
	}
	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %s", ErrMalformed, err)
	}
	if claims.ExpiresAt != 0 && v.clock().UnixMilli() > claims.ExpiresAt {
		return Claims{}, ErrExpired
	}
	if expectedPeer != "" && claims.PeerName != expectedPeer {
		return Claims{}, ErrPeerNameMismatch
	}
	return claims, nil
}
