// Package auth issues and verifies bearer tokens and hashes passwords.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"propledger/internal/core"
)

// ResetTTL bounds how long a password reset token stays usable.
const ResetTTL = 15 * time.Minute

const purposeReset = "password_reset"

// Claims carried by every token. Access tokens have no purpose.
type Claims struct {
	Role    string `json:"role"`
	Purpose string `json:"purpose,omitempty"`
	Binding string `json:"bnd,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   string
}

func (p Principal) IsAdmin() bool { return p.Role == core.RoleAdmin }

// Issuer signs and parses HS256 tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed access token for u.
func (i *Issuer) Issue(u core.User) (string, error) {
	return i.sign(Claims{Role: u.Role}, u.ID, i.ttl)
}

// IssueReset returns a short-lived token that can only reset u's password.
// It is bound to the current password hash, so it stops working once the
// password changes.
func (i *Issuer) IssueReset(u core.User) (string, error) {
	return i.sign(Claims{Purpose: purposeReset, Binding: ResetBinding(u.PasswordHash)}, u.ID, ResetTTL)
}

// ResetBinding fingerprints a password hash for reset tokens.
func ResetBinding(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

func (i *Issuer) sign(claims Claims, subject string, ttl time.Duration) (string, error) {
	now := i.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies an access token and returns its principal. Every failure
// wraps core.ErrUnauthorized.
func (i *Issuer) Parse(token string) (Principal, error) {
	claims, err := i.parse(token)
	if err != nil {
		return Principal{}, err
	}
	if claims.Purpose != "" {
		return Principal{}, fmt.Errorf("%w: %s token is not an access token", core.ErrUnauthorized, claims.Purpose)
	}
	return Principal{UserID: claims.Subject, Role: claims.Role}, nil
}

// ParseReset verifies a reset token and returns the user id and the
// password binding it was issued against.
func (i *Issuer) ParseReset(token string) (userID, binding string, err error) {
	claims, err := i.parse(token)
	if err != nil {
		return "", "", err
	}
	if claims.Purpose != purposeReset || claims.Binding == "" {
		return "", "", fmt.Errorf("%w: not a reset token", core.ErrUnauthorized)
	}
	return claims.Subject, claims.Binding, nil
}

func (i *Issuer) parse(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", core.ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: %v", core.ErrUnauthorized, errors.New("token has no subject"))
	}
	return claims, nil
}
