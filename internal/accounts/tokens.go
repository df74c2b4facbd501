package accounts

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	tokenTypeReset   = "reset"
)

// Claims is the payload of every token the storefront signs. Type keeps an
// access token from being accepted where a refresh or reset token is expected.
type Claims struct {
	jwt.RegisteredClaims
	Staff       bool   `json:"staff,omitempty"`
	Type        string `json:"typ"`
	Fingerprint string `json:"fp,omitempty"`
}

func (c *Claims) customerID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
}

// Tokens signs and verifies HS256 tokens.
type Tokens struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewTokens(cfg TokenConfig) *Tokens {
	return &Tokens{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		resetTTL:   cfg.ResetTTL,
		now:        time.Now,
	}
}

func (t *Tokens) sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) claims(c domain.Customer, typ string, ttl time.Duration) *Claims {
	now := t.now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(c.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Staff: c.IsStaff,
		Type:  typ,
	}
}

// IssuePair returns a fresh access/refresh pair. The refresh token carries a
// unique jti so logout can revoke it.
func (t *Tokens) IssuePair(c domain.Customer) (domain.TokenPair, error) {
	access, err := t.IssueAccess(c)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refreshClaims := t.claims(c, tokenTypeRefresh, t.refreshTTL)
	refreshClaims.ID = uuid.NewString()
	refresh, err := t.sign(refreshClaims)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{Refresh: refresh, Access: access}, nil
}

// IssueAccess mints a new access token for c.
func (t *Tokens) IssueAccess(c domain.Customer) (string, error) {
	return t.sign(t.claims(c, tokenTypeAccess, t.accessTTL))
}

func (t *Tokens) parse(raw, typ string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, errors.New("unexpected token type " + claims.Type)
	}
	if _, err := claims.customerID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// Authenticate verifies a bearer access token and returns the identity it was
// issued for. Callers that need current account state re-read the customer.
func (t *Tokens) Authenticate(raw string) (domain.Identity, error) {
	claims, err := t.parse(raw, tokenTypeAccess)
	if err != nil {
		return domain.Identity{}, domain.ErrInvalidToken
	}
	id, _ := claims.customerID()
	return domain.Identity{UserID: id, Staff: claims.Staff}, nil
}

func (t *Tokens) ParseRefresh(raw string) (*Claims, error) {
	claims, err := t.parse(raw, tokenTypeRefresh)
	if err != nil || claims.ID == "" {
		return nil, domain.ErrInvalidRefreshToken
	}
	return claims, nil
}

// IssueReset signs a password reset token bound to the customer's current
// password hash. Changing the password invalidates every outstanding token.
func (t *Tokens) IssueReset(c domain.Customer) (string, error) {
	claims := t.claims(c, tokenTypeReset, t.resetTTL)
	claims.Staff = false
	claims.Fingerprint = fingerprint(c.PasswordHash)
	return t.sign(claims)
}

// VerifyReset checks that raw was issued for c and that c's password has not
// changed since.
func (t *Tokens) VerifyReset(raw string, c domain.Customer) error {
	claims, err := t.parse(raw, tokenTypeReset)
	if err != nil {
		return domain.ErrInvalidResetToken
	}
	id, _ := claims.customerID()
	if id != c.ID || claims.Fingerprint != fingerprint(c.PasswordHash) {
		return domain.ErrInvalidResetToken
	}
	return nil
}

func fingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
