package auth

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"
)

// MinSigningKeyLength is the shortest HMAC key accepted for HS256 (256 bits).
const MinSigningKeyLength = 32

var (
	// ErrTokenMalformed is returned when a token cannot be parsed or lacks a required claim.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenBadSignature is returned when a token's signature does not verify against the signing key.
	ErrTokenBadSignature = errors.New("token signature invalid")
	// ErrTokenExpired describes a token whose expiry has passed. Validate reports it as ErrTokenInvalid.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is the only failure Validate reports.
	ErrTokenInvalid = errors.New("token invalid")
)

// reservedClaims are owned by the codec and cannot be supplied as custom claims.
var reservedClaims = []string{"sub", "iat", "exp", "iss"}

// Payload is the decoded content of a bearer token.
type Payload struct {
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Claims holds custom claims only; registered claims are lifted into the fields above.
	Claims map[string]any
}

// DecodeClaims decodes the custom claims into target, which must be a pointer
// to a struct or map. Field names follow `json` struct tags.
func (p *Payload) DecodeClaims(target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("create claims decoder: %w", err)
	}
	if err := decoder.Decode(p.Claims); err != nil {
		return fmt.Errorf("decode claims: %w", err)
	}
	return nil
}

// TokenCodec issues and verifies HS256 bearer tokens.
//
// The signing key is injected at construction and never changes, so a single
// codec is safe for concurrent use by every request.
type TokenCodec struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// TokenCodecOption customises a TokenCodec.
type TokenCodecOption func(*TokenCodec)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) TokenCodecOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIssuer stamps issued tokens with an iss claim and requires it on validation.
func WithIssuer(issuer string) TokenCodecOption {
	return func(c *TokenCodec) {
		c.issuer = issuer
	}
}

// NewTokenCodec creates a codec signing with secret.
func NewTokenCodec(secret []byte, opts ...TokenCodecOption) (*TokenCodec, error) {
	if len(secret) < MinSigningKeyLength {
		return nil, fmt.Errorf("signing key must be at least %d bytes, got %d", MinSigningKeyLength, len(secret))
	}

	c := &TokenCodec{
		key: append([]byte(nil), secret...),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token for subject that expires ttl from now. Custom claims
// cannot override sub, iat, exp or iss.
func (c *TokenCodec) Issue(subject string, claims map[string]any, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("issue token: subject is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("issue token: ttl must be positive, got %s", ttl)
	}

	now := c.now()
	mapClaims := jwt.MapClaims{}
	maps.Copy(mapClaims, claims)
	for _, name := range reservedClaims {
		delete(mapClaims, name)
	}

	mapClaims["sub"] = subject
	mapClaims["iat"] = jwt.NewNumericDate(now)
	mapClaims["exp"] = jwt.NewNumericDate(now.Add(ttl))
	if c.issuer != "" {
		mapClaims["iss"] = c.issuer
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifySignatureAndDecode parses token and verifies its signature. It does not
// judge expiry. Failures are ErrTokenMalformed or ErrTokenBadSignature.
func (c *TokenCodec) VerifySignatureAndDecode(token string) (*Payload, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(token, claims, c.keyFunc); err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenUnverifiable) {
			return nil, fmt.Errorf("%w: %w", ErrTokenBadSignature, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	return payloadFromClaims(claims)
}

// IsExpired reports whether the payload's expiry is at or before now.
func (c *TokenCodec) IsExpired(p *Payload) bool {
	return !c.now().Before(p.ExpiresAt)
}

// Validate decodes token and checks expiry. Any failure yields ErrTokenInvalid
// and nothing else, so callers cannot tell a forged token from a stale one.
func (c *TokenCodec) Validate(token string) (*Payload, error) {
	p, err := c.check(token)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return p, nil
}

// check runs every validation step and reports the precise failure.
func (c *TokenCodec) check(token string) (*Payload, error) {
	p, err := c.VerifySignatureAndDecode(token)
	if err != nil {
		return nil, err
	}
	if c.IsExpired(p) {
		return nil, ErrTokenExpired
	}
	if c.issuer != "" && p.Issuer != c.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrTokenMalformed, p.Issuer)
	}
	return p, nil
}

// ValidateAgainstSubject validates token and additionally requires its subject
// to equal expectedSubject.
func (c *TokenCodec) ValidateAgainstSubject(token, expectedSubject string) bool {
	p, err := c.Validate(token)
	if err != nil {
		return false
	}
	return p.Subject == expectedSubject
}

func (c *TokenCodec) keyFunc(*jwt.Token) (any, error) {
	return c.key, nil
}

func payloadFromClaims(claims jwt.MapClaims) (*Payload, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrTokenMalformed)
	}
	iat, err := claims.GetIssuedAt()
	if err != nil || iat == nil {
		return nil, fmt.Errorf("%w: missing iat claim", ErrTokenMalformed)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrTokenMalformed)
	}
	iss, err := claims.GetIssuer()
	if err != nil {
		return nil, fmt.Errorf("%w: bad iss claim", ErrTokenMalformed)
	}

	custom := make(map[string]any, len(claims))
	maps.Copy(custom, claims)
	for _, name := range reservedClaims {
		delete(custom, name)
	}

	return &Payload{
		Subject:   sub,
		Issuer:    iss,
		IssuedAt:  iat.Time,
		ExpiresAt: exp.Time,
		Claims:    custom,
	}, nil
}
