// Package jwt implements auth.Authenticator with JSON Web Tokens.
//
// Supported algorithms: HS256/384/512, RS256/384/512, ES256/384/512.
// Revocation is optional and requires a Store; without one Revoke returns
// ErrNotImplemented and Verify skips the revocation check.
//
// Usage:
//
//	authn, err := jwt.New(
//	    jwt.WithKey("secret-key-at-least-32-characters!!"),
//	    jwt.WithExpired(7 * 24 * time.Hour),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	token, err := authn.Sign(ctx, "user-123")
//	claims, err := authn.Verify(ctx, token.GetAccessToken())
package jwt

import (
	"context"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/kart-io/logger"

	"github.com/kart-io/clinsop/pkg/security/auth"
	"github.com/kart-io/clinsop/pkg/utils/errors"
)

// JWT implements auth.Authenticator using JSON Web Tokens.
type JWT struct {
	opts   *Options
	store  Store
	method jwt.SigningMethod
}

// Option configures a JWT authenticator.
type Option func(*JWT)

// New creates a JWT authenticator from the given options.
func New(opts ...Option) (*JWT, error) {
	j := &JWT{
		opts: NewOptions(),
	}

	for _, opt := range opts {
		opt(j)
	}

	if err := j.opts.Complete(); err != nil {
		return nil, fmt.Errorf("complete options: %w", err)
	}
	if err := j.opts.Validate(); err != nil {
		return nil, fmt.Errorf("validate options: %w", err)
	}

	j.method = jwt.GetSigningMethod(j.opts.SigningMethod)
	if j.method == nil {
		return nil, fmt.Errorf("unsupported signing method: %s", j.opts.SigningMethod)
	}

	return j, nil
}

// WithOptions replaces the full option set.
func WithOptions(opts *Options) Option {
	return func(j *JWT) {
		if opts != nil {
			j.opts = opts
		}
	}
}

// WithKey sets the signing key.
func WithKey(key string) Option {
	return func(j *JWT) {
		j.opts.Key = key
	}
}

// WithSigningMethod sets the signing algorithm.
func WithSigningMethod(method string) Option {
	return func(j *JWT) {
		j.opts.SigningMethod = method
	}
}

// WithExpired sets the token lifetime.
func WithExpired(d time.Duration) Option {
	return func(j *JWT) {
		j.opts.Expired = d
	}
}

// WithMaxRefresh sets the maximum refresh window.
func WithMaxRefresh(d time.Duration) Option {
	return func(j *JWT) {
		j.opts.MaxRefresh = d
	}
}

// WithIssuer sets the token issuer.
func WithIssuer(issuer string) Option {
	return func(j *JWT) {
		j.opts.Issuer = issuer
	}
}

// WithAudience sets the default token audience.
func WithAudience(audience ...string) Option {
	return func(j *JWT) {
		j.opts.Audience = audience
	}
}

// WithStore enables token revocation backed by the given store.
func WithStore(store Store) Option {
	return func(j *JWT) {
		j.store = store
	}
}

// WithPublicKey sets the PEM public key for RSA/ECDSA verification.
func WithPublicKey(key string) Option {
	return func(j *JWT) {
		j.opts.PublicKey = key
	}
}

// WithKeyID sets the kid header value.
func WithKeyID(kid string) Option {
	return func(j *JWT) {
		j.opts.KeyID = kid
	}
}

// Type returns the authenticator type.
func (j *JWT) Type() string {
	return "jwt"
}

// IsDisabled reports whether authentication is turned off.
func (j *JWT) IsDisabled() bool {
	return j.opts.DisableAuth
}

// Sign issues a token for the given subject.
func (j *JWT) Sign(ctx context.Context, subject string, opts ...auth.SignOption) (auth.Token, error) {
	signOpts := &auth.SignOptions{}
	for _, opt := range opts {
		opt(signOpts)
	}

	now := time.Now()
	expiresAt := now.Add(j.opts.Expired)
	if signOpts.ExpiresAt != nil {
		expiresAt = *signOpts.ExpiresAt
	}

	tokenID := signOpts.TokenID
	if tokenID == "" {
		var err error
		tokenID, err = generateTokenID()
		if err != nil {
			return nil, err
		}
	}

	audience := j.opts.Audience
	if len(signOpts.Audience) > 0 {
		audience = signOpts.Audience
	}

	claims := &customClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.opts.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        tokenID,
		},
		Extra: signOpts.Extra,
	}
	if len(audience) > 0 {
		claims.Audience = audience
	}

	token := jwt.NewWithClaims(j.method, claims)
	if j.opts.KeyID != "" {
		token.Header["kid"] = j.opts.KeyID
	}

	signingKey, err := j.getSigningKey()
	if err != nil {
		return nil, err
	}
	tokenString, err := token.SignedString(signingKey)
	if err != nil {
		return nil, errors.ErrInternal.WithCause(err).WithMessage("failed to sign token")
	}

	return &auth.BaseToken{
		AccessToken: tokenString,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.Unix(),
		ExpiresIn:   int64(expiresAt.Sub(now).Seconds()),
	}, nil
}

// Verify validates the token signature, standard claims, and revocation
// status, and returns the parsed claims.
func (j *JWT) Verify(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if tokenString == "" {
		return nil, errors.ErrInvalidToken.WithMessage("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &customClaims{}, j.keyFunc)
	if err != nil {
		return nil, j.mapParseError(err)
	}
	if !token.Valid {
		return nil, errors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*customClaims)
	if !ok {
		return nil, errors.ErrInvalidToken.WithMessage("invalid claims type")
	}

	if err := j.checkRevoked(ctx, tokenString); err != nil {
		return nil, err
	}

	return j.toAuthClaims(claims), nil
}

// Refresh exchanges a still-refreshable token for a fresh one. The old
// token is revoked and the new token gets a new ID so a leaked old token
// cannot be replayed as the new session.
func (j *JWT) Refresh(ctx context.Context, tokenString string) (auth.Token, error) {
	claims, err := j.verifyForRefresh(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	j.revokeOldToken(ctx, tokenString)

	signOpts := []auth.SignOption{}
	if len(claims.Extra) > 0 {
		signOpts = append(signOpts, auth.WithExtra(claims.Extra))
	}
	if len(claims.Audience) > 0 {
		signOpts = append(signOpts, auth.WithAudience(claims.Audience...))
	}

	return j.Sign(ctx, claims.Subject, signOpts...)
}

// verifyForRefresh parses a token for refresh. Expiry is not enforced,
// but the MaxRefresh window and revocation status are.
func (j *JWT) verifyForRefresh(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if tokenString == "" {
		return nil, errors.ErrInvalidToken.WithMessage("token is empty")
	}

	claims, err := j.parseUnvalidated(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.IssuedAt == nil {
		return nil, errors.ErrInvalidToken.WithMessage("missing issued at claim")
	}
	if time.Now().After(claims.IssuedAt.Add(j.opts.MaxRefresh)) {
		return nil, errors.ErrSessionExpired.WithMessage("token refresh window expired")
	}

	if err := j.checkRevoked(ctx, tokenString); err != nil {
		return nil, err
	}

	return j.toAuthClaims(claims), nil
}

// revokeOldToken revokes the token being refreshed. Failures are logged
// rather than surfaced so a flaky store cannot block the refresh.
func (j *JWT) revokeOldToken(ctx context.Context, tokenString string) {
	if j.store == nil {
		return
	}

	if err := j.Revoke(ctx, tokenString); err != nil {
		logger.Warnw("failed to revoke old token during refresh",
			"error", err,
			"token_prefix", tokenPrefix(tokenString))
	}
}

// Revoke invalidates the given token. The revocation entry lives until the
// token's MaxRefresh window ends, so an expired-but-refreshable token stays
// blocked for the whole period it could still be exchanged.
func (j *JWT) Revoke(ctx context.Context, tokenString string) error {
	if j.store == nil {
		return errors.ErrNotImplemented.WithMessage("token revocation requires a store")
	}
	if tokenString == "" {
		return errors.ErrInvalidToken.WithMessage("token is empty")
	}

	claims, err := j.parseUnvalidated(tokenString)
	if err != nil {
		return err
	}
	if claims.IssuedAt == nil {
		return errors.ErrInvalidToken.WithMessage("missing issued at claim")
	}

	ttl := time.Until(claims.IssuedAt.Add(j.opts.MaxRefresh))
	if ttl <= 0 {
		// Past the refresh window the token is already unusable.
		return nil
	}

	return j.store.Revoke(ctx, tokenString, ttl)
}

// parseUnvalidated checks the signature but skips claims validation, so
// expired tokens can still be inspected for refresh and revocation.
func (j *JWT) parseUnvalidated(tokenString string) (*customClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, &customClaims{}, j.keyFunc)
	if err != nil {
		return nil, j.mapParseError(err)
	}

	claims, ok := token.Claims.(*customClaims)
	if !ok {
		return nil, errors.ErrInvalidToken.WithMessage("invalid claims type")
	}
	return claims, nil
}

// keyFunc rejects alg-swap tokens before handing back the verification key.
func (j *JWT) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method.Alg() != j.method.Alg() {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return j.getVerifyingKey()
}

func (j *JWT) checkRevoked(ctx context.Context, tokenString string) error {
	if j.store == nil {
		return nil
	}

	revoked, err := j.store.IsRevoked(ctx, tokenString)
	if err != nil {
		return errors.ErrInternal.WithCause(err).WithMessage("failed to check token revocation")
	}
	if revoked {
		return errors.ErrTokenRevoked
	}
	return nil
}

func (j *JWT) toAuthClaims(claims *customClaims) *auth.Claims {
	subject := claims.Subject
	if j.opts.IdentityKey != "" && j.opts.IdentityKey != "sub" {
		if val, ok := claims.Extra[j.opts.IdentityKey]; ok {
			if s, ok := val.(string); ok && s != "" {
				subject = s
			} else {
				subject = fmt.Sprintf("%v", val)
			}
		}
	}

	out := &auth.Claims{
		Subject:  subject,
		Issuer:   claims.Issuer,
		Audience: claims.Audience,
		ID:       claims.ID,
		Extra:    claims.Extra,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.NotBefore != nil {
		out.NotBefore = claims.NotBefore.Unix()
	}
	return out
}

// getSigningKey returns the key used for signing.
func (j *JWT) getSigningKey() (interface{}, error) {
	if strings.HasPrefix(j.opts.SigningMethod, "HS") {
		return []byte(j.opts.Key), nil
	}

	block, _ := pem.Decode([]byte(j.opts.Key))
	if block == nil {
		return nil, errors.ErrInvalidParam.WithMessage("invalid private key PEM format")
	}

	if strings.HasPrefix(j.opts.SigningMethod, "RS") {
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			pkcs8Key, err2 := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err2 != nil {
				return nil, errors.ErrInvalidParam.WithCause(err).WithMessage("failed to parse RSA private key")
			}
			return pkcs8Key, nil
		}
		return key, nil
	}

	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		pkcs8Key, err2 := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err2 != nil {
			return nil, errors.ErrInvalidParam.WithCause(err).WithMessage("failed to parse ECDSA private key")
		}
		return pkcs8Key, nil
	}
	return key, nil
}

// getVerifyingKey returns the key used for verification.
func (j *JWT) getVerifyingKey() (interface{}, error) {
	if strings.HasPrefix(j.opts.SigningMethod, "HS") {
		return []byte(j.opts.Key), nil
	}

	if j.opts.PublicKey == "" {
		return nil, errors.ErrInvalidParam.WithMessage("public key required for RSA/ECDSA verification")
	}

	block, _ := pem.Decode([]byte(j.opts.PublicKey))
	if block == nil {
		return nil, errors.ErrInvalidParam.WithMessage("invalid public key PEM format")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errors.ErrInvalidParam.WithCause(err).WithMessage("failed to parse public key")
	}

	return key, nil
}

// mapParseError translates golang-jwt parse failures into errno values.
func (j *JWT) mapParseError(err error) *errors.Errno {
	if err == nil {
		return nil
	}

	switch {
	case strings.Contains(err.Error(), "token is expired"):
		return errors.ErrTokenExpired
	case strings.Contains(err.Error(), "signature is invalid"):
		return errors.ErrInvalidToken.WithMessage("invalid signature")
	case strings.Contains(err.Error(), "token is malformed"):
		return errors.ErrInvalidToken.WithMessage("malformed token")
	case strings.Contains(err.Error(), "token is not valid yet"):
		return errors.ErrInvalidToken.WithMessage("token not valid yet")
	default:
		return errors.ErrInvalidToken.WithCause(err)
	}
}

// customClaims extends jwt.RegisteredClaims with free-form extra fields.
type customClaims struct {
	jwt.RegisteredClaims
	Extra map[string]interface{} `json:"extra,omitempty"`
}

func generateTokenID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", errors.ErrInternal.WithCause(err).WithMessage("failed to generate token ID")
	}
	return hex.EncodeToString(b), nil
}

func tokenPrefix(tokenString string) string {
	if len(tokenString) > 16 {
		return tokenString[:16] + "..."
	}
	return tokenString
}
