package jwt

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

const (
	// DefaultSigningMethod is the default JWT signing algorithm.
	DefaultSigningMethod = "HS256"

	// DefaultExpired is the default token lifetime (7 days).
	DefaultExpired = 7 * 24 * time.Hour

	// DefaultMaxRefresh is the default maximum refresh window.
	DefaultMaxRefresh = 14 * 24 * time.Hour

	// DefaultIssuer is the default token issuer.
	DefaultIssuer = "clinsop"

	// MinKeyLength is the minimum key length for HMAC algorithms.
	MinKeyLength = 32

	// MaxKeyLength caps the key length to keep signing cheap.
	MaxKeyLength = 512
)

// SupportedSigningMethods contains all supported JWT signing algorithms.
var SupportedSigningMethods = map[string]bool{
	"HS256": true,
	"HS384": true,
	"HS512": true,
	"RS256": true,
	"RS384": true,
	"RS512": true,
	"ES256": true,
	"ES384": true,
	"ES512": true,
}

// Options configures the JWT authenticator.
type Options struct {
	// DisableAuth turns off token verification entirely. Meant for local
	// development, never for production deployments.
	DisableAuth bool `json:"disable-auth" mapstructure:"disable-auth"`

	// Key is the signing key. For HMAC algorithms this is a shared secret;
	// for RSA/ECDSA it is the private key in PEM format.
	Key string `json:"key" mapstructure:"key"`

	// SigningMethod selects the JWT algorithm. Default: HS256.
	SigningMethod string `json:"signing-method" mapstructure:"signing-method"`

	// Expired is the token lifetime. Default: 168h.
	Expired time.Duration `json:"expired" mapstructure:"expired"`

	// MaxRefresh is how long after the original issue time a token may
	// still be refreshed. Past this window the user must sign in again.
	MaxRefresh time.Duration `json:"max-refresh" mapstructure:"max-refresh"`

	// Issuer is the iss claim. Default: clinsop.
	Issuer string `json:"issuer" mapstructure:"issuer"`

	// Audience is the aud claim, zero or more values.
	Audience []string `json:"audience" mapstructure:"audience"`

	// PublicKey is the PEM public key for RSA/ECDSA verification.
	// Ignored for HMAC algorithms.
	PublicKey string `json:"public-key" mapstructure:"public-key"`

	// KeyID sets the kid header, used for key rotation.
	KeyID string `json:"key-id" mapstructure:"key-id"`

	// IdentityKey names an extra claim that overrides the subject when
	// present. Empty or "sub" means the standard sub claim is used.
	IdentityKey string `json:"identity-key" mapstructure:"identity-key"`
}

// NewOptions creates Options with default values.
func NewOptions() *Options {
	return &Options{
		SigningMethod: DefaultSigningMethod,
		Expired:       DefaultExpired,
		MaxRefresh:    DefaultMaxRefresh,
		Issuer:        DefaultIssuer,
		Audience:      []string{},
	}
}

// Validate checks the options for consistency.
func (o *Options) Validate() error {
	if o.DisableAuth {
		return nil
	}

	if !SupportedSigningMethods[o.SigningMethod] {
		return fmt.Errorf("unsupported signing method: %s", o.SigningMethod)
	}

	if err := o.validateKey(); err != nil {
		return err
	}

	if o.Expired <= 0 {
		return fmt.Errorf("expired must be positive, got: %v", o.Expired)
	}
	if o.MaxRefresh <= 0 {
		return fmt.Errorf("max-refresh must be positive, got: %v", o.MaxRefresh)
	}
	if o.MaxRefresh < o.Expired {
		return fmt.Errorf("max-refresh (%v) must be >= expired (%v)", o.MaxRefresh, o.Expired)
	}

	return nil
}

func (o *Options) validateKey() error {
	if o.Key == "" {
		return fmt.Errorf("jwt key is required")
	}

	if o.isHMAC() {
		if len(o.Key) < MinKeyLength {
			return fmt.Errorf("jwt key must be at least %d characters for HMAC algorithms, got: %d",
				MinKeyLength, len(o.Key))
		}
		if len(o.Key) > MaxKeyLength {
			return fmt.Errorf("jwt key must be at most %d characters, got: %d",
				MaxKeyLength, len(o.Key))
		}
	}

	return nil
}

func (o *Options) isHMAC() bool {
	switch o.SigningMethod {
	case "HS256", "HS384", "HS512":
		return true
	}
	return false
}

// Complete fills in defaults for unset fields.
func (o *Options) Complete() error {
	if o.SigningMethod == "" {
		o.SigningMethod = DefaultSigningMethod
	}
	if o.Expired == 0 {
		o.Expired = DefaultExpired
	}
	if o.MaxRefresh == 0 {
		o.MaxRefresh = DefaultMaxRefresh
	}
	if o.Issuer == "" {
		o.Issuer = DefaultIssuer
	}
	return nil
}

// AddFlags binds JWT flags to the given FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.DisableAuth, "jwt.disable-auth", o.DisableAuth,
		"Disable JWT authentication")
	fs.StringVar(&o.Key, "jwt.key", o.Key,
		"JWT signing key (min 32 chars for HMAC algorithms)")
	fs.StringVar(&o.SigningMethod, "jwt.signing-method", o.SigningMethod,
		"JWT signing algorithm (HS256, HS384, HS512, RS256, RS384, RS512, ES256, ES384, ES512)")
	fs.DurationVar(&o.Expired, "jwt.expired", o.Expired,
		"JWT token lifetime")
	fs.DurationVar(&o.MaxRefresh, "jwt.max-refresh", o.MaxRefresh,
		"Maximum duration a token can be refreshed")
	fs.StringVar(&o.Issuer, "jwt.issuer", o.Issuer,
		"JWT token issuer (iss claim)")
	fs.StringSliceVar(&o.Audience, "jwt.audience", o.Audience,
		"JWT token audience (aud claim)")
	fs.StringVar(&o.PublicKey, "jwt.public-key", o.PublicKey,
		"JWT public key for RSA/ECDSA verification")
	fs.StringVar(&o.KeyID, "jwt.key-id", o.KeyID,
		"JWT key identifier (kid header)")
}
