package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidKey       = errors.New("invalid key")
)

// DefaultExpiration applies when a Config leaves Expiration unset
const DefaultExpiration = 24 * time.Hour

// Claims represents JWT claims. Subject carries the caller id.
type Claims struct {
	Email string `json:"email,omitempty"`
	gojwt.RegisteredClaims
}

// Service handles JWT operations
type Service struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	method     *gojwt.SigningMethodRSA
	issuer     string
	expiration time.Duration
}

// Config holds JWT service configuration
type Config struct {
	PrivateKeyPath string
	PublicKeyPath  string
	Issuer         string
	Algorithm      string
	Expiration     time.Duration
}

// NewService creates a new JWT service. A private key is only needed
// for signing; verification works with the public key alone.
func NewService(cfg Config) (*Service, error) {
	method, err := signingMethod(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	var privateKey *rsa.PrivateKey
	var publicKey *rsa.PublicKey

	if cfg.PrivateKeyPath != "" {
		privateKey, err = loadPrivateKey(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load private key: %w", err)
		}
		publicKey = &privateKey.PublicKey
	}

	if cfg.PublicKeyPath != "" && publicKey == nil {
		publicKey, err = loadPublicKey(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load public key: %w", err)
		}
	}

	expiration := cfg.Expiration
	if expiration <= 0 {
		expiration = DefaultExpiration
	}

	return &Service{
		privateKey: privateKey,
		publicKey:  publicKey,
		method:     method,
		issuer:     cfg.Issuer,
		expiration: expiration,
	}, nil
}

// GenerateKeyPair generates a new RSA key pair and saves to files
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
	if err := os.WriteFile(privateKeyPath, privateKeyPEM, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	publicKeyBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to marshal public key: %w", err)
	}
	publicKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicKeyBytes,
	})
	if err := os.WriteFile(publicKeyPath, publicKeyPEM, 0644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	return nil
}

// Sign creates a signed token. IssuedAt is always stamped; NotBefore and
// ExpiresAt keep caller-provided values.
func (s *Service) Sign(claims Claims) (string, error) {
	if s.privateKey == nil {
		return "", ErrInvalidKey
	}

	now := time.Now()
	if s.issuer != "" {
		claims.Issuer = s.issuer
	}
	claims.IssuedAt = gojwt.NewNumericDate(now)
	if claims.NotBefore == nil {
		claims.NotBefore = gojwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = gojwt.NewNumericDate(now.Add(s.expiration))
	}

	signed, err := gojwt.NewWithClaims(s.method, claims).SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}
	return signed, nil
}

// SignSubject signs a token for subject that expires after ttl.
// A zero ttl uses the service expiration.
func (s *Service) SignSubject(subject string, ttl time.Duration) (string, error) {
	claims := Claims{RegisteredClaims: gojwt.RegisteredClaims{Subject: subject}}
	if ttl > 0 {
		claims.ExpiresAt = gojwt.NewNumericDate(time.Now().Add(ttl))
	}
	return s.Sign(claims)
}

// Validate verifies the signature and time claims of tokenString.
// The issuer is only enforced when the service has one configured.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	if s.publicKey == nil {
		return nil, ErrInvalidKey
	}
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	opts := []gojwt.ParserOption{gojwt.WithValidMethods([]string{s.method.Alg()})}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	_, err := gojwt.ParseWithClaims(tokenString, claims, func(*gojwt.Token) (interface{}, error) {
		return s.publicKey, nil
	}, opts...)
	if err != nil {
		return nil, mapParseError(err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetExpiration returns the token expiration duration
func (s *Service) GetExpiration() time.Duration {
	return s.expiration
}

// Algorithm returns the signing algorithm name
func (s *Service) Algorithm() string {
	return s.method.Alg()
}

// NewTestService creates a JWT service with in-memory keys for testing
// This should only be used in tests, not in production code
func NewTestService(privateKey *rsa.PrivateKey, issuer string, expiration time.Duration) *Service {
	return &Service{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		method:     gojwt.SigningMethodRS256,
		issuer:     issuer,
		expiration: expiration,
	}
}

// Helper functions

func signingMethod(alg string) (*gojwt.SigningMethodRSA, error) {
	switch alg {
	case "", "RS256":
		return gojwt.SigningMethodRS256, nil
	case "RS384":
		return gojwt.SigningMethodRS384, nil
	case "RS512":
		return gojwt.SigningMethodRS512, nil
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, gojwt.ErrTokenNotValidYet):
		return ErrTokenNotYetValid
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	default:
		return ErrInvalidToken
	}
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return gojwt.ParseRSAPrivateKeyFromPEM(data)
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return gojwt.ParseRSAPublicKeyFromPEM(data)
}
