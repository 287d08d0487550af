// Package jwt signs and verifies RSA bearer tokens for the Rentwise API.
//
// Tokens are issued by the identity provider; the API only holds the
// public key and verifies them:
//
//	service, err := jwt.NewService(jwt.Config{
//	    PublicKeyPath: "./keys/public_key.pem",
//	    Algorithm:     "RS256",
//	})
//
//	claims, err := service.Validate(tokenString)
//	if err != nil {
//	    // ErrTokenExpired, ErrTokenNotYetValid, ErrInvalidSignature or ErrInvalidToken
//	}
//	userID := claims.Subject
//
// # Signing
//
// Signing needs the private key and is used by the admin-token tool and
// in tests:
//
//	token, err := service.SignSubject("user-123", time.Hour)
//
// The issuer is checked only when Config.Issuer is set.
package jwt
