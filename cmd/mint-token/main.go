package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rentwise/api/pkg/jwt"
)

func main() {
	// Flags for customization
	privateKeyPath := flag.String("key", "./keys/private_key.pem", "Path to JWT private key")
	publicKeyPath := flag.String("pub", "./keys/public_key.pem", "Path to JWT public key (written with -keygen)")
	keygen := flag.Bool("keygen", false, "Generate a new RSA key pair before signing")
	userID := flag.String("user", "dev-user", "Subject (user id) for the token")
	email := flag.String("email", "", "Email claim for the token")
	issuer := flag.String("issuer", "", "JWT issuer")
	alg := flag.String("alg", "RS256", "Signing algorithm (RS256, RS384, RS512)")
	ttl := flag.Duration("ttl", 7*24*time.Hour, "Token lifetime")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if *keygen {
		if err := jwt.GenerateKeyPair(*privateKeyPath, *publicKeyPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating keys: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s and %s\n", *privateKeyPath, *publicKeyPath)
	}

	// Create JWT service with just the private key
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: *privateKeyPath,
		Issuer:         *issuer,
		Algorithm:      *alg,
		Expiration:     *ttl,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating JWT service: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nGenerate keys first with: mint-token -keygen\n")
		os.Exit(1)
	}

	claims := jwt.Claims{Email: *email}
	claims.Subject = *userID

	// Sign token
	token, err := jwtService.Sign(claims)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output := map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   int(ttl.Seconds()),
			"user_id":      *userID,
			"algorithm":    jwtService.Algorithm(),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
		return
	}

	fmt.Println("Token Generated")
	fmt.Println("===============")
	fmt.Printf("User ID:  %s\n", *userID)
	fmt.Printf("Expires:  %s\n", time.Now().Add(*ttl).Format(time.RFC3339))
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s...' http://localhost:8080/custom/favourites\n", token[:min(50, len(token))])
}
