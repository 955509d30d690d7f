// tokengen mints a business JWT for local development and operations,
// signed with the same secret and TTL the API validates against.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/testimonialnudger/api/internal/platform/auth"
	"github.com/testimonialnudger/api/pkg/config"
)

func main() {
	businessID := flag.Int64("business", 0, "business ID to scope the token to")
	email := flag.String("email", "", "owner email embedded in the claims")
	flag.Parse()

	if *businessID == 0 || *email == "" {
		fmt.Fprintln(os.Stderr, "usage: tokengen -business <id> -email <owner email>")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load()

	token, err := auth.NewBusinessToken(*businessID, *email, cfg.Auth.BusinessTokenTTL, cfg.Auth.JWTSecret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
