// Command token prints a signed bearer token for calling the checkout API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"checkout-api/internal/config"
	"checkout-api/internal/middleware"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	userID := flag.String("user", "", "user id placed in the user_id claim")
	role := flag.String("role", middleware.RoleCustomer, "role claim: customer or admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()
	if cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	if *userID == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		os.Exit(2)
	}
	if *role != middleware.RoleCustomer && *role != middleware.RoleAdmin {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	token, err := middleware.IssueToken(cfg.JWT.Secret, *userID, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
