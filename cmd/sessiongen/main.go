// Package main mints and inspects podium session cookies for local testing.
// It signs with SESSION_SIGNING_KEY, falling back to the development key, so
// its cookies only work against a server configured the same way.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"podium/internal/auth/session"
	"podium/internal/platform/config"
)

type cookieOutput struct {
	Cookie    string            `json:"cookie"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]string `json:"claims"`
	Usage     string            `json:"usage"`
}

func main() {
	anonCmd := flag.NewFlagSet("anonymous", flag.ExitOnError)
	anonSessionID := anonCmd.String("session-id", "", "Browser session ID. Generated if empty.")
	anonTTL := anonCmd.Duration("ttl", session.DefaultTTL, "Cookie time-to-live")
	anonJSON := anonCmd.Bool("json", false, "Output as JSON")

	userCmd := flag.NewFlagSet("user", flag.ExitOnError)
	userSessionID := userCmd.String("session-id", "", "Browser session ID. Generated if empty.")
	userID := userCmd.String("user-id", "", "User ID. Generated if empty.")
	userEmail := userCmd.String("email", "athlete@example.com", "User email")
	userAccessToken := userCmd.String("access-token", "", "Credential store access token (required)")
	userTTL := userCmd.Duration("ttl", time.Hour, "Cookie time-to-live")
	userJSON := userCmd.Bool("json", false, "Output as JSON")

	inspectCmd := flag.NewFlagSet("inspect", flag.ExitOnError)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	manager := session.NewManager(config.FromEnv().SessionSigningKey)

	switch os.Args[1] {
	case "anonymous":
		_ = anonCmd.Parse(os.Args[2:])
		claims := &session.Claims{SessionID: orNewUUID(*anonSessionID)}
		issue(manager, claims, *anonTTL, *anonJSON)
	case "user":
		_ = userCmd.Parse(os.Args[2:])
		if *userAccessToken == "" {
			fmt.Fprintln(os.Stderr, "-access-token is required")
			os.Exit(1)
		}
		claims := &session.Claims{
			SessionID:        orNewUUID(*userSessionID),
			Email:            *userEmail,
			AccessToken:      *userAccessToken,
			RegisteredClaims: jwt.RegisteredClaims{Subject: orNewUUID(*userID)},
		}
		issue(manager, claims, *userTTL, *userJSON)
	case "inspect":
		_ = inspectCmd.Parse(os.Args[2:])
		if inspectCmd.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "usage: sessiongen inspect <cookie-value>")
			os.Exit(1)
		}
		inspect(manager, inspectCmd.Arg(0))
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sessiongen - mint podium session cookies for local testing

Usage:
  sessiongen <command> [flags]

Commands:
  anonymous   Cookie for a browser session with no user
  user        Cookie for a signed-in user
  inspect     Verify a cookie value and print its claims

Examples:
  sessiongen anonymous -session-id 7d0c1f5e-8d4b-4c55-9a41-6f1f4f3c2b10
  sessiongen user -access-token "$TOKEN" -ttl 30m -json
  sessiongen inspect eyJhbGciOiJIUzI1NiIs...`)
}

func issue(manager *session.Manager, claims *session.Claims, ttl time.Duration, jsonOutput bool) {
	value, err := manager.Issue(claims, time.Now().Add(ttl))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing session: %v\n", err)
		os.Exit(1)
	}
	cookie := session.DefaultCookieName + "=" + value

	if jsonOutput {
		printJSON(cookieOutput{
			Cookie:    cookie,
			ExpiresIn: ttl.String(),
			Claims:    claimMap(claims),
			Usage:     "Cookie: <cookie>",
		})
		return
	}

	fmt.Println("Session Cookie")
	fmt.Println("==============")
	fmt.Printf("Expires In:  %s\n", ttl)
	fmt.Printf("Session ID:  %s\n", claims.SessionID)
	if claims.Subject != "" {
		fmt.Printf("User ID:     %s\n", claims.Subject)
		fmt.Printf("Email:       %s\n", claims.Email)
	}
	fmt.Println()
	fmt.Println(cookie)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Cookie: <cookie>\" http://localhost:8080/auth/destination")
}

func inspect(manager *session.Manager, value string) {
	claims, err := manager.Parse(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid session: %v\n", err)
		os.Exit(1)
	}
	out := claimMap(claims)
	if claims.ExpiresAt != nil {
		out["expires_at"] = claims.ExpiresAt.UTC().Format(time.RFC3339)
	}
	printJSON(out)
}

// claimMap never includes the access token.
func claimMap(c *session.Claims) map[string]string {
	out := map[string]string{"session_id": c.SessionID}
	if c.Subject != "" {
		out["user_id"] = c.Subject
		out["email"] = c.Email
		out["signed_in"] = "true"
	}
	return out
}

func orNewUUID(v string) string {
	if v != "" {
		return v
	}
	return uuid.NewString()
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		os.Exit(1)
	}
}
