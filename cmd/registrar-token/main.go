// Command registrar-token mints a bearer token for a caller address using the
// server's JWT settings. Operators use it for the admin and for the
// withdrawal relay.
//
//	registrar-token -caller 0xabc... [-ttl 24h]
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	jwttoken "registrar/internal/jwt_token"
	"registrar/internal/platform/config"
	id "registrar/pkg/domain"
)

func main() {
	caller := flag.String("caller", "", "caller address (0x + 40 hex digits); defaults to the configured admin")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to TOKEN_TTL")
	flag.Parse()

	if err := run(*caller, *ttl); err != nil {
		fmt.Fprintln(os.Stderr, "registrar-token:", err)
		os.Exit(1)
	}
}

func run(rawCaller string, ttl time.Duration) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	caller := cfg.Registry.Admin
	if rawCaller != "" {
		if caller, err = id.ParseIdentity(rawCaller); err != nil {
			return fmt.Errorf("invalid -caller: %w", err)
		}
	}
	if ttl == 0 {
		ttl = cfg.TokenTTL
	}

	token, err := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer).GenerateAccessToken(caller, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
