// Command token issues a service token for calling the notification API.
// Intended for operators wiring up a new internal service.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/easymo/notify/internal/config"
	"github.com/easymo/notify/internal/security"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	service := flag.String("service", "", "name of the calling service (required)")
	scopes := flag.String("scopes", "", "comma-separated token scopes")
	flag.Parse()

	if *service == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if cfg.Auth.ServiceTokenSecret == "" {
		log.Fatal().Msg("SERVICE_TOKEN_SECRET is not set")
	}

	var scopeList []string
	if *scopes != "" {
		scopeList = strings.Split(*scopes, ",")
	}

	manager := security.NewTokenManager(cfg.Auth.ServiceTokenSecret, cfg.Auth.ServiceTokenTTL)
	token, err := manager.Generate(*service, scopeList)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate token")
	}

	log.Info().
		Str("service", *service).
		Dur("valid_for", manager.TTL()).
		Msg("Token issued")
	fmt.Println(token)
}
