// Command spotify-match runs the Spotify Match web application.
package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/brunovale/go-spotify-match/internal/web"
	webfs "github.com/brunovale/go-spotify-match/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; real deployments use the environment directly.
	_ = godotenv.Load()

	clientID := os.Getenv("SPOTIFY_ID")
	clientSecret := os.Getenv("SPOTIFY_SECRET")
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("please set SPOTIFY_ID and SPOTIFY_SECRET environment variables")
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if os.Getenv("DEBUG") != "" {
		logger.SetLevel(log.DebugLevel)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:         os.Getenv("ADDR"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  os.Getenv("REDIRECT_URI"),
		StaticFS:     static,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}
