// Copyright 2025 Verdant Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/verdantlabs/dossier/agent"
	"github.com/verdantlabs/dossier/ai"
	"github.com/verdantlabs/dossier/ai/openai"
	"github.com/verdantlabs/dossier/frontend"
	"github.com/verdantlabs/dossier/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "frontend",
		Usage: "User-facing chat service backed by per-user agent sessions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "host",
				Usage:   "Address to listen on",
				Value:   "127.0.0.1",
				EnvVars: []string{"FRONTEND_HOST"},
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "Port to listen on",
				Value:   8081,
				EnvVars: []string{"FRONTEND_PORT"},
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Base URL of the retrieval service",
				Value:   "http://127.0.0.1:8080",
				EnvVars: []string{"BASE_URL"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Log every reasoning step",
				EnvVars: []string{"DEBUG"},
			},
			&cli.StringFlag{
				Name:    "auth-token",
				Usage:   "Bearer token forwarded to the retrieval service",
				EnvVars: []string{"AUTH_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "history-path",
				Usage:   "BadgerDB directory for conversation history (empty keeps history in memory)",
				EnvVars: []string{"HISTORY_PATH"},
			},
			&cli.StringFlag{
				Name:    "chat-host",
				Usage:   "Chat model service host URL",
				Value:   "http://localhost:11434/v1",
				EnvVars: []string{"CHAT_HOST"},
			},
			&cli.StringFlag{
				Name:     "chat-model",
				Usage:    "Chat model name",
				Required: true,
				EnvVars:  []string{"CHAT_MODEL"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "API key for the chat provider",
				EnvVars: []string{"LLM_API_KEY"},
			},
			&cli.IntFlag{
				Name:  "max-output-tokens",
				Usage: "Token cap per model generation",
				Value: 512,
			},
			&cli.IntFlag{
				Name:  "max-iterations",
				Usage: "Reasoning-loop cap per turn",
				Value: agent.DefaultMaxIterations,
			},
			&cli.StringFlag{
				Name:    "contact-name",
				Usage:   "Name served by the contact tool",
				Value:   "Michael",
				EnvVars: []string{"CONTACT_NAME"},
			},
			&cli.StringFlag{
				Name:    "contact-email",
				Usage:   "Email served by the contact tool",
				EnvVars: []string{"CONTACT_EMAIL"},
			},
			&cli.StringFlag{
				Name:    "contact-linkedin",
				Usage:   "LinkedIn URL served by the contact tool",
				EnvVars: []string{"CONTACT_LINKEDIN"},
			},
			&cli.StringFlag{
				Name:    "contact-location",
				Usage:   "Location served by the contact tool",
				EnvVars: []string{"CONTACT_LOCATION"},
			},
		},
		Before: setupLogger,
		Action: serveCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	historyPath := c.String("history-path")
	backend, err := badger.OpenBackend(historyPath, historyPath == "")
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer backend.Close()

	history := badger.NewHistoryRepository(backend)
	defer history.Close()

	aiConfig := ai.NewConfig(
		ai.WithChatHost(c.String("chat-host")),
		ai.WithChatModel(c.String("chat-model")),
		ai.WithToken(c.String("api-key")),
		ai.WithMaxOutputTokens(c.Int("max-output-tokens")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	managerOpts := []agent.ManagerOption{
		agent.WithHTTPClient(&http.Client{Transport: agent.NewTransport()}),
		agent.WithRetrievalBaseURL(c.String("base-url")),
		agent.WithRetrievalAuthToken(c.String("auth-token")),
		agent.WithSessionMaxIterations(c.Int("max-iterations")),
		agent.WithContactInfo(agent.ContactInfo{
			Name:     c.String("contact-name"),
			Email:    c.String("contact-email"),
			LinkedIn: c.String("contact-linkedin"),
			Location: c.String("contact-location"),
		}),
	}
	if c.Bool("debug") {
		managerOpts = append(managerOpts, agent.WithSessionMonitor(agent.NewLogMonitor(nil)))
	}

	manager, err := agent.NewSessionManager(provider.Completer(), history, managerOpts...)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	server, err := frontend.NewServer(manager)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	addr := net.JoinHostPort(c.String("host"), fmt.Sprint(c.Int("port")))
	return serve(ctx, addr, server.Handler())
}

// serve runs the HTTP server until the context is cancelled, then drains
// in-flight requests.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
