package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"lifeai-backend/internal/ai"
	"lifeai-backend/internal/assistant"
	"lifeai-backend/internal/config"
	"lifeai-backend/internal/db"
	"lifeai-backend/internal/logging"
	"lifeai-backend/internal/server"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lifeai-api",
		Short:         "LifeAI wellness API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create missing tables and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg := config.Load()
				log, err := logging.New(cfg.LogLevel)
				if err != nil {
					return err
				}
				defer log.Sync()

				database, err := open(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer database.Close()

				log.Info("schema up to date", zap.String("driver", cfg.DBDriver))
				return nil
			},
		},
	)
	return root
}

func open(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	database, err := db.Connect(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(ctx, database, cfg.DBDriver); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.InsecureSecret() {
		log.Warn("JWT_SECRET is not set, using the development default")
	}
	if cfg.GeminiKey == "" {
		log.Warn("GEMINI_API_KEY is not set, assistant endpoints will fail upstream")
	}

	database, err := open(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	log.Info("connected to database", zap.String("driver", cfg.DBDriver))

	llm := ai.New(cfg.GeminiKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.ChatTimeout)

	handler := server.New(server.Options{
		DB:          database,
		Log:         log,
		JWTSecret:   []byte(cfg.JWTSecret),
		CORSOrigins: cfg.CORSOrigins,
		ChatLLM:     llm,
		DietLLM:     llm.WithTimeout(cfg.DietTimeout),
		Policy:      ai.DefaultPolicy(cfg.AIMaxAttempts),
		Sessions:    assistant.NewSessionStore(cfg.ChatHistoryTTL, cfg.ChatMaxSessions),
	})

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
	}
	ln = netutil.LimitListener(ln, cfg.HTTPMaxConns)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api server is running", zap.String("addr", cfg.HTTPAddr), zap.Int("max_conns", cfg.HTTPMaxConns))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
