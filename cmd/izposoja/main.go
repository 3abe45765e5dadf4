package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/izposoja/internal/api"
	"github.com/erazemk/izposoja/internal/auth"
	"github.com/erazemk/izposoja/internal/config"
	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/store"
	"github.com/erazemk/izposoja/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("izposoja", flag.ContinueOnError)
	fs.StringVar(&cfg.Database.Path, "db", cfg.Database.Path, "")
	fs.StringVar(&cfg.Database.Path, "d", cfg.Database.Path, "")
	fs.StringVar(&cfg.Server.Address, "addr", cfg.Server.Address, "")
	fs.StringVar(&cfg.Server.Address, "a", cfg.Server.Address, "")
	fs.StringVar(&cfg.Auth.AdminUser, "user", cfg.Auth.AdminUser, "")
	fs.StringVar(&cfg.Auth.AdminUser, "u", cfg.Auth.AdminUser, "")
	fs.StringVar(&cfg.Log.Path, "log", cfg.Log.Path, "")
	fs.StringVar(&cfg.Log.Path, "l", cfg.Log.Path, "")
	fs.BoolVar(&cfg.Server.SecureCookies, "secure-cookies", cfg.Server.SecureCookies, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: izposoja [flags]

Flags:
  -d, -db <path>          SQLite database path (env IZPOSOJA_DB, default: izposoja.sqlite3)
  -a, -addr <host:port>   listen address (env IZPOSOJA_ADDR, default: :8080)
  -u, -user <name>        admin username on first run (env IZPOSOJA_ADMIN, default: admin)
  -l, -log <path>         log file path (env IZPOSOJA_LOG, default: stdout/stderr only)
  -secure-cookies         mark cookies Secure (env IZPOSOJA_SECURE_COOKIES)
  -h, -help               show this help and exit

A .env file in the working directory is loaded first if present.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.Log.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	slog.Info("starting", "config", cfg.String())

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", cfg.Database.Path)

	ctx := context.Background()

	if err := bootstrapAdmin(ctx, database, cfg.Auth.AdminUser); err != nil {
		return err
	}

	if n, err := store.PurgeExpiredTokens(ctx, database); err != nil {
		slog.Warn("failed to purge expired tokens", "error", err)
	} else if n > 0 {
		slog.Info("purged expired tokens", "count", n)
	}

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		if jwtSecret, err = store.GetJWTSecret(ctx, database); err != nil {
			return fmt.Errorf("loading JWT secret: %w", err)
		}
	}

	apiRouter := api.NewRouter(database, jwtSecret)
	webRouter, err := web.NewRouter(database, jwtSecret, cfg.Server.SecureCookies)
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
	case <-sigCtx.Done():
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}

	slog.Info("server stopped, closing database")
	return nil
}

// bootstrapAdmin creates the first account when the users table is empty and
// prints its generated password once.
func bootstrapAdmin(ctx context.Context, database *sql.DB, username string) error {
	users, err := store.ListUsers(ctx, database)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	if len(users) > 0 {
		return nil
	}

	password, err := auth.GeneratePassword(16)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := store.CreateUser(ctx, database, username, hash); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("admin account created", "user", username)
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password. It cannot be recovered, only reset with izposojactl passwd.")
	fmt.Println()
	return nil
}
