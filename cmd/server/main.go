package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/sso-service/auth"
	"github.com/jrsteele09/sso-service/identity"
	"github.com/jrsteele09/sso-service/internal/config"
	"github.com/jrsteele09/sso-service/kvstore"
	"github.com/jrsteele09/sso-service/revocation"
	"github.com/jrsteele09/sso-service/server"
	"github.com/jrsteele09/sso-service/server/authflowrepo"
	"github.com/jrsteele09/sso-service/token"
	"github.com/jrsteele09/sso-service/users/bunrepo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const startupTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	setupLogging(c)
	displayAppname(c.GetAppName())

	// Lives as long as the process; the remote key set refreshes keys with it.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler, cleanup, err := build(ctx, c)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(server) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

// build wires every component. The returned cleanup closes the shared connections.
func build(ctx context.Context, c config.Config) (http.Handler, func(), error) {
	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	kv, err := kvstore.New(startCtx, c)
	if err != nil {
		return nil, nil, err
	}

	db, err := bunrepo.NewDB(startCtx, c.GetDatabaseURL())
	if err != nil {
		_ = kv.Close()
		return nil, nil, fmt.Errorf("open user database: %w", err)
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Err(err).Msg("failed to close user database")
		}
		if err := kv.Close(); err != nil {
			log.Err(err).Msg("failed to close redis client")
		}
	}
	fail := func(err error) (http.Handler, func(), error) {
		cleanup()
		return nil, nil, err
	}

	if !isPostgres(c.GetDatabaseURL()) {
		if err := bunrepo.CreateSchema(startCtx, db); err != nil {
			return fail(err)
		}
	}

	signer, err := token.NewSigner(c.GetJWTAlgorithm(), c.GetJWTSecretKey(), c.GetJWTPrivateKeyPEM())
	if err != nil {
		return fail(err)
	}
	codec, err := token.NewCodec(signer,
		token.WithAccessTTL(c.GetDefaultAccessTokenExpiry()),
		token.WithRefreshTTL(c.GetDefaultRefreshTokenExpiry()),
		token.WithIssuer(c.GetJWTIssuer()),
	)
	if err != nil {
		return fail(err)
	}

	ledgerOpts := []revocation.Option{revocation.WithDefaultTTL(c.GetDefaultAccessTokenExpiry())}
	if key := c.GetLedgerHashKey(); key != "" {
		ledgerOpts = append(ledgerOpts, revocation.WithHashKey([]byte(key)))
	}
	ledger, err := revocation.New(kv.Redis(), ledgerOpts...)
	if err != nil {
		return fail(err)
	}

	sessionOpts := []auth.SessionServiceOption{
		auth.WithLedger(ledger),
		auth.WithRevokeOnRotate(c.GetRevokeRefreshOnRotate()),
	}
	var provider server.LoginProvider
	if c.GetGoogleClientID() != "" {
		verifier, err := identity.NewGoogleVerifier(ctx, identity.Config{
			ClientID:       c.GetGoogleClientID(),
			AllowedIssuers: c.GetAllowedIssuers(),
		})
		if err != nil {
			return fail(err)
		}
		sessionOpts = append(sessionOpts, auth.WithVerifier(verifier))

		googleProvider, err := identity.NewGoogleProvider(startCtx, c)
		if err != nil {
			return fail(err)
		}
		provider = googleProvider
	} else {
		log.Warn().Msg("GOOGLE_CLIENT_ID is not set, login is disabled")
	}

	sessions, err := auth.NewSessionService(bunrepo.NewStore(db), codec, sessionOpts...)
	if err != nil {
		return fail(err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv, err := server.New(c, server.Deps{
		Sessions:  sessions,
		Ledger:    ledger,
		Provider:  provider,
		AuthState: authflowrepo.NewRedisRepo(kv.Redis()),
		Health:    kv,
		Registry:  registry,
	})
	if err != nil {
		return fail(err)
	}
	return srv, cleanup, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func setupLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
