// Package main starts the sandbox backend: an HTTP server that honours the
// API envelope contract for every endpoint the client uses, backed by
// process memory.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/bizops/internal/config"
	"github.com/atinyakov/bizops/internal/logger"
	"github.com/atinyakov/bizops/internal/middleware"
	"github.com/atinyakov/bizops/internal/repository"
	"github.com/atinyakov/bizops/internal/server/handler/http"
	"github.com/atinyakov/bizops/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()
	addr := options.Port

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmpOr(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmpOr(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := repository.NewMemory()

	// Drop login codes nobody verified.
	service.StartOTPCleaner(ctx, repo, time.Minute, zapLogger)

	authService := service.NewAuthService(repo, service.AuthConfig{Secret: []byte(options.JWTSecret)})
	businessService := service.NewBusinessService(repo)

	authHandler := &http.AuthHandler{AuthService: authService, Logger: zapLogger}
	useTLS := options.CertFile != "" && options.KeyFile != ""
	scheme := "http"
	if useTLS {
		scheme = "https"
	}
	businessHandler := &http.BusinessHandler{
		Service:  businessService,
		Logger:   zapLogger,
		ImageURL: scheme + "://" + addr + "/uploads/members",
	}

	// OTP endpoints are throttled per client address.
	limiter := middleware.NewRateLimiter(1, 5, zapLogger)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(30 * time.Minute)
			}
		}
	}()

	router := http.NewRouter(authHandler, businessHandler, authService, limiter, zapLogger)

	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("shutdown failed", zap.Error(err))
		}
	}()

	// With a CA configured, clients must present a certificate it signed.
	if useTLS && options.CAFile != "" {
		caPEM, err := os.ReadFile(options.CAFile)
		if err != nil {
			zapLogger.Fatal("cannot read client CA", zap.Error(err))
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			zapLogger.Fatal("client CA is not valid PEM", zap.String("file", options.CAFile))
		}
		server.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ClientCAs:  pool,
			ClientAuth: tls.RequireAndVerifyClientCert,
		}
	}

	var err error
	if useTLS {
		zapLogger.Info("starting HTTPS server", zap.String("addr", addr))
		err = server.ListenAndServeTLS(options.CertFile, options.KeyFile)
	} else {
		zapLogger.Info("starting HTTP server", zap.String("addr", addr))
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
