// Package main is the interactive client shell: it logs in with an OTP and
// drives the company, employee, invoice and gym endpoints through the API
// layer, printing each toast to the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/atinyakov/bizops/internal/api"
	"github.com/atinyakov/bizops/internal/client"
	"github.com/atinyakov/bizops/internal/config"
	"github.com/atinyakov/bizops/internal/logger"
	"github.com/atinyakov/bizops/internal/notify"
	"github.com/atinyakov/bizops/internal/query"
	"github.com/atinyakov/bizops/internal/session"
)

var (
	version   string
	buildDate string

	showVer = flag.Bool("version", false, "show build version and date")
)

func main() {
	options := config.Parse()

	if *showVer {
		fmt.Printf("BizOps Client\nVersion: %s\nBuild Date: %s\n", cmpOr(version, "N/A"), cmpOr(buildDate, "N/A"))
		return
	}

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, closeStore, err := openStore(ctx, options, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot open store", zap.Error(err))
	}
	defer closeStore()

	httpClient, err := client.NewHTTPClient(client.TransportConfig{
		Timeout:  options.Timeout,
		CAFile:   options.CAFile,
		CertFile: options.CertFile,
		KeyFile:  options.KeyFile,
	})
	if err != nil {
		zapLogger.Fatal("cannot build http client", zap.Error(err))
	}

	var limiter *rate.Limiter
	if options.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.RateLimit), 1)
	}

	sess := session.New(store, zapLogger)
	console := notify.NewConsole(os.Stdout)
	notifier := notify.Multi{console, notify.NewLogger(zapLogger)}

	c, err := client.New(client.Config{
		BaseURL:    options.BaseURL,
		HTTPClient: httpClient,
		Tokens:     sess,
		Notifier:   notifier,
		Logger:     zapLogger,
		Limiter:    limiter,
	})
	if err != nil {
		zapLogger.Fatal("cannot build api client", zap.Error(err))
	}

	a, err := api.New(query.New(c, zapLogger), sess, notifier, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot register endpoints", zap.Error(err))
	}

	newShell(a, sess, os.Stdin, os.Stdout).run(ctx)
}
