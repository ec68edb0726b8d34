package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relaysms/email-gateway/internal/config"
	"github.com/relaysms/email-gateway/internal/httpapi"
	"github.com/relaysms/email-gateway/internal/logger"
	"github.com/relaysms/email-gateway/pkg/relay"
	"github.com/relaysms/email-gateway/pkg/relay/resend"
	smtpsender "github.com/relaysms/email-gateway/pkg/relay/smtp"
	"github.com/relaysms/email-gateway/pkg/simplelogin"
	"github.com/relaysms/email-gateway/pkg/smtpcreds"
	"github.com/relaysms/email-gateway/pkg/templates"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gateway:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)

	creds := smtpcreds.Load(cfg.SMTPCredsFile, log.With("component", "smtpcreds"))
	engine := templates.New(cfg.TemplateDir)
	provider := simplelogin.New(simplelogin.Config{
		BaseURL: cfg.SimpleLogin.BaseURL,
		APIKey:  cfg.SimpleLogin.APIKey,
	}, log.With("component", "simplelogin"))
	sender := smtpsender.New(log.With("component", "smtp"))

	var opts []relay.Option
	if cfg.Resend.APIKey != "" {
		log.Info("resend transport enabled for direct sends")
		opts = append(opts, relay.WithDirectSender(resend.New(resend.Config{
			APIKey:    cfg.Resend.APIKey,
			FromEmail: cfg.Resend.FromEmail,
		})))
	}

	service := relay.New(creds, engine, provider, sender, log.With("component", "relay"), opts...)

	api := httpapi.New(httpapi.Options{
		APIKey:      cfg.APIKey,
		TemplateDir: cfg.TemplateDir,
	}, service, log.With("component", "http"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("gateway listening", "addr", srv.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
