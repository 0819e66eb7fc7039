package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/config"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/env"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/infrastructure/events"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/infrastructure/repo"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/infrastructure/stripe"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/metrics"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/server"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/usecase"
)

type store interface {
	usecase.OrderRepo
	usecase.PaymentRepo
}

func main() {
	env.Load(".env", ".env.local")
	envDefaults := config.EnvDefaults()

	envName := flag.String("env", envDefaults.Env, "")
	port := flag.Int("port", envDefaults.Port, "")
	dataDir := flag.String("data-dir", envDefaults.DataDir, "")
	logJSON := flag.Bool("log-json", envDefaults.LogJSON, "")
	stripeMock := flag.Bool("stripe-mock", envDefaults.StripeMock, "")
	flag.Parse()

	cfg := envDefaults
	cfg.Env = *envName
	cfg.Port = *port
	cfg.DataDir = *dataDir
	cfg.LogJSON = *logJSON
	cfg.StripeMock = *stripeMock

	setupLogger(cfg)

	st, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("open store", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	gateway := &stripe.Client{Key: cfg.StripeKey, Mock: cfg.StripeMock}
	if cfg.StripeKey == "" && !cfg.StripeMock {
		slog.Warn("no stripe key configured, forcing mock gateway")
		gateway.Mock = true
	}

	publisher, err := buildPublisher(cfg)
	if err != nil {
		slog.Error("events", "err", err)
		os.Exit(1)
	}

	reg := metrics.NewRegistry()
	orderSvc := &usecase.OrderService{Repo: st, Events: publisher, Metrics: reg}
	paymentSvc := &usecase.PaymentService{
		Payments: st,
		Orders:   st,
		Gateway:  gateway,
		Events:   publisher,
		Metrics:  reg,
	}
	auth := &usecase.AuthService{Secret: cfg.JWTSecret, APIKey: cfg.APIKey}

	srv := server.New(cfg, orderSvc, paymentSvc, auth, reg)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", httpSrv.Addr, "env", cfg.Env)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutCtx)
	})
	if cfg.SweepInterval > 0 {
		g.Go(func() error {
			t := time.NewTicker(cfg.SweepInterval)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
					if err := paymentSvc.SweepPending(ctx, cfg.SweepAge); err != nil {
						slog.Warn("sweep", "err", err)
					}
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("server", "err", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.Config) {
	var h slog.Handler
	if cfg.LogJSON {
		h = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		h = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(h))
}

func openStore(cfg config.Config) (store, func(), error) {
	if cfg.PostgresDSN != "" {
		pg, err := repo.NewPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() {}, nil
	}
	if cfg.DataDir != "" {
		pb, err := repo.NewPebble(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return pb, func() { _ = pb.Close() }, nil
	}
	return repo.NewMemory(), func() {}, nil
}

func buildPublisher(cfg config.Config) (events.Publisher, error) {
	var sinks []events.Publisher
	if cfg.KafkaBrokers != "" {
		sinks = append(sinks, events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic))
	}
	if cfg.EventsDir != "" {
		fp, err := events.NewFilePublisher(cfg.EventsDir, "events.log")
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fp)
	}
	switch len(sinks) {
	case 0:
		return events.Nop{}, nil
	case 1:
		return sinks[0], nil
	default:
		return events.NewMulti(sinks...), nil
	}
}
