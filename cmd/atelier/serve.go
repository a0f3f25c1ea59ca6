package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	cartapp "github.com/dwikikusuma/atelier/internal/cart/app"
	"github.com/dwikikusuma/atelier/internal/cart/infra/memory"
	cartredis "github.com/dwikikusuma/atelier/internal/cart/infra/redis"
	cartsqlite "github.com/dwikikusuma/atelier/internal/cart/infra/sqlite"
	catalogapp "github.com/dwikikusuma/atelier/internal/catalog/app"
	catalogsqlite "github.com/dwikikusuma/atelier/internal/catalog/infra/sqlite"
	checkoutapp "github.com/dwikikusuma/atelier/internal/checkout/app"
	checkoutadapter "github.com/dwikikusuma/atelier/internal/checkout/infra/adapter"
	"github.com/dwikikusuma/atelier/internal/checkout/infra/stripe"
	"github.com/dwikikusuma/atelier/internal/health"
	"github.com/dwikikusuma/atelier/internal/httpapi"
	orderapp "github.com/dwikikusuma/atelier/internal/order/app"
	orderadapter "github.com/dwikikusuma/atelier/internal/order/infra/adapter"
	ordersqlite "github.com/dwikikusuma/atelier/internal/order/infra/sqlite"
	"github.com/dwikikusuma/atelier/pkg/config"
	"github.com/dwikikusuma/atelier/pkg/shutdown"
	sqlitedb "github.com/dwikikusuma/atelier/pkg/sqlite"
	"github.com/dwikikusuma/atelier/pkg/telemetry"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront HTTP API and the gRPC health endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

// snapshotBackend picks the cart snapshot store named by cfg.Cart.Backend.
// The returned closer is never nil.
func snapshotBackend(ctx context.Context, cfg config.Config, db *sql.DB) (cartapp.SnapshotStore, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(cfg.Cart.Backend)) {
	case "memory":
		return memory.NewSnapshotStore(), noop, nil
	case "", "sqlite":
		return cartsqlite.NewSnapshotStore(db), noop, nil
	case "redis":
		store := cartredis.NewSnapshotStore(cartredis.NewClient(cfg.Redis.Addr), cfg.Redis.CartTTL, log)
		if err := store.WaitReady(ctx, 5); err != nil {
			store.Close()
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown cart backend %q", cfg.Cart.Backend)
	}
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := shutdown.WithSignals(parent)
	defer cancel()

	telemetryOpts := telemetry.Options{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
	}
	tp, err := telemetry.InitTracerProvider(ctx, telemetryOpts)
	if err != nil {
		return err
	}
	mp, err := telemetry.InitMeterProvider(ctx, telemetryOpts)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
		if err := mp.Shutdown(shutdownCtx); err != nil {
			log.Warn("meter shutdown", zap.Error(err))
		}
	}()

	db, err := sqlitedb.OpenMigrated(ctx, sqlitedb.Config{Path: cfg.Storage.SQLitePath})
	if err != nil {
		return err
	}
	defer db.Close()

	snapshots, closeSnapshots, err := snapshotBackend(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeSnapshots()

	sessions := cartapp.NewSessions(snapshots, cfg.Cart.AppKey, log, cartapp.WithOpenOnAdd(cfg.Cart.OpenOnAdd))

	catalogSvc := catalogapp.NewService(catalogsqlite.NewArtworkRepo(db), catalogsqlite.NewCollectionRepo(db))
	orderSvc := orderapp.NewService(ordersqlite.NewOrderRepo(db), orderadapter.NewCatalogSales(catalogSvc), log)

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	checkoutSvc := checkoutapp.NewService(
		checkoutadapter.NewCartSessions(sessions),
		checkoutadapter.NewCatalogServiceReader(catalogSvc),
		stripe.New(cfg.Payment.StripeKey, nil),
		checkoutadapter.NewOrderServiceRecorder(orderSvc),
		checkoutapp.Config{
			Currency:      cfg.Payment.Currency,
			MaxConcurrent: cfg.Payment.MaxConcurrent,
			SuccessURL:    publicURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:     publicURL + "/cart",
		},
		log,
	)

	checker := health.NewChecker(2*time.Second).
		Add("database", db.PingContext).
		Add("carts", sessions.Ping)

	api := httpapi.New(catalogSvc, sessions, checkoutSvc, checker, log, httpapi.Options{
		Currency:      cfg.Payment.Currency,
		AdminToken:    cfg.AdminToken,
		SecureCookies: strings.HasPrefix(publicURL, "https://"),
	})
	if cfg.AdminToken == "" {
		log.Warn("ADMIN_TOKEN is empty; admin endpoints are disabled")
	}

	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcAddr := fmt.Sprintf(":%d", cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", grpcAddr, err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthpb.RegisterHealthServer(grpcServer, health.NewServer(checker, "atelier", log))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server starting", zap.String("addr", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info("grpc health starting", zap.String("addr", grpcAddr))
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sessions.RunSweeper(gctx, time.Minute, cfg.Cart.IdleTTL)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown error", zap.Error(err))
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("bye")
	return nil
}
