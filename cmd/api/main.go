// server/cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"po-bridge-api-server/config"
	"po-bridge-api-server/internal/api/routes"
	"po-bridge-api-server/internal/auth"
	"po-bridge-api-server/internal/database"
	"po-bridge-api-server/internal/identity"
	"po-bridge-api-server/internal/logger"
	"po-bridge-api-server/internal/models"
	"po-bridge-api-server/internal/portal"
	"po-bridge-api-server/internal/s3"
	"po-bridge-api-server/internal/session"
	"po-bridge-api-server/internal/socket"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type backends struct {
	orders   portal.OrderStore
	users    database.UserRepository
	sessions session.Store
	checks   map[string]func(ctx context.Context) error
	close    func(ctx context.Context)
}

func main() {
	// a missing .env is fine outside local development
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("./config")
	if err != nil {
		logger.New(logger.Options{ServiceName: "po-bridge-api"}).Fatal(context.Background(), "could not load config", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "po-bridge-api",
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
	})
	ctx := context.Background()

	if err := cfg.Validate(); err != nil {
		logg.Fatal(ctx, "refusing to start", err)
	}

	store, err := openBackends(ctx, cfg, logg)
	if err != nil {
		logg.Fatal(ctx, "could not open storage", err)
	}
	defer store.close(context.Background())

	if created, err := database.SeedBuyer(ctx, store.users, cfg.Seed); err != nil {
		logg.Fatal(ctx, "could not seed buyer account", err)
	} else if created {
		logg.Info(logg.WithField(ctx, "email", cfg.Seed.BuyerEmail), "seeded buyer account")
	}

	uploader, err := s3.NewUploader(ctx, cfg.S3)
	if err != nil {
		logg.Fatal(ctx, "could not create S3 client", err)
	}

	hub := socket.NewHub(logg)
	issuer := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL())
	identitySvc := identity.NewService(store.users, store.sessions, issuer, logg)
	portalSvc := portal.NewService(store.orders, uploader, hub, logg, portal.Options{
		PublicBaseURL:  cfg.Server.PublicBaseURL,
		MaxUploadBytes: cfg.Server.MaxUploadBytes(),
		SubmitStatus:   models.LineStatus(cfg.Portal.SubmitStatus),
	})

	router := routes.SetupRouter(routes.Dependencies{
		Config:   cfg,
		Portal:   portalSvc,
		Identity: identitySvc,
		Hub:      hub,
		Log:      logg,
		Checks:   store.checks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"port":   cfg.Server.Port,
			"driver": cfg.Store.Driver,
		}), "starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal(ctx, "server stopped", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
}

// openBackends picks the order, user and session stores for cfg.Store.Driver.
func openBackends(ctx context.Context, cfg config.Config, logg *logger.Logger) (*backends, error) {
	if cfg.Store.Driver == "memory" {
		logg.Warn(ctx, "using in-memory storage, data is lost on restart")
		return &backends{
			orders:   database.NewMemoryOrderStore(),
			users:    database.NewMemoryUserStore(),
			sessions: session.NewMemoryStore(),
			checks:   map[string]func(ctx context.Context) error{},
			close:    func(context.Context) {},
		}, nil
	}

	client, err := database.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Mongo.DBName)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	rdb, err := session.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return &backends{
		orders:   database.NewMongoOrderStore(db),
		users:    database.NewMongoUserStore(db),
		sessions: session.NewRedisStore(rdb),
		checks: map[string]func(ctx context.Context) error{
			"mongo": func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		close: func(ctx context.Context) {
			if err := rdb.Close(); err != nil {
				logg.Error(ctx, "closing redis", err)
			}
			if err := client.Disconnect(ctx); err != nil {
				logg.Error(ctx, "closing mongo", err)
			}
		},
	}, nil
}
