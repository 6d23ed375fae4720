package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"jobboard/internal/auth"
	"jobboard/internal/config"
	"jobboard/internal/notify"
	"jobboard/internal/objectstore"
	"jobboard/internal/server"
	"jobboard/internal/store"
)

const sessionPruneInterval = time.Hour

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the jobboard web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			st, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			bucket, err := objectstore.NewLocalBucket(cfg.Storage.Root, cfg.Storage.Bucket, cfg.StoragePublicURL())
			if err != nil {
				return err
			}
			logger.Info("object storage ready", "root", cfg.Storage.Root, "bucket", bucket.Bucket())

			authOpts := []auth.Option{auth.WithSessionTTL(cfg.SessionTTL())}
			if cfg.Redis.Address != "" {
				opts, err := startAuthBridge(ctx, cfg, logger)
				if err != nil {
					return err
				}
				authOpts = append(authOpts, opts...)
			}
			authSvc := auth.NewService(st, authOpts...)
			if ok, err := authSvc.AuthRequired(ctx); err == nil && !ok {
				logger.Warn("no admin users provisioned; create one with: jobboard admin user add <email> --password-stdin")
			}

			notifier, err := notify.New(ctx, notify.Config{
				Region:   cfg.Notifications.Region,
				From:     cfg.Notifications.From,
				TopicARN: cfg.Notifications.TopicARN,
			})
			if err != nil {
				return err
			}

			srv := server.New(addr, server.Backends{
				Jobs:         st,
				Applications: st,
				Auth:         authSvc,
				Storage:      bucket,
				Health:       st,
			}, logger)
			srv.ConfigureApplicationOptions(server.ApplicationOptions{
				MaxCVBytes:         cfg.Applications.MaxCVBytes,
				MultipartMaxMemory: cfg.Applications.MultipartMaxMemory,
				LinkJob:            cfg.Applications.LinkJob,
				Notifier:           notifier,
			})
			srv.SetCookieSecure(cfg.Auth.CookieSecure)

			go pruneSessionsLoop(ctx, st, logger)

			return srv.ListenAndServe(ctx)
		},
	}
}

func openStore(cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	driver, err := store.CanonicalDriver(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	if driver == store.DriverPostgres {
		logger.Info("opening database", "driver", store.DriverPostgres)
		return store.OpenDriver(store.DriverPostgres, cfg.Database.DSN)
	}
	if cfg.Database.Path == "" {
		return nil, fmt.Errorf("db path is required")
	}
	logger.Info("opening database", "driver", store.DriverSQLite, "path", cfg.Database.Path)
	return store.Open(cfg.Database.Path)
}

// startAuthBridge connects to Redis and relays auth events between server
// instances until ctx is done.
func startAuthBridge(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]auth.Option, error) {
	client := auth.NewRedisClient(auth.RedisConfig{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Channel:  cfg.Redis.Channel,
	})
	hub := auth.NewHub()
	bridge := auth.NewRedisBridge(client, cfg.Redis.Channel, hub)
	if err := bridge.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	ready, done := bridge.Run(ctx)
	<-ready
	go func() {
		if err := <-done; err != nil {
			logger.Error("auth event bridge stopped", "error", err)
		}
		_ = client.Close()
	}()
	logger.Info("auth event bridge connected", "address", cfg.Redis.Address, "channel", cfg.Redis.Channel)

	return []auth.Option{auth.WithHub(hub), auth.WithRelay(bridge)}, nil
}

func pruneSessionsLoop(ctx context.Context, st *store.Store, logger *slog.Logger) {
	ticker := time.NewTicker(sessionPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := st.PruneSessions(ctx, now.UTC())
			if err != nil {
				logger.Warn("session prune failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("pruned sessions", "count", n)
			}
		}
	}
}
