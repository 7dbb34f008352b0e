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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/aslgraph"
	"github.com/aretw0/aslgraph/pkg/adapters/file"
	httpAdapter "github.com/aretw0/aslgraph/pkg/adapters/http"
	"github.com/aretw0/aslgraph/pkg/adapters/memory"
	"github.com/aretw0/aslgraph/pkg/adapters/redis"
	"github.com/aretw0/aslgraph/pkg/metrics"
	"github.com/aretw0/aslgraph/pkg/ports"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the compile service",
	Long: `Starts an HTTP service that compiles fragment documents and keeps the resulting
machines in memory, in --store-dir, or in Redis when --redis-addr is set. Prometheus metrics are
served on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.New()
		m.MustRegister(registry)

		store, locker, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		compiler := aslgraph.New(aslgraph.WithLogger(logger), aslgraph.WithMetrics(m))
		api := httpAdapter.NewHandler(compiler, store,
			httpAdapter.WithLocker(locker),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetrics(m),
		)

		r := chi.NewRouter()
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		r.Mount("/", api)

		srv := &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting compile service", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("compile service stopped")
			return nil
		}
	},
}

// openStore picks the artifact backend from the flags.
func openStore(cmd *cobra.Command) (ports.ArtifactStore, ports.Locker, func(), error) {
	redisAddr, _ := cmd.Flags().GetString("redis-addr")
	storeDir, _ := cmd.Flags().GetString("store-dir")
	switch {
	case redisAddr != "":
	case storeDir != "":
		logger.Info("storing machines on disk", "dir", storeDir)
		return file.New(storeDir), memory.NewLocker(), func() {}, nil
	default:
		logger.Info("storing machines in memory")
		return memory.NewStore(), memory.NewLocker(), func() {}, nil
	}

	prefix, _ := cmd.Flags().GetString("redis-prefix")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	store := redis.New(redisAddr, os.Getenv("ASLGRAPH_REDIS_PASSWORD"), 0,
		redis.WithPrefix(prefix),
		redis.WithTTL(ttl),
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	if err := store.Client().Ping(ctx).Err(); err != nil {
		_ = store.Close()
		return nil, nil, nil, fmt.Errorf("connect to redis at %s: %w", redisAddr, err)
	}
	logger.Info("storing machines in redis", "addr", redisAddr, "prefix", prefix, "ttl", ttl)

	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing redis", "error", err)
		}
	}
	return store, redis.NewLocker(store.Client(), prefix), closeStore, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", envOr("ASLGRAPH_ADDR", ":8080"), "Address to listen on (env ASLGRAPH_ADDR)")
	serveCmd.Flags().String("redis-addr", envOr("ASLGRAPH_REDIS_ADDR", ""), "Redis address; machines stay in memory when empty (env ASLGRAPH_REDIS_ADDR)")
	serveCmd.Flags().String("store-dir", envOr("ASLGRAPH_STORE_DIR", ""), "Directory for machines when Redis is not used (env ASLGRAPH_STORE_DIR)")
	serveCmd.Flags().String("redis-prefix", envOr("ASLGRAPH_REDIS_PREFIX", redis.DefaultPrefix), "Key prefix for machines in Redis (env ASLGRAPH_REDIS_PREFIX)")
	serveCmd.Flags().Duration("ttl", envDuration("ASLGRAPH_TTL", 0), "Expiry of stored machines, 0 keeps them (env ASLGRAPH_TTL)")
}

func envDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(envOr(key, ""))
	if err != nil {
		return def
	}
	return d
}
