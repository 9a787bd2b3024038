package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"example.com/fittrack/internal/api"
	"example.com/fittrack/internal/config"
	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/kv"
	"example.com/fittrack/internal/session"
	"example.com/fittrack/internal/stats"
	"example.com/fittrack/internal/store"
	httptransport "example.com/fittrack/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := newBackend(ctx, cfg)

	stdLogger := log.New(os.Stderr, "", log.LstdFlags)

	activities := store.NewActivities(backend, store.WithWait(cfg.StoreWait), store.WithLogger(stdLogger))
	profiles := store.NewProfiles(backend, store.WithWait(cfg.StoreWait), store.WithLogger(stdLogger))
	aggregator := stats.NewAggregator(activities, profiles, stats.WithLogger(stdLogger))

	var publisher domain.EventPublisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafka(cfg.KafkaBrokers)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	service := domain.NewService(activities, profiles, aggregator, publisher, domain.WithLogger(stdLogger))
	sessions := session.NewManager()

	handler := api.NewHandler(service, sessions)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.StoreWait + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}, logger(mux))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("fittrack listening on %s (store driver %s)", cfg.HTTPAddress, cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func newBackend(ctx context.Context, cfg config.Config) kv.Backend {
	switch cfg.StoreDriver {
	case "memory":
		return kv.NewMemory()
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		return kv.NewRedis(client)
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		backend := kv.NewPostgres(pool)
		if err := backend.EnsureSchema(ctx); err != nil {
			log.Fatalf("failed to prepare postgres schema: %v", err)
		}
		return backend
	default:
		log.Fatalf("unknown store driver %q", cfg.StoreDriver)
		return nil
	}
}
