// Command cert-indexer runs the block indexer host: it connects to the
// read-model database, applies migrations, and serves health and
// metrics endpoints while committed blocks are delivered to it over
// the /blocks endpoint.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/certen/cert-registry/pkg/config"
	"github.com/certen/cert-registry/pkg/database"
	"github.com/certen/cert-registry/pkg/indexer"
	"github.com/certen/cert-registry/pkg/metrics"
	"github.com/certen/cert-registry/pkg/readmodel"
	"github.com/certen/cert-registry/pkg/registry"
)

// standardCache holds the latest-version view for each standard the
// cache warmer has precomputed, keyed by standard_id.
type standardCache struct {
	mu    sync.RWMutex
	items map[string]*registry.Standard
}

func newStandardCache() *standardCache {
	return &standardCache{items: make(map[string]*registry.Standard)}
}

func (c *standardCache) set(id string, std *registry.Standard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[id] = std
}

func (c *standardCache) get(id string) (*registry.Standard, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	std, ok := c.items[id]
	return std, ok
}

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Println("[cert-indexer] starting block indexer")

	configFile := flag.String("config", "", "Optional YAML file overlaying environment configuration")
	showHelp := flag.Bool("help", false, "Show help message")
	flag.Parse()
	if *showHelp {
		flag.Usage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[cert-indexer] failed to load configuration: %v", err)
	}
	if err := cfg.ApplyFile(*configFile); err != nil {
		log.Fatalf("[cert-indexer] failed to apply config file: %v", err)
	}
	if err := cfg.ValidateIndexer(); err != nil {
		log.Fatalf("[cert-indexer] invalid configuration: %v", err)
	}

	dbClient, err := database.NewClient(cfg, database.WithLogger(
		log.New(log.Writer(), "[database] ", log.LstdFlags),
	))
	if err != nil {
		log.Fatalf("[cert-indexer] failed to connect to database: %v", err)
	}
	defer dbClient.Close()

	if err := dbClient.MigrateUp(context.Background()); err != nil {
		log.Fatalf("[cert-indexer] failed to apply migrations: %v", err)
	}
	log.Println("[cert-indexer] migrations applied")

	repos := database.NewRepositories(dbClient)
	m := metrics.New()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		log.Fatalf("[cert-indexer] failed to register metrics: %v", err)
	}

	cache := newStandardCache()
	ix := indexer.New(dbClient, repos, m, log.New(log.Writer(), "[indexer] ", log.LstdFlags)).
		WithCacheWarmer(func(ctx context.Context, standardID string) error {
			std, err := repos.Standards.GetLive(ctx, standardID)
			if err != nil {
				return err
			}
			cache.set(standardID, std)
			return nil
		}, 4)
	queries := readmodel.New(dbClient, repos)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := dbClient.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "error", "database": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/head", func(w http.ResponseWriter, r *http.Request) {
		head, err := queries.HeadBlockNum(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		json.NewEncoder(w).Encode(map[string]int64{"head_block_num": head})
	})
	// /standards/cached serves the warmed latest-version view built by
	// the indexer's cache warmer after each block commit, avoiding a
	// database round trip for standards recently touched by a block.
	mux.HandleFunc("/standards/cached", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "missing id query parameter"})
			return
		}
		std, ok := cache.get(id)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "not warmed yet"})
			return
		}
		json.NewEncoder(w).Encode(std)
	})
	// /blocks accepts one committed Block per call. A real chain transport
	// would call ix.ApplyBlock directly instead of going through HTTP;
	// this endpoint stands in for that transport so the indexer is fully
	// wired and reachable end to end.
	mux.HandleFunc("/blocks", func(w http.ResponseWriter, r *http.Request) {
		var b indexer.Block
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "malformed block body"})
			return
		}
		if err := ix.ApplyBlock(r.Context(), b); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "applied"})
	})

	httpServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		log.Printf("[cert-indexer] listening on %s", cfg.MetricsAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[cert-indexer] http server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[cert-indexer] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[cert-indexer] shutdown error: %v", err)
	}
	log.Println("[cert-indexer] stopped")
}
