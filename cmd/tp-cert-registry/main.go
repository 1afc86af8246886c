// Command tp-cert-registry runs the certificate-registry transaction
// processor host: it opens the local state store, exposes a health
// endpoint, and applies one action per call to pkg/processor.Apply.
//
// The validator transport (how a signed action arrives from the
// blockchain layer) is out of scope here; ApplyLocal below is the
// indicative entry point a real transport would drive.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/certen/cert-registry/pkg/chainkv"
	"github.com/certen/cert-registry/pkg/config"
	"github.com/certen/cert-registry/pkg/metrics"
	"github.com/certen/cert-registry/pkg/processor"
	"github.com/certen/cert-registry/pkg/state"
	"github.com/certen/cert-registry/pkg/txerrors"
	"github.com/certen/cert-registry/pkg/validator"
)

// ApplyLocal validates and applies one action against s, as signer. It
// is the single entry point a validator transport integration calls.
func ApplyLocal(p *validator.Payload, signer string, s *state.Store) error {
	if err := validator.Validate(p); err != nil {
		return err
	}
	return processor.Apply(p, signer, s)
}

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Println("[tp-cert-registry] starting transaction processor")

	dataDir := flag.String("data-dir", "./data", "Directory for the local state database")
	configFile := flag.String("config", "", "Optional YAML file overlaying environment configuration")
	showHelp := flag.Bool("help", false, "Show help message")
	flag.Parse()
	if *showHelp {
		flag.Usage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[tp-cert-registry] failed to load configuration: %v", err)
	}
	if err := cfg.ApplyFile(*configFile); err != nil {
		log.Fatalf("[tp-cert-registry] failed to apply config file: %v", err)
	}
	if err := cfg.ValidateProcessor(); err != nil {
		log.Fatalf("[tp-cert-registry] invalid configuration: %v", err)
	}

	if err := os.MkdirAll(*dataDir, 0700); err != nil {
		log.Fatalf("[tp-cert-registry] failed to create data directory: %v", err)
	}
	db, err := dbm.NewGoLevelDB("cert-registry-state", *dataDir)
	if err != nil {
		log.Fatalf("[tp-cert-registry] failed to open state database: %v", err)
	}
	defer db.Close()

	store := state.New(chainkv.NewAdapter(db))
	log.Printf("[tp-cert-registry] state database opened at %s", filepath.Join(*dataDir, "cert-registry-state.db"))

	m := metrics.New()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		log.Fatalf("[tp-cert-registry] failed to register metrics: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/apply", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Signer  string           `json:"signer"`
			Payload *validator.Payload `json:"payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "malformed request body"})
			return
		}
		if err := ApplyLocal(req.Payload, req.Signer, store); err != nil {
			var txErr *txerrors.Error
			kind := "Unknown"
			if errors.As(err, &txErr) {
				kind = txErr.Kind.String()
			}
			m.TransactionsRejected.WithLabelValues(kind).Inc()

			status := http.StatusInternalServerError
			if txerrors.IsInvalid(err) {
				status = http.StatusBadRequest
			}
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		m.TransactionsOK.Inc()
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "applied"})
	})

	httpServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		log.Printf("[tp-cert-registry] listening on %s", cfg.MetricsAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[tp-cert-registry] http server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[tp-cert-registry] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[tp-cert-registry] shutdown error: %v", err)
	}
	log.Println("[tp-cert-registry] stopped")
}
