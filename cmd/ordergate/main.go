package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/synklabs/ordergate/internal/audit"
	"github.com/synklabs/ordergate/internal/config"
	"github.com/synklabs/ordergate/internal/consensus"
	"github.com/synklabs/ordergate/internal/narrator"
	"github.com/synklabs/ordergate/internal/negotiate"
	"github.com/synklabs/ordergate/internal/policy"
	"github.com/synklabs/ordergate/internal/server"
)

// #region main

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	addr := flag.String("addr", "", "listen address override")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	store, err := policy.Load(cfg.CatalogDir)
	if err != nil {
		log.Fatalf("load catalogs from %s: %v", cfg.CatalogDir, err)
	}

	auditStore, err := audit.NewStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open audit store: %v", err)
	}
	defer auditStore.Close()

	var narr narrator.Narrator = narrator.Template{}
	if cfg.Narrator == "noop" {
		narr = narrator.Noop{}
	}

	engine := negotiate.NewEngine(store, negotiate.Options{
		Consensus: consensus.Config{MinAverageConfidence: cfg.Consensus.MinAverageConfidence},
		Narrator:  narr,
		Recorder:  auditStore,
	})

	srv := server.New(engine, server.Options{
		Audit:       auditStore,
		StreamDelay: time.Duration(cfg.Server.StreamDelayMS) * time.Millisecond,
	})

	fmt.Printf("ordergate listening on %s\n", cfg.Server.Addr)
	fmt.Printf("  catalogs: %s | db: %s | narrator: %s\n", cfg.CatalogDir, cfg.Database.Path, cfg.Narrator)
	if err := http.ListenAndServe(cfg.Server.Addr, srv.Handler()); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// #endregion main
