package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"zklite-ledger/internal/ingestion"
	"zklite-ledger/internal/observability"
	"zklite-ledger/internal/storage"
	"zklite-ledger/internal/storage/memory"
	"zklite-ledger/internal/storage/migrations"
	pgstore "zklite-ledger/internal/storage/postgres"
	"zklite-ledger/internal/zklite"
)

func main() {
	network := flag.String("network", "mainnet", "Settlement network ID (mainnet, goerli)")
	apiURL := flag.String("api-url", "", "Override the network's REST API root")
	feedURL := flag.String("feed-url", "", "Override the network's websocket feed endpoint")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	addressesFlag := flag.String("addresses", "", "Comma-separated addresses to ingest")
	fromTime := flag.String("from-time", "", "Window start (RFC3339, default epoch)")
	toTime := flag.String("to-time", "", "Window end (RFC3339, default now)")
	pageSize := flag.Int("page-size", ingestion.DefaultPageSize, "Remote page size")
	live := flag.Bool("live", false, "Keep ingesting from the websocket feed after the window fetch")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	addresses := splitList(*addressesFlag)
	if len(addresses) == 0 {
		logger.Fatal("no addresses given: use -addresses")
	}

	params, err := zklite.LookupNetwork(*network)
	if err != nil {
		logger.Fatalf("resolve network: %v", err)
	}
	if *apiURL != "" {
		params.BaseURL = *apiURL
	}
	if *feedURL != "" {
		params.FeedURL = *feedURL
	}

	startTS, endTS, err := parseWindow(*fromTime, *toTime)
	if err != nil {
		logger.Fatalf("parse window: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Printf("metrics server: %v", err)
			}
		}()
	}

	var store storage.TransactionStore
	switch {
	case *useMemory:
		store = memory.NewTransactionStore()
		logger.Println("using in-memory storage")
	case *postgresDSN != "":
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("run migrations: %v", err)
		}
		store = pgstore.NewTransactionStore(pool)
	default:
		logger.Fatal("no storage configured: use -postgres-dsn or -use-memory")
	}

	normalizer := ingestion.NewNormalizer(ingestion.DefaultAssetRegistry())
	fetcher := ingestion.NewFetcher(ingestion.FetcherOptions{
		Source:     zklite.NewHTTPClient(params.BaseURL),
		Normalizer: normalizer,
		Store:      store,
		PageSize:   *pageSize,
		Logger:     logger,
	})

	// Independent addresses have disjoint records; the store's idempotent
	// upsert is the only shared-mutation point, so windows fetch in parallel.
	var wg sync.WaitGroup
	errs := make(chan error, len(addresses))
	for _, address := range addresses {
		wg.Add(1)
		go func(address string) {
			defer wg.Done()
			if err := fetcher.FetchTransactions(ctx, address, startTS, endTS); err != nil {
				errs <- err
			}
		}(address)
	}
	wg.Wait()
	close(errs)

	failed := false
	for err := range errs {
		failed = true
		logger.Printf("window fetch: %v", err)
	}
	if failed {
		os.Exit(1)
	}
	logger.Printf("window fetch complete for %d address(es)", len(addresses))

	if !*live {
		return
	}

	feed, err := zklite.NewWSFeed(ctx, params.FeedURL, nil)
	if err != nil {
		logger.Fatalf("connect feed: %v", err)
	}
	defer feed.Close()

	runner := ingestion.NewLiveRunner(ingestion.LiveRunnerOptions{
		Feed:       feed,
		Normalizer: normalizer,
		Store:      store,
		Logger:     logger,
	})

	for _, address := range addresses {
		wg.Add(1)
		go func(address string) {
			defer wg.Done()
			if err := runner.Run(ctx, address); err != nil && ctx.Err() == nil {
				logger.Printf("live ingestion for %s: %v", address, err)
			}
		}(address)
	}

	logger.Println("live ingestion running, ctrl-c to stop")
	wg.Wait()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseWindow(fromTime, toTime string) (int64, int64, error) {
	startTS := int64(0)
	endTS := time.Now().Unix()
	if fromTime != "" {
		t, err := time.Parse(time.RFC3339, fromTime)
		if err != nil {
			return 0, 0, err
		}
		startTS = t.Unix()
	}
	if toTime != "" {
		t, err := time.Parse(time.RFC3339, toTime)
		if err != nil {
			return 0, 0, err
		}
		endTS = t.Unix()
	}
	return startTS, endTS, nil
}
