package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"zklite-ledger/internal/domain"
	"zklite-ledger/internal/pricing"
	"zklite-ledger/internal/replay"
	"zklite-ledger/internal/storage"
	chstore "zklite-ledger/internal/storage/clickhouse"
	"zklite-ledger/internal/storage/migrations"
	pgstore "zklite-ledger/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	addressesFlag := flag.String("addresses", "", "Comma-separated addresses to evaluate")
	pricesFlag := flag.String("prices", "", "Static price table, e.g. ETH=3500,DAI=1 (assets without a price render unpriced)")
	archive := flag.String("archive", "", "Archive the run's snapshots: postgres or clickhouse")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for -archive=clickhouse")

	flag.Parse()

	logger := log.New(os.Stdout, "[balances] ", log.LstdFlags)

	addresses := parseList(*addressesFlag)
	if len(addresses) == 0 {
		logger.Fatal("no addresses given: use -addresses")
	}
	if *postgresDSN == "" {
		logger.Fatal("no storage configured: use -postgres-dsn")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	prices, err := pricing.ParseStatic(parsePairs(*pricesFlag))
	if err != nil {
		logger.Fatalf("parse prices: %v", err)
	}

	store := pgstore.NewTransactionStore(pool)
	engine := replay.NewEngine(replay.EngineOptions{
		Store:  store,
		Prices: prices,
		Logger: logger,
	})

	runAt := time.Now().Unix()
	balances, err := engine.ComputeBalances(ctx, addresses)
	if err != nil {
		logger.Fatalf("compute balances: %v", err)
	}

	ledger, err := store.GetAll(ctx)
	if err != nil {
		logger.Fatalf("read ledger: %v", err)
	}
	logger.Printf("replayed %d records, ledger checksum %s", len(ledger), replay.LedgerChecksum(ledger))

	printBalances(addresses, balances)

	if *archive == "" {
		return
	}

	var snapshotStore storage.BalanceSnapshotStore
	switch *archive {
	case "postgres":
		snapshotStore = pgstore.NewSnapshotStore(pool)
	case "clickhouse":
		if *clickhouseDSN == "" {
			logger.Fatal("-archive=clickhouse needs -clickhouse-dsn")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("prepare clickhouse: %v", err)
		}
		defer conn.Close()
		snapshotStore = chstore.NewSnapshotStore(conn)
	default:
		logger.Fatalf("unknown archive backend %q", *archive)
	}

	snaps := replay.Snapshot(runAt, balances)
	if err := snapshotStore.InsertBulk(ctx, snaps); err != nil {
		logger.Fatalf("archive snapshots: %v", err)
	}
	logger.Printf("archived %d snapshot(s) to %s", len(snaps), *archive)
}

func printBalances(addresses []string, balances map[string]map[string]domain.Balance) {
	for _, address := range addresses {
		assets := balances[address]
		fmt.Printf("%s\n", address)
		if len(assets) == 0 {
			fmt.Println("  (no holdings)")
			continue
		}

		names := make([]string, 0, len(assets))
		for asset := range assets {
			names = append(names, asset)
		}
		sort.Strings(names)

		for _, asset := range names {
			bal := assets[asset]
			if value := bal.Value(); value != nil {
				fmt.Printf("  %-8s %s (%s USD)\n", asset, bal.Quantity.String(), value.String())
			} else {
				fmt.Printf("  %-8s %s (unpriced)\n", asset, bal.Quantity.String())
			}
		}
	}
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parsePairs(s string) map[string]string {
	pairs := make(map[string]string)
	for _, part := range parseList(s) {
		if asset, price, ok := strings.Cut(part, "="); ok {
			pairs[asset] = price
		}
	}
	return pairs
}
