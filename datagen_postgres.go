//go:build datagen_postgres

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"backoffice/src/domain/entities"
	"backoffice/src/helper/env"
	"backoffice/src/infra/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DataBundle é a hierarquia completa de um tenant: departamentos e plano de contas.
type DataBundle struct {
	AccountID   int64
	Departments []entities.Record
	Accounts    []entities.Record
}

func newSQLClient() (*pgxpool.Pool, error) {
	return postgres.NewPostgresClient(postgres.Config{
		Host:            env.MustGetString("DB_WRITE_HOST"),
		Port:            env.GetString("DB_WRITE_PORT", "5432"),
		Database:        env.MustGetString("DB_NAME"),
		User:            env.MustGetString("DB_USER"),
		Password:        env.MustGetString("DB_PASSWORD"),
		MaxConnections:  50,
		ApplicationName: "hierarchy-datagen",
	})
}

func main() {
	numAccounts := flag.Int("accounts", 100, "Número de tenants a serem criados. Use -1 para infinito.")
	firstAccountID := flag.Int64("first-account-id", 1, "account_id do primeiro tenant")
	depth := flag.Int("depth", 4, "Profundidade máxima das árvores")
	fanout := flag.Int("fanout", 4, "Máximo de filhos por nó")
	bulkSize := flag.Int("bulk-size", 50, "Tenants por transação")
	numConsumers := flag.Int("consumers", 8, "Goroutines gravando no Postgres")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := newSQLClient()
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	dataChan := make(chan DataBundle, (*bulkSize)*(*numConsumers))

	var wg sync.WaitGroup
	var totalRecords, totalErrors int64
	startTime := time.Now()

	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				records := atomic.LoadInt64(&totalRecords)
				elapsed := time.Since(startTime)
				fmt.Printf("📊 Records: %d | Errors: %d | Rate: %.1f/s | Elapsed: %v\n",
					records, atomic.LoadInt64(&totalErrors), float64(records)/elapsed.Seconds(), elapsed.Round(time.Second))
			}
		}
	}()

	for i := 0; i < *numConsumers; i++ {
		wg.Add(1)
		go consumer(ctx, &wg, db, dataChan, *bulkSize, i+1, &totalRecords, &totalErrors)
	}

	wg.Add(1)
	go producer(ctx, &wg, dataChan, *numAccounts, *firstAccountID, treeShape{Depth: *depth, Fanout: *fanout})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n🛑 Shutdown signal received, stopping...")
		cancel()
	}()

	wg.Wait()

	elapsed := time.Since(startTime)
	records := atomic.LoadInt64(&totalRecords)

	fmt.Printf("\n🏁 Seeding finished!\n")
	fmt.Printf("📊 Total records: %d\n", records)
	fmt.Printf("❌ Total errors: %d\n", atomic.LoadInt64(&totalErrors))
	fmt.Printf("⏱️  Total time: %v\n", elapsed.Round(time.Second))
	fmt.Printf("🚀 Average rate: %.1f records/s\n", float64(records)/elapsed.Seconds())
}

func producer(ctx context.Context, wg *sync.WaitGroup, dataChan chan<- DataBundle, numAccounts int, firstAccountID int64, shape treeShape) {
	defer wg.Done()
	defer close(dataChan)

	isInfinite := numAccounts == -1
	for i := 0; isInfinite || i < numAccounts; i++ {
		accountID := firstAccountID + int64(i)
		bundle := DataBundle{
			AccountID:   accountID,
			Departments: generateDepartments(accountID, shape),
			Accounts:    generateChartOfAccounts(accountID, shape),
		}

		select {
		case dataChan <- bundle:
			if (i+1)%100 == 0 {
				fmt.Printf("Generated %d tenants\n", i+1)
			}
		case <-ctx.Done():
			fmt.Println("Producer stopping.")
			return
		}
	}
}

func consumer(ctx context.Context, wg *sync.WaitGroup, db *pgxpool.Pool, dataChan <-chan DataBundle, bulkSize, consumerID int, totalRecords, totalErrors *int64) {
	defer wg.Done()
	log.Printf("🚀 Consumer %d started", consumerID)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	bundles := make([]DataBundle, 0, bulkSize)

	flush := func(reason string) {
		if len(bundles) == 0 {
			return
		}
		inserted, err := bulkInsert(ctx, db, bundles)
		if err != nil {
			log.Printf("❌ Consumer %d: ERROR on %s: %v", consumerID, reason, err)
			atomic.AddInt64(totalErrors, 1)
		} else {
			atomic.AddInt64(totalRecords, inserted)
		}
		bundles = make([]DataBundle, 0, bulkSize)
	}

	for {
		select {
		case b, ok := <-dataChan:
			if !ok {
				flush("final flush")
				log.Printf("✅ Consumer %d stopping.", consumerID)
				return
			}

			bundles = append(bundles, b)
			if len(bundles) >= bulkSize {
				flush("bulk insert")
			}

		case <-ticker.C:
			flush("ticker flush")

		case <-ctx.Done():
			log.Printf("🛑 Consumer %d received stop signal.", consumerID)
			return
		}
	}
}

// bulkInsert grava os tenants com COPY; tenants já existentes são apagados antes.
func bulkInsert(ctx context.Context, db *pgxpool.Pool, bundles []DataBundle) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	tx, err := db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	accountIDs := make([]int64, 0, len(bundles))
	var rows [][]any
	for _, b := range bundles {
		accountIDs = append(accountIDs, b.AccountID)
		for _, records := range [][]entities.Record{b.Departments, b.Accounts} {
			for _, r := range records {
				rows = append(rows, []any{
					r.AccountID, string(r.Kind), r.SerialID, postgres.NewNullString(r.ParentSerialID),
					r.Name, r.TypeName, postgres.NewJSONB(r.Properties),
				})
			}
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM hierarchy_records WHERE account_id = ANY($1)`, accountIDs); err != nil {
		return 0, fmt.Errorf("failed to clear tenants: %w", err)
	}

	copied, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"hierarchy_records"},
		[]string{"account_id", "kind", "serial_id", "parent_serial_id", "name", "type_name", "properties"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return copied, nil
}
