package test_seeder

import (
	"context"
	"fmt"

	"backoffice/src/domain/entities"
	"backoffice/src/infra/postgres"
)

// InsertRecord grava o registro como veio do stub e devolve com o id gerado pelo banco.
func (ts TestSeeder) InsertRecord(ctx context.Context, record entities.Record) entities.Record {
	query := `
		INSERT INTO hierarchy_records (account_id, kind, serial_id, parent_serial_id, name, type_name, properties, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`

	err := ts.pool.QueryRow(ctx, query,
		record.AccountID,
		string(record.Kind),
		record.SerialID,
		postgres.NewNullString(record.ParentSerialID),
		record.Name,
		record.TypeName,
		postgres.NewJSONB(record.Properties),
		record.CreatedAt,
		record.UpdatedAt,
	).Scan(&record.ID)

	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertRecord failed: %v", err))
	}
	return record
}

// InsertRecords grava na ordem recebida, pais antes dos filhos.
func (ts TestSeeder) InsertRecords(ctx context.Context, records ...entities.Record) []entities.Record {
	inserted := make([]entities.Record, 0, len(records))
	for _, record := range records {
		inserted = append(inserted, ts.InsertRecord(ctx, record))
	}
	return inserted
}
