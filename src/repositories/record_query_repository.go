package repositories

import (
	"context"
	"fmt"
	"strings"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
	"backoffice/src/infra/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const recordColumns = `id, account_id, kind, serial_id, parent_serial_id, name, type_name, properties, created_at, updated_at`

type RecordQueryRepository struct {
	db *pgxpool.Pool
}

func NewRecordQueryRepository(pool *pgxpool.Pool) *RecordQueryRepository {
	return &RecordQueryRepository{db: pool}
}

// ListRecords carrega todos os registros do escopo. A ordem não importa: a montagem da árvore ordena.
func (r *RecordQueryRepository) ListRecords(ctx context.Context, scope domain.Scope, filters ...domain.PropertyFilter) ([]entities.Record, error) {
	var query strings.Builder
	fmt.Fprintf(&query, `SELECT %s FROM hierarchy_records WHERE account_id = $1 AND kind = $2`, recordColumns)

	args := []interface{}{scope.AccountID, string(scope.Kind)}
	for _, filter := range filters {
		payload, err := postgres.BuildSearchJSON(filter.Path, filter.Value)
		if err != nil {
			return nil, fmt.Errorf("RecordQueryRepository.ListRecords - invalid filter %s: %w", filter.Path, err)
		}
		args = append(args, payload)
		fmt.Fprintf(&query, ` AND properties @> $%d::jsonb`, len(args))
	}
	query.WriteString(` ORDER BY id`)

	rows, err := r.db.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("RecordQueryRepository.ListRecords - failed to query records: %w", err)
	}
	defer rows.Close()

	records := make([]entities.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("RecordQueryRepository.ListRecords - failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("RecordQueryRepository.ListRecords - rows error: %w", err)
	}

	return records, nil
}

func (r *RecordQueryRepository) GetRecordBySerialID(ctx context.Context, scope domain.Scope, serialID string) (entities.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM hierarchy_records WHERE account_id = $1 AND kind = $2 AND serial_id = $3`, recordColumns)

	record, err := scanRecord(r.db.QueryRow(ctx, query, scope.AccountID, string(scope.Kind), serialID))
	if postgres.IsNoRows(err) {
		return entities.Record{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return entities.Record{}, fmt.Errorf("RecordQueryRepository.GetRecordBySerialID - failed to query record: %w", err)
	}

	return record, nil
}

func scanRecord(row pgx.Row) (entities.Record, error) {
	var record entities.Record
	var kind string

	err := row.Scan(
		&record.ID,
		&record.AccountID,
		&kind,
		&record.SerialID,
		&record.ParentSerialID,
		&record.Name,
		&record.TypeName,
		&record.Properties,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return entities.Record{}, err
	}

	record.Kind = entities.Kind(kind)
	return record, nil
}
