package test_seeder

import (
	"context"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
)

// SelectRecordsBySerialIDs lê direto da tabela, sem passar pelos repositórios.
func (ts TestSeeder) SelectRecordsBySerialIDs(ctx context.Context, scope domain.Scope, serialIDs []string) ([]entities.Record, error) {
	query := `SELECT id, account_id, kind, serial_id, parent_serial_id, name, type_name, properties, created_at, updated_at
			  FROM hierarchy_records
			  WHERE account_id = $1 AND kind = $2 AND serial_id = ANY($3)
			  ORDER BY id`

	rows, err := ts.pool.Query(ctx, query, scope.AccountID, string(scope.Kind), serialIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []entities.Record
	for rows.Next() {
		var record entities.Record
		var kind string
		err := rows.Scan(
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
			return nil, err
		}
		record.Kind = entities.Kind(kind)
		records = append(records, record)
	}

	return records, rows.Err()
}
