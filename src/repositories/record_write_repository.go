package repositories

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"backoffice/src/domain"
	"backoffice/src/domain/entities"
	"backoffice/src/infra/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type scopeInvalidator interface {
	InvalidateScopes(ctx context.Context, scopes []domain.Scope) error
}

type RecordWriteRepository struct {
	writePool   *pgxpool.Pool
	primary     *RecordQueryRepository
	invalidator scopeInvalidator
	logger      *slog.Logger
}

func NewRecordWriteRepository(writePool *pgxpool.Pool, invalidator scopeInvalidator, logger *slog.Logger) *RecordWriteRepository {
	return &RecordWriteRepository{
		writePool:   writePool,
		primary:     NewRecordQueryRepository(writePool),
		invalidator: invalidator,
		logger:      logger,
	}
}

// ListRecords lê direto do primário, sem cache. Usado pelas validações de escrita.
func (r *RecordWriteRepository) ListRecords(ctx context.Context, scope domain.Scope, filters ...domain.PropertyFilter) ([]entities.Record, error) {
	return r.primary.ListRecords(ctx, scope, filters...)
}

func (r *RecordWriteRepository) InsertRecord(ctx context.Context, input domain.RecordInput) (entities.Record, error) {
	tx, err := r.writePool.Begin(ctx)
	if err != nil {
		return entities.Record{}, fmt.Errorf("RecordWriteRepository.InsertRecord - failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockScopes(ctx, tx, input.Scope); err != nil {
		return entities.Record{}, fmt.Errorf("RecordWriteRepository.InsertRecord - %w", err)
	}

	if input.ParentSerialID != nil {
		exists, err := recordExists(ctx, tx, input.Scope, *input.ParentSerialID)
		if err != nil {
			return entities.Record{}, fmt.Errorf("RecordWriteRepository.InsertRecord - %w", err)
		}
		if !exists {
			return entities.Record{}, domain.ErrParentNotFound
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO hierarchy_records (account_id, kind, serial_id, parent_serial_id, name, type_name, properties)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, recordColumns)

	record, err := scanRecord(tx.QueryRow(ctx, query,
		input.AccountID,
		string(input.Kind),
		input.SerialID,
		postgres.NewNullString(input.ParentSerialID),
		input.Name,
		input.TypeName,
		postgres.NewJSONB(input.Properties),
	))
	if postgres.IsUniqueViolation(err) {
		return entities.Record{}, domain.ErrDuplicateSerialID
	}
	if err != nil {
		return entities.Record{}, fmt.Errorf("RecordWriteRepository.InsertRecord - failed to insert record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return entities.Record{}, fmt.Errorf("RecordWriteRepository.InsertRecord - failed to commit: %w", err)
	}

	r.invalidate(input.Scope)
	return record, nil
}

// UpdateRecord atualiza o registro e, se o serial mudou, repassa o novo serial para os filhos na mesma transação.
// O novo pai é conferido dentro da transação: não pode ser o próprio registro nem um descendente.
func (r *RecordWriteRepository) UpdateRecord(ctx context.Context, originalSerialID string, input domain.RecordInput) (entities.Record, error) {
	tx, err := r.writePool.Begin(ctx)
	if err != nil {
		return entities.Record{}, fmt.Errorf("RecordWriteRepository.UpdateRecord - failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockScopes(ctx, tx, input.Scope); err != nil {
		return entities.Record{}, fmt.Errorf("RecordWriteRepository.UpdateRecord - %w", err)
	}

	if input.ParentSerialID != nil {
		if err := checkNewParent(ctx, tx, input.Scope, originalSerialID, *input.ParentSerialID); err != nil {
			return entities.Record{}, err
		}
	}

	query := fmt.Sprintf(`
		UPDATE hierarchy_records SET
			serial_id = $4,
			parent_serial_id = $5,
			name = $6,
			type_name = $7,
			properties = $8,
			updated_at = NOW()
		WHERE account_id = $1 AND kind = $2 AND serial_id = $3
		RETURNING %s`, recordColumns)

	record, err := scanRecord(tx.QueryRow(ctx, query,
		input.AccountID,
		string(input.Kind),
		originalSerialID,
		input.SerialID,
		postgres.NewNullString(input.ParentSerialID),
		input.Name,
		input.TypeName,
		postgres.NewJSONB(input.Properties),
	))
	if postgres.IsNoRows(err) {
		return entities.Record{}, domain.ErrRecordNotFound
	}
	if postgres.IsUniqueViolation(err) {
		return entities.Record{}, domain.ErrDuplicateSerialID
	}
	if err != nil {
		return entities.Record{}, fmt.Errorf("RecordWriteRepository.UpdateRecord - failed to update record: %w", err)
	}

	if input.SerialID != originalSerialID {
		_, err = tx.Exec(ctx, `
			UPDATE hierarchy_records SET parent_serial_id = $4, updated_at = NOW()
			WHERE account_id = $1 AND kind = $2 AND parent_serial_id = $3`,
			input.AccountID, string(input.Kind), originalSerialID, input.SerialID,
		)
		if err != nil {
			return entities.Record{}, fmt.Errorf("RecordWriteRepository.UpdateRecord - failed to re-point children: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return entities.Record{}, fmt.Errorf("RecordWriteRepository.UpdateRecord - failed to commit: %w", err)
	}

	r.invalidate(input.Scope)
	return record, nil
}

// DeleteRecord só remove folhas.
func (r *RecordWriteRepository) DeleteRecord(ctx context.Context, scope domain.Scope, serialID string) error {
	tx, err := r.writePool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("RecordWriteRepository.DeleteRecord - failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockScopes(ctx, tx, scope); err != nil {
		return fmt.Errorf("RecordWriteRepository.DeleteRecord - %w", err)
	}

	var hasChildren bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM hierarchy_records
			WHERE account_id = $1 AND kind = $2 AND parent_serial_id = $3 AND serial_id <> $3
		)`,
		scope.AccountID, string(scope.Kind), serialID,
	).Scan(&hasChildren)
	if err != nil {
		return fmt.Errorf("RecordWriteRepository.DeleteRecord - failed to check children: %w", err)
	}
	if hasChildren {
		return domain.ErrRecordHasChildren
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM hierarchy_records WHERE account_id = $1 AND kind = $2 AND serial_id = $3`,
		scope.AccountID, string(scope.Kind), serialID,
	)
	if err != nil {
		return fmt.Errorf("RecordWriteRepository.DeleteRecord - failed to delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("RecordWriteRepository.DeleteRecord - failed to commit: %w", err)
	}

	r.invalidate(scope)
	return nil
}

// SyncRecords aplica um lote da ingestão: upsert dos registros e remoção dos marcados como deleted.
// Quando o mesmo serial aparece mais de uma vez no lote, vale a última ocorrência.
func (r *RecordWriteRepository) SyncRecords(ctx context.Context, request domain.SyncRecordsRequest) error {
	if len(request.Records) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(request.Records))
	for i, record := range request.Records {
		properties := record.Properties
		if len(properties) == 0 {
			properties = nil
		}
		rows = append(rows, []interface{}{
			i, record.AccountID, string(record.Kind), record.SerialID, record.ParentSerialID,
			record.Name, record.TypeName, properties, record.Deleted,
		})
	}

	tx, err := r.writePool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("RecordWriteRepository.SyncRecords - failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockScopes(ctx, tx, batchScopes(request)...); err != nil {
		return fmt.Errorf("RecordWriteRepository.SyncRecords - %w", err)
	}

	_, err = tx.Exec(ctx, `CREATE TEMP TABLE temp_sync_records (
		ordinal INT, account_id BIGINT, kind TEXT, serial_id TEXT, parent_serial_id TEXT,
		name TEXT, type_name TEXT, properties JSONB, deleted BOOLEAN
	) ON COMMIT DROP;`)
	if err != nil {
		return fmt.Errorf("RecordWriteRepository.SyncRecords - failed to create temp table: %w", err)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"temp_sync_records"},
		[]string{"ordinal", "account_id", "kind", "serial_id", "parent_serial_id", "name", "type_name", "properties", "deleted"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("RecordWriteRepository.SyncRecords - failed to copy records to temp table: %w", err)
	}

	query := `
		WITH
		-- CTE 1: última ocorrência de cada serial no lote
		latest AS (
			SELECT DISTINCT ON (account_id, kind, serial_id) *
			FROM temp_sync_records
			ORDER BY account_id, kind, serial_id, ordinal DESC
		),
		-- CTE 2: remoções
		deleted_records AS (
			DELETE FROM hierarchy_records hr
			USING latest l
			WHERE l.deleted
				AND hr.account_id = l.account_id
				AND hr.kind = l.kind
				AND hr.serial_id = l.serial_id
			RETURNING hr.account_id, hr.kind
		),
		-- CTE 3: upsert. A ingestão envia só as properties que conhece, então elas são mescladas
		-- com as gravadas. O cadastro (UpdateRecord) envia o formulário inteiro e substitui.
		upserted_records AS (
			INSERT INTO hierarchy_records (account_id, kind, serial_id, parent_serial_id, name, type_name, properties)
			SELECT account_id, kind, serial_id, NULLIF(parent_serial_id, ''), name, COALESCE(type_name, ''), COALESCE(properties, '{}'::jsonb)
			FROM latest
			WHERE NOT deleted
			ON CONFLICT (account_id, kind, serial_id) DO UPDATE SET
				parent_serial_id = excluded.parent_serial_id,
				name = excluded.name,
				type_name = excluded.type_name,
				properties = hierarchy_records.properties || excluded.properties,
				updated_at = NOW()
			WHERE
				(hierarchy_records.parent_serial_id, hierarchy_records.name, hierarchy_records.type_name, hierarchy_records.properties)
				IS DISTINCT FROM
				(excluded.parent_serial_id, excluded.name, excluded.type_name, hierarchy_records.properties || excluded.properties)
			RETURNING account_id, kind
		)
		SELECT DISTINCT account_id, kind FROM (
			SELECT account_id, kind FROM deleted_records
			UNION ALL
			SELECT account_id, kind FROM upserted_records
		) changed;
	`

	changedRows, err := tx.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("RecordWriteRepository.SyncRecords - failed to execute sync query: %w", err)
	}

	var scopes []domain.Scope
	for changedRows.Next() {
		var scope domain.Scope
		var kind string
		if err := changedRows.Scan(&scope.AccountID, &kind); err != nil {
			changedRows.Close()
			return fmt.Errorf("RecordWriteRepository.SyncRecords - failed to scan scope: %w", err)
		}
		scope.Kind = entities.Kind(kind)
		scopes = append(scopes, scope)
	}
	changedRows.Close()
	if err := changedRows.Err(); err != nil {
		return fmt.Errorf("RecordWriteRepository.SyncRecords - rows error: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("RecordWriteRepository.SyncRecords - failed to commit: %w", err)
	}

	r.invalidate(scopes...)
	return nil
}

// lockScopes serializa as escritas de cada escopo até o fim da transação.
// Os escopos chegam ordenados para que dois lotes não travem um ao outro.
func lockScopes(ctx context.Context, tx pgx.Tx, scopes ...domain.Scope) error {
	for _, scope := range scopes {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, scopeLockKey(scope)); err != nil {
			return fmt.Errorf("failed to lock scope %s: %w", scopeLockKey(scope), err)
		}
	}
	return nil
}

func scopeLockKey(scope domain.Scope) string {
	return fmt.Sprintf("hierarchy_records:%d:%s", scope.AccountID, scope.Kind)
}

func batchScopes(request domain.SyncRecordsRequest) []domain.Scope {
	scopes := make([]domain.Scope, 0, 1)
	for _, record := range request.Records {
		if !slices.Contains(scopes, record.Scope()) {
			scopes = append(scopes, record.Scope())
		}
	}

	slices.SortFunc(scopes, func(a, b domain.Scope) int {
		if c := cmp.Compare(a.AccountID, b.AccountID); c != 0 {
			return c
		}
		return strings.Compare(string(a.Kind), string(b.Kind))
	})
	return scopes
}

func recordExists(ctx context.Context, tx pgx.Tx, scope domain.Scope, serialID string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM hierarchy_records WHERE account_id = $1 AND kind = $2 AND serial_id = $3)`,
		scope.AccountID, string(scope.Kind), serialID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check record %s: %w", serialID, err)
	}
	return exists, nil
}

// checkNewParent percorre a subárvore de serialID no primário. UNION (sem ALL) para
// terminar mesmo que o banco já tenha um ciclo.
func checkNewParent(ctx context.Context, tx pgx.Tx, scope domain.Scope, serialID string, parentSerialID string) error {
	exists, err := recordExists(ctx, tx, scope, parentSerialID)
	if err != nil {
		return fmt.Errorf("RecordWriteRepository.UpdateRecord - %w", err)
	}
	if !exists {
		return domain.ErrParentNotFound
	}

	var insideSubtree bool
	err = tx.QueryRow(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT serial_id FROM hierarchy_records
			WHERE account_id = $1 AND kind = $2 AND serial_id = $3
			UNION
			SELECT hr.serial_id FROM hierarchy_records hr
			JOIN subtree s ON hr.parent_serial_id = s.serial_id
			WHERE hr.account_id = $1 AND hr.kind = $2
		)
		SELECT EXISTS (SELECT 1 FROM subtree WHERE serial_id = $4)`,
		scope.AccountID, string(scope.Kind), serialID, parentSerialID,
	).Scan(&insideSubtree)
	if err != nil {
		return fmt.Errorf("RecordWriteRepository.UpdateRecord - failed to check descendants: %w", err)
	}
	if insideSubtree {
		return domain.ErrCycleDetected
	}
	return nil
}

// invalidate limpa o cache em background, depois do commit.
func (r *RecordWriteRepository) invalidate(scopes ...domain.Scope) {
	if r.invalidator == nil || len(scopes) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := r.invalidator.InvalidateScopes(ctx, scopes); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("failed to invalidate cache", "scopes", len(scopes), "error", err)
		}
	}()
}
