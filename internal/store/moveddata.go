package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/19taurus79/EridonAPI/internal/matching"
)

// MovedDataStore writes finalized attributions to the moved_data table once
// an operator declares a reconciliation complete. Matched rows are staged
// with CopyFrom under a batch id, then moved to the final table with a
// dedup guard so a re-submission of the same report never double-counts.
type MovedDataStore struct {
	pool *pgxpool.Pool
}

func NewMovedDataStore(pool *pgxpool.Pool) *MovedDataStore {
	return &MovedDataStore{pool: pool}
}

// SaveMatched persists the matched list and returns how many rows were
// inserted and how many were skipped as duplicates of previously persisted
// matches (same contract, product, party sign, quantity and date).
func (s *MovedDataStore) SaveMatched(ctx context.Context, matched []matching.MatchedRecord) (inserted, skipped int64, err error) {
	if s == nil || s.pool == nil {
		return 0, 0, fmt.Errorf("moved data store is not configured")
	}
	if len(matched) == 0 {
		return 0, 0, nil
	}

	batchID := uuid.New().String()
	copyRows := make([][]interface{}, len(matched))
	for i, m := range matched {
		copyRows[i] = []interface{}{
			batchID,
			uuid.New().String(),
			m.RequestID,
			m.Product,
			m.PartySign,
			m.Contract,
			m.Quantity.String(),
			m.LineOfBusiness,
			m.Date,
			m.Source,
		}
	}

	_, err = s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"input_moved_data"},
		[]string{"upload_batch_id", "id", "order_id", "product", "party_sign", "contract", "qt_moved", "line_of_business", "date", "source"},
		pgx.CopyFromRows(copyRows),
	)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to stage matched data: %w", err)
	}
	defer func() {
		_, cleanupErr := s.pool.Exec(ctx, `DELETE FROM input_moved_data WHERE upload_batch_id = $1`, batchID)
		if err == nil && cleanupErr != nil {
			err = fmt.Errorf("failed to clean staging batch: %w", cleanupErr)
		}
	}()

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO moved_data (id, "order", product, party_sign, contract, qt_moved, line_of_business, date, source)
		SELECT i.id, i.order_id, i.product, i.party_sign, i.contract, i.qt_moved::numeric, i.line_of_business, NULLIF(i.date, '')::date, i.source
		FROM input_moved_data i
		WHERE i.upload_batch_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM moved_data m
			WHERE m.contract = i.contract
			  AND m.product = i.product
			  AND m.party_sign = i.party_sign
			  AND m.qt_moved = i.qt_moved::numeric
			  AND m.date IS NOT DISTINCT FROM NULLIF(i.date, '')::date
		  )
	`, batchID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to persist matched data: %w", err)
	}
	inserted = tag.RowsAffected()
	skipped = int64(len(matched)) - inserted
	return inserted, skipped, nil
}
