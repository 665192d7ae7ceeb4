package reconcile

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/19taurus79/EridonAPI/internal/serviceiface"
)

type ReconcileService struct {
	config  map[string]interface{}
	db      *sql.DB
	pgxPool *pgxpool.Pool
}

func NewReconcileService(cfg map[string]interface{}, db *sql.DB, pgxPool *pgxpool.Pool) serviceiface.Service {
	return &ReconcileService{config: cfg, db: db, pgxPool: pgxPool}
}

func (s *ReconcileService) Name() string {
	return "reconcile"
}

func (s *ReconcileService) Start() error {
	go StartReconcileService(s.config, s.db, s.pgxPool)
	return nil
}

func (s *ReconcileService) Stop() error {
	// Sessions live in process memory only; nothing to flush.
	return nil
}
