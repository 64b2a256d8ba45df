package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"RegimeCast/internal/domain/models"
	pkgch "RegimeCast/pkg/clickhouse"
	applogger "RegimeCast/pkg/logger"
)

const receiptTable = "regimecast.receipts"

// CHReceiptStore implements ReceiptSink backed by ClickHouse. Rows are
// append-only; receipts are never updated or deleted once written.
type CHReceiptStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHReceiptStore(ch *pkgch.Client) *CHReceiptStore {
	return &CHReceiptStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHReceiptStore) SetLogger(l *applogger.Logger) { s.l = l }

// Schema returns idempotent DDL for the receipt table.
func Schema() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS regimecast`,
		`CREATE TABLE IF NOT EXISTS ` + receiptTable + ` (
            library_version_hash String,
            data_lineage         String,
            execution_plan       String,
            composition_operator String,
            iterations_run       UInt32,
            final_hamming        UInt32,
            converged            UInt8,
            operation_retries    String,
            created_at           DateTime64(3)
        ) ENGINE = MergeTree()
        ORDER BY (created_at, library_version_hash)`,
	}
}

func (s *CHReceiptStore) Append(ctx context.Context, r models.ProvenanceReceipt) error {
	start := time.Now()

	lineage, err := json.Marshal(r.DataLineage)
	if err != nil {
		return fmt.Errorf("marshal lineage: %w", err)
	}
	plan, err := json.Marshal(r.ExecutionPlan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	retries, err := json.Marshal(r.OperationRetries)
	if err != nil {
		return fmt.Errorf("marshal retries: %w", err)
	}

	converged := uint8(0)
	if r.Converged {
		converged = 1
	}

	const q = `
        INSERT INTO ` + receiptTable + `
        (library_version_hash, data_lineage, execution_plan, composition_operator,
         iterations_run, final_hamming, converged, operation_retries, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	if _, err := s.db.ExecContext(ctx, q,
		r.LibraryVersionHash, string(lineage), string(plan), string(r.CompositionOperator),
		uint32(r.IterationsRun), uint32(r.FinalHammingDistance), converged, string(retries), r.CreatedAt,
	); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse receipt insert error",
				applogger.String("hash", r.LibraryVersionHash),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("append receipt: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse receipt appended",
			applogger.String("hash", r.LibraryVersionHash),
			applogger.String("operator", string(r.CompositionOperator)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}
