// Package transactions guards deletion of reconciled transactions.
package transactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Transaction identifies the record the platform is about to delete.
type Transaction struct {
	ID     string
	TranID string
}

// ErrReconciled blocks deleting a cleared transaction.
var ErrReconciled = errors.New("transactions: transaction reconciled")

// BlockedError carries the user-facing message for a blocked delete.
type BlockedError struct {
	Title   string
	Message string
}

func (e *BlockedError) Error() string {
	return e.Title + ": " + e.Message
}

// Unwrap exposes ErrReconciled to errors.Is.
func (e *BlockedError) Unwrap() error {
	return ErrReconciled
}

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	IsCleared(ctx context.Context, id string) (bool, error)
}

// Repository reads reconciliation status from the replica.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// IsCleared reports whether the transaction's main line is reconciled.
func (r *Repository) IsCleared(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM transactions WHERE id=$1 AND mainline AND cleared LIMIT 1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Service answers before-delete hooks.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// GuardDelete returns a *BlockedError wrapping ErrReconciled when the
// transaction is cleared. Transactions without an id are never blocked.
func (s *Service) GuardDelete(ctx context.Context, txn Transaction) error {
	if txn.ID == "" {
		return nil
	}
	cleared, err := s.repo.IsCleared(ctx, txn.ID)
	if err != nil {
		return fmt.Errorf("transactions: cleared lookup: %w", err)
	}
	if !cleared {
		return nil
	}
	s.logger.Info("delete blocked for reconciled transaction", slog.String("transaction_id", txn.ID), slog.String("tran_id", txn.TranID))
	return &BlockedError{
		Title: "Delete Not Allowed",
		Message: fmt.Sprintf("Transaction %s has already been reconciled and cannot be deleted. "+
			"Please void the transaction or contact Accounting to unreconcile it first.", txn.TranID),
	}
}
