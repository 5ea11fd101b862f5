// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors for repository operations.
var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrGameNotFound      = errors.New("game not found")
	ErrCardNotFound      = errors.New("card not found in catalog")
	ErrHandEntryNotFound = errors.New("hand entry not found")
	ErrTimerNotFound     = errors.New("timer not found")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every repository
// can run standalone or inside a unit of work.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles every repository over one connection or transaction.
type Store struct {
	Games   *GameRepository
	Players *PlayerRepository
	Cards   *CardRepository
	Decks   *DeckRepository
	Hands   *HandRepository
	Effects *EffectRepository
	Timers  *TimerRepository
	Scores  *ScoreRepository
}

// NewStore creates a Store over db.
func NewStore(db DBTX) *Store {
	return &Store{
		Games:   NewGameRepository(db),
		Players: NewPlayerRepository(db),
		Cards:   NewCardRepository(db),
		Decks:   NewDeckRepository(db),
		Hands:   NewHandRepository(db),
		Effects: NewEffectRepository(db),
		Timers:  NewTimerRepository(db),
		Scores:  NewScoreRepository(db),
	}
}

// InTx runs fn inside one serializable transaction. The transaction commits
// only when fn returns nil; any error rolls every write back.
func InTx(ctx context.Context, pool *pgxpool.Pool, fn func(*Store) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewStore(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SQLSTATE codes that mean a concurrent writer won and the whole unit of work may be retried.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// IsConflict reports whether err is a transient storage conflict.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}
