package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/yomu-api/internal/domain"
	"github.com/phrazzld/yomu-api/internal/platform/logger"
	"github.com/phrazzld/yomu-api/internal/store"
)

const cardColumns = `id, word, reading, meaning, word_key, reading_key,
	interval_days, due_at, difficulty, repetitions, last_reviewed_at,
	version, created_at, updated_at`

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// WithTx implements store.CardStore.WithTx
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}

// FindByIdentity implements store.CardStore.FindByIdentity
func (s *PostgresCardStore) FindByIdentity(
	ctx context.Context,
	word, reading string,
) (*domain.Card, error) {
	key := domain.IdentityKey(word, reading)

	query := `SELECT ` + cardColumns + ` FROM cards WHERE word_key = $1 AND reading_key = $2`
	card, err := scanCard(s.db.QueryRowContext(ctx, query, key.Word, key.Reading))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		s.log(ctx).Error("failed to find card by identity",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return card, nil
}

// GetByID implements store.CardStore.GetByID
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		s.log(ctx).Error("failed to get card",
			slog.String("card_id", id.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return card, nil
}

// Insert implements store.CardStore.Insert
func (s *PostgresCardStore) Insert(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := s.db.ExecContext(ctx, query,
		card.ID,
		card.Word,
		card.Reading,
		card.Meaning,
		card.WordKey,
		card.ReadingKey,
		card.Scheduling.Interval,
		card.Scheduling.DueAt.UTC(),
		card.Scheduling.Difficulty,
		card.Scheduling.Repetitions,
		nullTime(card.Scheduling.LastReviewedAt),
		card.Version,
		card.CreatedAt.UTC(),
		card.UpdatedAt.UTC(),
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrDuplicateIdentity) {
			s.log(ctx).Debug("card identity already exists",
				slog.String("word_key", card.WordKey),
				slog.String("reading_key", card.ReadingKey))
			return store.ErrDuplicateIdentity
		}
		s.log(ctx).Error("failed to insert card",
			slog.String("card_id", card.ID.String()),
			slog.String("error", err.Error()))
		return mapped
	}

	s.log(ctx).Debug("card inserted", slog.String("card_id", card.ID.String()))
	return nil
}

// Update implements store.CardStore.Update
//
// The compare-and-set and the follow-up existence check run in one
// transaction so a missing row is never reported as a stale one.
func (s *PostgresCardStore) Update(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `UPDATE cards SET
			meaning = $1,
			interval_days = $2,
			due_at = $3,
			difficulty = $4,
			repetitions = $5,
			last_reviewed_at = $6,
			updated_at = $7,
			version = version + 1
		WHERE id = $8 AND version = $9`

	err := store.InTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			card.Meaning,
			card.Scheduling.Interval,
			card.Scheduling.DueAt.UTC(),
			card.Scheduling.Difficulty,
			card.Scheduling.Repetitions,
			nullTime(card.Scheduling.LastReviewedAt),
			card.UpdatedAt.UTC(),
			card.ID,
			card.Version,
		)
		if err != nil {
			return MapError(err)
		}

		n, err := rowsAffected(result)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM cards WHERE id = $1)`, card.ID,
		).Scan(&exists); err != nil {
			return MapError(err)
		}
		if !exists {
			return store.ErrCardNotFound
		}
		return store.ErrStaleCardState
	})
	if err != nil {
		if !errors.Is(err, store.ErrCardNotFound) && !errors.Is(err, store.ErrStaleCardState) {
			s.log(ctx).Error("failed to update card",
				slog.String("card_id", card.ID.String()),
				slog.String("error", err.Error()))
		}
		return err
	}

	card.Version++
	s.log(ctx).Debug("card updated",
		slog.String("card_id", card.ID.String()),
		slog.Int("version", card.Version))
	return nil
}

// ListDue implements store.CardStore.ListDue
func (s *PostgresCardStore) ListDue(ctx context.Context, now time.Time) ([]*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards
		WHERE due_at <= $1
		ORDER BY due_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		s.log(ctx).Error("failed to list due cards", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	cards := make([]*domain.Card, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, MapError(err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return cards, nil
}

// Count implements store.CardStore.Count
func (s *PostgresCardStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

func (s *PostgresCardStore) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card         domain.Card
		lastReviewed sql.NullTime
	)

	err := row.Scan(
		&card.ID,
		&card.Word,
		&card.Reading,
		&card.Meaning,
		&card.WordKey,
		&card.ReadingKey,
		&card.Scheduling.Interval,
		&card.Scheduling.DueAt,
		&card.Scheduling.Difficulty,
		&card.Scheduling.Repetitions,
		&lastReviewed,
		&card.Version,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.Scheduling.DueAt = card.Scheduling.DueAt.UTC()
	if lastReviewed.Valid {
		card.Scheduling.LastReviewedAt = lastReviewed.Time.UTC()
	}
	card.CreatedAt = card.CreatedAt.UTC()
	card.UpdatedAt = card.UpdatedAt.UTC()

	return &card, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
