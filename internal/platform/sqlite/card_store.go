package sqlite

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

// SQLiteCardStore implements store.CardStore on an embedded SQLite database.
type SQLiteCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteCardStore creates a card store over db, which is usually the
// handle returned by Open. If logger is nil, a default logger will be used.
func NewSQLiteCardStore(db store.DBTX, logger *slog.Logger) *SQLiteCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

var _ store.CardStore = (*SQLiteCardStore)(nil)

// WithTx implements store.CardStore.WithTx
func (s *SQLiteCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &SQLiteCardStore{db: tx, logger: s.logger}
}

// FindByIdentity implements store.CardStore.FindByIdentity
func (s *SQLiteCardStore) FindByIdentity(ctx context.Context, word, reading string) (*domain.Card, error) {
	key := domain.IdentityKey(word, reading)

	query := `SELECT ` + cardColumns + ` FROM cards WHERE word_key = ? AND reading_key = ?`
	card, err := scanCard(s.db.QueryRowContext(ctx, query, key.Word, key.Reading))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		s.log(ctx).Error("failed to find card by identity", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return card, nil
}

// GetByID implements store.CardStore.GetByID
func (s *SQLiteCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = ?`
	card, err := scanCard(s.db.QueryRowContext(ctx, query, id.String()))
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
func (s *SQLiteCardStore) Insert(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `INSERT INTO cards (` + cardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		card.ID.String(),
		card.Word,
		card.Reading,
		card.Meaning,
		card.WordKey,
		card.ReadingKey,
		card.Scheduling.Interval,
		toNanos(card.Scheduling.DueAt),
		card.Scheduling.Difficulty,
		card.Scheduling.Repetitions,
		nullNanos(card.Scheduling.LastReviewedAt),
		card.Version,
		toNanos(card.CreatedAt),
		toNanos(card.UpdatedAt),
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
func (s *SQLiteCardStore) Update(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `UPDATE cards SET
			meaning = ?,
			interval_days = ?,
			due_at = ?,
			difficulty = ?,
			repetitions = ?,
			last_reviewed_at = ?,
			updated_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?`

	err := store.InTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			card.Meaning,
			card.Scheduling.Interval,
			toNanos(card.Scheduling.DueAt),
			card.Scheduling.Difficulty,
			card.Scheduling.Repetitions,
			nullNanos(card.Scheduling.LastReviewedAt),
			toNanos(card.UpdatedAt),
			card.ID.String(),
			card.Version,
		)
		if err != nil {
			return MapError(err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return MapError(err)
		}
		if n > 0 {
			return nil
		}

		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM cards WHERE id = ?)`, card.ID.String(),
		).Scan(&exists); err != nil {
			return MapError(err)
		}
		if exists == 0 {
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
func (s *SQLiteCardStore) ListDue(ctx context.Context, now time.Time) ([]*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards
		WHERE due_at <= ?
		ORDER BY due_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, toNanos(now))
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
func (s *SQLiteCardStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

func (s *SQLiteCardStore) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var card domain.Card
	var id string
	var dueAt, createdAt, updatedAt int64
	var lastReviewed sql.NullInt64

	err := row.Scan(
		&id,
		&card.Word,
		&card.Reading,
		&card.Meaning,
		&card.WordKey,
		&card.ReadingKey,
		&card.Scheduling.Interval,
		&dueAt,
		&card.Scheduling.Difficulty,
		&card.Scheduling.Repetitions,
		&lastReviewed,
		&card.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed card id %q: %v", store.ErrInvalidEntity, id, err)
	}

	card.Scheduling.DueAt = fromNanos(dueAt)
	if lastReviewed.Valid {
		card.Scheduling.LastReviewedAt = fromNanos(lastReviewed.Int64)
	}
	card.CreatedAt = fromNanos(createdAt)
	card.UpdatedAt = fromNanos(updatedAt)

	return &card, nil
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullNanos(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toNanos(t), Valid: true}
}
