package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Postgres is the pgx-backed Store. Run the Migrator before use.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Ping satisfies the readiness check.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) CreateUser(ctx context.Context, username, passwordHash string) (*User, error) {
	u := User{ID: uuid.New(), Username: username, PasswordHash: passwordHash}
	err := p.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, password_hash) VALUES ($1, $2, $3) RETURNING created_at`,
		u.ID, u.Username, u.PasswordHash,
	).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

func (p *Postgres) UserByUsername(ctx context.Context, username string) (*User, error) {
	return p.scanUser(p.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`, username))
}

func (p *Postgres) UserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return p.scanUser(p.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = $1`, id))
}

func (p *Postgres) scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (p *Postgres) AppendHistory(ctx context.Context, rec *HistoryRecord) error {
	id, err := newHistoryID()
	if err != nil {
		return err
	}
	diseases, err := marshalList(rec.PredictedDiseases)
	if err != nil {
		return err
	}
	meds, err := marshalList(rec.Medications)
	if err != nil {
		return err
	}
	docs, err := marshalList(rec.Specialists)
	if err != nil {
		return err
	}

	err = p.pool.QueryRow(ctx,
		`INSERT INTO history (id, user_id, symptoms, predicted_diseases, medications, specialists)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		id, rec.UserID, rec.Symptoms, diseases, meds, docs,
	).Scan(&rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("insert history: %w", err)
	}
	rec.ID = id
	return nil
}

func (p *Postgres) ListHistory(ctx context.Context, userID uuid.UUID) ([]HistoryRecord, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, symptoms, predicted_diseases, medications, specialists, created_at
		 FROM history WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []HistoryRecord{}
	for rows.Next() {
		rec := HistoryRecord{UserID: userID}
		var diseases, meds, docs []byte
		if err := rows.Scan(&rec.ID, &rec.Symptoms, &diseases, &meds, &docs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal(diseases, &rec.PredictedDiseases); err != nil {
			return nil, fmt.Errorf("decode predicted_diseases: %w", err)
		}
		if err := json.Unmarshal(meds, &rec.Medications); err != nil {
			return nil, fmt.Errorf("decode medications: %w", err)
		}
		if err := json.Unmarshal(docs, &rec.Specialists); err != nil {
			return nil, fmt.Errorf("decode specialists: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// marshalList encodes v as a JSON array, writing [] for nil slices.
func marshalList[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode jsonb: %w", err)
	}
	return string(b), nil
}
