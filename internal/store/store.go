// Package store persists users and their prediction history.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/curesense/curesense/internal/inference"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrUserExists = errors.New("username already exists")
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// HistoryRecord is one saved prediction. ID and CreatedAt are assigned by
// the store on append.
type HistoryRecord struct {
	ID                uuid.UUID              `json:"id"`
	UserID            uuid.UUID              `json:"-"`
	Symptoms          string                 `json:"symptoms"`
	PredictedDiseases []inference.Prediction `json:"predicted_diseases"`
	Medications       []string               `json:"medications"`
	Specialists       []string               `json:"doctor_types"`
	CreatedAt         time.Time              `json:"created_at"`
}

type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	UserByUsername(ctx context.Context, username string) (*User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*User, error)
}

type HistoryStore interface {
	AppendHistory(ctx context.Context, rec *HistoryRecord) error
	// ListHistory returns the user's records newest first.
	ListHistory(ctx context.Context, userID uuid.UUID) ([]HistoryRecord, error)
}

// Store is everything the API needs from persistence.
type Store interface {
	UserStore
	HistoryStore
}

func newHistoryID() (uuid.UUID, error) {
	// v7 ids sort by creation time, which keeps same-timestamp rows ordered.
	return uuid.NewV7()
}
