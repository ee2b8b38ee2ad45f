package repository

import (
	"context"
	"database/sql"
	"time"

	"electrometer_acquisition/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.SessionEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.SessionEvent, error)
}

type RunRepo interface {
	Append(ctx context.Context, r models.RunRecord) error
	List(ctx context.Context) ([]models.RunRecord, error)
}

type Repository struct {
	Events EventRepo
	Runs   RunRepo
	Auth   Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Events: NewEventSQLite(db),
		Runs:   NewRunSQLite(db),
		Auth:   NewUserRepository(db),
	}
}
