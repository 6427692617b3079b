package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"market/internal/config"
	"market/internal/models"

	postgres "market/internal/repository/db"
)

type Repository struct {
	db  *sql.DB
	cfg *config.PostgresConfig
}

func NewRepository(db *sql.DB, cfg *config.PostgresConfig) (*Repository, error) {
	var err error

	repo := &Repository{
		db:  db,
		cfg: cfg,
	}

	if repo.cfg == nil {
		repo.cfg, err = config.NewPostgresConfig()
		if err != nil {
			return nil, fmt.Errorf("repository.NewRepository: could not load postgres config: %w", err)
		}
	}

	if repo.db == nil {
		repo.db, err = postgres.NewPostgresDB(repo.cfg)
		if err != nil {
			return nil, fmt.Errorf("repository.NewRepository: could not open postgres db: %w", err)
		}
	}

	if repo.cfg.AutoMigrateUp == "true" {
		err = repo.MigrateUp()
		if err != nil {
			return nil, err
		}
	}

	return repo, nil
}

func (repo *Repository) MigrateUp() error {
	err := postgres.MigrateUp(repo.db, repo.cfg.MigrationsURL)
	if err != nil {
		return fmt.Errorf("repository.Repository.Migrate: %w", err)
	}
	return nil
}

func (repo *Repository) MigrateDown() error {
	err := postgres.MigrateDown(repo.db, repo.cfg.MigrationsURL)
	if err != nil {
		return fmt.Errorf("repository.Repository.Migrate: %w", err)
	}
	return nil
}

//// Users

func (repo *Repository) AddUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
	INSERT INTO users (username, role, name, email, status, created_at)
	VALUES
		($1, $2, $3, $4, 'active', DEFAULT)
	RETURNING
		id, status, created_at
	`

	row := repo.db.QueryRowContext(ctx, query, user.Username, user.Role, user.Name, user.Email)
	err := row.Scan(&user.Id, &user.Status, &user.CreatedAt)
	if err != nil {
		return user, fmt.Errorf("repository.Repository.AddUser: %w", err)
	}

	return user, nil
}

func (repo *Repository) UserByUUID(ctx context.Context, UUID string) (models.User, bool, error) {
	var user models.User
	query := `
	SELECT
		id,
		username,
		role,
		name,
		email,
		status,
		created_at
	FROM users
	WHERE id = $1
	LIMIT 1
	`
	row := repo.db.QueryRowContext(ctx, query, UUID)
	err := row.Scan(&user.Id, &user.Username, &user.Role, &user.Name, &user.Email, &user.Status, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return user, false, nil
	} else if err != nil {
		return user, false, fmt.Errorf("repository.Repository.UserByUUID: %w", err)
	}

	return user, true, nil
}

func (repo *Repository) UserByEmail(ctx context.Context, email string) (models.User, bool, error) {
	var user models.User
	query := `
	SELECT
		id,
		username,
		role,
		name,
		email,
		status,
		created_at
	FROM users
	WHERE email = $1
	LIMIT 1
	`
	row := repo.db.QueryRowContext(ctx, query, email)
	err := row.Scan(&user.Id, &user.Username, &user.Role, &user.Name, &user.Email, &user.Status, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return user, false, nil
	} else if err != nil {
		return user, false, fmt.Errorf("repository.Repository.UserByEmail: %w", err)
	}

	return user, true, nil
}

func (repo *Repository) Close() error {
	var migErr error
	if repo.cfg.AutoMigrateDown == "true" {
		migErr = repo.MigrateDown()
	}

	err := repo.db.Close()
	return errors.Join(migErr, err)
}

//// Service

func wrapRollbackErr(tx *sql.Tx, err error) error {
	rollerr := tx.Rollback()
	if rollerr == nil {
		return err
	}
	return fmt.Errorf("failed to rollback transaction after previous error: %w, %w", rollerr, err)
}

func sliceToSQLList(t []string) string {
	return "{" + strings.Join(t, ", ") + "}"
}

//// Test utils

func (repo *Repository) TestGetDB() *sql.DB {
	return repo.db
}
