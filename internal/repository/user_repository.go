package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kriwitj/nso-forms/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already registered")
)

// registrationLockKey serializes registrations so only one caller can see an
// empty users table.
const registrationLockKey = 7102_2001

const userColumns = `id, email, name, password_hash, role, is_approved, theme_preference, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateRegistrant inserts a self-registered user. The first user ever stored
// becomes an approved admin; everybody after starts as an unapproved user.
func (r *UserRepository) CreateRegistrant(ctx context.Context, user models.User) (models.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, registrationLockKey); err != nil {
		return models.User{}, fmt.Errorf("registration lock: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return models.User{}, fmt.Errorf("count users: %w", err)
	}

	if count == 0 {
		user.Role = models.UserRoleAdmin
		user.IsApproved = true
	} else {
		user.Role = models.UserRoleUser
		user.IsApproved = false
	}

	created, err := insertUser(ctx, tx, user)
	if err != nil {
		return models.User{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.User{}, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

func (r *UserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	return insertUser(ctx, r.pool, user)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertUser(ctx context.Context, q queryRower, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (
			id, email, name, password_hash, role, is_approved, theme_preference, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
		RETURNING ` + userColumns

	created, err := scanUser(q.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role,
		user.IsApproved,
		user.ThemePreference,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrEmailExists
		}
		return models.User{}, err
	}
	return created, nil
}

// UpsertAdmin makes sure an approved admin with the given email exists. An
// existing account is promoted but keeps its password.
func (r *UserRepository) UpsertAdmin(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (
			id, email, name, password_hash, role, is_approved, theme_preference, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, 'ADMIN', TRUE, 'SYSTEM', NOW(), NOW()
		)
		ON CONFLICT ((LOWER(email)))
		DO UPDATE SET
			role = 'ADMIN',
			is_approved = TRUE,
			updated_at = NOW()
		RETURNING ` + userColumns

	return scanUser(r.pool.QueryRow(ctx, query, user.ID, user.Email, user.Name, user.PasswordHash))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		UPDATE users
		SET name = $2,
		    password_hash = $3,
		    role = $4,
		    is_approved = $5,
		    theme_preference = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	return scanUser(r.pool.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.PasswordHash,
		user.Role,
		user.IsApproved,
		user.ThemePreference,
	))
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.IsApproved,
		&user.ThemePreference,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
