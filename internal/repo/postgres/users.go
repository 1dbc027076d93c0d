package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, password_hash, is_active, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	return r.prom.ObserveDB(op, fn)
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	out := make([]user.User, 0)

	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidInput(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// Create inserts the record unless the email is already taken; the check and the
// write are one statement so concurrent creates cannot both succeed.
func (r *UsersRepo) Create(ctx context.Context, in user.NewUser) (user.User, error) {
	var u user.User

	err := r.observe("users.create", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (id, name, email, password_hash)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
			RETURNING `+userColumns,
			uuid.NewString(), in.Name, in.Email, in.PasswordHash,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Update applies only the non-nil fields of ch, so concurrent updates of
// different fields do not overwrite each other.
func (r *UsersRepo) Update(ctx context.Context, id string, ch user.Changes) (user.User, error) {
	var out user.User

	err := r.observe("users.update", func() error {
		var err error
		out, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
			SET name = COALESCE($2, name),
				email = COALESCE($3, email),
				password_hash = COALESCE($4, password_hash),
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+userColumns,
			id, ch.Name, ch.Email, ch.PasswordHash,
		))
		return err
	})

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows), isInvalidInput(err):
			return user.User{}, user.ErrNotFound
		case IsUniqueViolation(err):
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("update user %s: %w", id, err)
	}
	return out, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		if isInvalidInput(err) {
			return user.ErrNotFound
		}
		return fmt.Errorf("delete user %s: %w", id, err)
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
