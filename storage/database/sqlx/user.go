package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/hotaru-ritsuki/course-api-sub000/core/user"
)

// userRow mirrors the "user" table; the domain struct carries no db tags.
type userRow struct {
	ID           string    `db:"id"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    time.Time `db:"last_login"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		Role:         r.Role,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin,
	}
}

func toUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		FirstName:    usr.FirstName,
		LastName:     usr.LastName,
		Email:        usr.Email,
		Role:         usr.Role,
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
		LastLogin:    usr.LastLogin,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	q := `SELECT COUNT(*) FROM "user" WHERE email = ?`
	args := []interface{}{email}

	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		inQ, inArgs, err := sqlx.In(` AND id NOT IN (?)`, ids)
		if err != nil {
			return errors.Wrap(err, "binding excluded ids")
		}
		q += inQ
		args = append(args, inArgs...)
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "counting users by email")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `
INSERT INTO "user" (id, first_name, last_name, email, role, is_active, password_hash, created_at, updated_at, last_login)
VALUES (:id, :first_name, :last_name, :email, :role, :is_active, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, toUserRow(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM "user" WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM "user" WHERE email = $1`, email)
}

func (repo *userRepository) getUser(ctx context.Context, q string, arg interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) ExistsUserByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1)`
	if err := repo.db.GetContext(ctx, &exists, q, email); err != nil {
		return false, errors.Wrap(err, "checking user by email")
	}
	return exists, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `
UPDATE "user"
SET first_name = :first_name, last_name = :last_name, email = :email, role = :role,
    is_active = :is_active, password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toUserRow(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
