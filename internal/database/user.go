package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/parkerc/unoroom/internal/auth"
	"github.com/parkerc/unoroom/internal/models"
)

// ErrUsernameTaken is returned by CreateUser on a duplicate-username insert.
var ErrUsernameTaken = errors.New("username already exists")

// CreateUser hashes the user's password and inserts the row. The plaintext
// password never leaves this function; the User's Password field holds the
// encoded hash afterwards.
func CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	hash, err := auth.CreateHash(user.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash

	q := `INSERT INTO users (id, username, password, wins) VALUES ($1, $2, $3, 0)`
	_, err = DB.Exec(ctx, q, user.ID, user.Username, user.Password)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	q := `SELECT id, username, password, wins FROM users WHERE lower(username) = lower($1)`
	err := DB.QueryRow(ctx, q, username).Scan(&u.ID, &u.Username, &u.Password, &u.Wins)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	q := `SELECT id, username, password, wins FROM users WHERE id = $1`
	err := DB.QueryRow(ctx, q, id).Scan(&u.ID, &u.Username, &u.Password, &u.Wins)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AuthenticateUser verifies credentials and mints a session token.
func AuthenticateUser(ctx context.Context, username, password string) (string, error) {
	user, err := GetUserByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("user not found or db error: %w", err)
	}

	match, err := auth.ComparePasswordAndHash(password, user.Password)
	if err != nil || !match {
		return "", fmt.Errorf("invalid credentials")
	}

	token, err := auth.CreateJWT(user.ID.String())
	if err != nil {
		return "", fmt.Errorf("failed to create jwt: %w", err)
	}
	return token, nil
}

// IncrementWins bumps a user's win counter by exactly one. The increment runs
// inside the UPDATE itself, so concurrent finishes in different rooms can
// never clobber each other with a stale read-modify-write.
func IncrementWins(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `UPDATE users SET wins = wins + 1 WHERE id = $1`, id)
		return err
	})
}

// TopWins returns up to limit users ordered by win count, for the leaderboard
// fallback path.
func TopWins(ctx context.Context, limit int) ([]models.User, error) {
	q := `SELECT id, username, wins FROM users ORDER BY wins DESC, username ASC LIMIT $1`
	rows, err := DB.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Wins); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
