package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ladleapp/ladle-server/internal/domain"
	"github.com/ladleapp/ladle-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, username, email, password_hash, first_name, last_name,
	role, last_login_at, created_at, updated_at`

// annotatedUserColumns extends userColumns with viewer-relative annotations.
// Binds one parameter: the viewer ID for the follow check. An empty viewer ID
// matches no follows rows, so anonymous viewers always read is_subscribed as
// false. Must match the scan order in scanAnnotatedUser.
const annotatedUserColumns = `u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name,
	u.role, u.last_login_at, u.created_at, u.updated_at,
	EXISTS(SELECT 1 FROM follows f WHERE f.user_id = ? AND f.following_id = u.id),
	(SELECT COUNT(*) FROM recipes r WHERE r.author_id = u.id)`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User

	var (
		role        string
		lastLoginAt sql.NullString
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&role,
		&lastLoginAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Role = domain.Role(role)

	u.LastLoginAt, err = parseNullableTime(lastLoginAt)
	if err != nil {
		return nil, err
	}
	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	u.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// scanAnnotatedUser scans a row selected via annotatedUserColumns.
func scanAnnotatedUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User

	var (
		role         string
		lastLoginAt  sql.NullString
		createdAt    string
		updatedAt    string
		isSubscribed int
	)

	err := scanner.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&role,
		&lastLoginAt,
		&createdAt,
		&updatedAt,
		&isSubscribed,
		&u.RecipeCount,
	)
	if err != nil {
		return nil, err
	}

	u.Role = domain.Role(role)
	u.IsSubscribed = isSubscribed != 0

	u.LastLoginAt, err = parseNullableTime(lastLoginAt)
	if err != nil {
		return nil, err
	}
	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	u.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// CreateUser inserts a new user into the database.
// Returns store.ErrAlreadyExists on duplicate username or email.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	var lastLogin any
	if !user.LastLoginAt.IsZero() {
		lastLogin = formatTime(user.LastLoginAt)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name,
			role, last_login_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		string(user.Role),
		lastLogin,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username (case-insensitive).
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email (case-insensitive).
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetAnnotatedUser retrieves a user by ID with viewer-relative annotations.
// An empty viewerID yields is_subscribed=false.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetAnnotatedUser(ctx context.Context, id, viewerID string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+annotatedUserColumns+` FROM users u WHERE u.id = ?`,
		viewerID, id)

	u, err := scanAnnotatedUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers returns users ordered by username with viewer-relative annotations.
func (s *Store) ListUsers(ctx context.Context, viewerID string, limit, offset int) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+annotatedUserColumns+` FROM users u
		ORDER BY u.username ASC
		LIMIT ? OFFSET ?`,
		viewerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// ListSubscriptions returns the authors the given user follows, ordered by
// follow recency (newest first), annotated from the follower's perspective.
func (s *Store) ListSubscriptions(ctx context.Context, userID string, limit, offset int) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+annotatedUserColumns+` FROM users u
		JOIN follows fo ON fo.following_id = u.id
		WHERE fo.user_id = ?
		ORDER BY fo.created_at DESC
		LIMIT ? OFFSET ?`,
		userID, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]*domain.User, error) {
	var users []*domain.User
	for rows.Next() {
		u, err := scanAnnotatedUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if users == nil {
		users = []*domain.User{}
	}

	return users, nil
}

// CountUsers returns the total number of users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// UpdateUser persists changes to an existing user.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	var lastLogin any
	if !user.LastLoginAt.IsZero() {
		lastLogin = formatTime(user.LastLoginAt)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			username = ?,
			email = ?,
			password_hash = ?,
			first_name = ?,
			last_name = ?,
			role = ?,
			last_login_at = ?,
			updated_at = ?
		WHERE id = ?`,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		string(user.Role),
		lastLogin,
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteUser removes a user and all dependent rows (cascades).
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
