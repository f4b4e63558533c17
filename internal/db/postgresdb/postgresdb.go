// Package postgresdb provides a PostgreSQL-based implementation of the storage
// interface for persisting users and short URL records. Uniqueness races on
// usernames, emails and short codes are arbitrated by the database's unique
// indexes and surfaced as models.ErrConflict.
package postgresdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/patric-chuzhbe/shortly/internal/models"
	"github.com/patric-chuzhbe/shortly/internal/user"
)

const uniqueViolationCode = "23505"

// PostgresDB is a PostgreSQL-backed implementation of the service storage.
// It handles all persistence operations via a database/sql connection pool
// using the pgx driver.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables or disables resetting the database schema before migration.
// It can be used for test setups or development purposes.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.Up()` calling: %w",
				err,
			)
	}

	return result, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// fieldUpdate names a single column assignment of a partial update.
type fieldUpdate struct {
	column string
	value  any
}

// buildUpdateQuery renders a parameterized UPDATE statement from a list of
// column assignments. It is the single routine translating structured
// partial updates into SQL; no caller concatenates field values into
// query text.
func buildUpdateQuery(table string, updates []fieldUpdate, id string) (string, []any) {
	assignments := make([]string, 0, len(updates))
	args := make([]any, 0, len(updates)+1)
	for i, update := range updates {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", update.column, i+1))
		args = append(args, update.value)
	}
	args = append(args, id)

	query := fmt.Sprintf(
		`UPDATE %s SET %s WHERE id = $%d`,
		table,
		strings.Join(assignments, ", "),
		len(args),
	)

	return query, args
}

// CreateUser inserts a new user record. A username or email collision is
// reported as models.ErrConflict.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User) error {
	rolesAsJSON, err := json.Marshal(usr.Roles)
	if err != nil {
		return err
	}

	_, err = db.database.ExecContext(
		ctx,
		`
			INSERT INTO users (id, username, email, password_hash, created_at, updated_at, is_active, roles)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
		usr.ID,
		usr.Username,
		usr.Email,
		usr.PasswordHash,
		usr.CreatedAt,
		usr.UpdatedAt,
		usr.IsActive,
		rolesAsJSON,
	)
	if isUniqueViolation(err) {
		return models.ErrConflict
	}
	if err != nil {
		return err
	}

	return nil
}

func scanUser(row interface{ Scan(...any) error }) (*user.User, error) {
	usr := &user.User{}
	var rolesAsJSON []byte
	err := row.Scan(
		&usr.ID,
		&usr.Username,
		&usr.Email,
		&usr.PasswordHash,
		&usr.CreatedAt,
		&usr.UpdatedAt,
		&usr.IsActive,
		&rolesAsJSON,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(rolesAsJSON, &usr.Roles); err != nil {
		return nil, err
	}

	return usr, nil
}

const selectUserColumns = `SELECT id, username, email, password_hash, created_at, updated_at, is_active, roles FROM users`

// GetUserByID fetches a user by their UUID.
// Returns models.ErrNotFound when no such user exists.
func (db *PostgresDB) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	row := db.database.QueryRowContext(ctx, selectUserColumns+` WHERE id = $1`, userID)
	usr, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return usr, nil
}

// GetUserByEmail fetches a user by their unique email.
// Returns models.ErrNotFound when no such user exists.
func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	row := db.database.QueryRowContext(ctx, selectUserColumns+` WHERE email = $1`, email)
	usr, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return usr, nil
}

// ListUsers returns all user records ordered by creation time.
func (db *PostgresDB) ListUsers(ctx context.Context) ([]*user.User, error) {
	rows, err := db.database.QueryContext(ctx, selectUserColumns+` ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*user.User{}
	for rows.Next() {
		usr, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, usr)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateUser applies a structured partial update to a user record and
// bumps updated_at. Uniqueness violations become models.ErrConflict;
// a missing record becomes models.ErrNotFound.
func (db *PostgresDB) UpdateUser(ctx context.Context, userID string, patch models.UserPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	updates := []fieldUpdate{}
	if patch.Username != nil {
		updates = append(updates, fieldUpdate{column: "username", value: *patch.Username})
	}
	if patch.Email != nil {
		updates = append(updates, fieldUpdate{column: "email", value: *patch.Email})
	}
	if patch.PasswordHash != nil {
		updates = append(updates, fieldUpdate{column: "password_hash", value: *patch.PasswordHash})
	}
	if patch.IsActive != nil {
		updates = append(updates, fieldUpdate{column: "is_active", value: *patch.IsActive})
	}
	updates = append(updates, fieldUpdate{column: "updated_at", value: time.Now()})

	query, args := buildUpdateQuery("users", updates, userID)

	result, err := db.database.ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return models.ErrConflict
	}
	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// DeleteUser removes a user record.
// Returns models.ErrNotFound when no row was deleted.
func (db *PostgresDB) DeleteUser(ctx context.Context, userID string) error {
	result, err := db.database.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// InsertShortURL persists a new short URL record. A short code collision
// is reported as models.ErrConflict instead of overwriting the row.
func (db *PostgresDB) InsertShortURL(ctx context.Context, shortURL *models.ShortURL) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			INSERT INTO short_urls (id, original_url, short_code, created_at, expiration, click_count, user_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
		shortURL.ID,
		shortURL.OriginalURL,
		shortURL.ShortCode,
		shortURL.CreatedAt,
		shortURL.Expiration,
		shortURL.ClickCount,
		shortURL.UserID,
	)
	if isUniqueViolation(err) {
		return models.ErrConflict
	}
	if err != nil {
		return err
	}

	return nil
}

func scanShortURL(row interface{ Scan(...any) error }) (*models.ShortURL, error) {
	shortURL := &models.ShortURL{}
	err := row.Scan(
		&shortURL.ID,
		&shortURL.OriginalURL,
		&shortURL.ShortCode,
		&shortURL.CreatedAt,
		&shortURL.Expiration,
		&shortURL.ClickCount,
		&shortURL.UserID,
	)
	if err != nil {
		return nil, err
	}

	return shortURL, nil
}

const selectShortURLColumns = `SELECT id, original_url, short_code, created_at, expiration, click_count, user_id FROM short_urls`

// GetShortURLByID fetches a short URL record by its UUID.
func (db *PostgresDB) GetShortURLByID(ctx context.Context, shortURLID string) (*models.ShortURL, error) {
	row := db.database.QueryRowContext(ctx, selectShortURLColumns+` WHERE id = $1`, shortURLID)
	shortURL, err := scanShortURL(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return shortURL, nil
}

// GetShortURLByCode fetches a short URL record by its unique short code.
func (db *PostgresDB) GetShortURLByCode(ctx context.Context, shortCode string) (*models.ShortURL, error) {
	row := db.database.QueryRowContext(ctx, selectShortURLColumns+` WHERE short_code = $1`, shortCode)
	shortURL, err := scanShortURL(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return shortURL, nil
}

// UpdateShortURL applies a structured partial update to a short URL
// record. When the original URL changes, the caller supplies the
// re-derived short code in the same patch and both columns are written by
// one statement, so the stored pair can never go stale.
func (db *PostgresDB) UpdateShortURL(ctx context.Context, shortURLID string, patch models.ShortURLPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	updates := []fieldUpdate{}
	if patch.OriginalURL != nil {
		updates = append(updates, fieldUpdate{column: "original_url", value: *patch.OriginalURL})
	}
	if patch.ShortCode != nil {
		updates = append(updates, fieldUpdate{column: "short_code", value: *patch.ShortCode})
	}
	if patch.Expiration != nil {
		updates = append(updates, fieldUpdate{column: "expiration", value: *patch.Expiration})
	}

	query, args := buildUpdateQuery("short_urls", updates, shortURLID)

	result, err := db.database.ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return models.ErrConflict
	}
	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// DeleteShortURL removes a short URL record.
// Returns models.ErrNotFound when no row was deleted.
func (db *PostgresDB) DeleteShortURL(ctx context.Context, shortURLID string) error {
	result, err := db.database.ExecContext(ctx, `DELETE FROM short_urls WHERE id = $1`, shortURLID)
	if err != nil {
		return err
	}

	return requireRowsAffected(result)
}

// ListUserShortURLs returns all short URL records owned by the given user,
// ordered by creation time.
func (db *PostgresDB) ListUserShortURLs(ctx context.Context, userID string) ([]*models.ShortURL, error) {
	rows, err := db.database.QueryContext(
		ctx,
		selectShortURLColumns+` WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*models.ShortURL{}
	for rows.Next() {
		shortURL, err := scanShortURL(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, shortURL)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// AddClicks applies aggregated click increments per short code. Increments
// for codes deleted since the click happened are silently skipped.
func (db *PostgresDB) AddClicks(ctx context.Context, clicksByCode map[string]int64) error {
	for shortCode, clicks := range clicksByCode {
		_, err := db.database.ExecContext(
			ctx,
			`UPDATE short_urls SET click_count = click_count + $1 WHERE short_code = $2`,
			clicks,
			shortCode,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetNumberOfShortenedURLs returns the total amount of short URL records.
func (db *PostgresDB) GetNumberOfShortenedURLs(ctx context.Context) (int64, error) {
	row := db.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM short_urls`)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// GetNumberOfUsers returns the total amount of user records.
func (db *PostgresDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	row := db.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func requireRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}
