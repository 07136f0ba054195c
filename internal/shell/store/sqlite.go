package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/artpar/pgstay/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	// Open database connection
	db, err := sqlx.Open("sqlite3", withForeignKeys(dsn))
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}
	// SQLite serialises writers anyway, and ":memory:" is per connection.
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	// Run migrations
	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStoreError("Ping", "", "", err.Error(), ErrConnectionFailed)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// User Operations
// =============================================================================

type userRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	PhoneNumber  string `db:"phone_number"`
	Role         string `db:"role"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, s.db, user)
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return getUser(ctx, s.db, "GetUser", "id", id)
}

func (s *SQLiteStore) GetUserByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	return getUser(ctx, s.db, "GetUserByPhone", "phone_number", phoneNumber)
}

// =============================================================================
// Community Operations
// =============================================================================

type communityRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Address   string `db:"address"`
	City      string `db:"city"`
	OwnerID   string `db:"owner_id"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (s *SQLiteStore) CreateCommunity(ctx context.Context, community *domain.Community) error {
	return createCommunity(ctx, s.db, community)
}

func (s *SQLiteStore) GetCommunity(ctx context.Context, id string) (*domain.Community, error) {
	return getCommunity(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateCommunity(ctx context.Context, community *domain.Community) error {
	return updateCommunity(ctx, s.db, community)
}

func (s *SQLiteStore) ListCommunities(ctx context.Context, opts ListOptions) ([]domain.Community, error) {
	return listCommunities(ctx, s.db, opts)
}

// =============================================================================
// Technician Operations
// =============================================================================

type technicianRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	PhoneNumber string `db:"phone_number"`
	Speciality  string `db:"speciality"`
	IsAvailable bool   `db:"is_available"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

type assignmentRow struct {
	TechnicianID string `db:"technician_id"`
	CommunityID  string `db:"community_id"`
}

func (s *SQLiteStore) CreateTechnician(ctx context.Context, technician *domain.Technician) error {
	return s.WithTx(ctx, func(tx Store) error {
		return tx.CreateTechnician(ctx, technician)
	})
}

func (s *SQLiteStore) GetTechnician(ctx context.Context, id string) (*domain.Technician, error) {
	return getTechnician(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateTechnician(ctx context.Context, technician *domain.Technician) error {
	return updateTechnician(ctx, s.db, technician)
}

func (s *SQLiteStore) SetTechnicianAvailability(ctx context.Context, technician *domain.Technician) error {
	return setTechnicianAvailability(ctx, s.db, technician)
}

func (s *SQLiteStore) AssignTechnician(ctx context.Context, id string, communityIDs []string) error {
	return s.WithTx(ctx, func(tx Store) error {
		return tx.AssignTechnician(ctx, id, communityIDs)
	})
}

func (s *SQLiteStore) ListTechniciansByCommunity(ctx context.Context, communityID string, opts ListOptions) ([]domain.Technician, error) {
	return listTechniciansByCommunity(ctx, s.db, communityID, false, nil, opts)
}

func (s *SQLiteStore) ListAvailableTechnicians(ctx context.Context, communityID string, filter AvailabilityFilter) ([]domain.Technician, error) {
	return listTechniciansByCommunity(ctx, s.db, communityID, true, filter.Speciality, filter.ListOptions)
}

// =============================================================================
// Revoked Token Operations
// =============================================================================

func (s *SQLiteStore) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return revokeToken(ctx, s.db, tokenID, expiresAt)
}

func (s *SQLiteStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	return isTokenRevoked(ctx, s.db, tokenID)
}

func (s *SQLiteStore) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	return purgeExpiredTokens(ctx, s.db, now)
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// =============================================================================
// Transaction Store
// =============================================================================

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, s.tx, user)
}

func (s *txSQLiteStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return getUser(ctx, s.tx, "GetUser", "id", id)
}

func (s *txSQLiteStore) GetUserByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	return getUser(ctx, s.tx, "GetUserByPhone", "phone_number", phoneNumber)
}

func (s *txSQLiteStore) CreateCommunity(ctx context.Context, community *domain.Community) error {
	return createCommunity(ctx, s.tx, community)
}

func (s *txSQLiteStore) GetCommunity(ctx context.Context, id string) (*domain.Community, error) {
	return getCommunity(ctx, s.tx, id)
}

func (s *txSQLiteStore) UpdateCommunity(ctx context.Context, community *domain.Community) error {
	return updateCommunity(ctx, s.tx, community)
}

func (s *txSQLiteStore) ListCommunities(ctx context.Context, opts ListOptions) ([]domain.Community, error) {
	return listCommunities(ctx, s.tx, opts)
}

func (s *txSQLiteStore) CreateTechnician(ctx context.Context, technician *domain.Technician) error {
	return createTechnician(ctx, s.tx, technician)
}

func (s *txSQLiteStore) GetTechnician(ctx context.Context, id string) (*domain.Technician, error) {
	return getTechnician(ctx, s.tx, id)
}

func (s *txSQLiteStore) UpdateTechnician(ctx context.Context, technician *domain.Technician) error {
	return updateTechnician(ctx, s.tx, technician)
}

func (s *txSQLiteStore) SetTechnicianAvailability(ctx context.Context, technician *domain.Technician) error {
	return setTechnicianAvailability(ctx, s.tx, technician)
}

func (s *txSQLiteStore) AssignTechnician(ctx context.Context, id string, communityIDs []string) error {
	return assignTechnician(ctx, s.tx, id, communityIDs)
}

func (s *txSQLiteStore) ListTechniciansByCommunity(ctx context.Context, communityID string, opts ListOptions) ([]domain.Technician, error) {
	return listTechniciansByCommunity(ctx, s.tx, communityID, false, nil, opts)
}

func (s *txSQLiteStore) ListAvailableTechnicians(ctx context.Context, communityID string, filter AvailabilityFilter) ([]domain.Technician, error) {
	return listTechniciansByCommunity(ctx, s.tx, communityID, true, filter.Speciality, filter.ListOptions)
}

func (s *txSQLiteStore) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return revokeToken(ctx, s.tx, tokenID, expiresAt)
}

func (s *txSQLiteStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	return isTokenRevoked(ctx, s.tx, tokenID)
}

func (s *txSQLiteStore) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	return purgeExpiredTokens(ctx, s.tx, now)
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just run the function
	return fn(s)
}

func (s *txSQLiteStore) Ping(ctx context.Context) error {
	return nil
}

func (s *txSQLiteStore) Close() error {
	// No-op for tx store
	return nil
}

// =============================================================================
// Shared Implementation Functions
// =============================================================================

func createUser(ctx context.Context, exec executor, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, phone_number, role, password_hash, created_at)
		VALUES (:id, :name, :phone_number, :role, :password_hash, :created_at)`

	row := userRow{
		ID:           user.ID,
		Name:         user.Name,
		PhoneNumber:  user.PhoneNumber,
		Role:         string(user.Role),
		PasswordHash: user.PasswordHash,
		CreatedAt:    formatTime(user.CreatedAt),
	}

	if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
		return classify("CreateUser", "user", user.ID, err)
	}
	return nil
}

func getUser(ctx context.Context, exec executor, op, column, value string) (*domain.User, error) {
	query := `SELECT * FROM users WHERE ` + column + ` = ?`

	var row userRow
	if err := exec.GetContext(ctx, &row, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError(op, "user", value, "user not found", ErrNotFound)
		}
		return nil, NewStoreError(op, "user", value, err.Error(), err)
	}

	return &domain.User{
		ID:           row.ID,
		Name:         row.Name,
		PhoneNumber:  row.PhoneNumber,
		Role:         domain.Role(row.Role),
		PasswordHash: row.PasswordHash,
		CreatedAt:    parseTime(row.CreatedAt),
	}, nil
}

func createCommunity(ctx context.Context, exec executor, c *domain.Community) error {
	query := `
		INSERT INTO communities (id, name, address, city, owner_id, created_at, updated_at)
		VALUES (:id, :name, :address, :city, :owner_id, :created_at, :updated_at)`

	if _, err := exec.NamedExecContext(ctx, query, communityToRow(c)); err != nil {
		return classify("CreateCommunity", "community", c.ID, err)
	}
	return nil
}

func getCommunity(ctx context.Context, exec executor, id string) (*domain.Community, error) {
	var row communityRow
	if err := exec.GetContext(ctx, &row, `SELECT * FROM communities WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetCommunity", "community", id, "community not found", ErrNotFound)
		}
		return nil, NewStoreError("GetCommunity", "community", id, err.Error(), err)
	}
	c := rowToCommunity(row)
	return &c, nil
}

func updateCommunity(ctx context.Context, exec executor, c *domain.Community) error {
	query := `
		UPDATE communities SET
			name = :name,
			address = :address,
			city = :city,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, communityToRow(c))
	if err != nil {
		return classify("UpdateCommunity", "community", c.ID, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateCommunity", "community", c.ID, "community not found", ErrNotFound)
	}
	return nil
}

func listCommunities(ctx context.Context, exec executor, opts ListOptions) ([]domain.Community, error) {
	opts = opts.Normalize()

	var rows []communityRow
	query := `SELECT * FROM communities ORDER BY name, id LIMIT ? OFFSET ?`
	if err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset); err != nil {
		return nil, NewStoreError("ListCommunities", "community", "", err.Error(), err)
	}

	communities := make([]domain.Community, 0, len(rows))
	for _, row := range rows {
		communities = append(communities, rowToCommunity(row))
	}
	return communities, nil
}

func createTechnician(ctx context.Context, exec executor, t *domain.Technician) error {
	query := `
		INSERT INTO technicians (id, name, phone_number, speciality, is_available, created_at, updated_at)
		VALUES (:id, :name, :phone_number, :speciality, :is_available, :created_at, :updated_at)`

	if _, err := exec.NamedExecContext(ctx, query, technicianToRow(t)); err != nil {
		return classify("CreateTechnician", "technician", t.ID, err)
	}
	if err := insertAssignments(ctx, exec, "CreateTechnician", t.ID, t.CommunityIDs); err != nil {
		return err
	}
	return nil
}

func getTechnician(ctx context.Context, exec executor, id string) (*domain.Technician, error) {
	var row technicianRow
	if err := exec.GetContext(ctx, &row, `SELECT * FROM technicians WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetTechnician", "technician", id, "technician not found", ErrNotFound)
		}
		return nil, NewStoreError("GetTechnician", "technician", id, err.Error(), err)
	}

	technicians, err := withAssignments(ctx, exec, "GetTechnician", []technicianRow{row})
	if err != nil {
		return nil, err
	}
	return &technicians[0], nil
}

func updateTechnician(ctx context.Context, exec executor, t *domain.Technician) error {
	query := `
		UPDATE technicians SET
			name = :name,
			phone_number = :phone_number,
			speciality = :speciality,
			is_available = :is_available,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, technicianToRow(t))
	if err != nil {
		return classify("UpdateTechnician", "technician", t.ID, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateTechnician", "technician", t.ID, "technician not found", ErrNotFound)
	}
	return nil
}

// setTechnicianAvailability writes only the availability flag and timestamp,
// leaving the technician's other columns as they are.
func setTechnicianAvailability(ctx context.Context, exec executor, t *domain.Technician) error {
	query := `UPDATE technicians SET is_available = ?, updated_at = ? WHERE id = ?`

	result, err := exec.ExecContext(ctx, query, t.IsAvailable, formatTime(t.UpdatedAt), t.ID)
	if err != nil {
		return NewStoreError("SetTechnicianAvailability", "technician", t.ID, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("SetTechnicianAvailability", "technician", t.ID, "technician not found", ErrNotFound)
	}
	return nil
}

func assignTechnician(ctx context.Context, exec executor, id string, communityIDs []string) error {
	result, err := exec.ExecContext(ctx, `UPDATE technicians SET updated_at = ? WHERE id = ?`, formatTime(time.Now()), id)
	if err != nil {
		return NewStoreError("AssignTechnician", "technician", id, err.Error(), err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("AssignTechnician", "technician", id, "technician not found", ErrNotFound)
	}
	return insertAssignments(ctx, exec, "AssignTechnician", id, communityIDs)
}

func insertAssignments(ctx context.Context, exec executor, op, technicianID string, communityIDs []string) error {
	query := `INSERT OR IGNORE INTO technician_communities (technician_id, community_id) VALUES (?, ?)`
	for _, communityID := range communityIDs {
		if _, err := exec.ExecContext(ctx, query, technicianID, communityID); err != nil {
			return classify(op, "technician", technicianID, err)
		}
	}
	return nil
}

func listTechniciansByCommunity(ctx context.Context, exec executor, communityID string, availableOnly bool, speciality *domain.Speciality, opts ListOptions) ([]domain.Technician, error) {
	opts = opts.Normalize()
	op := "ListTechniciansByCommunity"

	query := `
		SELECT t.* FROM technicians t
		JOIN technician_communities tc ON tc.technician_id = t.id
		WHERE tc.community_id = ?`
	args := []any{communityID}

	if availableOnly {
		op = "ListAvailableTechnicians"
		query += ` AND t.is_available = 1`
	}
	if speciality != nil {
		query += ` AND t.speciality = ?`
		args = append(args, string(*speciality))
	}
	query += ` ORDER BY t.name, t.id LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	var rows []technicianRow
	if err := exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewStoreError(op, "technician", "", err.Error(), err)
	}
	return withAssignments(ctx, exec, op, rows)
}

// withAssignments loads the community IDs of every row in one query.
func withAssignments(ctx context.Context, exec executor, op string, rows []technicianRow) ([]domain.Technician, error) {
	technicians := make([]domain.Technician, 0, len(rows))
	if len(rows) == 0 {
		return technicians, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	query, args, err := sqlx.In(`
		SELECT technician_id, community_id FROM technician_communities
		WHERE technician_id IN (?)
		ORDER BY rowid`, ids)
	if err != nil {
		return nil, NewStoreError(op, "technician", "", err.Error(), err)
	}

	var assignments []assignmentRow
	if err := exec.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, NewStoreError(op, "technician", "", err.Error(), err)
	}
	byTechnician := make(map[string][]string, len(rows))
	for _, a := range assignments {
		byTechnician[a.TechnicianID] = append(byTechnician[a.TechnicianID], a.CommunityID)
	}

	for _, row := range rows {
		technicians = append(technicians, domain.Technician{
			ID:           row.ID,
			Name:         row.Name,
			PhoneNumber:  row.PhoneNumber,
			Speciality:   domain.Speciality(row.Speciality),
			IsAvailable:  row.IsAvailable,
			CommunityIDs: byTechnician[row.ID],
			CreatedAt:    parseTime(row.CreatedAt),
			UpdatedAt:    parseTime(row.UpdatedAt),
		})
	}
	return technicians, nil
}

func revokeToken(ctx context.Context, exec executor, tokenID string, expiresAt time.Time) error {
	query := `INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`
	if _, err := exec.ExecContext(ctx, query, tokenID, formatTime(expiresAt)); err != nil {
		return NewStoreError("RevokeToken", "token", tokenID, err.Error(), err)
	}
	return nil
}

func isTokenRevoked(ctx context.Context, exec executor, tokenID string) (bool, error) {
	var count int
	if err := exec.GetContext(ctx, &count, `SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, tokenID); err != nil {
		return false, NewStoreError("IsTokenRevoked", "token", tokenID, err.Error(), err)
	}
	return count > 0, nil
}

func purgeExpiredTokens(ctx context.Context, exec executor, now time.Time) (int64, error) {
	result, err := exec.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, NewStoreError("PurgeExpiredTokens", "token", "", err.Error(), err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// =============================================================================
// Row Conversion
// =============================================================================

func communityToRow(c *domain.Community) communityRow {
	return communityRow{
		ID:        c.ID,
		Name:      c.Name,
		Address:   c.Address,
		City:      c.City,
		OwnerID:   c.OwnerID,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
}

func rowToCommunity(row communityRow) domain.Community {
	return domain.Community{
		ID:        row.ID,
		Name:      row.Name,
		Address:   row.Address,
		City:      row.City,
		OwnerID:   row.OwnerID,
		CreatedAt: parseTime(row.CreatedAt),
		UpdatedAt: parseTime(row.UpdatedAt),
	}
}

func technicianToRow(t *domain.Technician) technicianRow {
	return technicianRow{
		ID:          t.ID,
		Name:        t.Name,
		PhoneNumber: t.PhoneNumber,
		Speciality:  string(t.Speciality),
		IsAvailable: t.IsAvailable,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

// Timestamps are stored as UTC RFC 3339 text so they also sort as strings.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// classify maps SQLite constraint failures onto the package sentinels.
func classify(op, entity, id string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, ".phone_number"):
		return NewStoreError(op, entity, id, "phone number already registered", ErrDuplicatePhone)
	case strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, ".id"):
		return NewStoreError(op, entity, id, entity+" with this ID already exists", ErrDuplicateID)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return NewStoreError(op, entity, id, "referenced entity does not exist", ErrForeignKey)
	}
	return NewStoreError(op, entity, id, msg, err)
}
