/*
Package sqlite provides the SQLite-backed implementation of the inventory
store interfaces.

PURPOSE:
  Implements inventory.TxStore on a single SQLite file, suitable for a
  single-node deployment. The queries stick to portable SQL so a server
  database can take over without touching the store interfaces.

KEY TABLES:
  assets:       The stocked catalog (quantity, current owner)
  asset_types:  Classification entries; the display code is derived in Go,
                never stored
  commitments:  Append-only reservation windows
  users, user_roles, profiles: Directory records
  uploads:      Bulk assignment file history

APPEND-ONLY ENFORCEMENT:
  The commitments table has INSERT and SELECT paths only:
  - No UPDATE statements on commitments
  - No DELETE statements on commitments
  - A commitment closes when its end_date passes; open-commitment queries
    filter on end_date >= the caller's date

INDEXES:
  - idx_commitments_asset_end: Open commitments per asset (hot path)
  - idx_assets_owner: Role-scoped asset listing
  - idx_asset_types_parts: Exact-match type lookup

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, and WithTx additionally holds the
  write lock for its whole scope so the executor's read-check-decrement
  sequence on an asset cannot interleave with another batch. A server
  database would enforce the same thing with row locks.

WAL MODE:
  The database is opened in write-ahead-log mode, which lets readers
  proceed while one writer commits and keeps the file recoverable after
  a crash.

USAGE:
  store, err := sqlite.New("./data/inventory.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := inventory.NewRequisitionService(store, nil)

MIGRATION:
  New() creates any missing tables and indexes on open. There is no
  schema versioning; once the schema starts evolving, moves to a
  versioned migration tool belong here.

SEE ALSO:
  - inventory/store.go: Interface definitions and contracts
  - inventory/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/inventory-engine/inventory"
)

// Store implements inventory.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ inventory.TxStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_roles (
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		UNIQUE(user_id, role)
	);

	CREATE INDEX IF NOT EXISTS idx_user_roles_user
		ON user_roles(user_id);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT,
		designation TEXT,
		qualification TEXT,
		phone_number TEXT,
		address TEXT,
		modified_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS asset_types (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		sub_type TEXT NOT NULL,
		group_name TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_asset_types_parts
		ON asset_types(type, sub_type, group_name);

	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		quantity TEXT NOT NULL,
		current_owner TEXT NOT NULL,
		asset_type_id TEXT NOT NULL,
		location TEXT,
		manufacturer TEXT,
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assets_owner
		ON assets(current_owner);
	CREATE INDEX IF NOT EXISTS idx_assets_type
		ON assets(asset_type_id);

	-- Append-only: there is no UPDATE or DELETE path for this table.
	CREATE TABLE IF NOT EXISTS commitments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		asset_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		quantity TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_commitments_asset_end
		ON commitments(asset_id, end_date);
	CREATE INDEX IF NOT EXISTS idx_commitments_user
		ON commitments(user_id);

	CREATE TABLE IF NOT EXISTS uploads (
		id TEXT PRIMARY KEY,
		uploaded_by TEXT NOT NULL,
		filename TEXT NOT NULL,
		report BLOB,
		succeeded BOOLEAN NOT NULL DEFAULT FALSE,
		uploaded_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx, so the scan and write
// helpers serve the plain store and the transactional view alike.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// ASSETS
// =============================================================================

func (s *Store) GetAsset(ctx context.Context, id inventory.AssetID) (*inventory.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAsset(ctx, s.db, id)
}

func getAsset(ctx context.Context, db dbtx, id inventory.AssetID) (*inventory.Asset, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, description, quantity, current_owner, asset_type_id,
		       location, manufacturer, created_at, modified_at
		FROM assets WHERE id = ?`, id)
	return scanAsset(row)
}

func scanAsset(row rowScanner) (*inventory.Asset, error) {
	var a inventory.Asset
	var quantity, createdAt, modifiedAt string
	var description, location, manufacturer sql.NullString
	err := row.Scan(&a.ID, &a.Name, &description, &quantity, &a.CurrentOwner,
		&a.AssetTypeID, &location, &manufacturer, &createdAt, &modifiedAt)
	if err == sql.ErrNoRows {
		return nil, inventory.ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan asset: %w", err)
	}
	a.Description = description.String
	a.Location = location.String
	a.Manufacturer = manufacturer.String
	a.Quantity = inventory.MustParseQuantity(quantity)
	a.CreatedAt = parseTime(createdAt)
	a.ModifiedAt = parseTime(modifiedAt)
	return &a, nil
}

func (s *Store) SaveAsset(ctx context.Context, a *inventory.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveAsset(ctx, s.db, a)
}

func saveAsset(ctx context.Context, db dbtx, a *inventory.Asset) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.ModifiedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO assets
			(id, name, description, quantity, current_owner, asset_type_id,
			 location, manufacturer, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			quantity = excluded.quantity,
			current_owner = excluded.current_owner,
			asset_type_id = excluded.asset_type_id,
			location = excluded.location,
			manufacturer = excluded.manufacturer,
			modified_at = excluded.modified_at`,
		a.ID, a.Name, a.Description, a.Quantity.String(), a.CurrentOwner,
		a.AssetTypeID, a.Location, a.Manufacturer,
		formatTime(a.CreatedAt), formatTime(a.ModifiedAt))
	if err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}
	return nil
}

func (s *Store) DeleteAsset(ctx context.Context, id inventory.AssetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteAsset(ctx, s.db, id)
}

func deleteAsset(ctx context.Context, db dbtx, id inventory.AssetID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.ErrAssetNotFound
	}
	return nil
}

func (s *Store) ListAssets(ctx context.Context, filter inventory.AssetFilter) ([]inventory.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAssets(ctx, s.db, filter)
}

func listAssets(ctx context.Context, db dbtx, filter inventory.AssetFilter) ([]inventory.Asset, error) {
	query := `
		SELECT id, name, description, quantity, current_owner, asset_type_id,
		       location, manufacturer, created_at, modified_at
		FROM assets`
	var conds []string
	var args []any
	if filter.Owner != "" {
		conds = append(conds, "current_owner = ?")
		args = append(args, filter.Owner)
	}
	if filter.AssetTypeID != "" {
		conds = append(conds, "asset_type_id = ?")
		args = append(args, filter.AssetTypeID)
	}
	if filter.Location != "" {
		conds = append(conds, "location = ?")
		args = append(args, filter.Location)
	}
	if filter.Manufacturer != "" {
		conds = append(conds, "manufacturer = ?")
		args = append(args, filter.Manufacturer)
	}
	if filter.Search != "" {
		conds = append(conds, "(name LIKE ? OR location LIKE ? OR manufacturer LIKE ?)")
		needle := "%" + filter.Search + "%"
		args = append(args, needle, needle, needle)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	// Quantity is stored as a decimal string; CAST keeps the ordering numeric.
	query += " ORDER BY CAST(quantity AS REAL) DESC, id"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var out []inventory.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// =============================================================================
// ASSET TYPES
// =============================================================================

func (s *Store) GetAssetType(ctx context.Context, id inventory.AssetTypeID) (*inventory.AssetType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAssetType(ctx, s.db, id)
}

func getAssetType(ctx context.Context, db dbtx, id inventory.AssetTypeID) (*inventory.AssetType, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, type, sub_type, group_name, description, created_at, modified_at
		FROM asset_types WHERE id = ?`, id)
	return scanAssetType(row)
}

func scanAssetType(row rowScanner) (*inventory.AssetType, error) {
	var t inventory.AssetType
	var description sql.NullString
	var createdAt, modifiedAt string
	err := row.Scan(&t.ID, &t.Type, &t.SubType, &t.Group, &description, &createdAt, &modifiedAt)
	if err == sql.ErrNoRows {
		return nil, inventory.ErrAssetTypeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan asset type: %w", err)
	}
	t.Description = description.String
	t.CreatedAt = parseTime(createdAt)
	t.ModifiedAt = parseTime(modifiedAt)
	return &t, nil
}

func (s *Store) SaveAssetType(ctx context.Context, t *inventory.AssetType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveAssetType(ctx, s.db, t)
}

func saveAssetType(ctx context.Context, db dbtx, t *inventory.AssetType) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.ModifiedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO asset_types (id, type, sub_type, group_name, description, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			sub_type = excluded.sub_type,
			group_name = excluded.group_name,
			description = excluded.description,
			modified_at = excluded.modified_at`,
		t.ID, t.Type, t.SubType, t.Group, t.Description,
		formatTime(t.CreatedAt), formatTime(t.ModifiedAt))
	if err != nil {
		return fmt.Errorf("failed to save asset type: %w", err)
	}
	return nil
}

func (s *Store) DeleteAssetType(ctx context.Context, id inventory.AssetTypeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteAssetType(ctx, s.db, id)
}

func deleteAssetType(ctx context.Context, db dbtx, id inventory.AssetTypeID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM asset_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.ErrAssetTypeNotFound
	}
	return nil
}

func (s *Store) ListAssetTypes(ctx context.Context, search string) ([]inventory.AssetType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAssetTypes(ctx, s.db, search)
}

func listAssetTypes(ctx context.Context, db dbtx, search string) ([]inventory.AssetType, error) {
	query := `
		SELECT id, type, sub_type, group_name, description, created_at, modified_at
		FROM asset_types`
	var args []any
	if search != "" {
		query += ` WHERE type LIKE ? OR sub_type LIKE ? OR group_name LIKE ?`
		needle := "%" + search + "%"
		args = append(args, needle, needle, needle)
	}
	query += " ORDER BY id"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset types: %w", err)
	}
	defer rows.Close()

	var out []inventory.AssetType
	for rows.Next() {
		t, err := scanAssetType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) FindAssetType(ctx context.Context, typ, subType, group string) (*inventory.AssetType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findAssetType(ctx, s.db, typ, subType, group)
}

func findAssetType(ctx context.Context, db dbtx, typ, subType, group string) (*inventory.AssetType, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, type, sub_type, group_name, description, created_at, modified_at
		FROM asset_types WHERE type = ? AND sub_type = ? AND group_name = ?
		LIMIT 1`, typ, subType, group)
	return scanAssetType(row)
}

// =============================================================================
// COMMITMENTS (append-only)
// =============================================================================

func (s *Store) CreateCommitment(ctx context.Context, rec inventory.CommitmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createCommitment(ctx, s.db, rec)
}

func createCommitment(ctx context.Context, db dbtx, rec inventory.CommitmentRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO commitments (id, user_id, asset_id, start_date, end_date, quantity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.AssetID,
		rec.StartDate.String(), rec.EndDate.String(),
		rec.Quantity.String(), formatTime(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create commitment: %w", err)
	}
	return nil
}

func (s *Store) OpenCommitments(ctx context.Context, assetID inventory.AssetID, asOf inventory.DateStamp) ([]inventory.CommitmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return openCommitments(ctx, s.db, assetID, asOf)
}

func openCommitments(ctx context.Context, db dbtx, assetID inventory.AssetID, asOf inventory.DateStamp) ([]inventory.CommitmentRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, asset_id, start_date, end_date, quantity, created_at
		FROM commitments
		WHERE asset_id = ? AND end_date >= ?
		ORDER BY start_date`, assetID, asOf.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query open commitments: %w", err)
	}
	defer rows.Close()
	return scanCommitments(rows)
}

func (s *Store) CommitmentsByUser(ctx context.Context, userID inventory.UserID) ([]inventory.CommitmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return commitmentsByUser(ctx, s.db, userID)
}

func commitmentsByUser(ctx context.Context, db dbtx, userID inventory.UserID) ([]inventory.CommitmentRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, asset_id, start_date, end_date, quantity, created_at
		FROM commitments
		WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query commitments by user: %w", err)
	}
	defer rows.Close()
	return scanCommitments(rows)
}

func scanCommitments(rows *sql.Rows) ([]inventory.CommitmentRecord, error) {
	var out []inventory.CommitmentRecord
	for rows.Next() {
		var rec inventory.CommitmentRecord
		var start, end, quantity, createdAt string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.AssetID, &start, &end, &quantity, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan commitment: %w", err)
		}
		rec.StartDate, _ = inventory.ParseDate(start)
		rec.EndDate, _ = inventory.ParseDate(end)
		rec.Quantity = inventory.MustParseQuantity(quantity)
		rec.CreatedAt = parseTime(createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// USERS / ROLES / PROFILES
// =============================================================================

func (s *Store) GetUser(ctx context.Context, id inventory.UserID) (*inventory.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getUser(ctx, s.db, `SELECT id, email, active, created_at FROM users WHERE id = ?`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*inventory.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getUser(ctx, s.db, `SELECT id, email, active, created_at FROM users WHERE email = ?`, email)
}

func getUser(ctx context.Context, db dbtx, query string, arg any) (*inventory.User, error) {
	var u inventory.User
	var createdAt string
	err := db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Active, &createdAt)
	if err == sql.ErrNoRows {
		return nil, inventory.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func (s *Store) SaveUser(ctx context.Context, u *inventory.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveUser(ctx, s.db, u)
}

func saveUser(ctx context.Context, db dbtx, u *inventory.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, email, active, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			active = excluded.active`,
		u.ID, u.Email, u.Active, formatTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]inventory.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listUsers(ctx, s.db)
}

func listUsers(ctx context.Context, db dbtx) ([]inventory.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, email, active, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []inventory.User
	for rows.Next() {
		var u inventory.User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Email, &u.Active, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.CreatedAt = parseTime(createdAt)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) HasRole(ctx context.Context, id inventory.UserID, role inventory.Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return hasRole(ctx, s.db, id, role)
}

func hasRole(ctx context.Context, db dbtx, id inventory.UserID, role inventory.Role) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM user_roles WHERE user_id = ? AND role = ?`, id, role).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Roles(ctx context.Context, id inventory.UserID) ([]inventory.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return roles(ctx, s.db, id)
}

func roles(ctx context.Context, db dbtx, id inventory.UserID) ([]inventory.Role, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var out []inventory.Role
	for rows.Next() {
		var r inventory.Role
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) AddRole(ctx context.Context, id inventory.UserID, role inventory.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addRole(ctx, s.db, id, role)
}

func addRole(ctx context.Context, db dbtx, id inventory.UserID, role inventory.Role) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_roles (user_id, role) VALUES (?, ?)`, id, role)
	if err != nil {
		return fmt.Errorf("failed to add role: %w", err)
	}
	return nil
}

func (s *Store) RemoveRole(ctx context.Context, id inventory.UserID, role inventory.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeRole(ctx, s.db, id, role)
}

func removeRole(ctx context.Context, db dbtx, id inventory.UserID, role inventory.Role) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = ? AND role = ?`, id, role)
	if err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id inventory.UserID) (*inventory.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getProfile(ctx, s.db, id)
}

func getProfile(ctx context.Context, db dbtx, id inventory.UserID) (*inventory.Profile, error) {
	var p inventory.Profile
	var lastName, designation, qualification, phone, address sql.NullString
	var modifiedAt string
	err := db.QueryRowContext(ctx, `
		SELECT user_id, first_name, last_name, designation, qualification, phone_number, address, modified_at
		FROM profiles WHERE user_id = ?`, id).
		Scan(&p.UserID, &p.FirstName, &lastName, &designation, &qualification, &phone, &address, &modifiedAt)
	if err == sql.ErrNoRows {
		return nil, inventory.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	p.LastName = lastName.String
	p.Designation = designation.String
	p.Qualification = qualification.String
	p.PhoneNumber = phone.String
	p.Address = address.String
	p.ModifiedAt = parseTime(modifiedAt)
	return &p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p *inventory.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveProfile(ctx, s.db, p)
}

func saveProfile(ctx context.Context, db dbtx, p *inventory.Profile) error {
	p.ModifiedAt = time.Now().UTC()
	_, err := db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, first_name, last_name, designation, qualification, phone_number, address, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			designation = excluded.designation,
			qualification = excluded.qualification,
			phone_number = excluded.phone_number,
			address = excluded.address,
			modified_at = excluded.modified_at`,
		p.UserID, p.FirstName, p.LastName, p.Designation, p.Qualification,
		p.PhoneNumber, p.Address, formatTime(p.ModifiedAt))
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// =============================================================================
// UPLOADS
// =============================================================================

func (s *Store) RecordUpload(ctx context.Context, rec inventory.UploadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return recordUpload(ctx, s.db, rec)
}

func recordUpload(ctx context.Context, db dbtx, rec inventory.UploadRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO uploads (id, uploaded_by, filename, report, succeeded, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UploadedBy, rec.Filename, rec.Report, rec.Succeeded, rec.UploadedAt.String())
	if err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

func (s *Store) ListUploads(ctx context.Context) ([]inventory.UploadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listUploads(ctx, s.db)
}

func listUploads(ctx context.Context, db dbtx) ([]inventory.UploadRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, uploaded_by, filename, report, succeeded, uploaded_at
		FROM uploads ORDER BY uploaded_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var out []inventory.UploadRecord
	for rows.Next() {
		var rec inventory.UploadRecord
		var uploadedAt string
		if err := rows.Scan(&rec.ID, &rec.UploadedBy, &rec.Filename, &rec.Report, &rec.Succeeded, &uploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		rec.UploadedAt, _ = inventory.ParseDate(uploadedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn against a transactional view of the store. The write lock is
// held for the whole scope, so the executor's read-check-decrement-write
// sequence for an asset cannot interleave with another assignment batch.
func (s *Store) WithTx(ctx context.Context, fn func(inventory.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&txView{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txView exposes the full Store interface backed by one *sql.Tx. Every method
// delegates to the shared helpers with the transaction as their dbtx.
type txView struct {
	tx *sql.Tx
}

var _ inventory.Store = (*txView)(nil)

func (v *txView) GetAsset(ctx context.Context, id inventory.AssetID) (*inventory.Asset, error) {
	return getAsset(ctx, v.tx, id)
}

func (v *txView) SaveAsset(ctx context.Context, a *inventory.Asset) error {
	return saveAsset(ctx, v.tx, a)
}

func (v *txView) DeleteAsset(ctx context.Context, id inventory.AssetID) error {
	return deleteAsset(ctx, v.tx, id)
}

func (v *txView) ListAssets(ctx context.Context, filter inventory.AssetFilter) ([]inventory.Asset, error) {
	return listAssets(ctx, v.tx, filter)
}

func (v *txView) GetAssetType(ctx context.Context, id inventory.AssetTypeID) (*inventory.AssetType, error) {
	return getAssetType(ctx, v.tx, id)
}

func (v *txView) SaveAssetType(ctx context.Context, t *inventory.AssetType) error {
	return saveAssetType(ctx, v.tx, t)
}

func (v *txView) DeleteAssetType(ctx context.Context, id inventory.AssetTypeID) error {
	return deleteAssetType(ctx, v.tx, id)
}

func (v *txView) ListAssetTypes(ctx context.Context, search string) ([]inventory.AssetType, error) {
	return listAssetTypes(ctx, v.tx, search)
}

func (v *txView) FindAssetType(ctx context.Context, typ, subType, group string) (*inventory.AssetType, error) {
	return findAssetType(ctx, v.tx, typ, subType, group)
}

func (v *txView) CreateCommitment(ctx context.Context, rec inventory.CommitmentRecord) error {
	return createCommitment(ctx, v.tx, rec)
}

func (v *txView) OpenCommitments(ctx context.Context, assetID inventory.AssetID, asOf inventory.DateStamp) ([]inventory.CommitmentRecord, error) {
	return openCommitments(ctx, v.tx, assetID, asOf)
}

func (v *txView) CommitmentsByUser(ctx context.Context, userID inventory.UserID) ([]inventory.CommitmentRecord, error) {
	return commitmentsByUser(ctx, v.tx, userID)
}

func (v *txView) GetUser(ctx context.Context, id inventory.UserID) (*inventory.User, error) {
	return getUser(ctx, v.tx, `SELECT id, email, active, created_at FROM users WHERE id = ?`, id)
}

func (v *txView) GetUserByEmail(ctx context.Context, email string) (*inventory.User, error) {
	return getUser(ctx, v.tx, `SELECT id, email, active, created_at FROM users WHERE email = ?`, email)
}

func (v *txView) SaveUser(ctx context.Context, u *inventory.User) error {
	return saveUser(ctx, v.tx, u)
}

func (v *txView) ListUsers(ctx context.Context) ([]inventory.User, error) {
	return listUsers(ctx, v.tx)
}

func (v *txView) HasRole(ctx context.Context, id inventory.UserID, role inventory.Role) (bool, error) {
	return hasRole(ctx, v.tx, id, role)
}

func (v *txView) Roles(ctx context.Context, id inventory.UserID) ([]inventory.Role, error) {
	return roles(ctx, v.tx, id)
}

func (v *txView) AddRole(ctx context.Context, id inventory.UserID, role inventory.Role) error {
	return addRole(ctx, v.tx, id, role)
}

func (v *txView) RemoveRole(ctx context.Context, id inventory.UserID, role inventory.Role) error {
	return removeRole(ctx, v.tx, id, role)
}

func (v *txView) GetProfile(ctx context.Context, id inventory.UserID) (*inventory.Profile, error) {
	return getProfile(ctx, v.tx, id)
}

func (v *txView) SaveProfile(ctx context.Context, p *inventory.Profile) error {
	return saveProfile(ctx, v.tx, p)
}

func (v *txView) RecordUpload(ctx context.Context, rec inventory.UploadRecord) error {
	return recordUpload(ctx, v.tx, rec)
}

func (v *txView) ListUploads(ctx context.Context) ([]inventory.UploadRecord, error) {
	return listUploads(ctx, v.tx)
}

// =============================================================================
// TIME HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
