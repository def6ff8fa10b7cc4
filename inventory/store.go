/*
store.go - Persistence interfaces for the inventory engine

PURPOSE:
  Defines the boundary between domain logic and the database. The engine
  only ever reads and writes through these interfaces; implementations
  live in store/sqlite (production) and inventory/store (in-memory).

KEY INTERFACES:
  AssetStore:      Asset catalog reads and writes
  AssetTypeStore:  Asset type catalog
  CommitmentStore: Append-only commitment records
  UserDirectory:   Users, roles, profiles
  UploadStore:     Bulk upload history
  TxStore:         Atomic multi-write batches

COMMITMENT RECORDS ARE APPEND-ONLY:
  CommitmentStore has no update or delete. A commitment is "closed" by the
  passage of time (EndDate < today filters it out of open queries), never
  by mutation.

ATOMIC ASSIGNMENT:
  Executing a confirmed batch touches two tables per grant (assets and
  commitments) across many grants. TxStore.WithTx gives the executor an
  all-or-nothing scope; the read-check-decrement-write sequence for each
  asset MUST happen inside it. This is a documented contract of every
  implementation, not an assumption.

SEE ALSO:
  - executor.go: Uses TxStore for assignment batches
  - store/memory.go: In-memory implementation for tests
  - store/sqlite/sqlite.go: Production implementation
*/
package inventory

import "context"

// =============================================================================
// ASSET STORES
// =============================================================================

// AssetFilter narrows ListAssets. Zero values mean "no constraint".
type AssetFilter struct {
	Owner        UserID
	AssetTypeID  AssetTypeID
	Location     string
	Manufacturer string
	Search       string // matches name, location or manufacturer
}

type AssetStore interface {
	// GetAsset returns ErrAssetNotFound when the id is unknown.
	GetAsset(ctx context.Context, id AssetID) (*Asset, error)

	// SaveAsset inserts or updates an asset.
	SaveAsset(ctx context.Context, a *Asset) error

	DeleteAsset(ctx context.Context, id AssetID) error

	// ListAssets returns matching assets ordered by quantity descending.
	ListAssets(ctx context.Context, filter AssetFilter) ([]Asset, error)
}

type AssetTypeStore interface {
	// GetAssetType returns ErrAssetTypeNotFound when the id is unknown.
	GetAssetType(ctx context.Context, id AssetTypeID) (*AssetType, error)

	SaveAssetType(ctx context.Context, t *AssetType) error

	DeleteAssetType(ctx context.Context, id AssetTypeID) error

	ListAssetTypes(ctx context.Context, search string) ([]AssetType, error)

	// FindAssetType matches on exact type, sub-type and group text.
	// Returns ErrAssetTypeNotFound when nothing matches.
	FindAssetType(ctx context.Context, typ, subType, group string) (*AssetType, error)
}

// =============================================================================
// COMMITMENT STORE - Append-only
// =============================================================================

type CommitmentStore interface {
	// CreateCommitment appends a record. There is no update and no delete.
	CreateCommitment(ctx context.Context, rec CommitmentRecord) error

	// OpenCommitments returns records for the asset with EndDate >= asOf,
	// ordered by start date.
	OpenCommitments(ctx context.Context, assetID AssetID, asOf DateStamp) ([]CommitmentRecord, error)

	// CommitmentsByUser returns all records held by a user, newest first.
	CommitmentsByUser(ctx context.Context, userID UserID) ([]CommitmentRecord, error)
}

// =============================================================================
// USER DIRECTORY - Roles are ambient group membership, injected as a capability
// =============================================================================

type UserDirectory interface {
	// GetUser returns ErrUserNotFound when the id is unknown.
	GetUser(ctx context.Context, id UserID) (*User, error)

	// GetUserByEmail returns ErrUserNotFound when the email is unknown.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	SaveUser(ctx context.Context, u *User) error

	ListUsers(ctx context.Context) ([]User, error)

	// HasRole reports whether the user holds the role.
	HasRole(ctx context.Context, id UserID, role Role) (bool, error)

	Roles(ctx context.Context, id UserID) ([]Role, error)

	AddRole(ctx context.Context, id UserID, role Role) error

	RemoveRole(ctx context.Context, id UserID, role Role) error

	GetProfile(ctx context.Context, id UserID) (*Profile, error)

	SaveProfile(ctx context.Context, p *Profile) error
}

// =============================================================================
// UPLOAD STORE - Bulk assignment file history
// =============================================================================

// UploadRecord remembers one bulk assignment file run: who uploaded what and
// the annotated report that validation produced.
type UploadRecord struct {
	ID         string
	UploadedBy UserID
	Filename   string
	Report     []byte // annotated CSV with per-row status
	Succeeded  bool
	UploadedAt DateStamp
}

type UploadStore interface {
	RecordUpload(ctx context.Context, rec UploadRecord) error
	ListUploads(ctx context.Context) ([]UploadRecord, error)
}

// =============================================================================
// COMBINED / TRANSACTIONAL STORE
// =============================================================================

// Store aggregates every persistence capability the engine needs.
type Store interface {
	AssetStore
	AssetTypeStore
	CommitmentStore
	UserDirectory
	UploadStore
}

// TxStore adds atomic batches on top of Store.
type TxStore interface {
	Store

	// WithTx executes fn against a transactional view of the store.
	// If fn returns an error every write inside it is rolled back;
	// otherwise all writes commit together.
	WithTx(ctx context.Context, fn func(Store) error) error
}
