/*
Package inventory provides the core asset management engine.

PURPOSE:
  This package contains the domain types and algorithms behind asset
  requisitions: quantity tracking, requisition validation, commitment
  timelines, and assignment execution. The HTTP layer and the persistence
  layer sit outside; everything here is deterministic given a store state
  and an explicit clock.

KEY CONCEPTS IN THIS FILE (types.go):
  - Quantity: A non-negative stock count (decimal-backed, integral in practice)
  - Asset / AssetType: The inventory catalog, with derived type codes
  - CommitmentRecord: An immutable reservation window against an asset
  - RequisitionRequest / Grant: Proposed vs confirmed assignment rows
  - Role: Opaque role labels checked through the injected UserDirectory

DESIGN PRINCIPLES:
  1. Immutability: CommitmentRecords are never mutated, only created;
     closure is a query-time filter on end date
  2. Precision: Uses decimal.Decimal so quantity arithmetic never drifts
  3. Explicit clock: "now" is always a parameter, never read ambiently
  4. Derived values: AssetType.Code is computed, never stored

SEE ALSO:
  - validator.go: Row-level requisition validation
  - timeline.go: Commitment timeline and the totality check
  - executor.go: Applying confirmed grants
*/
package inventory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// QUANTITY - Stock count with exact arithmetic
// =============================================================================

type Quantity struct {
	Value decimal.Decimal
}

func NewQuantity(value int64) Quantity {
	return Quantity{Value: decimal.NewFromInt(value)}
}

func MustParseQuantity(s string) Quantity {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{Value: decimal.Zero}
	}
	return Quantity{Value: d}
}

func (q Quantity) Add(o Quantity) Quantity      { return Quantity{Value: q.Value.Add(o.Value)} }
func (q Quantity) Sub(o Quantity) Quantity      { return Quantity{Value: q.Value.Sub(o.Value)} }
func (q Quantity) IsNegative() bool             { return q.Value.IsNegative() }
func (q Quantity) IsZero() bool                 { return q.Value.IsZero() }
func (q Quantity) IsPositive() bool             { return q.Value.IsPositive() }
func (q Quantity) GreaterThan(o Quantity) bool  { return q.Value.GreaterThan(o.Value) }
func (q Quantity) LessThan(o Quantity) bool     { return q.Value.LessThan(o.Value) }
func (q Quantity) Equal(o Quantity) bool        { return q.Value.Equal(o.Value) }
func (q Quantity) Int() int64                   { return q.Value.IntPart() }
func (q Quantity) String() string               { return q.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AssetID string
type AssetTypeID string
type UserID string
type CommitmentID string

// =============================================================================
// ROLES - Checked through UserDirectory, never stored on domain types
// =============================================================================

type Role string

const (
	RoleUser      Role = "user"      // Normal user: sees only own assets
	RoleModerator Role = "moderator" // Can manage assets and assign them
	RoleAdmin     Role = "admin"     // Can also manage asset types and uploads
	RoleSuperuser Role = "superuser" // Platform owner, default asset holder
)

// =============================================================================
// ASSET TYPE - Catalog entry with a derived short code
// =============================================================================

// AssetType classifies assets. Type, SubType and Group are free text, each
// carrying an embedded short code in parentheses, e.g. "Laptop(HDW)".
type AssetType struct {
	ID          AssetTypeID
	Type        string
	SubType     string
	Group       string
	Description string
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

// Code derives the asset type code from the three embedded short codes:
// "Laptop(HDW)" / "Dell(DELL)" / "IT(IT)" yields "HDW-DELL-IT".
// The code is never stored; it is always recomputed.
func (t AssetType) Code() string {
	return extractCode(t.Type) + "-" + extractCode(t.SubType) + "-" + extractCode(t.Group)
}

func extractCode(s string) string {
	open := strings.LastIndex(s, "(")
	if open < 0 {
		return s
	}
	rest := s[open+1:]
	if close := strings.Index(rest, ")"); close >= 0 {
		return rest[:close]
	}
	return rest
}

// =============================================================================
// ASSET - A stocked inventory item
// =============================================================================

// Asset is a stocked item. Quantity is the currently available count and is
// never negative after a committed operation; CurrentOwner is whoever holds
// the stock right now (a superuser until assigned out).
type Asset struct {
	ID           AssetID
	Name         string
	Description  string
	Quantity     Quantity
	CurrentOwner UserID
	AssetTypeID  AssetTypeID
	Location     string
	Manufacturer string
	CreatedAt    time.Time
	ModifiedAt   time.Time
}

// =============================================================================
// USER / PROFILE - Thin directory records (authentication is external)
// =============================================================================

type User struct {
	ID        UserID
	Email     string
	Active    bool
	CreatedAt time.Time
}

type Profile struct {
	UserID        UserID
	FirstName     string
	LastName      string
	Designation   string
	Qualification string
	PhoneNumber   string
	Address       string
	ModifiedAt    time.Time
}

// =============================================================================
// COMMITMENT RECORD - Immutable reservation window against an asset
// =============================================================================

// CommitmentRecord records that a user holds Quantity units of an asset from
// StartDate through EndDate. Records are append-only: a commitment is "open"
// while EndDate >= today and is never deleted or edited.
type CommitmentRecord struct {
	ID        CommitmentID
	UserID    UserID
	AssetID   AssetID
	StartDate DateStamp
	EndDate   DateStamp
	Quantity  Quantity
	CreatedAt time.Time
}

// Open reports whether the commitment is still outstanding as of the given date.
func (c CommitmentRecord) Open(asOf DateStamp) bool {
	return c.EndDate.AfterOrEqual(asOf)
}

// =============================================================================
// REQUISITION REQUEST - Transient input row, validated then discarded
// =============================================================================

// RequisitionRequest is one proposed assignment row. StartDate defaults to
// "now" and EndDate to the NoEndDate sentinel when left zero.
type RequisitionRequest struct {
	AssetID   AssetID
	Quantity  Quantity
	StartDate DateStamp
	EndDate   DateStamp
}

// Window returns the effective start and end dates with defaults applied.
func (r RequisitionRequest) Window(now DateStamp) (start, end DateStamp) {
	start, end = r.StartDate, r.EndDate
	if start.IsZero() {
		start = now
	}
	if end.IsZero() {
		end = NoEndDate()
	}
	return start, end
}

// =============================================================================
// GRANT - A confirmed requisition, ready for execution
// =============================================================================

// Grant pairs a fetched asset with a validated requisition window. Grants only
// exist between a successful validation pass and execution; they are never
// persisted.
type Grant struct {
	Asset     *Asset
	Quantity  Quantity
	StartDate DateStamp
	EndDate   DateStamp
}
