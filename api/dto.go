/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

RESPONSE ENVELOPE:
  Every response body carries a human-readable "detail" line and, when
  applicable, "data" and "count" fields. Error responses reuse the same
  envelope with the errors listed under "errors".

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers run
  them through the shared validator instance before touching the domain.

SEE ALSO:
  - handlers.go: Uses these types
  - inventory/types.go: The domain model these map onto
*/
package api

import (
	"time"

	"github.com/warp/inventory-engine/inventory"
)

// =============================================================================
// ENVELOPE
// =============================================================================

// Envelope is the uniform response body shape.
type Envelope struct {
	Detail string   `json:"detail"`
	Data   any      `json:"data,omitempty"`
	Count  *int     `json:"count,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// =============================================================================
// ASSET TYPES
// =============================================================================

// AssetTypeDTO represents an asset type in API responses. Code is derived,
// never stored.
type AssetTypeDTO struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	SubType     string `json:"sub_type"`
	Group       string `json:"group"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// SaveAssetTypeRequest creates or updates an asset type.
type SaveAssetTypeRequest struct {
	Type        string `json:"type" validate:"required"`
	SubType     string `json:"sub_type" validate:"required"`
	Group       string `json:"group" validate:"required"`
	Description string `json:"description"`
}

// AssetTypeCodeRequest looks up the derived code for an exact type triple.
type AssetTypeCodeRequest struct {
	Type    string `json:"type" validate:"required"`
	SubType string `json:"sub_type" validate:"required"`
	Group   string `json:"group" validate:"required"`
}

// =============================================================================
// ASSETS
// =============================================================================

// AssetDTO represents an asset in API responses.
type AssetDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Quantity     int64  `json:"quantity"`
	CurrentOwner string `json:"current_owner"`
	AssetTypeID  string `json:"asset_type_id"`
	Location     string `json:"location,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// SaveAssetRequest creates or updates an asset.
type SaveAssetRequest struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description"`
	Quantity     int64  `json:"quantity" validate:"gt=0"`
	AssetTypeID  string `json:"asset_type_id" validate:"required"`
	Location     string `json:"location"`
	Manufacturer string `json:"manufacturer"`
}

// =============================================================================
// ASSIGNMENT
// =============================================================================

// RequisitionRowDTO is one proposed assignment row. Dates are ISO YYYY-MM-DD;
// an empty start defaults to today, an empty end to the open-ended sentinel.
type RequisitionRowDTO struct {
	AssetID   string `json:"asset_id" validate:"required"`
	Quantity  int64  `json:"quantity"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// AssignRequest assigns a batch of requisition rows to one user.
type AssignRequest struct {
	UserID string              `json:"user_id" validate:"required"`
	Rows   []RequisitionRowDTO `json:"rows" validate:"required,min=1,dive"`
}

// CommitmentDTO represents a reservation window in API responses.
type CommitmentDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	AssetID   string `json:"asset_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Quantity  int64  `json:"quantity"`
}

// UploadDTO represents one bulk upload record.
type UploadDTO struct {
	ID         string `json:"id"`
	UploadedBy string `json:"uploaded_by"`
	Filename   string `json:"filename"`
	Succeeded  bool   `json:"succeeded"`
	UploadedAt string `json:"uploaded_at"`
}

// =============================================================================
// USERS / PROFILES
// =============================================================================

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Active    bool     `json:"active"`
	Roles     []string `json:"roles,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
}

// CreateUserRequest registers a new user.
type CreateUserRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PromoteUserRequest raises a user to moderator or admin.
type PromoteUserRequest struct {
	Role string `json:"role" validate:"required,oneof=moderator admin"`
}

// ProfileDTO represents the acting user's profile.
type ProfileDTO struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name,omitempty"`
	Designation   string `json:"designation,omitempty"`
	Qualification string `json:"qualification,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	Address       string `json:"address,omitempty"`
}

// SaveProfileRequest creates or updates the acting user's profile.
type SaveProfileRequest struct {
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name"`
	Designation   string `json:"designation"`
	Qualification string `json:"qualification"`
	PhoneNumber   string `json:"phone_number"`
	Address       string `json:"address"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toAssetTypeDTO(t *inventory.AssetType) AssetTypeDTO {
	return AssetTypeDTO{
		ID:          string(t.ID),
		Type:        t.Type,
		SubType:     t.SubType,
		Group:       t.Group,
		Code:        t.Code(),
		Description: t.Description,
		CreatedAt:   formatTimestamp(t.CreatedAt),
	}
}

func toAssetTypeDTOs(types []inventory.AssetType) []AssetTypeDTO {
	dtos := make([]AssetTypeDTO, len(types))
	for i := range types {
		dtos[i] = toAssetTypeDTO(&types[i])
	}
	return dtos
}

func toAssetDTO(a *inventory.Asset) AssetDTO {
	return AssetDTO{
		ID:           string(a.ID),
		Name:         a.Name,
		Description:  a.Description,
		Quantity:     a.Quantity.Int(),
		CurrentOwner: string(a.CurrentOwner),
		AssetTypeID:  string(a.AssetTypeID),
		Location:     a.Location,
		Manufacturer: a.Manufacturer,
		CreatedAt:    formatTimestamp(a.CreatedAt),
	}
}

func toAssetDTOs(assets []inventory.Asset) []AssetDTO {
	dtos := make([]AssetDTO, len(assets))
	for i := range assets {
		dtos[i] = toAssetDTO(&assets[i])
	}
	return dtos
}

func toCommitmentDTOs(recs []inventory.CommitmentRecord) []CommitmentDTO {
	dtos := make([]CommitmentDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = CommitmentDTO{
			ID:        string(rec.ID),
			UserID:    string(rec.UserID),
			AssetID:   string(rec.AssetID),
			StartDate: rec.StartDate.String(),
			EndDate:   rec.EndDate.String(),
			Quantity:  rec.Quantity.Int(),
		}
	}
	return dtos
}

func toUserDTO(u *inventory.User, roles []inventory.Role) UserDTO {
	dto := UserDTO{
		ID:        string(u.ID),
		Email:     u.Email,
		Active:    u.Active,
		CreatedAt: formatTimestamp(u.CreatedAt),
	}
	for _, r := range roles {
		dto.Roles = append(dto.Roles, string(r))
	}
	return dto
}

func toProfileDTO(p *inventory.Profile) ProfileDTO {
	return ProfileDTO{
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Designation:   p.Designation,
		Qualification: p.Qualification,
		PhoneNumber:   p.PhoneNumber,
		Address:       p.Address,
	}
}

func toUploadDTOs(recs []inventory.UploadRecord) []UploadDTO {
	dtos := make([]UploadDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = UploadDTO{
			ID:         rec.ID,
			UploadedBy: string(rec.UploadedBy),
			Filename:   rec.Filename,
			Succeeded:  rec.Succeeded,
			UploadedAt: rec.UploadedAt.String(),
		}
	}
	return dtos
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// toRequisitionRequests maps incoming rows onto domain requests. Quantities
// and dates stay permissive here; the domain validator owns the rules and
// reports every violation at once.
func toRequisitionRequests(rows []RequisitionRowDTO) ([]inventory.RequisitionRequest, []string) {
	var parseErrs []string
	out := make([]inventory.RequisitionRequest, 0, len(rows))
	for _, row := range rows {
		req := inventory.RequisitionRequest{
			AssetID:  inventory.AssetID(row.AssetID),
			Quantity: inventory.NewQuantity(row.Quantity),
		}
		if row.StartDate != "" {
			d, err := inventory.ParseDate(row.StartDate)
			if err != nil {
				parseErrs = append(parseErrs, "invalid start date for asset "+row.AssetID+": expected YYYY-MM-DD")
				continue
			}
			req.StartDate = d
		}
		if row.EndDate != "" {
			d, err := inventory.ParseDate(row.EndDate)
			if err != nil {
				parseErrs = append(parseErrs, "invalid end date for asset "+row.AssetID+": expected YYYY-MM-DD")
				continue
			}
			req.EndDate = d
		}
		out = append(out, req)
	}
	return out, parseErrs
}
