/*
handlers.go - HTTP API handlers for the inventory engine

PURPOSE:
  Exposes the asset management engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Asset types:
    GET    /api/asset-types            List (optional ?search=)
    POST   /api/asset-types            Create
    GET    /api/asset-types/{id}       Get
    PUT    /api/asset-types/{id}       Update
    DELETE /api/asset-types/{id}       Delete
    POST   /api/asset-types/code       Derived code for an exact type triple

  Assets:
    GET    /api/assets                 List (role-scoped; filters as query params)
    POST   /api/assets                 Create (owner defaults to the superuser)
    GET    /api/assets/{id}            Get
    PUT    /api/assets/{id}            Update
    DELETE /api/assets/{id}            Delete
    GET    /api/assets/{id}/commitments Open commitments for the asset
    POST   /api/assets/assign          Validate and assign a requisition batch
    GET    /api/assets/files/template  Downloadable bulk upload template
    POST   /api/assets/files/upload    Bulk assignment upload (multipart)
    GET    /api/assets/files           Upload history

  Users:
    GET    /api/users                  List
    POST   /api/users                  Register
    POST   /api/users/{id}/promote     Promote to moderator or admin

  Profile:
    GET    /api/profile                Acting user's profile
    PUT    /api/profile                Create or update the acting user's profile

AUTHENTICATION:
  Authentication itself is external (a gateway or session layer). The acting
  user arrives in the X-User-Email header; every endpoint resolves it against
  the directory and checks roles through UserDirectory. A missing or unknown
  email is a 401.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input (all row errors itemized at once)
  - 401: Unknown acting user
  - 403: Role check failed
  - 404: Resource not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - inventory/service.go: The validate-and-assign pipeline
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warp/inventory-engine/bulk"
	"github.com/warp/inventory-engine/inventory"
)

// actingUserHeader carries the authenticated caller's email, set by the
// external auth layer.
const actingUserHeader = "X-User-Email"

// maxUploadBytes caps bulk upload size. Files are row-validated anyway; this
// only guards against runaway requests.
const maxUploadBytes = 8 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        inventory.TxStore
	Requisitions *inventory.RequisitionService
	Uploads      *bulk.Validator
	Users        *inventory.UserService
	Log          logrus.FieldLogger

	validate *validator.Validate

	// now is swappable in tests; defaults to the real clock.
	now func() inventory.DateStamp
}

// NewHandler creates a new handler with the given store.
func NewHandler(store inventory.TxStore, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Store:        store,
		Requisitions: inventory.NewRequisitionService(store, log),
		Uploads:      bulk.NewValidator(store, log),
		Users:        inventory.NewUserService(store),
		Log:          log,
		validate:     validator.New(),
		now:          inventory.Today,
	}
}

// actor resolves the acting user from the request header.
func (h *Handler) actor(r *http.Request) (*inventory.User, error) {
	email := r.Header.Get(actingUserHeader)
	if email == "" {
		return nil, fmt.Errorf("missing %s header", actingUserHeader)
	}
	return h.Store.GetUserByEmail(r.Context(), email)
}

// requireActor resolves the acting user or writes a 401.
func (h *Handler) requireActor(w http.ResponseWriter, r *http.Request) (*inventory.User, bool) {
	u, err := h.actor(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required", err)
		return nil, false
	}
	return u, true
}

// requireRole checks that the actor holds at least one of the given roles.
// The superuser passes every check.
func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, actor *inventory.User, roles ...inventory.Role) bool {
	for _, role := range append(roles, inventory.RoleSuperuser) {
		ok, err := h.Store.HasRole(r.Context(), actor.ID, role)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check permissions", err)
			return false
		}
		if ok {
			return true
		}
	}
	writeError(w, http.StatusForbidden, "you do not have permission to perform this action", inventory.ErrPermissionDenied)
	return false
}

// decodeAndValidate unmarshals the body into dst and runs struct validation.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "request validation failed", err)
		return false
	}
	return true
}

// =============================================================================
// ASSET TYPE ENDPOINTS
// =============================================================================

// ListAssetTypes returns all asset types, optionally filtered by ?search=.
// GET /api/asset-types
func (h *Handler) ListAssetTypes(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	types, err := h.Store.ListAssetTypes(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list asset types", err)
		return
	}
	writeList(w, "asset types", toAssetTypeDTOs(types))
}

// CreateAssetType creates a new asset type.
// POST /api/asset-types
func (h *Handler) CreateAssetType(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok || !h.requireRole(w, r, actor, inventory.RoleAdmin) {
		return
	}
	var req SaveAssetTypeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	t := &inventory.AssetType{
		ID:          inventory.AssetTypeID(uuid.NewString()),
		Type:        req.Type,
		SubType:     req.SubType,
		Group:       req.Group,
		Description: req.Description,
	}
	if err := h.Store.SaveAssetType(r.Context(), t); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create asset type", err)
		return
	}
	writeJSON(w, http.StatusCreated, Envelope{Detail: "asset type created", Data: toAssetTypeDTO(t)})
}

// GetAssetType returns one asset type.
// GET /api/asset-types/{id}
func (h *Handler) GetAssetType(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	t, err := h.Store.GetAssetType(r.Context(), inventory.AssetTypeID(chi.URLParam(r, "id")))
	if err != nil {
		writeNotFoundOrInternal(w, "asset type", err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Detail: "asset type", Data: toAssetTypeDTO(t)})
}

// UpdateAssetType replaces an asset type's fields.
// PUT /api/asset-types/{id}
func (h *Handler) UpdateAssetType(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok || !h.requireRole(w, r, actor, inventory.RoleAdmin) {
		return
	}
	t, err := h.Store.GetAssetType(r.Context(), inventory.AssetTypeID(chi.URLParam(r, "id")))
	if err != nil {
		writeNotFoundOrInternal(w, "asset type", err)
		return
	}
	var req SaveAssetTypeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	t.Type = req.Type
	t.SubType = req.SubType
	t.Group = req.Group
	t.Description = req.Description
	if err := h.Store.SaveAssetType(r.Context(), t); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update asset type", err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Detail: "asset type updated", Data: toAssetTypeDTO(t)})
}

// DeleteAssetType removes an asset type.
// DELETE /api/asset-types/{id}
func (h *Handler) DeleteAssetType(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok || !h.requireRole(w, r, actor, inventory.RoleAdmin) {
		return
	}
	if err := h.Store.DeleteAssetType(r.Context(), inventory.AssetTypeID(chi.URLParam(r, "id"))); err != nil {
		writeNotFoundOrInternal(w, "asset type", err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Detail: "asset type deleted"})
}

// AssetTypeCode returns the derived code for an exact type/sub-type/group
// triple, without creating anything.
// POST /api/asset-types/code
func (h *Handler) AssetTypeCode(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	var req AssetTypeCodeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	t, err := h.Store.FindAssetType(r.Context(), req.Type, req.SubType, req.Group)
	if err != nil {
		writeNotFoundOrInternal(w, "asset type", err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Detail: "asset type code", Data: map[string]string{"code": t.Code()}})
}

// =============================================================================
// ASSET ENDPOINTS
// =============================================================================

// ListAssets returns assets visible to the actor. Normal users see only the
// assets they currently hold; moderators and above see everything. Results
// come back ordered by quantity descending.
// GET /api/assets
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	elevated, err := h.isElevated(r, actor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check permissions", err)
		return
	}

	q := r.URL.Query()
	filter := inventory.AssetFilter{
		AssetTypeID:  inventory.AssetTypeID(q.Get("asset_type")),
		Location:     q.Get("location"),
		Manufacturer: q.Get("manufacturer"),
		Search:       q.Get("search"),
	}
	if elevated {
		filter.Owner = inventory.UserID(q.Get("owner"))
	} else {
		filter.Owner = actor.ID
	}

	assets, err := h.Store.ListAssets(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list assets", err)
		return
	}
	writeList(w, "assets", toAssetDTOs(assets))
}

// CreateAsset creates an asset. Ownership defaults to the superuser; stock
// enters the system at the top and is assigned outward from there.
// POST /api/assets
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok || !h.requireRole(w, r, actor, inventory.RoleModerator, inventory.RoleAdmin) {
		return
	}
	var req SaveAssetRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if _, err := h.Store.GetAssetType(r.Context(), inventory.AssetTypeID(req.AssetTypeID)); err != nil {
		writeNotFoundOrInternal(w, "asset type", err)
		return
	}
	owner, err := h.Users.Superuser(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "no superuser configured to own new assets", err)
		return
	}

	a := &inventory.Asset{
		ID:           inventory.AssetID(uuid.NewString()),
		Name:         req.Name,
		Description:  req.Description,
		Quantity:     inventory.NewQuantity(req.Quantity),
		CurrentOwner: owner.ID,
		AssetTypeID:  inventory.AssetTypeID(req.AssetTypeID),
		Location:     req.Location,
		Manufacturer: req.Manufacturer,
	}
	if err := h.Store.SaveAsset(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create asset", err)
		return
	}
	writeJSON(w, http.StatusCreated, Envelope{Detail: "asset created", Data: toAssetDTO(a)})
}

// GetAsset returns one asset. Normal users may only fetch assets they hold.
// GET /api/assets/{id}
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	a, err := h.Store.GetAsset(r.Context(), inventory.AssetID(chi.URLParam(r, "id")))
	if err != nil {
		writeNotFoundOrInternal(w, "asset", err)
		return
	}
	elevated, err := h.isElevated(r, actor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check permissions", err)
		return
	}
	if !elevated && a.CurrentOwner != actor.ID {
		writeError(w, http.StatusForbidden, "you do not have permission to view this asset", inventory.ErrPermissionDenied)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Detail: "asset", Data: toAssetDTO(a)})
}

// UpdateAsset replaces an asset's descriptive fields and quantity.
// PUT /api/assets/{id}
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok || !h.requireRole(w, r, actor, inventory.RoleModerator, inventory.RoleAdmin) {
		return
	}
	a, err := h.Store.GetAsset(r.Context(), inventory.AssetID(chi.URLParam(r, "id")))
	if err != nil {
		writeNotFoundOrInternal(w, "asset", err)
		return
	}
	var req SaveAssetRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	a.Name = req.Name
	a.Description = req.Description
	a.Quantity = inventory.NewQuantity(req.Quantity)
	a.AssetTypeID = inventory.AssetTypeID(req.AssetTypeID)
	a.Location = req.Location
	a.Manufacturer = req.Manufacturer
	if err := h.Store.SaveAsset(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update asset", err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Detail: "asset updated", Data: toAssetDTO(a)})
}

// DeleteAsset removes an asset.
// DELETE /api/assets/{id}
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok || !h.requireRole(w, r, actor, inventory.RoleAdmin) {
		return
	}
	if err := h.Store.DeleteAsset(r.Context(), inventory.AssetID(chi.URLParam(r, "id"))); err != nil {
		writeNotFoundOrInternal(w, "asset", err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Detail: "asset deleted"})
}

// ListAssetCommitments returns open commitments against one asset.
// GET /api/assets/{id}/commitments
func (h *Handler) ListAssetCommitments(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok || !h.requireRole(w, r, actor, inventory.RoleModerator, inventory.RoleAdmin) {
		return
	}
	id := inventory.AssetID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetAsset(r.Context(), id); err != nil {
		writeNotFoundOrInternal(w, "asset", err)
		return
	}
	recs, err := h.Store.OpenCommitments(r.Context(), id, h.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list commitments", err)
		return
	}
	writeList(w, "open commitments", toCommitmentDTOs(recs))
}

// AssignAssets validates a requisition batch and, when every check passes,
// assigns the whole batch atomically to the target user. Rule violations come
// back itemized with a 400; nothing is partially applied.
// POST /api/assets/assign
func (h *Handler) AssignAssets(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok || !h.requireRole(w, r, actor, inventory.RoleModerator, inventory.RoleAdmin) {
		return
	}
	var req AssignRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	requests, parseErrs := toRequisitionRequests(req.Rows)
	if len(parseErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, Envelope{Detail: "assignment rejected", Errors: parseErrs})
		return
	}

	result, err := h.Requisitions.ValidateAndAssign(r.Context(), h.now(), inventory.UserID(req.UserID), requests)
	if err != nil {
		if inventory.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "user not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "assignment failed", err)
		return
	}
	if !result.Assigned {
		errs := result.Outcome.Messages()
		for _, sf := range result.Shortfalls {
			errs = append(errs, sf.Error())
		}
		writeJSON(w, http.StatusBadRequest, Envelope{Detail: "assignment rejected", Errors: errs})
		return
	}

	n := len(result.Outcome.Grants)
	writeJSON(w, http.StatusOK, Envelope{Detail: "assets assigned", Count: &n})
}

// =============================================================================
// BULK UPLOAD ENDPOINTS
// =============================================================================

// UploadTemplate returns the downloadable CSV starter file.
// GET /api/assets/files/template
func (h *Handler) UploadTemplate(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok || !h.requireRole(w, r, actor, inventory.RoleAdmin) {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="assignment_template.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(bulk.Template(h.now()))
}

// UploadAssignments accepts a multipart CSV upload, validates it row by row
// and in totality, and applies the whole file when every check passes. The
// annotated report is recorded either way and returned in the response.
// POST /api/assets/files/upload
func (h *Handler) UploadAssignments(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok || !h.requireRole(w, r, actor, inventory.RoleAdmin) {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request", err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field", err)
		return
	}
	defer file.Close()

	now := h.now()
	report, err := h.Uploads.ValidateFile(r.Context(), now, header.Filename, file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read uploaded file", err)
		return
	}

	applied := false
	if report.OK() {
		if err := h.Uploads.Apply(r.Context(), now, report); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to apply uploaded file", err)
			return
		}
		applied = true
	}

	rendered := report.Render()
	rec := inventory.UploadRecord{
		ID:         uuid.NewString(),
		UploadedBy: actor.ID,
		Filename:   header.Filename,
		Report:     rendered,
		Succeeded:  applied,
		UploadedAt: now,
	}
	if err := h.Store.RecordUpload(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record upload", err)
		return
	}

	n := len(report.Rows)
	resp := Envelope{
		Count: &n,
		Data:  string(rendered),
	}
	if applied {
		resp.Detail = "file applied"
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Detail = "file rejected"
	resp.Errors = report.Messages()
	writeJSON(w, http.StatusBadRequest, resp)
}

// ListUploads returns the upload history.
// GET /api/assets/files
func (h *Handler) ListUploads(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok || !h.requireRole(w, r, actor, inventory.RoleAdmin) {
		return
	}
	recs, err := h.Store.ListUploads(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list uploads", err)
		return
	}
	writeList(w, "uploads", toUploadDTOs(recs))
}

// =============================================================================
// USER ENDPOINTS
// =============================================================================

// ListUsers returns all users with their roles.
// GET /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok || !h.requireRole(w, r, actor, inventory.RoleModerator, inventory.RoleAdmin) {
		return
	}
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users", err)
		return
	}
	dtos := make([]UserDTO, len(users))
	for i := range users {
		roles, err := h.Store.Roles(r.Context(), users[i].ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list roles", err)
			return
		}
		dtos[i] = toUserDTO(&users[i], roles)
	}
	writeList(w, "users", dtos)
}

// CreateUser registers a new user in the normal-user role.
// POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok || !h.requireRole(w, r, actor, inventory.RoleAdmin) {
		return
	}
	var req CreateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if _, err := h.Store.GetUserByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusBadRequest, "a user with this email already exists", nil)
		return
	} else if !inventory.IsNotFound(err) {
		writeError(w, http.StatusInternalServerError, "failed to check email", err)
		return
	}

	u, err := h.Users.Register(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, Envelope{Detail: "user created", Data: toUserDTO(u, []inventory.Role{inventory.RoleUser})})
}

// PromoteUser raises a user to moderator or admin, dropping the normal-user
// role.
// POST /api/users/{id}/promote
func (h *Handler) PromoteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok || !h.requireRole(w, r, actor, inventory.RoleAdmin) {
		return
	}
	var req PromoteUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	id := inventory.UserID(chi.URLParam(r, "id"))

	var err error
	switch inventory.Role(req.Role) {
	case inventory.RoleModerator:
		err = h.Users.MakeModerator(r.Context(), id)
	case inventory.RoleAdmin:
		err = h.Users.MakeAdmin(r.Context(), id)
	}
	if err != nil {
		writeNotFoundOrInternal(w, "user", err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Detail: "user promoted to " + req.Role})
}

// =============================================================================
// PROFILE ENDPOINTS
// =============================================================================

// GetProfile returns the acting user's profile.
// GET /api/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	p, err := h.Store.GetProfile(r.Context(), actor.ID)
	if err != nil {
		writeNotFoundOrInternal(w, "profile", err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Detail: "profile", Data: toProfileDTO(p)})
}

// SaveProfile creates or updates the acting user's profile.
// PUT /api/profile
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var req SaveProfileRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	p := &inventory.Profile{
		UserID:        actor.ID,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Designation:   req.Designation,
		Qualification: req.Qualification,
		PhoneNumber:   req.PhoneNumber,
		Address:       req.Address,
	}
	if err := h.Store.SaveProfile(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save profile", err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Detail: "profile saved", Data: toProfileDTO(p)})
}

// =============================================================================
// HELPERS
// =============================================================================

// isElevated reports whether the actor can see other users' assets.
func (h *Handler) isElevated(r *http.Request, actor *inventory.User) (bool, error) {
	for _, role := range []inventory.Role{inventory.RoleModerator, inventory.RoleAdmin, inventory.RoleSuperuser} {
		ok, err := h.Store.HasRole(r.Context(), actor.ID, role)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeList(w http.ResponseWriter, detail string, data any) {
	n := listLen(data)
	writeJSON(w, http.StatusOK, Envelope{Detail: detail, Data: data, Count: &n})
}

func listLen(data any) int {
	switch v := data.(type) {
	case []AssetDTO:
		return len(v)
	case []AssetTypeDTO:
		return len(v)
	case []UserDTO:
		return len(v)
	case []CommitmentDTO:
		return len(v)
	case []UploadDTO:
		return len(v)
	}
	return 0
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := Envelope{Detail: message}
	if err != nil {
		resp.Errors = []string{err.Error()}
	}
	writeJSON(w, status, resp)
}

func writeNotFoundOrInternal(w http.ResponseWriter, what string, err error) {
	if inventory.IsNotFound(err) {
		writeError(w, http.StatusNotFound, what+" not found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "failed to load "+what, err)
}
