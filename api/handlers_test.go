/*
handlers_test.go - Unit tests for API handlers

Tests run against the in-memory store with a pinned clock:
- Actor resolution and role gating
- Interactive assignment (happy path and itemized rejection)
- Role-scoped asset visibility
- Bulk upload flow and template download
- Profile round trip
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/inventory-engine/inventory"
	"github.com/warp/inventory-engine/inventory/store"
)

var apiDay = inventory.NewDate(2026, time.March, 10)

type fixture struct {
	handler *Handler
	router  http.Handler
	store   *store.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := store.NewMemory()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	h := NewHandler(m, log)
	h.now = func() inventory.DateStamp { return apiDay }

	ctx := context.Background()
	seedUser := func(id, email string, role inventory.Role) {
		require.NoError(t, m.SaveUser(ctx, &inventory.User{ID: inventory.UserID(id), Email: email, Active: true}))
		require.NoError(t, m.AddRole(ctx, inventory.UserID(id), role))
	}
	seedUser("root", "root@example.com", inventory.RoleSuperuser)
	seedUser("adm", "admin@example.com", inventory.RoleAdmin)
	seedUser("mod", "mod@example.com", inventory.RoleModerator)
	seedUser("usr", "user@example.com", inventory.RoleUser)

	require.NoError(t, m.SaveAssetType(ctx, &inventory.AssetType{
		ID: "t1", Type: "Laptop(HDW)", SubType: "Dell(DELL)", Group: "IT(IT)",
	}))
	require.NoError(t, m.SaveAsset(ctx, &inventory.Asset{
		ID: "a1", Name: "Laptop", Quantity: inventory.NewQuantity(9),
		CurrentOwner: "root", AssetTypeID: "t1",
	}))

	return &fixture{handler: h, router: NewRouter(h), store: m}
}

func (f *fixture) do(t *testing.T, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(actingUserHeader, actor)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}

// =============================================================================
// AUTH AND ROLE GATING
// =============================================================================

func TestMissingActorHeader(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/assets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnknownActor(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/assets", "nobody@example.com", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAssign_NormalUserForbidden(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/assets/assign", "user@example.com", AssignRequest{
		UserID: "usr",
		Rows:   []RequisitionRowDTO{{AssetID: "a1", Quantity: 1}},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateAssetType_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	body := SaveAssetTypeRequest{Type: "Chair(CHR)", SubType: "Desk(DSK)", Group: "Office(OFF)"}

	w := f.do(t, http.MethodPost, "/api/asset-types", "mod@example.com", body)
	assert.Equal(t, http.StatusForbidden, w.Code, "moderators cannot manage types")

	w = f.do(t, http.MethodPost, "/api/asset-types", "admin@example.com", body)
	assert.Equal(t, http.StatusCreated, w.Code)
}

// =============================================================================
// ASSIGNMENT
// =============================================================================

func TestAssign_HappyPath(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/assets/assign", "mod@example.com", AssignRequest{
		UserID: "usr",
		Rows:   []RequisitionRowDTO{{AssetID: "a1", Quantity: 3}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	a, err := f.store.GetAsset(context.Background(), "a1")
	require.NoError(t, err)
	assert.EqualValues(t, 6, a.Quantity.Int())
	assert.EqualValues(t, "usr", a.CurrentOwner)
}

func TestAssign_ItemizedErrors(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/assets/assign", "mod@example.com", AssignRequest{
		UserID: "usr",
		Rows: []RequisitionRowDTO{
			{AssetID: "missing", Quantity: 1},
			{AssetID: "a1", Quantity: 0},
			{AssetID: "a1", Quantity: 2, StartDate: apiDay.AddDays(90).String()},
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope(t, w)
	assert.Len(t, env.Errors, 3, "every violation in one response")

	a, err := f.store.GetAsset(context.Background(), "a1")
	require.NoError(t, err)
	assert.EqualValues(t, 9, a.Quantity.Int(), "rejected batches apply nothing")
}

func TestAssign_TotalityRejection(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/assets/assign", "mod@example.com", AssignRequest{
		UserID: "usr",
		Rows: []RequisitionRowDTO{
			{AssetID: "a1", Quantity: 5},
			{AssetID: "a1", Quantity: 5},
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope(t, w)
	require.Len(t, env.Errors, 1)
	assert.Contains(t, env.Errors[0], "available quantity")
}

// =============================================================================
// ASSET VISIBILITY
// =============================================================================

func TestListAssets_RoleScoped(t *testing.T) {
	f := newFixture(t)

	// Normal user holds nothing yet.
	w := f.do(t, http.MethodGet, "/api/assets", "user@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Count)
	assert.Equal(t, 0, *env.Count)

	// Moderator sees everything.
	w = f.do(t, http.MethodGet, "/api/assets", "mod@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeEnvelope(t, w)
	assert.Equal(t, 1, *env.Count)

	// After an assignment the user sees the asset they now hold.
	resp := f.do(t, http.MethodPost, "/api/assets/assign", "mod@example.com", AssignRequest{
		UserID: "usr",
		Rows:   []RequisitionRowDTO{{AssetID: "a1", Quantity: 1}},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	w = f.do(t, http.MethodGet, "/api/assets", "user@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeEnvelope(t, w)
	assert.Equal(t, 1, *env.Count)
}

func TestGetAsset_OwnershipEnforced(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/assets/a1", "user@example.com", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/api/assets/a1", "mod@example.com", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// =============================================================================
// ASSET TYPES
// =============================================================================

func TestAssetTypeCodeLookup(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/asset-types/code", "user@example.com", AssetTypeCodeRequest{
		Type: "Laptop(HDW)", SubType: "Dell(DELL)", Group: "IT(IT)",
	})
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "HDW-DELL-IT", data["code"])
}

func TestAssetTypeCodeLookup_Unknown(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/asset-types/code", "user@example.com", AssetTypeCodeRequest{
		Type: "Boat(BT)", SubType: "Sail(SL)", Group: "Marine(MR)",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// BULK UPLOAD
// =============================================================================

func uploadCSV(t *testing.T, f *fixture, actor, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/assets/files/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(actingUserHeader, actor)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestUploadTemplate(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/assets/files/template", "admin@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "User Id,Asset ID,Asset Quantity,Start Date,End Date"))
}

func TestUpload_AppliesCleanFile(t *testing.T) {
	f := newFixture(t)
	content := "User Id,Asset ID,Asset Quantity,Start Date,End Date\nusr,a1,3,,\n"

	w := uploadCSV(t, f, "admin@example.com", "batch.csv", content)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	a, err := f.store.GetAsset(context.Background(), "a1")
	require.NoError(t, err)
	assert.EqualValues(t, 6, a.Quantity.Int())

	uploads, err := f.store.ListUploads(context.Background())
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.True(t, uploads[0].Succeeded)
	assert.Equal(t, "batch.csv", uploads[0].Filename)
}

func TestUpload_RejectsAndRecordsBadFile(t *testing.T) {
	f := newFixture(t)
	content := "User Id,Asset ID,Asset Quantity,Start Date,End Date\nusr,a1,5,,\nusr,a1,5,,\n"

	w := uploadCSV(t, f, "admin@example.com", "batch.csv", content)
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope(t, w)
	assert.NotEmpty(t, env.Errors)

	a, err := f.store.GetAsset(context.Background(), "a1")
	require.NoError(t, err)
	assert.EqualValues(t, 9, a.Quantity.Int(), "rejected file applies nothing")

	uploads, err := f.store.ListUploads(context.Background())
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.False(t, uploads[0].Succeeded)
}

func TestUpload_ModeratorForbidden(t *testing.T) {
	f := newFixture(t)
	w := uploadCSV(t, f, "mod@example.com", "batch.csv", "whatever")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// =============================================================================
// USERS AND PROFILE
// =============================================================================

func TestCreateAndPromoteUser(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/users", "admin@example.com", CreateUserRequest{Email: "new@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	id, _ := data["id"].(string)
	require.NotEmpty(t, id)

	isUser, err := f.store.HasRole(context.Background(), inventory.UserID(id), inventory.RoleUser)
	require.NoError(t, err)
	assert.True(t, isUser, "new users start in the normal-user role")

	w = f.do(t, http.MethodPost, "/api/users/"+id+"/promote", "admin@example.com", PromoteUserRequest{Role: "moderator"})
	require.Equal(t, http.StatusOK, w.Code)

	isMod, err := f.store.HasRole(context.Background(), inventory.UserID(id), inventory.RoleModerator)
	require.NoError(t, err)
	assert.True(t, isMod)
	stillUser, err := f.store.HasRole(context.Background(), inventory.UserID(id), inventory.RoleUser)
	require.NoError(t, err)
	assert.False(t, stillUser, "promotion drops the normal-user role")
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/users", "admin@example.com", CreateUserRequest{Email: "user@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileRoundTrip(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/profile", "user@example.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "no profile yet")

	w = f.do(t, http.MethodPut, "/api/profile", "user@example.com", SaveProfileRequest{
		FirstName: "Ada", Designation: "Engineer",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/profile", "user@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ada", data["first_name"])
	assert.Equal(t, "Engineer", data["designation"])
}

// =============================================================================
// ASSET CREATION
// =============================================================================

func TestCreateAsset_DefaultsOwnerToSuperuser(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/assets", "mod@example.com", SaveAssetRequest{
		Name: "Monitor", Quantity: 5, AssetTypeID: "t1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "root", data["current_owner"])
}

func TestCreateAsset_RejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/assets", "mod@example.com", SaveAssetRequest{
		Name: "Monitor", Quantity: 0, AssetTypeID: "t1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
