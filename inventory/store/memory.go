// Package store provides an in-memory implementation of the inventory store
// interfaces, used by tests and local development.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/inventory-engine/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	assets       map[inventory.AssetID]inventory.Asset
	assetTypes   map[inventory.AssetTypeID]inventory.AssetType
	commitments  []inventory.CommitmentRecord
	users        map[inventory.UserID]inventory.User
	usersByEmail map[string]inventory.UserID
	roles        map[inventory.UserID]map[inventory.Role]bool
	profiles     map[inventory.UserID]inventory.Profile
	uploads      []inventory.UploadRecord
}

var _ inventory.TxStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		assets:       make(map[inventory.AssetID]inventory.Asset),
		assetTypes:   make(map[inventory.AssetTypeID]inventory.AssetType),
		users:        make(map[inventory.UserID]inventory.User),
		usersByEmail: make(map[string]inventory.UserID),
		roles:        make(map[inventory.UserID]map[inventory.Role]bool),
		profiles:     make(map[inventory.UserID]inventory.Profile),
	}
}

// =============================================================================
// ASSETS
// =============================================================================

func (m *Memory) GetAsset(_ context.Context, id inventory.AssetID) (*inventory.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getAsset(id)
}

func (m *Memory) getAsset(id inventory.AssetID) (*inventory.Asset, error) {
	a, ok := m.assets[id]
	if !ok {
		return nil, inventory.ErrAssetNotFound
	}
	return &a, nil
}

func (m *Memory) SaveAsset(_ context.Context, a *inventory.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveAsset(a)
}

func (m *Memory) saveAsset(a *inventory.Asset) error {
	m.assets[a.ID] = *a
	return nil
}

func (m *Memory) DeleteAsset(_ context.Context, id inventory.AssetID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[id]; !ok {
		return inventory.ErrAssetNotFound
	}
	delete(m.assets, id)
	return nil
}

func (m *Memory) ListAssets(_ context.Context, filter inventory.AssetFilter) ([]inventory.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []inventory.Asset
	for _, a := range m.assets {
		if matchesFilter(a, filter) {
			out = append(out, a)
		}
	}
	// Largest stock first, matching the list views.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Quantity.Equal(out[j].Quantity) {
			return out[i].Quantity.GreaterThan(out[j].Quantity)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matchesFilter(a inventory.Asset, f inventory.AssetFilter) bool {
	if f.Owner != "" && a.CurrentOwner != f.Owner {
		return false
	}
	if f.AssetTypeID != "" && a.AssetTypeID != f.AssetTypeID {
		return false
	}
	if f.Location != "" && a.Location != f.Location {
		return false
	}
	if f.Manufacturer != "" && a.Manufacturer != f.Manufacturer {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		hay := strings.ToLower(a.Name + " " + a.Location + " " + a.Manufacturer)
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	return true
}

// =============================================================================
// ASSET TYPES
// =============================================================================

func (m *Memory) GetAssetType(_ context.Context, id inventory.AssetTypeID) (*inventory.AssetType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.assetTypes[id]
	if !ok {
		return nil, inventory.ErrAssetTypeNotFound
	}
	return &t, nil
}

func (m *Memory) SaveAssetType(_ context.Context, t *inventory.AssetType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assetTypes[t.ID] = *t
	return nil
}

func (m *Memory) DeleteAssetType(_ context.Context, id inventory.AssetTypeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assetTypes[id]; !ok {
		return inventory.ErrAssetTypeNotFound
	}
	delete(m.assetTypes, id)
	return nil
}

func (m *Memory) ListAssetTypes(_ context.Context, search string) ([]inventory.AssetType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []inventory.AssetType
	needle := strings.ToLower(search)
	for _, t := range m.assetTypes {
		if search == "" || strings.Contains(strings.ToLower(t.Type+" "+t.SubType+" "+t.Group), needle) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) FindAssetType(_ context.Context, typ, subType, group string) (*inventory.AssetType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.assetTypes {
		if t.Type == typ && t.SubType == subType && t.Group == group {
			t := t
			return &t, nil
		}
	}
	return nil, inventory.ErrAssetTypeNotFound
}

// =============================================================================
// COMMITMENTS - Append-only
// =============================================================================

func (m *Memory) CreateCommitment(_ context.Context, rec inventory.CommitmentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCommitment(rec)
}

func (m *Memory) createCommitment(rec inventory.CommitmentRecord) error {
	m.commitments = append(m.commitments, rec)
	return nil
}

func (m *Memory) OpenCommitments(_ context.Context, assetID inventory.AssetID, asOf inventory.DateStamp) ([]inventory.CommitmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []inventory.CommitmentRecord
	for _, rec := range m.commitments {
		if rec.AssetID == assetID && rec.Open(asOf) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (m *Memory) CommitmentsByUser(_ context.Context, userID inventory.UserID) ([]inventory.CommitmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []inventory.CommitmentRecord
	for _, rec := range m.commitments {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].CreatedAt.Before(out[i].CreatedAt) })
	return out, nil
}

// =============================================================================
// USERS / ROLES / PROFILES
// =============================================================================

func (m *Memory) GetUser(_ context.Context, id inventory.UserID) (*inventory.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, inventory.ErrUserNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*inventory.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.usersByEmail[email]
	if !ok {
		return nil, inventory.ErrUserNotFound
	}
	u := m.users[id]
	return &u, nil
}

func (m *Memory) SaveUser(_ context.Context, u *inventory.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUser(u)
}

func (m *Memory) saveUser(u *inventory.User) error {
	m.users[u.ID] = *u
	m.usersByEmail[u.Email] = u.ID
	return nil
}

func (m *Memory) ListUsers(_ context.Context) ([]inventory.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]inventory.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) HasRole(_ context.Context, id inventory.UserID, role inventory.Role) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roles[id][role], nil
}

func (m *Memory) Roles(_ context.Context, id inventory.UserID) ([]inventory.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []inventory.Role
	for role, ok := range m.roles[id] {
		if ok {
			out = append(out, role)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *Memory) AddRole(_ context.Context, id inventory.UserID, role inventory.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roles[id] == nil {
		m.roles[id] = make(map[inventory.Role]bool)
	}
	m.roles[id][role] = true
	return nil
}

func (m *Memory) RemoveRole(_ context.Context, id inventory.UserID, role inventory.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roles[id], role)
	return nil
}

func (m *Memory) GetProfile(_ context.Context, id inventory.UserID) (*inventory.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, inventory.ErrUserNotFound
	}
	return &p, nil
}

func (m *Memory) SaveProfile(_ context.Context, p *inventory.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = *p
	return nil
}

// =============================================================================
// UPLOADS
// =============================================================================

func (m *Memory) RecordUpload(_ context.Context, rec inventory.UploadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, rec)
	return nil
}

func (m *Memory) ListUploads(_ context.Context) ([]inventory.UploadRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]inventory.UploadRecord, len(m.uploads))
	copy(out, m.uploads)
	return out, nil
}

// =============================================================================
// TRANSACTIONS - Snapshot and restore on error
// =============================================================================

// WithTx executes fn against a view of the store that shares state with the
// parent. On error the pre-transaction snapshot is restored, giving the
// all-or-nothing semantics the executor relies on.
func (m *Memory) WithTx(_ context.Context, fn func(inventory.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	view := &memView{parent: m}

	if err := fn(view); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memSnapshot struct {
	assets       map[inventory.AssetID]inventory.Asset
	assetTypes   map[inventory.AssetTypeID]inventory.AssetType
	commitments  []inventory.CommitmentRecord
	users        map[inventory.UserID]inventory.User
	usersByEmail map[string]inventory.UserID
	roles        map[inventory.UserID]map[inventory.Role]bool
	profiles     map[inventory.UserID]inventory.Profile
	uploads      []inventory.UploadRecord
}

func (m *Memory) snapshot() memSnapshot {
	assets := make(map[inventory.AssetID]inventory.Asset, len(m.assets))
	for k, v := range m.assets {
		assets[k] = v
	}
	assetTypes := make(map[inventory.AssetTypeID]inventory.AssetType, len(m.assetTypes))
	for k, v := range m.assetTypes {
		assetTypes[k] = v
	}
	users := make(map[inventory.UserID]inventory.User, len(m.users))
	for k, v := range m.users {
		users[k] = v
	}
	byEmail := make(map[string]inventory.UserID, len(m.usersByEmail))
	for k, v := range m.usersByEmail {
		byEmail[k] = v
	}
	roles := make(map[inventory.UserID]map[inventory.Role]bool, len(m.roles))
	for k, v := range m.roles {
		set := make(map[inventory.Role]bool, len(v))
		for r, ok := range v {
			set[r] = ok
		}
		roles[k] = set
	}
	profiles := make(map[inventory.UserID]inventory.Profile, len(m.profiles))
	for k, v := range m.profiles {
		profiles[k] = v
	}
	return memSnapshot{
		assets:       assets,
		assetTypes:   assetTypes,
		commitments:  append([]inventory.CommitmentRecord{}, m.commitments...),
		users:        users,
		usersByEmail: byEmail,
		roles:        roles,
		profiles:     profiles,
		uploads:      append([]inventory.UploadRecord{}, m.uploads...),
	}
}

func (m *Memory) restore(s memSnapshot) {
	m.assets = s.assets
	m.assetTypes = s.assetTypes
	m.commitments = s.commitments
	m.users = s.users
	m.usersByEmail = s.usersByEmail
	m.roles = s.roles
	m.profiles = s.profiles
	m.uploads = s.uploads
}

// memView runs inside WithTx while the parent lock is held, so it calls the
// unlocked internals directly.
type memView struct {
	parent *Memory
}

var _ inventory.Store = (*memView)(nil)

func (v *memView) GetAsset(_ context.Context, id inventory.AssetID) (*inventory.Asset, error) {
	return v.parent.getAsset(id)
}

func (v *memView) SaveAsset(_ context.Context, a *inventory.Asset) error {
	return v.parent.saveAsset(a)
}

func (v *memView) DeleteAsset(_ context.Context, id inventory.AssetID) error {
	if _, ok := v.parent.assets[id]; !ok {
		return inventory.ErrAssetNotFound
	}
	delete(v.parent.assets, id)
	return nil
}

func (v *memView) ListAssets(ctx context.Context, filter inventory.AssetFilter) ([]inventory.Asset, error) {
	var out []inventory.Asset
	for _, a := range v.parent.assets {
		if matchesFilter(a, filter) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity.GreaterThan(out[j].Quantity) })
	return out, nil
}

func (v *memView) GetAssetType(_ context.Context, id inventory.AssetTypeID) (*inventory.AssetType, error) {
	t, ok := v.parent.assetTypes[id]
	if !ok {
		return nil, inventory.ErrAssetTypeNotFound
	}
	return &t, nil
}

func (v *memView) SaveAssetType(_ context.Context, t *inventory.AssetType) error {
	v.parent.assetTypes[t.ID] = *t
	return nil
}

func (v *memView) DeleteAssetType(_ context.Context, id inventory.AssetTypeID) error {
	if _, ok := v.parent.assetTypes[id]; !ok {
		return inventory.ErrAssetTypeNotFound
	}
	delete(v.parent.assetTypes, id)
	return nil
}

func (v *memView) ListAssetTypes(_ context.Context, search string) ([]inventory.AssetType, error) {
	var out []inventory.AssetType
	for _, t := range v.parent.assetTypes {
		out = append(out, t)
	}
	return out, nil
}

func (v *memView) FindAssetType(ctx context.Context, typ, subType, group string) (*inventory.AssetType, error) {
	for _, t := range v.parent.assetTypes {
		if t.Type == typ && t.SubType == subType && t.Group == group {
			t := t
			return &t, nil
		}
	}
	return nil, inventory.ErrAssetTypeNotFound
}

func (v *memView) CreateCommitment(_ context.Context, rec inventory.CommitmentRecord) error {
	return v.parent.createCommitment(rec)
}

func (v *memView) OpenCommitments(_ context.Context, assetID inventory.AssetID, asOf inventory.DateStamp) ([]inventory.CommitmentRecord, error) {
	var out []inventory.CommitmentRecord
	for _, rec := range v.parent.commitments {
		if rec.AssetID == assetID && rec.Open(asOf) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (v *memView) CommitmentsByUser(_ context.Context, userID inventory.UserID) ([]inventory.CommitmentRecord, error) {
	var out []inventory.CommitmentRecord
	for _, rec := range v.parent.commitments {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (v *memView) GetUser(_ context.Context, id inventory.UserID) (*inventory.User, error) {
	u, ok := v.parent.users[id]
	if !ok {
		return nil, inventory.ErrUserNotFound
	}
	return &u, nil
}

func (v *memView) GetUserByEmail(_ context.Context, email string) (*inventory.User, error) {
	id, ok := v.parent.usersByEmail[email]
	if !ok {
		return nil, inventory.ErrUserNotFound
	}
	u := v.parent.users[id]
	return &u, nil
}

func (v *memView) SaveUser(_ context.Context, u *inventory.User) error {
	return v.parent.saveUser(u)
}

func (v *memView) ListUsers(_ context.Context) ([]inventory.User, error) {
	out := make([]inventory.User, 0, len(v.parent.users))
	for _, u := range v.parent.users {
		out = append(out, u)
	}
	return out, nil
}

func (v *memView) HasRole(_ context.Context, id inventory.UserID, role inventory.Role) (bool, error) {
	return v.parent.roles[id][role], nil
}

func (v *memView) Roles(_ context.Context, id inventory.UserID) ([]inventory.Role, error) {
	var out []inventory.Role
	for role, ok := range v.parent.roles[id] {
		if ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (v *memView) AddRole(_ context.Context, id inventory.UserID, role inventory.Role) error {
	if v.parent.roles[id] == nil {
		v.parent.roles[id] = make(map[inventory.Role]bool)
	}
	v.parent.roles[id][role] = true
	return nil
}

func (v *memView) RemoveRole(_ context.Context, id inventory.UserID, role inventory.Role) error {
	delete(v.parent.roles[id], role)
	return nil
}

func (v *memView) GetProfile(_ context.Context, id inventory.UserID) (*inventory.Profile, error) {
	p, ok := v.parent.profiles[id]
	if !ok {
		return nil, inventory.ErrUserNotFound
	}
	return &p, nil
}

func (v *memView) SaveProfile(_ context.Context, p *inventory.Profile) error {
	v.parent.profiles[p.UserID] = *p
	return nil
}

func (v *memView) RecordUpload(_ context.Context, rec inventory.UploadRecord) error {
	v.parent.uploads = append(v.parent.uploads, rec)
	return nil
}

func (v *memView) ListUploads(_ context.Context) ([]inventory.UploadRecord, error) {
	out := make([]inventory.UploadRecord, len(v.parent.uploads))
	copy(out, v.parent.uploads)
	return out, nil
}
