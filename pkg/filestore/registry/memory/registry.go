package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/datadives/project-roodha/pkg/filestore"
)

const defaultPageSize = 100

// Registry implements filestore.Registry using in-memory storage
type Registry struct {
	mu      sync.RWMutex
	tenants map[string]*filestore.Tenant
	users   map[string]map[string]*filestore.User // tenant_id -> user_id -> user
}

// New creates a new in-memory registry
func New() *Registry {
	return &Registry{
		tenants: make(map[string]*filestore.Tenant),
		users:   make(map[string]map[string]*filestore.User),
	}
}

func (r *Registry) CreateTenant(ctx context.Context, tenantID string) (*filestore.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tenants[tenantID]; exists {
		return nil, &filestore.RegistryError{TenantID: tenantID, Op: "create_tenant", Err: filestore.ErrDuplicateKey}
	}

	tenant := &filestore.Tenant{
		ID:        tenantID,
		Status:    string(filestore.TenantStatusActive),
		CreatedAt: time.Now().UTC(),
	}
	r.tenants[tenantID] = tenant
	r.users[tenantID] = make(map[string]*filestore.User)

	// Return a copy to prevent external modifications
	tenantCopy := *tenant
	return &tenantCopy, nil
}

func (r *Registry) GetTenant(ctx context.Context, tenantID string) (*filestore.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tenant, exists := r.tenants[tenantID]
	if !exists {
		return nil, &filestore.RegistryError{TenantID: tenantID, Op: "get_tenant", Err: filestore.ErrTenantNotFound}
	}

	tenantCopy := *tenant
	return &tenantCopy, nil
}

func (r *Registry) CreateUser(ctx context.Context, tenantID, userID string) (*filestore.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Referential integrity is enforced here at write time
	tenantUsers, exists := r.users[tenantID]
	if !exists {
		return nil, &filestore.RegistryError{TenantID: tenantID, UserID: userID, Op: "create_user", Err: filestore.ErrTenantNotFound}
	}

	if _, exists := tenantUsers[userID]; exists {
		return nil, &filestore.RegistryError{TenantID: tenantID, UserID: userID, Op: "create_user", Err: filestore.ErrDuplicateKey}
	}

	user := &filestore.User{
		TenantID:  tenantID,
		ID:        userID,
		Status:    string(filestore.UserStatusActive),
		CreatedAt: time.Now().UTC(),
	}
	tenantUsers[userID] = user

	userCopy := *user
	return &userCopy, nil
}

func (r *Registry) ListUsers(ctx context.Context, req filestore.ListUsersRequest) (*filestore.UserPage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tenantUsers, exists := r.users[req.TenantID]
	if !exists {
		return nil, &filestore.RegistryError{TenantID: req.TenantID, Op: "list_users", Err: filestore.ErrTenantNotFound}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	ids := make([]string, 0, len(tenantUsers))
	for id := range tenantUsers {
		if req.Cursor == "" || id > req.Cursor {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	page := &filestore.UserPage{}
	for _, id := range ids {
		if len(page.Users) == limit {
			page.NextCursor = page.Users[len(page.Users)-1].ID
			break
		}
		userCopy := *tenantUsers[id]
		page.Users = append(page.Users, &userCopy)
	}

	return page, nil
}

var _ filestore.Registry = (*Registry)(nil)
