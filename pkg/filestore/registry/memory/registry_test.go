package memory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datadives/project-roodha/pkg/filestore"
	"github.com/datadives/project-roodha/pkg/filestore/registry/memory"
)

func TestCreateTenant(t *testing.T) {
	ctx := context.Background()
	reg := memory.New()

	tenant, err := reg.CreateTenant(ctx, "T001")
	require.NoError(t, err)
	assert.Equal(t, "T001", tenant.ID)
	assert.Equal(t, string(filestore.TenantStatusActive), tenant.Status)
	assert.False(t, tenant.CreatedAt.IsZero())

	// Duplicate registration conflicts
	_, err = reg.CreateTenant(ctx, "T001")
	assert.ErrorIs(t, err, filestore.ErrDuplicateKey)
}

func TestGetTenant(t *testing.T) {
	ctx := context.Background()
	reg := memory.New()

	_, err := reg.GetTenant(ctx, "T001")
	assert.ErrorIs(t, err, filestore.ErrTenantNotFound)

	_, err = reg.CreateTenant(ctx, "T001")
	require.NoError(t, err)

	tenant, err := reg.GetTenant(ctx, "T001")
	require.NoError(t, err)
	assert.Equal(t, "T001", tenant.ID)
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	reg := memory.New()

	// Users require an existing tenant
	_, err := reg.CreateUser(ctx, "T001", "alice")
	assert.ErrorIs(t, err, filestore.ErrTenantNotFound)

	_, err = reg.CreateTenant(ctx, "T001")
	require.NoError(t, err)

	user, err := reg.CreateUser(ctx, "T001", "alice")
	require.NoError(t, err)
	assert.Equal(t, "T001", user.TenantID)
	assert.Equal(t, "alice", user.ID)

	_, err = reg.CreateUser(ctx, "T001", "alice")
	assert.ErrorIs(t, err, filestore.ErrDuplicateKey)
}

func TestUserIDUniquePerTenant(t *testing.T) {
	ctx := context.Background()
	reg := memory.New()

	for _, tenantID := range []string{"T001", "T002"} {
		_, err := reg.CreateTenant(ctx, tenantID)
		require.NoError(t, err)
	}

	// The same user ID may exist under different tenants
	_, err := reg.CreateUser(ctx, "T001", "alice")
	require.NoError(t, err)
	_, err = reg.CreateUser(ctx, "T002", "alice")
	require.NoError(t, err)
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	reg := memory.New()

	_, err := reg.CreateTenant(ctx, "T001")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := reg.CreateUser(ctx, "T001", fmt.Sprintf("user-%02d", i))
		require.NoError(t, err)
	}

	page, err := reg.ListUsers(ctx, filestore.ListUsersRequest{TenantID: "T001"})
	require.NoError(t, err)
	require.Len(t, page.Users, 5)
	assert.Empty(t, page.NextCursor)

	// Deterministic ordering by user ID
	for i, user := range page.Users {
		assert.Equal(t, fmt.Sprintf("user-%02d", i), user.ID)
	}
}

func TestListUsersPagination(t *testing.T) {
	ctx := context.Background()
	reg := memory.New()

	_, err := reg.CreateTenant(ctx, "T001")
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		_, err := reg.CreateUser(ctx, "T001", fmt.Sprintf("user-%02d", i))
		require.NoError(t, err)
	}

	var collected []string
	cursor := ""
	pages := 0
	for {
		page, err := reg.ListUsers(ctx, filestore.ListUsersRequest{
			TenantID: "T001",
			Cursor:   cursor,
			Limit:    3,
		})
		require.NoError(t, err)
		pages++
		for _, user := range page.Users {
			collected = append(collected, user.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, 3, pages)
	require.Len(t, collected, 7)
	for i, id := range collected {
		assert.Equal(t, fmt.Sprintf("user-%02d", i), id)
	}
}

func TestListUsersUnknownTenant(t *testing.T) {
	ctx := context.Background()
	reg := memory.New()

	_, err := reg.ListUsers(ctx, filestore.ListUsersRequest{TenantID: "nope"})
	assert.ErrorIs(t, err, filestore.ErrTenantNotFound)
}
