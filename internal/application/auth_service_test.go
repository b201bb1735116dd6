package application

import (
	"path/filepath"
	"testing"

	"playlink/internal/models"
	"playlink/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth(t *testing.T) (*AuthServiceImpl, *Service) {
	t.Helper()

	store, err := repository.NewLinkFile(filepath.Join(t.TempDir(), "links.json"))
	require.NoError(t, err)

	svc := NewService(repository.NewFileRepository(store), testOwner, []string{testSupport}, nil, nopLogger{})
	return svc.Auth.(*AuthServiceImpl), svc
}

func TestRolePrecedence(t *testing.T) {
	auth, _ := newTestAuth(t)

	assert.Equal(t, models.RoleOwner, auth.RoleOf(testOwner))
	assert.Equal(t, models.RoleSupport, auth.RoleOf(testSupport))
	assert.Equal(t, models.RoleAnonymous, auth.RoleOf("stranger"))
	assert.Equal(t, models.RoleAnonymous, auth.RoleOf(""))
}

func TestRoleHierarchy(t *testing.T) {
	auth, _ := newTestAuth(t)

	assert.True(t, auth.Authorize(testOwner, models.RoleSupport), "owner passes a support check")
	assert.True(t, auth.Authorize(testOwner, models.RoleLinked))
	assert.True(t, auth.Authorize(testSupport, models.RoleLinked))
	assert.False(t, auth.Authorize(testSupport, models.RoleOwner))
	assert.False(t, auth.Authorize("stranger", models.RoleLinked))
}

func TestLinkedRoleIsDerivedFromStore(t *testing.T) {
	auth, svc := newTestAuth(t)

	assert.Equal(t, models.RoleAnonymous, auth.RoleOf("U-7"))

	code, err := svc.Links.Issue("PF-1", "HW-1", "1.2.3.4")
	require.NoError(t, err)
	_, err = svc.Links.Redeem(code, "U-7")
	require.NoError(t, err)

	assert.Equal(t, models.RoleLinked, auth.RoleOf("U-7"))
	assert.True(t, auth.Authorize("U-7", models.RoleLinked))
	assert.False(t, auth.Authorize("U-7", models.RoleSupport))

	_, err = svc.Links.Unlink("U-7")
	require.NoError(t, err)

	// Never cached: the role drops the moment the record changes.
	assert.Equal(t, models.RoleAnonymous, auth.RoleOf("U-7"))
}

func TestSupportSetIsOwnerManaged(t *testing.T) {
	auth, _ := newTestAuth(t)

	err := auth.AddSupport(testSupport, "new-support")
	assert.ErrorIs(t, err, ErrForbidden, "support cannot grow the support set")

	require.NoError(t, auth.AddSupport(testOwner, "new-support"))
	assert.Equal(t, models.RoleSupport, auth.RoleOf("new-support"))

	err = auth.RemoveSupport("new-support", testSupport)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, auth.RemoveSupport(testOwner, "new-support"))
	assert.Equal(t, models.RoleAnonymous, auth.RoleOf("new-support"))

	err = auth.RemoveSupport(testOwner, "new-support")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddSupportValidatesInput(t *testing.T) {
	auth, _ := newTestAuth(t)

	err := auth.AddSupport(testOwner, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
