package postgresql_test

import (
	"context"
	"testing"

	"github.com/geopunch/attendance-backend/internal/domain/company"
	"github.com/geopunch/attendance-backend/internal/domain/user"
	"github.com/geopunch/attendance-backend/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== USER REPOSITORY TESTS =====

func TestUserRepository_Create_Success(t *testing.T) {
	setup := requireDB(t)
	ctx := context.Background()
	userRepo := postgresql.NewUserRepository(setup.DB)

	hash := "hashed"
	created, err := userRepo.Create(ctx, user.User{
		Email:        "newuser@example.com",
		PasswordHash: &hash,
		Role:         user.RolePending,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "newuser@example.com", created.Email)
	assert.Equal(t, user.RolePending, created.Role)
	assert.Nil(t, created.CompanyID)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	setup := requireDB(t)
	ctx := context.Background()
	userRepo := postgresql.NewUserRepository(setup.DB)

	createTestOwner(t, ctx, setup, "dup@example.com")

	_, err := userRepo.Create(ctx, user.User{Email: "dup@example.com", Role: user.RolePending})
	assert.ErrorIs(t, err, user.ErrUserEmailExists)
}

func TestUserRepository_GetByEmail_CaseInsensitive(t *testing.T) {
	setup := requireDB(t)
	ctx := context.Background()
	userRepo := postgresql.NewUserRepository(setup.DB)

	owner := createTestOwner(t, ctx, setup, "owner@example.com")

	retrieved, err := userRepo.GetByEmail(ctx, "Owner@Example.com")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, retrieved.ID)
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	setup := requireDB(t)
	userRepo := postgresql.NewUserRepository(setup.DB)

	_, err := userRepo.GetByEmail(context.Background(), "notfound@example.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestUserRepository_LinkGoogleAccount_Success(t *testing.T) {
	setup := requireDB(t)
	ctx := context.Background()
	userRepo := postgresql.NewUserRepository(setup.DB)

	owner := createTestOwner(t, ctx, setup, "google@example.com")

	linked, err := userRepo.LinkGoogleAccount(ctx, "google-id-123", owner.Email)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, linked.ID)
	require.NotNil(t, linked.OAuthProvider)
	assert.Equal(t, "google", *linked.OAuthProvider)
	require.NotNil(t, linked.OAuthProviderID)
	assert.Equal(t, "google-id-123", *linked.OAuthProviderID)
	assert.True(t, linked.EmailVerified)
}

func TestUserRepository_UpdateCompanyAndRole(t *testing.T) {
	setup := requireDB(t)
	ctx := context.Background()
	userRepo := postgresql.NewUserRepository(setup.DB)

	pending, err := userRepo.Create(ctx, user.User{Email: "pending@example.com", Role: user.RolePending})
	require.NoError(t, err)

	c, err := postgresql.NewCompanyRepository(setup.DB).Create(ctx, company.Company{
		OwnerID:  pending.ID,
		Name:     "Acme",
		Username: "acme",
	})
	require.NoError(t, err)

	require.NoError(t, userRepo.UpdateCompanyAndRole(ctx, pending.ID, c.ID, user.RoleOwner))

	updated, err := userRepo.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleOwner, updated.Role)
	require.NotNil(t, updated.CompanyID)
	assert.Equal(t, c.ID, *updated.CompanyID)
}

// ===== COMPANY REPOSITORY TESTS =====

func TestCompanyRepository_Create_DuplicateUsername(t *testing.T) {
	setup := requireDB(t)
	ctx := context.Background()

	first := createTestCompany(t, ctx, setup, "acme")
	owner := createTestOwner(t, ctx, setup, "second@example.com")

	_, err := postgresql.NewCompanyRepository(setup.DB).Create(ctx, company.Company{
		OwnerID:  owner.ID,
		Name:     "Other",
		Username: first.Username,
	})
	assert.ErrorIs(t, err, company.ErrCompanyUsernameExists)
}

func TestCompanyRepository_UpdateShiftPolicy_ReplacesOverrides(t *testing.T) {
	setup := requireDB(t)
	ctx := context.Background()
	companyRepo := postgresql.NewCompanyRepository(setup.DB)

	c := createTestCompany(t, ctx, setup, "acme")

	start, grace := 540, 10
	require.NoError(t, companyRepo.UpdateShiftPolicy(ctx, c.ID, company.ShiftPolicyOverrides{
		ShiftStartMinutes: &start,
		LateGraceMinutes:  &grace,
		WeekendDays:       []int32{5, 6},
	}))

	got, err := companyRepo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ShiftStartMinutes)
	assert.Equal(t, 540, *got.ShiftStartMinutes)
	assert.Equal(t, []int32{5, 6}, got.WeekendDays)
	assert.Nil(t, got.StandardDailyHours)

	// a second update without the start time clears it
	require.NoError(t, companyRepo.UpdateShiftPolicy(ctx, c.ID, company.ShiftPolicyOverrides{}))

	got, err = companyRepo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ShiftStartMinutes)
	assert.Nil(t, got.LateGraceMinutes)
	assert.Nil(t, got.WeekendDays)
}
