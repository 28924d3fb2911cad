package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
	"github.com/taskhub/backend/pkg/response"
)

func init() {
	utils.SetJWTSecret("test-secret-for-services")
}

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := setupTestDB(t)
	return NewAuthService(db, &config.JWTConfig{ExpireHour: 2}, &config.LDAPConfig{})
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)

	registered, err := svc.Register(&RegisterRequest{
		Name:                 "Test User",
		Email:                "Test@Example.com",
		Password:             "password",
		PasswordConfirmation: "password",
	}, ClientInfo{IP: "127.0.0.1", UserAgent: "go-test"})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "Bearer", registered.TokenType)
	assert.Equal(t, "test@example.com", registered.User.Email)

	claims, err := utils.ParseToken(registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.True(t, svc.TokenActive(claims.ID))

	loggedIn, err := svc.Login(&LoginRequest{Email: "test@example.com", Password: "password"}, ClientInfo{})
	require.NoError(t, err)
	assert.NotEqual(t, registered.Token, loggedIn.Token)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(&RegisterRequest{
		Name: "A", Email: "a@example.com", Password: "password", PasswordConfirmation: "different",
	}, ClientInfo{})
	appErr := response.Classify(err)
	assert.Equal(t, response.KindValidationFailed, appErr.Kind)
	assert.Contains(t, appErr.Errors, "password")

	_, err = svc.Register(&RegisterRequest{
		Name: "A", Email: "a@example.com", Password: "password", PasswordConfirmation: "password",
	}, ClientInfo{})
	require.NoError(t, err)

	_, err = svc.Register(&RegisterRequest{
		Name: "B", Email: "A@example.com", Password: "password", PasswordConfirmation: "password",
	}, ClientInfo{})
	appErr = response.Classify(err)
	assert.Equal(t, response.KindValidationFailed, appErr.Kind)
	assert.Equal(t, []string{"The email has already been taken."}, appErr.Errors["email"])
}

func TestAuthService_RegisterOverlongPassword(t *testing.T) {
	svc := newAuthService(t)
	long := strings.Repeat("x", 73)

	_, err := svc.Register(&RegisterRequest{
		Name: "A", Email: "a@example.com", Password: long, PasswordConfirmation: long,
	}, ClientInfo{})
	appErr := response.Classify(err)
	assert.Equal(t, response.KindValidationFailed, appErr.Kind)
	assert.Equal(t, []string{"The password field must not be greater than 72 bytes."}, appErr.Errors["password"])
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	svc := newAuthService(t)
	_, err := svc.Register(&RegisterRequest{
		Name: "A", Email: "a@example.com", Password: "correct-password", PasswordConfirmation: "correct-password",
	}, ClientInfo{})
	require.NoError(t, err)

	for _, req := range []*LoginRequest{
		{Email: "a@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "password"},
	} {
		_, err := svc.Login(req, ClientInfo{})
		appErr := response.Classify(err)
		assert.Equal(t, 401, appErr.HTTPStatus)
		assert.Equal(t, "Invalid credentials", appErr.Message)
	}
}

func TestAuthService_LDAPDisabled(t *testing.T) {
	svc := newAuthService(t)
	_, err := svc.Login(&LoginRequest{Email: "jdoe", Password: "secret", AuthType: AuthTypeLDAP}, ClientInfo{})
	assert.True(t, response.IsKind(err, response.KindValidationFailed))
	assert.False(t, svc.IsLDAPEnabled())
}

func TestAuthService_Logout(t *testing.T) {
	svc := newAuthService(t)
	resp, err := svc.Register(&RegisterRequest{
		Name: "A", Email: "a@example.com", Password: "password", PasswordConfirmation: "password",
	}, ClientInfo{})
	require.NoError(t, err)

	claims, err := utils.ParseToken(resp.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(claims.ID))
	assert.False(t, svc.TokenActive(claims.ID))

	// Logging out twice is harmless.
	require.NoError(t, svc.Logout(claims.ID))
	assert.False(t, svc.TokenActive("unknown"))
	assert.False(t, svc.TokenActive(""))
}

func TestAuthService_PruneTokens(t *testing.T) {
	svc := newAuthService(t)
	user := &models.User{Name: "A", Email: "a@example.com"}
	require.NoError(t, svc.db.Create(user).Error)

	now := time.Now()
	revokedAt := now.Add(-time.Hour)
	require.NoError(t, svc.db.Create(&models.AccessToken{UserID: user.ID, TokenID: "expired", ExpiresAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, svc.db.Create(&models.AccessToken{UserID: user.ID, TokenID: "revoked", ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt}).Error)
	require.NoError(t, svc.db.Create(&models.AccessToken{UserID: user.ID, TokenID: "live", ExpiresAt: now.Add(time.Hour)}).Error)

	pruned, err := svc.PruneTokens(now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)
	assert.True(t, svc.TokenActive("live"))
}

func TestAuthService_CreateAdminIfNotExists(t *testing.T) {
	svc := newAuthService(t)
	admin := config.AdminConfig{Name: "Admin User", Email: "admin@dev.local", Password: "password"}

	require.NoError(t, svc.CreateAdminIfNotExists(admin))
	require.NoError(t, svc.CreateAdminIfNotExists(admin))

	var users []models.User
	require.NoError(t, svc.db.Where("email = ?", "admin@dev.local").Find(&users).Error)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsAdmin)

	resp, err := svc.Login(&LoginRequest{Email: "admin@dev.local", Password: "password"}, ClientInfo{})
	require.NoError(t, err)
	claims, err := utils.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)

	got, err := svc.GetUserByID(users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Admin User", got.Name)

	_, err = svc.GetUserByID(999)
	assert.True(t, response.IsKind(err, response.KindUnauthenticated))
}
