package services

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
	"github.com/taskhub/backend/pkg/logger"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

const (
	AuthTypeLocal = "local"
	AuthTypeLDAP  = "ldap"
)

var errInvalidCredentials = response.NewUnauthenticated("Invalid credentials")

type AuthService struct {
	db          *gorm.DB
	ldapService *LDAPService
	jwtConfig   *config.JWTConfig
	configSvc   *SystemConfigService
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, ldapCfg *config.LDAPConfig) *AuthService {
	return &AuthService{
		db:          db,
		ldapService: NewLDAPService(ldapCfg),
		jwtConfig:   jwtCfg,
		configSvc:   NewSystemConfigService(db),
	}
}

type RegisterRequest struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// LoginRequest authenticates by email and password. For LDAP logins Email
// carries the directory username.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=255"`
	Password string `json:"password" binding:"required"`
	AuthType string `json:"auth_type" binding:"omitempty,oneof=local ldap"`
}

// ClientInfo is recorded against issued tokens.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type TokenResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register creates a local account and signs it in.
func (s *AuthService) Register(req *RegisterRequest, client ClientInfo) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if req.Password != req.PasswordConfirmation {
		return nil, response.NewFieldError("password", "The password field confirmation does not match.")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Unscoped().Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, response.NewStorageFailure("", err)
	}
	if count > 0 {
		return nil, response.NewFieldError("email", "The email has already been taken.")
	}

	hashed, err := utils.HashPassword(req.Password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return nil, response.NewFieldError("password", "The password field must not be greater than 72 bytes.")
	}
	if err != nil {
		return nil, response.NewServerError("", err)
	}

	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hashed,
		AuthType: AuthTypeLocal,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, response.NewStorageFailure("", err)
	}

	return s.issue(&user, client)
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(req *LoginRequest, client ClientInfo) (*TokenResponse, error) {
	authType := req.AuthType
	if authType == "" {
		authType = AuthTypeLocal
	}

	var user *models.User
	var err error
	switch authType {
	case AuthTypeLocal:
		user, err = s.localAuth(req.Email, req.Password)
	case AuthTypeLDAP:
		user, err = s.ldapAuth(req.Email, req.Password)
	default:
		return nil, response.NewFieldError("auth_type", "The selected auth type is invalid.")
	}
	if err != nil {
		return nil, err
	}

	return s.issue(user, client)
}

// Logout revokes the token with the given id.
func (s *AuthService) Logout(tokenID string) error {
	now := time.Now()
	result := s.db.Model(&models.AccessToken{}).
		Where("token_id = ? AND revoked_at IS NULL", tokenID).
		Update("revoked_at", now)
	if result.Error != nil {
		return response.NewStorageFailure("", result.Error)
	}
	return nil
}

// TokenActive reports whether the token id was issued here and is neither
// revoked nor expired.
func (s *AuthService) TokenActive(tokenID string) bool {
	if tokenID == "" {
		return false
	}
	var token models.AccessToken
	if err := s.db.Where("token_id = ?", tokenID).First(&token).Error; err != nil {
		return false
	}
	return token.Active(time.Now())
}

// PruneTokens deletes tokens that expired or were revoked before cutoff.
func (s *AuthService) PruneTokens(cutoff time.Time) (int64, error) {
	result := s.db.Where("expires_at < ? OR revoked_at < ?", cutoff, cutoff).Delete(&models.AccessToken{})
	return result.RowsAffected, result.Error
}

func (s *AuthService) issue(user *models.User, client ClientInfo) (*TokenResponse, error) {
	issued, err := utils.IssueToken(utils.TokenSubject{
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
	}, s.accessTokenExpireHours())
	if err != nil {
		return nil, response.NewServerError("", err)
	}

	record := models.AccessToken{
		UserID:      user.ID,
		TokenID:     issued.ID,
		ExpiresAt:   issued.ExpiresAt,
		CreatedByIP: client.IP,
		UserAgent:   truncate(client.UserAgent, 255),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, response.NewStorageFailure("", err)
	}

	return &TokenResponse{
		Token:     issued.Token,
		TokenType: "Bearer",
		ExpiresAt: issued.ExpiresAt,
		User:      user,
	}, nil
}

func (s *AuthService) accessTokenExpireHours() int {
	defaultHours := s.jwtConfig.ExpireHour
	if defaultHours <= 0 {
		defaultHours = 24
	}
	value := s.configSvc.GetWithDefault("auth_access_token_expire_hours", strconv.Itoa(defaultHours))
	hours, err := strconv.Atoi(value)
	if err != nil || hours <= 0 {
		return defaultHours
	}
	return hours
}

func (s *AuthService) localAuth(email, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ? AND auth_type = ?", strings.ToLower(strings.TrimSpace(email)), AuthTypeLocal).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, response.NewStorageFailure("", err)
	}

	if !utils.CheckPassword(password, user.Password) {
		return nil, errInvalidCredentials
	}
	return &user, nil
}

func (s *AuthService) ldapAuth(username, password string) (*models.User, error) {
	if !s.ldapService.IsEnabled() {
		return nil, response.NewFieldError("auth_type", "LDAP authentication is not enabled.")
	}

	ldapUser, err := s.ldapService.Authenticate(username, password)
	if err != nil {
		logger.Warn().Err(err).Str("username", username).Msg("[Auth] LDAP authentication failed")
		return nil, errInvalidCredentials
	}

	email := strings.ToLower(ldapUser.Email)
	if email == "" {
		email = strings.ToLower(ldapUser.Username) + "@ldap.local"
	}
	name := ldapUser.Nickname
	if name == "" {
		name = ldapUser.Username
	}

	var user models.User
	err = s.db.Where("email = ? AND auth_type = ?", email, AuthTypeLDAP).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Name:     name,
			Email:    email,
			AuthType: AuthTypeLDAP,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, response.NewStorageFailure("", err)
		}
		return &user, nil
	} else if err != nil {
		return nil, response.NewStorageFailure("", err)
	}

	if user.Name != name {
		s.db.Model(&user).Update("name", name)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthenticated("")
		}
		return nil, response.NewStorageFailure("", err)
	}
	return &user, nil
}

// CreateAdminIfNotExists seeds the configured administrator account.
func (s *AuthService) CreateAdminIfNotExists(admin config.AdminConfig) error {
	if admin.Email == "" || admin.Password == "" {
		return nil
	}

	email := strings.ToLower(admin.Email)
	var count int64
	if err := s.db.Model(&models.User{}).Unscoped().Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := utils.HashPassword(admin.Password)
	if err != nil {
		return err
	}

	user := models.User{
		Name:     admin.Name,
		Email:    email,
		Password: hashedPassword,
		AuthType: AuthTypeLocal,
		IsAdmin:  true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return err
	}
	logger.Infof("[Auth] Created admin user %s", email)
	return nil
}

func (s *AuthService) IsLDAPEnabled() bool {
	return s.ldapService.IsEnabled()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
