package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"vanik-system/config"
	"vanik-system/internal/database/models"
	"vanik-system/internal/gate"
	"vanik-system/internal/utils"
)

const (
	USER_CACHE_PREFIX = "user:"
	ROLE_CACHE_KEY    = "roles:list"
	CACHE_TTL_MEDIUM  = 30 * time.Minute
)

const PermissionUsersManage = "users:manage"

var ErrInvalidCredentials = errors.New("invalid username or password")

// --- Helpers ---
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	RoleID    int32  `json:"role_id"`

	ActorID     int64 `json:"-"`
	ActorRoleID int32 `json:"-"`
}

type AuthResponse struct {
	Success   bool       `json:"success"`
	Message   *string    `json:"message,omitempty"`
	Token     string     `json:"token,omitempty"`
	ExpiredAt *time.Time `json:"expired_at,omitempty"`
	User      *UserView  `json:"user,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserView struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Firstname string     `json:"firstname"`
	Lastname  string     `json:"lastname"`
	RoleID    int32      `json:"role_id"`
	RoleName  string     `json:"role_name,omitempty"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

type RolePayload struct {
	RoleName    string `json:"role_name"`
	AccessLevel int32  `json:"access_level"`
	Permissions string `json:"permissions"`
}

type SaveRoleRequest struct {
	ID   int32       `json:"id,omitempty"`
	Role RolePayload `json:"role"`

	ActorRoleID int32 `json:"-"`
}

type RoleView struct {
	ID          int32  `json:"id"`
	RoleName    string `json:"role_name"`
	AccessLevel int32  `json:"access_level"`
	Permissions string `json:"permissions"`
}

type RoleResponse struct {
	Success bool      `json:"success"`
	Message *string   `json:"message,omitempty"`
	Role    *RoleView `json:"role,omitempty"`
}

type ListRolesResponse struct {
	Success bool        `json:"success"`
	Message *string     `json:"message,omitempty"`
	Roles   []*RoleView `json:"roles"`
}

type UserHandler struct {
	db       *gorm.DB
	gate     *gate.Checker
	redis    *redis.Client
	logger   *logrus.Logger
	tokenTTL time.Duration
}

func NewUserHandler(db *gorm.DB, checker *gate.Checker, redisClient *redis.Client, tokenTTL time.Duration) *UserHandler {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &UserHandler{
		db:       db,
		gate:     checker,
		redis:    redisClient,
		logger:   config.GetLogger(),
		tokenTTL: tokenTTL,
	}
}

func (s *UserHandler) InvalidateUserCaches(ctx context.Context, userIDs ...int64) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx, ROLE_CACHE_KEY)
	for _, id := range userIDs {
		_ = s.redis.Del(ctx, USER_CACHE_PREFIX+strconv.FormatInt(id, 10))
	}
}

// Register creates a user, hashes the password with bcrypt and hands back a
// signed token. Creating users requires the users:manage permission unless
// the instance has no users yet (first-run bootstrap).
func (s *UserHandler) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return &AuthResponse{Success: false, Message: strPtr("username, email, and password are required")}, nil
	}

	var userCount int64
	if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return &AuthResponse{Success: false, Message: strPtr("database error")}, err
	}
	if userCount > 0 {
		if err := s.gate.Require(req.ActorRoleID, PermissionUsersManage); err != nil {
			return &AuthResponse{Success: false, Message: strPtr("permission denied")}, err
		}
	}

	var existing models.User
	err := s.db.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error
	if err == nil {
		return &AuthResponse{Success: false, Message: strPtr("username or email already exists")}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return &AuthResponse{Success: false, Message: strPtr("database error")}, err
	}

	var role models.Role
	if err := s.db.First(&role, req.RoleID).Error; err != nil {
		return &AuthResponse{Success: false, Message: strPtr("invalid role specified")}, nil
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return &AuthResponse{Success: false, Message: strPtr("error hashing password")}, err
	}

	user := models.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(pwHash),
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		RoleID:    req.RoleID,
		IsActive:  true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return &AuthResponse{Success: false, Message: strPtr("error creating user")}, err
	}
	user.Role = role

	token, exp, err := utils.GenerateToken(user.ID, user.Username, user.RoleID, s.tokenTTL)
	if err != nil {
		return &AuthResponse{Success: false, Message: strPtr("error generating token")}, err
	}

	s.InvalidateUserCaches(ctx)

	return &AuthResponse{
		Success:   true,
		Token:     token,
		ExpiredAt: &exp,
		User:      userToView(&user),
	}, nil
}

func (s *UserHandler) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return &AuthResponse{Success: false, Message: strPtr("username and password are required")}, nil
	}

	var user models.User
	err := s.db.Preload("Role").Where("username = ? AND is_active = ?", req.Username, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &AuthResponse{Success: false, Message: strPtr("invalid username or password")}, ErrInvalidCredentials
		}
		return &AuthResponse{Success: false, Message: strPtr("database error")}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return &AuthResponse{Success: false, Message: strPtr("invalid username or password")}, ErrInvalidCredentials
	}

	token, exp, err := utils.GenerateToken(user.ID, user.Username, user.RoleID, s.tokenTTL)
	if err != nil {
		return &AuthResponse{Success: false, Message: strPtr("error generating token")}, err
	}

	now := time.Now()
	if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).Update("last_login", now).Error; err != nil {
		s.logger.WithField("error", err.Error()).Warn("failed to record last login")
	}
	user.LastLogin = &now

	return &AuthResponse{
		Success:   true,
		Token:     token,
		ExpiredAt: &exp,
		User:      userToView(&user),
	}, nil
}

func (s *UserHandler) SaveRole(ctx context.Context, req *SaveRoleRequest) (*RoleResponse, error) {
	var roleCount int64
	if err := s.db.Model(&models.Role{}).Count(&roleCount).Error; err != nil {
		return &RoleResponse{Success: false, Message: strPtr("database error")}, err
	}
	if roleCount > 0 {
		if err := s.gate.Require(req.ActorRoleID, PermissionUsersManage); err != nil {
			return &RoleResponse{Success: false, Message: strPtr("permission denied")}, err
		}
	}
	if req.Role.RoleName == "" {
		return &RoleResponse{Success: false, Message: strPtr("role_name required")}, nil
	}

	var role models.Role
	if req.ID != 0 {
		if err := s.db.First(&role, req.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &RoleResponse{Success: false, Message: strPtr("role not found")}, err
			}
			return &RoleResponse{Success: false, Message: strPtr("database error")}, err
		}
	}
	role.RoleName = req.Role.RoleName
	role.AccessLevel = req.Role.AccessLevel
	role.Permissions = req.Role.Permissions

	if err := s.db.Save(&role).Error; err != nil {
		return &RoleResponse{Success: false, Message: strPtr("database error")}, err
	}

	s.InvalidateUserCaches(ctx)

	return &RoleResponse{Success: true, Role: roleToView(&role)}, nil
}

func (s *UserHandler) ListRoles(ctx context.Context, actorRoleID int32) (*ListRolesResponse, error) {
	if err := s.gate.Require(actorRoleID, PermissionUsersManage); err != nil {
		return &ListRolesResponse{Success: false, Message: strPtr("permission denied")}, err
	}

	var roles []models.Role
	if err := s.db.Order("access_level DESC").Find(&roles).Error; err != nil {
		return &ListRolesResponse{Success: false, Message: strPtr("database error")}, err
	}

	views := make([]*RoleView, len(roles))
	for i := range roles {
		views[i] = roleToView(&roles[i])
	}
	return &ListRolesResponse{Success: true, Roles: views}, nil
}

func userToView(user *models.User) *UserView {
	return &UserView{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Firstname: user.Firstname,
		Lastname:  user.Lastname,
		RoleID:    user.RoleID,
		RoleName:  user.Role.RoleName,
		IsActive:  user.IsActive,
		LastLogin: user.LastLogin,
	}
}

func roleToView(role *models.Role) *RoleView {
	return &RoleView{
		ID:          role.ID,
		RoleName:    role.RoleName,
		AccessLevel: role.AccessLevel,
		Permissions: role.Permissions,
	}
}
