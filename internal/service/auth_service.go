package service

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"finhub/internal/auth"
	apperrors "finhub/internal/errors"
	"finhub/internal/model"
	"finhub/internal/policy"
	"finhub/internal/repository"
)

const bcryptCost = 12

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = apperrors.Unauthorized("invalid email or password")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = apperrors.Unauthorized("invalid or expired refresh token")
	// ErrSessionRevoked is returned for session tokens revoked by logout.
	ErrSessionRevoked = apperrors.Unauthorized("session has been revoked")
)

// SignupInput describes a registration. With NewCompany the user founds
// CompanyName as its admin; otherwise the user joins CompanyID with Role.
type SignupInput struct {
	Email       string
	Password    string
	Name        string
	NewCompany  bool
	CompanyName string
	CompanyID   string
	Role        model.Role
}

// Session is an issued session token, with an optional refresh token.
type Session struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         *model.User `json:"user,omitempty"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	// Logout revokes the session token and, when given, the refresh token.
	Logout(ctx context.Context, claims *auth.Claims, refreshToken string) error
	// Authenticate resolves session claims to an active, approved caller.
	Authenticate(ctx context.Context, claims *auth.Claims) (*policy.Caller, error)
}

type authService struct {
	store      repository.Store
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	log        *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store repository.Store, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, log *zap.Logger) AuthService {
	return &authService{
		store:      store,
		jwtService: jwtService,
		tokenStore: tokenStore,
		log:        orNop(log).Named("auth"),
	}
}

// Signup creates a user, and its company when founding one.
func (s *authService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	email := normalizeEmail(in.Email)
	if len(in.Password) < 6 {
		return nil, fieldError("password", "password must be at least 6 characters long")
	}
	if !in.NewCompany && in.Role != model.RoleAdmin && in.Role != model.RoleEmployee {
		return nil, fieldError("role", "role must be admin or employee")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("hash password", err)
	}

	user := &model.User{
		Email:          email,
		PasswordHash:   string(hashedPassword),
		Name:           strings.TrimSpace(in.Name),
		IsActive:       true,
		ApprovalStatus: model.ApprovalPending,
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Users().FindByEmail(ctx, email); err == nil {
			return apperrors.Conflict("email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if in.NewCompany {
			return s.foundCompany(ctx, tx, in.CompanyName, user)
		}

		company, err := tx.Companies().FindByCompanyID(ctx, strings.TrimSpace(in.CompanyID))
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !company.IsActive) {
			return fieldError("company_id", "invalid company ID")
		}
		if err != nil {
			return err
		}
		user.Role = in.Role
		user.CompanyID = company.CompanyID
		user.CompanyName = company.Name
		return tx.Users().Create(ctx, user)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperrors.Conflict("email or company already registered")
	}
	if err != nil {
		return nil, storeError(s.log, "signup", err, "company not found")
	}

	s.log.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("company_id", user.CompanyID),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// foundCompany creates the company and its auto-approved admin.
func (s *authService) foundCompany(ctx context.Context, tx repository.Store, name string, user *model.User) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fieldError("company_name", "company name is required")
	}
	if _, err := tx.Companies().FindByName(ctx, name); err == nil {
		return apperrors.Conflict("company name already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	company := &model.Company{
		CompanyID:  GenerateCompanyID(time.Now()),
		Name:       name,
		AdminEmail: user.Email,
		IsActive:   true,
	}
	if err := tx.Companies().Create(ctx, company); err != nil {
		return err
	}

	now := time.Now()
	user.Role = model.RoleAdmin
	user.CompanyID = company.CompanyID
	user.CompanyName = company.Name
	user.ApprovalStatus = model.ApprovalApproved
	user.ApprovedAt = &now
	return tx.Users().Create(ctx, user)
}

// Login authenticates a user and issues session and refresh tokens.
func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.Users().FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeError(s.log, "find user", err, "user not found")
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	switch user.ApprovalStatus {
	case model.ApprovalRejected:
		return nil, apperrors.Unauthorized("your account has been rejected")
	case model.ApprovalPending:
		return nil, apperrors.Unauthorized("your account is pending approval")
	}

	now := time.Now()
	if err := s.store.Users().TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, storeError(s.log, "record last login", err, "user not found")
	}
	user.LastLogin = &now

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user)
	if err != nil {
		return nil, apperrors.Internal("generate refresh token", err)
	}
	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, user.Email, auth.RefreshTokenExpiry); err != nil {
		return nil, apperrors.Internal("store refresh token", err)
	}
	session.RefreshToken = refreshToken

	s.log.Info("user logged in", zap.String("user_id", user.ID.String()))
	return session, nil
}

// Refresh validates a refresh token and returns a new session token.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	storedUserID, storedEmail, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if storedUserID != claims.UserID || storedEmail != claims.Email {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.loadActive(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Logout revokes the session token and the refresh token.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims, refreshToken string) error {
	if claims != nil && claims.ID != "" {
		if err := s.tokenStore.BlacklistSessionToken(ctx, claims.ID, claims.Remaining()); err != nil {
			return apperrors.Internal("revoke session", err)
		}
	}
	if refreshToken == "" {
		return nil
	}

	refreshClaims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return ErrInvalidRefreshToken
	}
	if err := s.tokenStore.DeleteRefreshToken(ctx, refreshClaims.ID); err != nil {
		return apperrors.Internal("delete refresh token", err)
	}
	return nil
}

// Authenticate resolves session claims to a caller.
func (s *authService) Authenticate(ctx context.Context, claims *auth.Claims) (*policy.Caller, error) {
	if claims == nil || !claims.IsSession() {
		return nil, apperrors.Unauthorized("invalid session token")
	}
	revoked, err := s.tokenStore.IsSessionTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Internal("check session", err)
	}
	if revoked {
		return nil, ErrSessionRevoked
	}

	user, err := s.loadActive(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return policy.CallerFromUser(user), nil
}

func (s *authService) loadActive(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Unauthorized("user not found")
	}
	if err != nil {
		return nil, storeError(s.log, "find user", err, "user not found")
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("account is inactive")
	}
	if !user.IsApproved() {
		return nil, apperrors.Unauthorized("account is not approved")
	}
	return user, nil
}

func (s *authService) issue(user *model.User) (*Session, error) {
	token, err := s.jwtService.GenerateSessionToken(user)
	if err != nil {
		return nil, apperrors.Internal("generate session token", err)
	}
	return &Session{
		Token:     token,
		ExpiresAt: time.Now().Add(s.jwtService.SessionTTL()),
		User:      user,
	}, nil
}

// GenerateCompanyID returns an identifier of the form COMP_<unix millis>_<9 base36 chars>.
func GenerateCompanyID(now time.Time) string {
	id := uuid.New()
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(id[:8]), 36)
	for len(suffix) < 9 {
		suffix = "0" + suffix
	}
	return fmt.Sprintf("COMP_%d_%s", now.UnixMilli(), suffix[:9])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
