package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geopunch/attendance-backend/internal/domain/auth"
	"github.com/geopunch/attendance-backend/internal/domain/company"
	"github.com/geopunch/attendance-backend/internal/domain/employee"
	"github.com/geopunch/attendance-backend/internal/domain/user"
	"github.com/geopunch/attendance-backend/internal/pkg/database"
	"github.com/geopunch/attendance-backend/internal/pkg/jwt"
	"github.com/geopunch/attendance-backend/internal/repository/postgresql"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceImpl struct {
	user.UserRepository
	company.CompanyRepository
	employee.EmployeeRepository
	jwt.Service
	postgresql.JWTRepository

	// transact runs fn in one database transaction
	transact func(ctx context.Context, fn func(txCtx context.Context) error) error
}

func NewAuthService(
	db *database.DB,
	userRepository user.UserRepository,
	companyRepository company.CompanyRepository,
	employeeRepository employee.EmployeeRepository,
	jwtService jwt.Service,
	jwtRepository postgresql.JWTRepository,
) auth.AuthService {
	return &AuthServiceImpl{
		UserRepository:     userRepository,
		CompanyRepository:  companyRepository,
		EmployeeRepository: employeeRepository,
		Service:            jwtService,
		JWTRepository:      jwtRepository,
		transact: func(ctx context.Context, fn func(txCtx context.Context) error) error {
			return postgresql.WithTransaction(ctx, db, fn)
		},
	}
}

func (a *AuthServiceImpl) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// session is the identity a token pair is issued for.
type session struct {
	subjectID  string
	email      string
	employeeID *string
	companyID  *string
	role       user.Role
}

func userSession(u user.User) session {
	return session{subjectID: u.ID, email: u.Email, companyID: u.CompanyID, role: u.Role}
}

func employeeSession(e employee.Employee) session {
	return session{subjectID: e.ID, employeeID: &e.ID, companyID: &e.CompanyID, role: user.RoleEmployee}
}

// issueTokens signs an access/refresh pair and stores the refresh token hash.
func (a *AuthServiceImpl) issueTokens(ctx context.Context, s session, sessionTrackReq auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	var (
		tokenResponse auth.TokenResponse
		err           error
	)

	tokenResponse.AccessToken, tokenResponse.AccessTokenExpiresIn, err = a.Service.GenerateAccessToken(s.subjectID, s.email, s.employeeID, s.companyID, s.role)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}
	tokenResponse.RefreshToken, tokenResponse.RefreshTokenExpiresIn, err = a.Service.GenerateRefreshToken(s.subjectID, s.role)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create refresh token: %w", err)
	}

	expiresAt := time.Unix(tokenResponse.RefreshTokenExpiresIn, 0)
	if err := a.CreateRefreshToken(ctx, s.subjectID, string(s.role), tokenResponse.RefreshToken, expiresAt, sessionTrackReq); err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to save refresh token to database: %w", err)
	}

	return tokenResponse, nil
}

// Register implements auth.AuthService.
func (a *AuthServiceImpl) Register(ctx context.Context, registerReq auth.RegisterRequest, sessionTrackReq auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if err := registerReq.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	hashedPassword, err := a.hashPassword(registerReq.Password)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	var tokenResponse auth.TokenResponse
	err = a.transact(ctx, func(txCtx context.Context) error {
		newUser, err := a.UserRepository.Create(txCtx, user.User{
			Email:        registerReq.Email,
			PasswordHash: &hashedPassword,
			Role:         user.RolePending,
		})
		if err != nil {
			if errors.Is(err, user.ErrUserEmailExists) {
				return auth.ErrEmailAlreadyExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		tokenResponse, err = a.issueTokens(txCtx, userSession(newUser), sessionTrackReq)
		return err
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}

	return tokenResponse, nil
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, loginReq auth.LoginRequest, sessionTrackReq auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if err := loginReq.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	userData, err := a.UserRepository.GetByEmail(ctx, loginReq.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	// Google-only accounts have no password
	if userData.PasswordHash == nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*userData.PasswordHash), []byte(loginReq.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	return a.issueTokens(ctx, userSession(userData), sessionTrackReq)
}

// LoginWithEmployeeCode implements auth.AuthService.
func (a *AuthServiceImpl) LoginWithEmployeeCode(ctx context.Context, loginReq auth.LoginEmployeeCodeRequest, sessionTrackReq auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if err := loginReq.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	companyData, err := a.CompanyRepository.GetByUsername(ctx, loginReq.CompanyUsername)
	if err != nil {
		if errors.Is(err, company.ErrCompanyNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidEmployeeCodeCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get company by username: %w", err)
	}

	employeeData, err := a.EmployeeRepository.GetByEmployeeCode(ctx, companyData.ID, loginReq.EmployeeCode)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidEmployeeCodeCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get employee by code: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(employeeData.PasswordHash), []byte(loginReq.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidEmployeeCodeCredentials
	}

	// checked after the password so inactive accounts are not enumerable
	if !employeeData.IsActive {
		return auth.TokenResponse{}, auth.ErrEmployeeInactive
	}

	return a.issueTokens(ctx, employeeSession(employeeData), sessionTrackReq)
}

// LoginWithGoogle implements auth.AuthService.
func (a *AuthServiceImpl) LoginWithGoogle(ctx context.Context, googleEmail string, googleID string, sessionTrackReq auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	var tokenResponse auth.TokenResponse

	err := a.transact(ctx, func(txCtx context.Context) error {
		userData, err := a.UserRepository.GetByEmail(txCtx, googleEmail)
		switch {
		case errors.Is(err, user.ErrUserNotFound):
			provider := "google"
			userData, err = a.UserRepository.Create(txCtx, user.User{
				Email:           googleEmail,
				Role:            user.RolePending,
				OAuthProvider:   &provider,
				OAuthProviderID: &googleID,
				EmailVerified:   true,
			})
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to get user data by email: %w", err)
		case userData.OAuthProviderID == nil:
			userData, err = a.UserRepository.LinkGoogleAccount(txCtx, googleID, userData.Email)
			if err != nil {
				return fmt.Errorf("failed to link google account: %w", err)
			}
		case *userData.OAuthProviderID != googleID:
			slog.Warn("google login with mismatched provider id", "user_id", userData.ID)
			return auth.ErrInvalidCredentials
		}

		tokenResponse, err = a.issueTokens(txCtx, userSession(userData), sessionTrackReq)
		return err
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}

	return tokenResponse, nil
}

// Logout implements auth.AuthService. Unknown or already revoked tokens are
// not an error.
func (a *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	if token == "" {
		return auth.ErrInvalidToken
	}
	if err := a.JWTRepository.RevokeRefreshToken(ctx, token); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RefreshToken implements auth.AuthService. The role and company are re-read
// so an owner who just set up a company gets the new claims.
func (a *AuthServiceImpl) RefreshToken(ctx context.Context, req auth.RefreshTokenRequest) (auth.AccessTokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.AccessTokenResponse{}, err
	}

	subjectID, role, err := a.Service.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}

	isRevoked, err := a.JWTRepository.IsRefreshTokenRevoked(ctx, req.RefreshToken)
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to check refresh token: %w", err)
	}
	if isRevoked {
		return auth.AccessTokenResponse{}, auth.ErrRefreshTokenRevoked
	}

	var s session
	if role == user.RoleEmployee {
		employeeData, err := a.EmployeeRepository.GetForSession(ctx, subjectID)
		if err != nil {
			if errors.Is(err, employee.ErrEmployeeNotFound) {
				return auth.AccessTokenResponse{}, auth.ErrUserNotFound
			}
			return auth.AccessTokenResponse{}, fmt.Errorf("failed to get employee: %w", err)
		}
		if !employeeData.IsActive {
			return auth.AccessTokenResponse{}, auth.ErrEmployeeInactive
		}
		s = employeeSession(employeeData)
	} else {
		userData, err := a.UserRepository.GetByID(ctx, subjectID)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				return auth.AccessTokenResponse{}, auth.ErrUserNotFound
			}
			return auth.AccessTokenResponse{}, fmt.Errorf("failed to get user: %w", err)
		}
		s = userSession(userData)
	}

	var accessTokenResponse auth.AccessTokenResponse
	accessTokenResponse.AccessToken, accessTokenResponse.AccessTokenExpiresIn, err =
		a.Service.GenerateAccessToken(s.subjectID, s.email, s.employeeID, s.companyID, s.role)
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessTokenResponse, nil
}
