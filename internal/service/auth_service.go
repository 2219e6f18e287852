package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go-todo-api/internal/model"
	"go-todo-api/internal/revocation"
	"go-todo-api/internal/token"
	"go-todo-api/pkg/apierror"
)

const tokenType = "bearer"

// Notifier sends the account emails. notify.Mailer implements it.
type Notifier interface {
	SendVerification(ctx context.Context, email string, name string, token string) error
	SendPasswordReset(ctx context.Context, email string, name string, token string) error
}

type AuthConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthService drives the account lifecycle: signup, login, refresh, logout,
// verification, password reset, activation and deletion.
type AuthService struct {
	accounts    *AccountService
	codec       *token.Codec
	revocations revocation.Store
	notifier    Notifier
	accessTTL   time.Duration
	refreshTTL  time.Duration
	logger      *slog.Logger
}

func NewAuthService(accounts *AccountService, codec *token.Codec, revocations revocation.Store, notifier Notifier, cfg AuthConfig) *AuthService {
	return &AuthService{
		accounts:    accounts,
		codec:       codec,
		revocations: revocations,
		notifier:    notifier,
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		logger:      slog.Default().With("component", "auth"),
	}
}

func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (model.User, error) {
	user, err := s.accounts.Create(ctx, req)
	if err != nil {
		return model.User{}, err
	}

	s.logger.InfoContext(ctx, "account created", "user_id", user.ID, "username", user.Username)

	if err := s.sendVerification(ctx, user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error) {
	user, ok, err := s.accounts.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return model.TokenPair{}, err
	}
	if !ok {
		s.logger.InfoContext(ctx, "login rejected", "username", req.Username)
		return model.TokenPair{}, apierror.InvalidCredentials()
	}

	access, _, err := s.codec.IssueBearer(user.Username, s.accessTTL, model.TokenAccess)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, _, err := s.codec.IssueBearer(user.Username, s.refreshTTL, model.TokenRefresh)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenType,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User:         user,
	}, nil
}

// Refresh issues a new access token for the holder of a valid refresh token.
func (s *AuthService) Refresh(ctx context.Context, principal model.Principal) (model.AccessToken, error) {
	access, _, err := s.codec.IssueBearer(principal.User.Username, s.accessTTL, model.TokenAccess)
	if err != nil {
		return model.AccessToken{}, err
	}
	return model.AccessToken{
		AccessToken: access,
		TokenType:   tokenType,
		ExpiresIn:   int64(s.accessTTL.Seconds()),
	}, nil
}

// Logout revokes the token the request was authenticated with.
func (s *AuthService) Logout(ctx context.Context, principal model.Principal) error {
	if err := s.revocations.Revoke(ctx, principal.Claims.TokenID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "token revoked", "user_id", principal.User.ID, "token_id", principal.Claims.TokenID)
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, raw string) (model.User, error) {
	email, err := s.codec.VerifyAction(raw, token.PurposeEmailVerification)
	if err != nil {
		return model.User{}, apierror.InvalidVerifyToken().WithDetails(reason(err))
	}

	user, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.UserInactiveOrNotFound()
	}
	if err != nil {
		return model.User{}, err
	}
	if user.IsVerified {
		return user, nil
	}

	return s.accounts.MarkVerified(ctx, user)
}

// ResendVerification reports false when the account is already verified.
func (s *AuthService) ResendVerification(ctx context.Context, user model.User) (bool, error) {
	if user.IsVerified {
		return false, nil
	}
	if err := s.sendVerification(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}

// RequestPasswordReset never reveals whether the address is registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		s.logger.DebugContext(ctx, "password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	if !user.IsActive {
		s.logger.DebugContext(ctx, "password reset requested for inactive account", "user_id", user.ID)
		return nil
	}

	return s.sendPasswordReset(ctx, user)
}

func (s *AuthService) ConfirmPasswordReset(ctx context.Context, raw string, req model.PasswordResetConfirmRequest) error {
	if req.NewPassword != req.ConfirmNewPassword {
		return apierror.PasswordsMismatch()
	}

	email, err := s.codec.VerifyAction(raw, token.PurposePasswordReset)
	if err != nil {
		return apierror.InvalidResetToken().WithDetails(reason(err))
	}

	user, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return apierror.UserInactiveOrNotFound()
	}
	if err != nil {
		return err
	}
	if !user.IsActive {
		return apierror.UserInactiveOrNotFound()
	}

	if _, err := s.accounts.SetPassword(ctx, user, req.NewPassword); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "password reset", "user_id", user.ID)
	return nil
}

// ProvisionAccount creates an account for an admin and mails its owner a
// password reset link.
func (s *AuthService) ProvisionAccount(ctx context.Context, req model.ProvisionRequest) (model.User, error) {
	user, err := s.accounts.Provision(ctx, req)
	if err != nil {
		return model.User{}, err
	}

	s.logger.InfoContext(ctx, "account provisioned", "user_id", user.ID, "role", user.Role)

	if err := s.sendPasswordReset(ctx, user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *AuthService) ListAccounts(ctx context.Context, offset int, limit int) ([]model.User, int, error) {
	return s.accounts.List(ctx, offset, limit)
}

func (s *AuthService) GetAccount(ctx context.Context, actor model.User, id string) (model.User, error) {
	if err := authorizeSelfOrAdmin(actor, id); err != nil {
		return model.User{}, err
	}
	return s.lookup(ctx, id)
}

// UpdateAccount applies upd to the account id on behalf of actor. Non-admins
// may only edit themselves and never their role, activity or verification
// flags. An email change sends one verification email to the new address.
func (s *AuthService) UpdateAccount(ctx context.Context, actor model.User, id string, upd model.UserUpdate) (model.User, error) {
	if err := authorizeSelfOrAdmin(actor, id); err != nil {
		return model.User{}, err
	}

	target, err := s.lookup(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	if !actor.IsAdmin() {
		upd.Role = &target.Role
		upd.IsActive = &target.IsActive
		upd.IsVerified = &target.IsVerified
	}

	updated, emailChanged, err := s.accounts.Update(ctx, target, upd)
	if err != nil {
		return model.User{}, err
	}

	if emailChanged {
		if err := s.sendVerification(ctx, updated); err != nil {
			return model.User{}, err
		}
	}
	return updated, nil
}

// DeleteAccount removes the account id. A user deleting themselves also
// loses the token they used.
func (s *AuthService) DeleteAccount(ctx context.Context, principal model.Principal, id string) error {
	if err := authorizeSelfOrAdmin(principal.User, id); err != nil {
		return err
	}

	if principal.User.ID == id {
		if err := s.revocations.Revoke(ctx, principal.Claims.TokenID); err != nil {
			return err
		}
	}

	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "account deleted", "user_id", id, "by", principal.User.ID)
	return nil
}

func (s *AuthService) Activate(ctx context.Context, principal model.Principal) (model.User, error) {
	if principal.User.IsActive {
		return principal.User, nil
	}
	return s.accounts.SetActive(ctx, principal.User, true)
}

// Deactivate marks the caller inactive and revokes the token used for the call.
func (s *AuthService) Deactivate(ctx context.Context, principal model.Principal) (model.User, error) {
	// Revoke first so an unreachable store leaves the account untouched.
	if err := s.revocations.Revoke(ctx, principal.Claims.TokenID); err != nil {
		return model.User{}, err
	}
	user, err := s.accounts.SetActive(ctx, principal.User, false)
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *AuthService) lookup(ctx context.Context, id string) (model.User, error) {
	user, err := s.accounts.Get(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.NotFound("user")
	}
	return user, err
}

func (s *AuthService) sendVerification(ctx context.Context, user model.User) error {
	raw, err := s.codec.IssueAction(user.Email, token.PurposeEmailVerification)
	if err != nil {
		return err
	}
	if err := s.notifier.SendVerification(ctx, user.Email, displayName(user), raw); err != nil {
		s.logger.ErrorContext(ctx, "verification email enqueue failed", "user_id", user.ID, "error", err)
		return apierror.Internal()
	}
	return nil
}

func (s *AuthService) sendPasswordReset(ctx context.Context, user model.User) error {
	raw, err := s.codec.IssueAction(user.Email, token.PurposePasswordReset)
	if err != nil {
		return err
	}
	if err := s.notifier.SendPasswordReset(ctx, user.Email, displayName(user), raw); err != nil {
		s.logger.ErrorContext(ctx, "password reset email enqueue failed", "user_id", user.ID, "error", err)
		return apierror.Internal()
	}
	return nil
}

func authorizeSelfOrAdmin(actor model.User, id string) error {
	if actor.IsAdmin() || actor.ID == id {
		return nil
	}
	return apierror.InsufficientPermission()
}

func displayName(u model.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

func reason(err error) string {
	var invalid *token.InvalidError
	if errors.As(err, &invalid) {
		return invalid.Reason
	}
	return ""
}
