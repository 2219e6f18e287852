package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-todo-api/internal/model"
	"go-todo-api/internal/password"
)

// AccountService owns account records. Authorization is the caller's job.
type AccountService struct {
	users  UserRepository
	hasher *password.Hasher
	now    func() time.Time
}

func NewAccountService(users UserRepository, hasher *password.Hasher) *AccountService {
	return &AccountService{users: users, hasher: hasher, now: time.Now}
}

// Create registers a self-service account: role user, active, unverified.
func (s *AccountService) Create(ctx context.Context, req model.SignupRequest) (model.User, error) {
	return s.create(ctx, model.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      model.RoleUser,
	}, req.Password)
}

// Provision creates an account on behalf of an admin. Without a password the
// account gets an unusable random one and its owner must go through reset.
func (s *AccountService) Provision(ctx context.Context, req model.ProvisionRequest) (model.User, error) {
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}

	plaintext := req.Password
	if plaintext == "" {
		plaintext = uuid.NewString()
	}

	return s.create(ctx, model.User{
		Username:   req.Username,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Role:       role,
		IsVerified: req.IsVerified,
	}, plaintext)
}

func (s *AccountService) create(ctx context.Context, u model.User, plaintext string) (model.User, error) {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = normalizeEmail(u.Email)

	if err := s.ensureAvailable(ctx, u.Username, u.Email); err != nil {
		return model.User{}, err
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return model.User{}, err
	}

	now := s.now().UTC()
	u.ID = uuid.NewString()
	u.PasswordHash = hash
	u.IsActive = true
	u.CreatedAt = now
	u.UpdatedAt = now

	if err := s.users.Create(ctx, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// ensureAvailable checks username and email independently. Empty values are skipped.
func (s *AccountService) ensureAvailable(ctx context.Context, username string, email string) error {
	if username != "" {
		taken, err := s.users.ExistsByUsername(ctx, username)
		if err != nil {
			return err
		}
		if taken {
			return model.ErrUserAlreadyExists
		}
	}

	if email != "" {
		taken, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			return model.ErrUserAlreadyExists
		}
	}

	return nil
}

// Authenticate returns ok=false for both an unknown username and a wrong
// password. Both paths run one bcrypt comparison.
func (s *AccountService) Authenticate(ctx context.Context, username string, plaintext string) (model.User, bool, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		s.hasher.VerifyDummy(plaintext)
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}

	if !s.hasher.Verify(plaintext, u.PasswordHash) {
		return model.User{}, false, nil
	}
	return u, true, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (model.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *AccountService) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return s.users.FindByUsername(ctx, username)
}

func (s *AccountService) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return s.users.FindByEmail(ctx, normalizeEmail(email))
}

func (s *AccountService) List(ctx context.Context, offset int, limit int) ([]model.User, int, error) {
	return s.users.List(ctx, offset, limit)
}

// Update applies the non-nil fields of upd to account. emailChanged reports
// whether the address changed, in which case the account is unverified again.
func (s *AccountService) Update(ctx context.Context, account model.User, upd model.UserUpdate) (model.User, bool, error) {
	next := account

	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if !strings.EqualFold(username, account.Username) {
			if err := s.ensureAvailable(ctx, username, ""); err != nil {
				return model.User{}, false, err
			}
		}
		next.Username = username
	}

	emailChanged := false
	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		if !strings.EqualFold(email, account.Email) {
			if err := s.ensureAvailable(ctx, "", email); err != nil {
				return model.User{}, false, err
			}
			emailChanged = true
		}
		next.Email = email
	}

	if upd.Password != nil {
		hash, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return model.User{}, false, err
		}
		next.PasswordHash = hash
	}
	if upd.FirstName != nil {
		next.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		next.LastName = *upd.LastName
	}
	if upd.Role != nil {
		next.Role = *upd.Role
	}
	if upd.IsActive != nil {
		next.IsActive = *upd.IsActive
	}
	if upd.IsVerified != nil {
		next.IsVerified = *upd.IsVerified
	}

	if emailChanged {
		next.IsVerified = false
	}

	saved, err := s.save(ctx, next)
	if err != nil {
		return model.User{}, false, err
	}
	return saved, emailChanged, nil
}

func (s *AccountService) SetPassword(ctx context.Context, account model.User, plaintext string) (model.User, error) {
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return model.User{}, err
	}
	account.PasswordHash = hash
	return s.save(ctx, account)
}

func (s *AccountService) MarkVerified(ctx context.Context, account model.User) (model.User, error) {
	account.IsVerified = true
	return s.save(ctx, account)
}

func (s *AccountService) SetActive(ctx context.Context, account model.User, active bool) (model.User, error) {
	account.IsActive = active
	return s.save(ctx, account)
}

// Delete is idempotent.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	return nil
}

func (s *AccountService) save(ctx context.Context, u model.User) (model.User, error) {
	u.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
