package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/diewo77/stock-manager/internal/audit"
	"github.com/diewo77/stock-manager/internal/inventory"
	"github.com/diewo77/stock-manager/internal/models"
	"github.com/diewo77/stock-manager/internal/policy"
	"github.com/diewo77/stock-manager/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// minPasswordLen applies to passwords set through the service.
const minPasswordLen = 6

// UserInput carries user fields. On update, empty fields are left unchanged.
type UserInput struct {
	Username string
	Password string
	FullName string
	Role     string
}

// UserService authenticates users and manages accounts. Account changes
// require an active administrator.
type UserService struct {
	db    *gorm.DB
	audit *audit.Recorder
	log   *slog.Logger
}

func NewUserService(db *gorm.DB, rec *audit.Recorder, log *slog.Logger) *UserService {
	if log == nil {
		log = slog.Default()
	}
	return &UserService{db: db, audit: rec, log: log}
}

// Authenticate checks the credentials of an active user and stamps its last
// activity.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, inventory.Persistence("load user", err)
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	now := timeNow()
	if err := s.db.WithContext(ctx).Model(&u).Update("last_activity", now).Error; err != nil {
		return nil, inventory.Persistence("update last activity", err)
	}
	u.LastActivity = &now
	s.audit.Record(ctx, u.ID, "Logged in")
	return &u, nil
}

// IsActiveUser reports whether id names an active user. A failed lookup is
// logged and reported as false.
func (s *UserService) IsActiveUser(ctx context.Context, id uint) bool {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ? AND is_active = ?", id, true).Count(&count).Error
	if err != nil {
		s.log.ErrorContext(ctx, "active user lookup failed", slog.Uint64("user_id", uint64(id)), slog.Any("error", err))
		return false
	}
	return count > 0
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &inventory.NotFoundError{Entity: "user", ID: id}
		}
		return nil, inventory.Persistence("load user", err)
	}
	return &u, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, inventory.Persistence("list users", err)
	}
	return users, nil
}

// Create adds an active user.
func (s *UserService) Create(ctx context.Context, actorID uint, in UserInput) (*models.User, error) {
	if err := authorize(ctx, s.db, actorID, policy.ActionCreate, policy.ResourceUser); err != nil {
		return nil, err
	}
	in.Username = strings.TrimSpace(in.Username)
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	v := make(validation.Violations)
	validation.Required("username", in.Username, v)
	validation.Required("full_name", in.FullName, v)
	validation.OneOf("role", in.Role, []string{models.RoleAdministrator, models.RoleUser}, v)
	checkPassword(in.Password, v)
	if err := inventory.Invalid(v); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := models.User{Username: in.Username, Password: string(hash), FullName: in.FullName, Role: in.Role, IsActive: true}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("username %q is taken: %w", u.Username, inventory.ErrConflict)
		}
		return tx.Create(&u).Error
	})
	if err != nil {
		return nil, inventory.Persistence("create user", err)
	}
	s.audit.Record(ctx, actorID, "Added user %s (%s)", u.Username, u.Role)
	return &u, nil
}

// Update changes the non-empty fields of in.
func (s *UserService) Update(ctx context.Context, actorID, id uint, in UserInput) (*models.User, error) {
	if err := authorize(ctx, s.db, actorID, policy.ActionUpdate, policy.ResourceUser); err != nil {
		return nil, err
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := make(validation.Violations)
	updates := map[string]any{}
	if name := strings.TrimSpace(in.Username); name != "" && name != u.Username {
		updates["username"] = name
	}
	if in.FullName != "" {
		updates["full_name"] = in.FullName
	}
	if in.Role != "" {
		validation.OneOf("role", in.Role, []string{models.RoleAdministrator, models.RoleUser}, v)
		updates["role"] = in.Role
	}
	if in.Password != "" {
		checkPassword(in.Password, v)
	}
	if err := inventory.Invalid(v); err != nil {
		return nil, err
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password"] = string(hash)
	}
	if len(updates) == 0 {
		return u, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if name, ok := updates["username"]; ok {
			var count int64
			if err := tx.Model(&models.User{}).Where("username = ? AND id <> ?", name, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("username %q is taken: %w", name, inventory.ErrConflict)
			}
		}
		return tx.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, inventory.Persistence("update user", err)
	}
	s.audit.Record(ctx, actorID, "Updated user #%d", id)
	return s.Get(ctx, id)
}

// SetActive enables or disables a user. Administrators cannot disable
// themselves.
func (s *UserService) SetActive(ctx context.Context, actorID, id uint, active bool) error {
	if err := authorize(ctx, s.db, actorID, policy.ActionUpdate, policy.ResourceUser); err != nil {
		return err
	}
	if !active && actorID == id {
		return inventory.Invalid(validation.Violations{"is_active": "cannot_disable_self"})
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return inventory.Persistence("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return &inventory.NotFoundError{Entity: "user", ID: id}
	}
	if active {
		s.audit.Record(ctx, actorID, "Enabled user #%d", id)
	} else {
		s.audit.Record(ctx, actorID, "Disabled user #%d", id)
	}
	return nil
}

func checkPassword(pw string, v validation.Violations) {
	if len(pw) < minPasswordLen {
		v["password"] = "too_short"
	}
}
