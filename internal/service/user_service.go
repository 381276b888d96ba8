package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"userdirectory/internal/auth"
	"userdirectory/internal/cache"
	apperrors "userdirectory/internal/errors"
	"userdirectory/internal/metrics"
	"userdirectory/internal/model"
	"userdirectory/internal/repository"
)

const (
	defaultUserCacheTTL = 5 * time.Minute

	duplicateOnCreateMessage = "Email or phone number already exists"
	duplicateOnUpdateMessage = "Email or phone already Exists"
	fetchUsersFailedMessage  = "An error occurred while fetching users: "
	passwordTooLongMessage   = "Password must not exceed 72 bytes"
	userIDTakenMessage       = "A user with the generated user id already exists"
)

// UserService exposes the directory's user operations.
type UserService interface {
	// CreateUser hashes password, stores the user and returns its public user id.
	CreateUser(ctx context.Context, user *model.User, password string) (string, error)
	// UpdateUser applies proposal to the user with userID. Role and designation are
	// only changed when the stored user is an admin.
	UpdateUser(ctx context.Context, userID string, proposal *model.User) (*model.UserDTO, error)
	// UpdateStatus sets the user's status and returns a message describing the outcome.
	UpdateStatus(ctx context.Context, userID, status string) (string, error)
	GetUser(ctx context.Context, userID string) (*model.UserDTO, error)
	// SearchUsers filters all users and returns the requested page. page is zero based
	// and clamped into range.
	SearchUsers(ctx context.Context, filter model.UserFilter, page, size int) (*model.UserPage, error)
}

type userService struct {
	repo     repository.UserRepository
	hasher   auth.PasswordHasher
	cache    *cache.Client
	cacheTTL time.Duration
}

// NewUserService builds a UserService. cache may be nil; a non-positive cacheTTL uses 5 minutes.
func NewUserService(repo repository.UserRepository, hasher auth.PasswordHasher, cache *cache.Client, cacheTTL time.Duration) UserService {
	if cacheTTL <= 0 {
		cacheTTL = defaultUserCacheTTL
	}
	return &userService{
		repo:     repo,
		hasher:   hasher,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func (s *userService) cacheKey(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func (s *userService) CreateUser(ctx context.Context, user *model.User, password string) (string, error) {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperrors.InvalidArgument(passwordTooLongMessage)
		}
		return "", err
	}
	user.PasswordHash = digest
	// The store assigns both identifiers.
	user.ID = 0
	user.UserID = ""
	if user.Status == "" {
		user.Status = model.StatusEnabled
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserIDTaken) {
			return "", apperrors.DuplicateEntry(userIDTakenMessage, err)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.DuplicateEntries.Inc()
			return "", apperrors.DuplicateEntry(duplicateOnCreateMessage, err)
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	metrics.UsersCreated.Inc()
	return user.UserID, nil
}

func (s *userService) UpdateUser(ctx context.Context, userID string, proposal *model.User) (*model.UserDTO, error) {
	existing, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing.FirstName = proposal.FirstName
	existing.LastName = proposal.LastName
	existing.Email = proposal.Email
	existing.Phone = proposal.Phone
	existing.MiddleName = proposal.MiddleName
	existing.OrganizationID = proposal.OrganizationID
	if existing.Role == model.RoleAdmin {
		existing.Designation = proposal.Designation
		existing.Role = proposal.Role
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.DuplicateEntries.Inc()
			return nil, apperrors.DuplicateEntry(duplicateOnUpdateMessage, err)
		}
		return nil, fmt.Errorf("update user %s: %w", userID, err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(userID))

	metrics.UsersUpdated.Inc()
	dto := existing.ToDTO()
	return &dto, nil
}

func (s *userService) UpdateStatus(ctx context.Context, userID, status string) (string, error) {
	existing, err := s.findUser(ctx, userID)
	if err != nil {
		return "", err
	}

	if existing.Status == status {
		metrics.StatusChanges.WithLabelValues("unchanged").Inc()
		return "User status is already " + status, nil
	}

	existing.Status = status
	if err := s.repo.Update(ctx, existing); err != nil {
		return "", fmt.Errorf("update status of %s: %w", userID, err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(userID))

	metrics.StatusChanges.WithLabelValues("changed").Inc()
	return "User status changed successfully to " + status, nil
}

func (s *userService) GetUser(ctx context.Context, userID string) (*model.UserDTO, error) {
	var cached model.UserDTO
	if s.cache.GetJSON(ctx, s.cacheKey(userID), &cached) {
		return &cached, nil
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	dto := user.ToDTO()
	s.cache.SetJSON(ctx, s.cacheKey(userID), dto, s.cacheTTL)
	return &dto, nil
}

func (s *userService) SearchUsers(ctx context.Context, filter model.UserFilter, page, size int) (*model.UserPage, error) {
	if size <= 0 {
		return nil, apperrors.InvalidArgument("size must be greater than zero")
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.ServiceFailure(fetchUsersFailedMessage, err)
	}

	matched := make([]*model.User, 0, len(all))
	for i := range all {
		if filter.Matches(&all[i]) {
			matched = append(matched, &all[i])
		}
	}

	total := len(matched)
	totalPages := (total + size - 1) / size
	currentPage := max(0, min(page, totalPages-1))

	start := min(currentPage*size, total)
	end := min(start+size, total)

	users := make([]model.UserDTO, 0, end-start)
	for _, u := range matched[start:end] {
		users = append(users, u.ToDTO())
	}

	return &model.UserPage{
		Count:       int64(total),
		PageCount:   totalPages,
		CurrentPage: currentPage,
		Users:       users,
	}, nil
}

// findUser loads a user, reporting a missing row as a NotFound error.
func (s *userService) findUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(userID)
		}
		return nil, fmt.Errorf("find user %s: %w", userID, err)
	}
	return user, nil
}
