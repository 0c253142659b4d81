// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/curator-backend/internal/auth"
	"github.com/carterperez-dev/curator-backend/internal/core"
)

// ProfileRetirer takes an account's curator profile out of circulation
// before the account itself goes away.
type ProfileRetirer interface {
	Retire(ctx context.Context, userID string) error
}

type Service struct {
	repo    Repository
	retirer ProfileRetirer
	clock   core.Clock
	newID   core.IDGenerator
	logger  *slog.Logger
}

func NewService(
	repo Repository,
	retirer ProfileRetirer,
	clock core.Clock,
	newID core.IDGenerator,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:    repo,
		retirer: retirer,
		clock:   clock,
		newID:   newID,
		logger:  logger,
	}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, core.FoldEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name string,
) (*auth.UserInfo, error) {
	now := s.clock.Now()
	user := &User{
		ID:           s.newID(),
		Email:        core.FoldEmail(email),
		PasswordHash: passwordHash,
		Name:         name,
		Role:         RoleCurator,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// CreateAdmin provisions an administrator outside the invite flow.
func (s *Service) CreateAdmin(
	ctx context.Context,
	email, passwordHash, name string,
) (*User, error) {
	now := s.clock.Now()
	user := &User{
		ID:           s.newID(),
		Email:        core.FoldEmail(email),
		PasswordHash: passwordHash,
		Name:         core.NormalizeText(name),
		Role:         RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("admin account created", "user_id", user.ID)

	return user, nil
}

func (s *Service) Purge(ctx context.Context, userID string) error {
	return s.repo.Purge(ctx, userID)
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID, s.clock.Now())
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash, s.clock.Now())
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateUser(
	ctx context.Context,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := core.NormalizeText(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("update user: empty name: %w", core.ErrInvalidInput)
		}
		user.Name = name
	}

	if err := s.repo.Update(ctx, user, s.clock.Now()); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) UpdateUserRole(
	ctx context.Context,
	id, role string,
) (*User, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf(
			"update role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.Role == role {
		return user, nil
	}

	user.Role = role

	if err := s.repo.Update(ctx, user, s.clock.Now()); err != nil {
		return nil, err
	}

	// the role is baked into outstanding access tokens
	if err := s.repo.IncrementTokenVersion(ctx, id, s.clock.Now()); err != nil {
		return nil, err
	}

	s.logger.Info("user role changed", "user_id", id, "role", role)

	return user, nil
}

// DeleteUser retires the curator profile, then soft deletes the account.
// A retire failure leaves the account untouched so the request can be
// retried.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.retirer.Retire(ctx, id); err != nil {
		return fmt.Errorf("retire profile: %w", err)
	}

	err := s.repo.SoftDelete(ctx, id, s.clock.Now())
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("account deleted", "user_id", id)

	return nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()
	return s.repo.List(ctx, params)
}

func (s *Service) CountByRole(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByRole(ctx)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateUserRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	return s.UpdateUser(ctx, userID, req)
}

func (s *Service) DeleteMe(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("delete me: %w", core.ErrUnauthorized)
	}

	return s.DeleteUser(ctx, userID)
}

func (s *Service) CanDeleteUser(
	ctx context.Context,
	requesterID, targetID string,
) error {
	if requesterID == targetID {
		return nil
	}

	requester, err := s.repo.GetByID(ctx, requesterID)
	if err != nil {
		return err
	}

	if !requester.IsAdmin() {
		return fmt.Errorf("delete user: %w", core.ErrForbidden)
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if target.IsAdmin() {
		return fmt.Errorf("cannot delete admin users: %w", core.ErrForbidden)
	}

	return nil
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		TokenVersion: u.TokenVersion,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
