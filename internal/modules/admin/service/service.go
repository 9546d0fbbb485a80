package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"anoa.com/datingapp/internal/entity"
	"anoa.com/datingapp/internal/modules/admin/dto"
	userRepo "anoa.com/datingapp/internal/modules/user/repository"
	"anoa.com/datingapp/pkg/apperror"
	"anoa.com/datingapp/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const exportSheet = "Users"

var exportHeader = []interface{}{"ID", "Username", "Known As", "Gender", "City", "Country", "Roles", "Created", "Last Active"}

type AdminService interface {
	GetUsersWithRoles(ctx context.Context) ([]dto.UserWithRolesResponse, error)
	EditRoles(ctx context.Context, userName string, roles []string) ([]string, error)
	ExportUsersWithRoles(ctx context.Context, w io.Writer) error
}

type adminService struct {
	repo     userRepo.UserRepository
	identity userRepo.IdentityStore
}

func NewAdminService(repo userRepo.UserRepository, identity userRepo.IdentityStore) AdminService {
	return &adminService{
		repo:     repo,
		identity: identity,
	}
}

func (s *adminService) GetUsersWithRoles(ctx context.Context) ([]dto.UserWithRolesResponse, error) {
	users, err := s.repo.FindAllWithRoles(ctx)
	if err != nil {
		return nil, apperror.Database("failed to load users", err)
	}

	out := make([]dto.UserWithRolesResponse, 0, len(users))
	for i := range users {
		u := &users[i]
		out = append(out, dto.UserWithRolesResponse{
			ID:         u.ID,
			Username:   u.Username,
			KnownAs:    u.KnownAs,
			Gender:     u.Gender,
			City:       u.City,
			Country:    u.Country,
			Roles:      u.RoleNames(),
			Created:    u.CreatedAt,
			LastActive: u.LastActive,
		})
	}
	return out, nil
}

// EditRoles makes the user's roles exactly the selected set and returns the
// resulting role names.
func (s *adminService) EditRoles(ctx context.Context, userName string, roles []string) ([]string, error) {
	selected := cleanRoleNames(roles)
	if len(selected) == 0 {
		return nil, apperror.Generic("you must select at least one role")
	}

	user, err := s.identity.FindUserByName(ctx, userName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Database("failed to load user", err)
	}

	current, err := s.identity.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, apperror.Database("failed to load roles", err)
	}

	if err := s.identity.AddRoles(ctx, user.ID, difference(selected, current)); err != nil {
		if errors.Is(err, userRepo.ErrUnknownRole) {
			return nil, apperror.Generic("failed to add to roles")
		}
		return nil, apperror.Database("failed to add to roles", err)
	}

	if err := s.identity.RemoveRoles(ctx, user.ID, difference(current, selected)); err != nil {
		return nil, apperror.Database("failed to remove from roles", err)
	}

	updated, err := s.identity.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, apperror.Database("failed to load roles", err)
	}
	logger.Info("roles updated", "username", user.Username, "roles", updated)
	return updated, nil
}

// ExportUsersWithRoles writes the users-with-roles listing as an xlsx workbook.
func (s *adminService) ExportUsersWithRoles(ctx context.Context, w io.Writer) error {
	users, err := s.GetUsersWithRoles(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, u := range users {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			u.ID,
			u.Username,
			u.KnownAs,
			u.Gender,
			u.City,
			u.Country,
			strings.Join(u.Roles, ", "),
			u.Created.UTC().Format(time.RFC3339),
			u.LastActive.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.Write(w)
}

func cleanRoleNames(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]bool, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		key := entity.Normalize(r)
		if r == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// difference returns the names in a that are not in b, case-insensitively.
func difference(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, name := range b {
		in[entity.Normalize(name)] = true
	}
	var out []string
	for _, name := range a {
		if !in[entity.Normalize(name)] {
			out = append(out, name)
		}
	}
	return out
}
