// Package core owns the directory: users, organizations, roles and user history.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"pms/internal/domain/access"
	"pms/internal/domain/apperr"
	"pms/internal/domain/auth"
	"pms/internal/platform/storage"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Access      *access.Resolver
	Objects     storage.Store
	Mailer      Mailer
	From        string
	FrontendURL string
}

func NewService(store StoreAPI, resolver *access.Resolver, objects storage.Store) *Service {
	return &Service{store: store, Access: resolver, Objects: objects}
}

func notFound(err error, kind error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return kind
	}
	return err
}

// ListUsers returns the users in organizations the caller may see.
func (s *Service) ListUsers(ctx context.Context, p access.Principal, filter UserFilter) ([]User, int, error) {
	if p.Scope != access.ScopeGlobal {
		orgIDs, err := s.Access.AccessibleOrgs(ctx, p)
		if err != nil {
			return nil, 0, err
		}
		if orgIDs == nil {
			orgIDs = []string{}
		}
		filter.OrgIDs = orgIDs
	}
	users, total, err := s.store.ListUsers(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for i := range users {
		FilterUserFields(&users[i], p)
	}
	return users, total, nil
}

func (s *Service) GetUser(ctx context.Context, p access.Principal, userID string) (User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return User{}, notFound(err, ErrUserNotFound)
	}
	if user.ID != p.UserID && user.SupervisorID != p.UserID {
		ok, err := s.Access.CanAccessOrg(ctx, p, user.OrganizationID)
		if err != nil {
			return User{}, err
		}
		if !ok && !p.Has(auth.PermUserViewAll) {
			return User{}, ErrUserAccessDenied
		}
	}
	FilterUserFields(&user, p)
	return user, nil
}

func (s *Service) CreateUser(ctx context.Context, p access.Principal, in CreateUserInput) (User, error) {
	if err := ValidateNewUser(in); err != nil {
		return User{}, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	exists, err := s.store.EmailExists(ctx, in.Email)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, ErrEmailTaken
	}
	if in.OrganizationID != "" {
		if _, err := s.store.GetOrganization(ctx, in.OrganizationID); err != nil {
			return User{}, notFound(err, ErrOrgNotFound)
		}
		ok, err := s.Access.CanAccessOrg(ctx, p, in.OrganizationID)
		if err != nil {
			return User{}, err
		}
		if !ok {
			return User{}, ErrOrgAccessDenied
		}
	}
	if in.RoleID != "" {
		if _, err := s.store.GetRole(ctx, in.RoleID); err != nil {
			return User{}, notFound(err, ErrRoleNotFound)
		}
	}
	if in.SupervisorID != "" {
		supervisor, err := s.store.GetUser(ctx, in.SupervisorID)
		if err != nil {
			return User{}, notFound(err, ErrSupervisorNotFound)
		}
		if supervisor.Status != UserStatusActive {
			return User{}, ErrInactiveSupervisor
		}
	}

	token, err := auth.NewOpaqueToken()
	if err != nil {
		return User{}, err
	}
	name := FullName(in.FirstName, in.MiddleName, in.LastName)
	id, err := s.store.CreateUser(ctx, in, name, auth.HashToken(token), time.Now().Add(auth.OnboardingTTL))
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	s.history(ctx, id, p.UserID, "created", nil, in)

	link := strings.TrimRight(s.FrontendURL, "/") + "/onboard?token=" + token
	s.send(ctx, in.Email, "Welcome to the performance management system",
		fmt.Sprintf("<p>Hello %s,</p><p>An account has been created for you. Set your password to get started:</p><p><a href=\"%s\">%s</a></p><p>The link expires in 72 hours.</p>", name, link, link))

	return s.store.GetUser(ctx, id)
}

// UpdateMe lets a user edit their own contact and profile fields.
func (s *Service) UpdateMe(ctx context.Context, p access.Principal, in UserUpdate) (User, error) {
	in.OrganizationID = nil
	in.RoleID = nil
	in.Level = nil
	in.JobTitle = nil
	return s.update(ctx, p, p.UserID, in, "profile_updated")
}

func (s *Service) UpdateUser(ctx context.Context, p access.Principal, userID string, in UserUpdate) (User, error) {
	if in.RoleID != nil && !p.Has(auth.PermRoleAssign) {
		return User{}, ErrRoleChangeForbidden
	}
	if in.Level != nil && (*in.Level < 1 || *in.Level > 17) {
		return User{}, apperr.Validation("level must be between 1 and 17")
	}
	if in.RoleID != nil {
		if _, err := s.store.GetRole(ctx, *in.RoleID); err != nil {
			return User{}, notFound(err, ErrRoleNotFound)
		}
	}
	if in.OrganizationID != nil {
		if _, err := s.store.GetOrganization(ctx, *in.OrganizationID); err != nil {
			return User{}, notFound(err, ErrOrgNotFound)
		}
	}
	return s.update(ctx, p, userID, in, "updated")
}

func (s *Service) update(ctx context.Context, p access.Principal, userID string, in UserUpdate, action string) (User, error) {
	before, err := s.GetUser(ctx, p, userID)
	if err != nil {
		return User{}, err
	}
	if err := s.store.UpdateUser(ctx, userID, in); err != nil {
		return User{}, fmt.Errorf("update user: %w", err)
	}
	after, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	s.history(ctx, userID, p.UserID, action, before, after)
	return after, nil
}

func (s *Service) ChangeStatus(ctx context.Context, p access.Principal, userID, status string) (User, error) {
	perm, err := StatusPermission(status)
	if err != nil {
		return User{}, err
	}
	if !p.Has(perm) {
		return User{}, ErrStatusPermission
	}
	if userID == p.UserID {
		return User{}, ErrOwnStatus
	}
	before, err := s.GetUser(ctx, p, userID)
	if err != nil {
		return User{}, err
	}
	if err := s.store.SetUserStatus(ctx, userID, status); err != nil {
		return User{}, err
	}
	s.history(ctx, userID, p.UserID, "status_changed", map[string]string{"status": before.Status}, map[string]string{"status": status})
	before.Status = status
	return before, nil
}

func (s *Service) AssignRole(ctx context.Context, p access.Principal, userID, roleID string) (User, error) {
	return s.UpdateUser(ctx, p, userID, UserUpdate{RoleID: &roleID})
}

func (s *Service) History(ctx context.Context, userID string, limit, offset int) ([]HistoryEntry, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return s.store.ListHistory(ctx, userID, limit, offset)
}

func (s *Service) Supervisees(ctx context.Context, supervisorID string) ([]User, error) {
	return s.store.Supervisees(ctx, supervisorID)
}

// PotentialSupervisors lists active users who could supervise userID without a cycle.
func (s *Service) PotentialSupervisors(ctx context.Context, p access.Principal, userID string) ([]User, error) {
	supervisors, err := s.store.SupervisorMap(ctx)
	if err != nil {
		return nil, err
	}
	var orgIDs []string
	if p.Scope != access.ScopeGlobal {
		if orgIDs, err = s.Access.AccessibleOrgs(ctx, p); err != nil {
			return nil, err
		}
		if orgIDs == nil {
			orgIDs = []string{}
		}
	}
	candidates, err := s.store.ActiveUsers(ctx, orgIDs)
	if err != nil {
		return nil, err
	}
	excluded := Subordinates(supervisors, userID)
	out := []User{}
	for _, candidate := range candidates {
		if candidate.ID == userID {
			continue
		}
		if _, skip := excluded[candidate.ID]; skip {
			continue
		}
		out = append(out, candidate)
	}
	return out, nil
}

func (s *Service) SetSupervisor(ctx context.Context, p access.Principal, userID, supervisorID string) (User, error) {
	user, err := s.GetUser(ctx, p, userID)
	if err != nil {
		return User{}, err
	}
	if supervisorID != "" {
		if supervisorID == userID {
			return User{}, ErrSelfSupervisor
		}
		supervisor, err := s.store.GetUser(ctx, supervisorID)
		if err != nil {
			return User{}, notFound(err, ErrSupervisorNotFound)
		}
		if supervisor.Status != UserStatusActive {
			return User{}, ErrInactiveSupervisor
		}
		supervisors, err := s.store.SupervisorMap(ctx)
		if err != nil {
			return User{}, err
		}
		if WouldCreateCycle(supervisors, userID, supervisorID) {
			return User{}, ErrSupervisorCycle
		}
	}
	if err := s.store.SetSupervisor(ctx, userID, supervisorID); err != nil {
		return User{}, err
	}
	s.history(ctx, userID, p.UserID, "supervisor_changed",
		map[string]string{"supervisor_id": user.SupervisorID}, map[string]string{"supervisor_id": supervisorID})
	return s.store.GetUser(ctx, userID)
}

func (s *Service) UploadProfileImage(ctx context.Context, userID, fileName, contentType string, size int64, body io.Reader) (User, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return User{}, apperr.Validation("profile image must be an image")
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return User{}, notFound(err, ErrUserNotFound)
	}
	key := storage.NewKey("profile-images/"+userID, fileName)
	if err := s.Objects.Put(ctx, key, body, size, contentType); err != nil {
		return User{}, fmt.Errorf("store profile image: %w", err)
	}
	if err := s.store.SetProfileImage(ctx, userID, key); err != nil {
		return User{}, err
	}
	if user.ProfileImageKey != "" {
		if err := s.Objects.Delete(ctx, user.ProfileImageKey); err != nil {
			slog.Warn("delete old profile image failed", "userId", userID, "err", err)
		}
	}
	user.ProfileImageKey = key
	user.HasProfileImage = true
	return user, nil
}

func (s *Service) DeleteProfileImage(ctx context.Context, userID string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if user.ProfileImageKey == "" {
		return nil
	}
	if err := s.store.SetProfileImage(ctx, userID, ""); err != nil {
		return err
	}
	if err := s.Objects.Delete(ctx, user.ProfileImageKey); err != nil {
		slog.Warn("delete profile image failed", "userId", userID, "err", err)
	}
	return nil
}

func (s *Service) ProfileImage(ctx context.Context, userID string) (storage.Object, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return storage.Object{}, notFound(err, ErrUserNotFound)
	}
	if user.ProfileImageKey == "" {
		return storage.Object{}, apperr.NotFound("Profile image not found")
	}
	obj, err := s.Objects.Get(ctx, user.ProfileImageKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return storage.Object{}, apperr.NotFound("Profile image not found")
	}
	return obj, err
}

func (s *Service) history(ctx context.Context, userID, adminID, action string, before, after any) {
	if err := s.store.AppendHistory(ctx, userID, adminID, action, before, after); err != nil {
		slog.Warn("append user history failed", "userId", userID, "action", action, "err", err)
	}
}

func (s *Service) send(ctx context.Context, to, subject, body string) {
	if s.Mailer == nil || to == "" {
		return
	}
	if err := s.Mailer.Send(ctx, s.From, to, subject, body); err != nil {
		slog.Warn("onboarding email send failed", "err", err)
	}
}
