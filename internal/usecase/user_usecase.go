package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"ecadmin/internal/apperror"
	"ecadmin/internal/domain/model"
	"ecadmin/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidUserID   = apperror.Validation("Invalid user id")
	ErrUserNotFound    = apperror.NotFound("No user found")
	ErrUserExists      = apperror.Conflict("User already exists")
	ErrDeleteAdmin     = apperror.Validation("Can't delete admin users")
	ErrNothingToUpdate = apperror.Validation("At least one field must be provided")
)

// パスワードのハッシュ化（auth.CredentialStore）
type PasswordHashing interface {
	HashPassword(password string) (string, error)
}

// 本人によるプロフィール更新。is_adminは含めない。
type ProfileUpdateInput struct {
	Email    string
	Username string
	Password string
}

// 管理者による更新。is_adminを変えられるのはここだけ。
type AdminUserUpdateInput struct {
	Email    string
	Username string
	IsAdmin  *bool
}

// 監査ログの絞り込み（空は条件なし）
type AuditLogQuery struct {
	ActorUserID  string
	TargetUserID string
	Action       string
	Limit        int
	Offset       int
}

type UserUsecase struct {
	users     repository.UserRepository
	passwords PasswordHashing
	tx        repository.TransactionManager
	auditLogs repository.AuditLogRepository
	now       func() time.Time
}

// DI
func NewUserUsecase(
	users repository.UserRepository,
	passwords PasswordHashing,
	tx repository.TransactionManager,
	auditLogs repository.AuditLogRepository,
) *UserUsecase {
	return &UserUsecase{
		users:     users,
		passwords: passwords,
		tx:        tx,
		auditLogs: auditLogs,
		now:       time.Now,
	}
}

// UpdateProfile は本人のemail / username / passwordを更新する。
func (u *UserUsecase) UpdateProfile(ctx context.Context, userID string, in ProfileUpdateInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if email == "" && username == "" {
		return nil, ErrNothingToUpdate
	}

	if err := u.ensureUnique(ctx, email, username, userID); err != nil {
		return nil, err
	}

	patch := repository.UserPatch{
		Email:    optional(email),
		Username: optional(username),
	}
	if in.Password != "" {
		hashed, err := u.passwords.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hashed
	}

	return u.update(ctx, userID, patch)
}

// List は全会員（password / refresh抜き）
func (u *UserUsecase) List(ctx context.Context) ([]*model.User, error) {
	users, err := u.users.List(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	out := make([]*model.User, 0, len(users))
	for i := range users {
		out = append(out, users[i].Sanitized())
	}
	return out, nil
}

func (u *UserUsecase) Get(ctx context.Context, userID string) (*model.User, error) {
	if !isUUID(userID) {
		return nil, ErrInvalidUserID
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserError(err)
	}
	return user.Sanitized(), nil
}

// AdminUpdate はusername / email / is_adminを更新し、監査ログを同じTxで残す。
func (u *UserUsecase) AdminUpdate(ctx context.Context, actorID, userID string, in AdminUserUpdateInput) (*model.User, error) {
	if !isUUID(userID) {
		return nil, ErrInvalidUserID
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if email == "" && username == "" && in.IsAdmin == nil {
		return nil, ErrNothingToUpdate
	}

	if err := u.ensureUnique(ctx, email, username, userID); err != nil {
		return nil, err
	}

	var updated *model.User
	err := u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		before, err := r.Users().FindByID(ctx, userID)
		if err != nil {
			return mapUserError(err)
		}

		after, err := r.Users().Update(ctx, userID, repository.UserPatch{
			Email:    optional(email),
			Username: optional(username),
			IsAdmin:  in.IsAdmin,
		})
		if err != nil {
			return mapUserError(err)
		}

		updated = after.Sanitized()
		return u.audit(ctx, r, actorID, model.AuditActionUpdateUser, userID, before.Sanitized(), updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete は管理者は消さない。削除後その会員のaccess tokenは解決できなくなる。
func (u *UserUsecase) Delete(ctx context.Context, actorID, userID string) error {
	if !isUUID(userID) {
		return ErrInvalidUserID
	}

	return u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		user, err := r.Users().FindByID(ctx, userID)
		if err != nil {
			return mapUserError(err)
		}

		if user.IsAdmin {
			return ErrDeleteAdmin
		}

		if err := r.Users().Delete(ctx, userID); err != nil {
			return mapUserError(err)
		}

		return u.audit(ctx, r, actorID, model.AuditActionDeleteUser, userID, user.Sanitized(), nil)
	})
}

// AuditLogs は管理者操作の履歴（新しい順）
func (u *UserUsecase) AuditLogs(ctx context.Context, in AuditLogQuery) ([]model.AuditLog, error) {
	filter := repository.AuditLogFilter{Limit: in.Limit, Offset: in.Offset}
	if in.ActorUserID != "" {
		if !isUUID(in.ActorUserID) {
			return nil, ErrInvalidUserID
		}
		filter.ActorUserID = &in.ActorUserID
	}
	if in.TargetUserID != "" {
		if !isUUID(in.TargetUserID) {
			return nil, ErrInvalidUserID
		}
		filter.TargetUserID = &in.TargetUserID
	}
	if in.Action != "" {
		action := model.AuditAction(in.Action)
		if action != model.AuditActionUpdateUser && action != model.AuditActionDeleteUser {
			return nil, apperror.Validation("Invalid audit action")
		}
		filter.Action = &action
	}

	logs, err := u.auditLogs.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return logs, nil
}

func (u *UserUsecase) audit(ctx context.Context, r repository.TxRepos, actorID string, action model.AuditAction, targetID string, before, after *model.User) error {
	beforeJSON, err := marshalUser(before)
	if err != nil {
		return apperror.Internal(err)
	}
	afterJSON, err := marshalUser(after)
	if err != nil {
		return apperror.Internal(err)
	}

	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		TargetUserID: targetID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    u.now(),
	}); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (u *UserUsecase) ensureUnique(ctx context.Context, email, username, selfID string) error {
	exists, err := u.users.ExistsByEmailOrUsername(ctx, email, username, selfID)
	if err != nil {
		return apperror.Internal(err)
	}
	if exists {
		return ErrUserExists
	}
	return nil
}

func (u *UserUsecase) update(ctx context.Context, userID string, patch repository.UserPatch) (*model.User, error) {
	user, err := u.users.Update(ctx, userID, patch)
	if err != nil {
		return nil, mapUserError(err)
	}
	return user.Sanitized(), nil
}

func mapUserError(err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrDuplicateUser):
		return ErrUserExists
	}
	return apperror.Internal(err)
}

// 削除時のafterはnull
func marshalUser(u *model.User) (string, error) {
	if u == nil {
		return "null", nil
	}
	b, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
