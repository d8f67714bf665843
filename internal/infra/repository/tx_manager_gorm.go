package repository

import (
	"context"

	repo "ecadmin/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	users     repo.UserRepository
	auditLogs repo.AuditLogRepository
}

func (r *txReposGorm) Users() repo.UserRepository         { return r.users }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository { return r.auditLogs }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

// WithinTx はfnがエラーを返したらrollbackする。
func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			users:     NewUserGormRepository(tx),
			auditLogs: NewAuditLogGormRepository(tx),
		}
		return fn(r)
	})
}
