package repotest

import (
	"context"
	"slices"
	"sync"

	"ecadmin/internal/domain/model"
	"ecadmin/internal/repository"
)

type AuditLogs struct {
	mu     sync.Mutex
	nextID int64
	logs   []model.AuditLog
	// 次のCreateを失敗させる
	FailNext error
}

var _ repository.AuditLogRepository = (*AuditLogs)(nil)

func NewAuditLogs() *AuditLogs {
	return &AuditLogs{}
}

func (r *AuditLogs) Create(ctx context.Context, log model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailNext; err != nil {
		r.FailNext = nil
		return err
	}
	r.nextID++
	log.ID = r.nextID
	r.logs = append(r.logs, log)
	return nil
}

// List は新しい順。Offset / Limitも見る。
func (r *AuditLogs) List(ctx context.Context, f repository.AuditLogFilter) ([]model.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.AuditLog{}
	for i := len(r.logs) - 1; i >= 0; i-- {
		l := r.logs[i]
		if f.ActorUserID != nil && l.ActorUserID != *f.ActorUserID {
			continue
		}
		if f.TargetUserID != nil && l.TargetUserID != *f.TargetUserID {
			continue
		}
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		out = append(out, l)
	}
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []model.AuditLog{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

// Tx はfnがエラーを返したらUsers / AuditLogsを開始前の状態に戻す。
// tx同士は直列に実行する。
type Tx struct {
	mu        sync.Mutex
	users     *Users
	auditLogs *AuditLogs
}

var _ repository.TransactionManager = (*Tx)(nil)

func NewTx(users *Users, auditLogs *AuditLogs) *Tx {
	return &Tx{users: users, auditLogs: auditLogs}
}

func (t *Tx) WithinTx(ctx context.Context, fn func(r repository.TxRepos) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	users := t.users.snapshot()
	nextID, logs := t.auditLogs.snapshot()

	if err := fn(t); err != nil {
		t.users.restore(users)
		t.auditLogs.restore(nextID, logs)
		return err
	}
	return nil
}

func (t *Tx) Users() repository.UserRepository         { return t.users }
func (t *Tx) AuditLogs() repository.AuditLogRepository { return t.auditLogs }

func (r *AuditLogs) snapshot() (int64, []model.AuditLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextID, slices.Clone(r.logs)
}

func (r *AuditLogs) restore(nextID int64, logs []model.AuditLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID = nextID
	r.logs = logs
}

// Len は保存済みの件数
func (r *AuditLogs) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logs)
}
