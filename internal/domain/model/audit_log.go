package model

import "time"

// 管理者による会員の更新・削除。
type AuditAction string

const (
	//会員情報（username / email / is_admin）を更新した操作。
	AuditActionUpdateUser AuditAction = "UPDATE_USER"
	//会員を削除した操作。
	AuditActionDeleteUser AuditAction = "DELETE_USER"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの会員に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作した管理者のID。
	ActorUserID string `gorm:"type:uuid;not null;index" json:"actorUserId"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	//対象の会員ID（削除後も残す）。
	TargetUserID string `gorm:"type:uuid;not null;index" json:"targetUserId"`

	//サニタイズ済み会員のJSON。password_hash / refresh_tokenは入らない。
	BeforeJSON string `gorm:"type:text" json:"before"`
	AfterJSON  string `gorm:"type:text" json:"after"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}
