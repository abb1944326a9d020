package model

import (
	"fmt"
	"time"
)

// PendingDelete 远端消息删除失败后待补偿的记录.
type PendingDelete struct {
	ID                  uint      `gorm:"primaryKey"                           json:"id"`
	RemoteMessageHandle string    `gorm:"column:message_id;size:64;not null;index" json:"message_id"`
	FileRowID           int64     `gorm:"column:file_row_id"                   json:"file_row_id"`
	Attempts            int       `gorm:"not null;default:0"                   json:"attempts"`
	LastError           string    `gorm:"type:text"                            json:"last_error"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName 表名.
func (PendingDelete) TableName() string {
	return "pending_deletes"
}

// PartitionKey 生成 year/month/day/uuid 查找键，缓存与日志共用.
func PartitionKey(year, month, day int, id string) string {
	return fmt.Sprintf("%d/%d/%d/%s", year, month, day, id)
}
