package model

import (
	"time"
)

// SchemaVersion 当前 files 表结构版本，包含 custom_url 列.
const SchemaVersion = 1

// FileRecord 一次上传对应的文件元数据.
type FileRecord struct {
	ID                  int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Filename            string `gorm:"column:filename;not null"           json:"filename"`
	RemoteFileHandle    string `gorm:"column:file_id;not null"            json:"file_id"`
	RemoteMessageHandle string `gorm:"column:message_id;not null"         json:"message_id"`
	DownloadURL         string `gorm:"column:url;not null"                json:"url"`
	// 分区字段，上传当天的日期，写入后不再修改
	Year  int `gorm:"column:year;not null;index:idx_files_partition,priority:1"  json:"year"`
	Month int `gorm:"column:month;not null;index:idx_files_partition,priority:2" json:"month"`
	Day   int `gorm:"column:day;not null;index:idx_files_partition,priority:3"   json:"day"`
	// UUID 对外暴露的标识，不在数据库层约束唯一
	UUID       string    `gorm:"column:uuid;size:64;not null;index:idx_files_partition,priority:4" json:"uuid"`
	CustomURL  *string   `gorm:"column:custom_url"                                                 json:"custom_url"`
	UploadTime time.Time `gorm:"column:upload_time;autoCreateTime"                                 json:"upload_time"`
}

// TableName 表名.
func (FileRecord) TableName() string {
	return "files"
}

// PartitionKey 返回 year/month/day/uuid 形式的查找键.
func (f *FileRecord) PartitionKey() string {
	return PartitionKey(f.Year, f.Month, f.Day, f.UUID)
}

// SchemaMeta 记录 files 表的结构版本.
type SchemaMeta struct {
	ID        uint      `gorm:"primaryKey"`
	Version   int       `gorm:"not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName 表名.
func (SchemaMeta) TableName() string {
	return "schema_meta"
}
