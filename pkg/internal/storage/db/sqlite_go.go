//go:build !no_sqlite && !cgo

package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/tgvault/pkg/configs"
)

// createSQLiteDialector 创建SQLite dialector (纯 Go 版本).
func createSQLiteDialector(dsn string) gorm.Dialector {
	return sqlite.Open(appendDSNParam(dsn, "_pragma=busy_timeout("+sqliteBusyTimeoutMS+")"))
}

func init() {
	RegisterDialectorFactory(configs.SQLite, createSQLiteDialector)
}
