//go:build !no_sqlite && cgo

package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/tgvault/pkg/configs"
)

// createSQLiteDialector 创建SQLite dialector (CGo版本，mattn/go-sqlite3).
func createSQLiteDialector(dsn string) gorm.Dialector {
	return sqlite.Open(appendDSNParam(dsn, "_busy_timeout="+sqliteBusyTimeoutMS))
}

func init() {
	RegisterDialectorFactory(configs.SQLite, createSQLiteDialector)
}
