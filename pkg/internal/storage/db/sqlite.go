package db

import "strings"

// sqliteBusyTimeoutMS 等待其他进程释放写锁的时间.
const sqliteBusyTimeoutMS = "5000"

// appendDSNParam 在 DSN 上追加查询参数，内存库保持原样.
func appendDSNParam(dsn, param string) string {
	if dsn == ":memory:" || strings.Contains(dsn, param[:strings.Index(param, "=")+1]) {
		return dsn
	}

	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}

	return dsn + "?" + param
}
