package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort            = 8000      // 监听端口
	DefaultHost            = "0.0.0.0" // 监听地址
	DefaultReloadConfig    = false     // 是否启用配置热重载
	DefaultDebug           = false     // 是否启用调试模式
	DefaultTimeout         = 30        // 读写超时时间，单位秒
	DefaultMaxUploadSizeMB = 50        // Telegram Bot API 单文件上限为 50MB
)

type (
	// ServerConfig 服务器配置.
	ServerConfig struct {
		Port            int      `mapstructure:"port"               rule:"min=1,max=65535"`
		Host            string   `mapstructure:"host"               rule:"ip"`
		ReloadConfig    bool     `mapstructure:"reload_config"`
		Debug           bool     `mapstructure:"debug"`
		Timeout         int      `mapstructure:"timeout"            rule:"min=1,max=3600"`
		MaxUploadSizeMB int64    `mapstructure:"max_upload_size_mb" rule:"min=1"`
		CORSOrigins     []string `mapstructure:"cors_origins"`
	}
)

// GetTimeoutDuration 返回超时时间作为time.Duration.
func (s *ServerConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// MaxUploadBytes 返回上传体的最大字节数.
func (s *ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadSizeMB << 20
}

// setDefaults 设置服务器配置的默认值.
func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.reload_config", DefaultReloadConfig)
	v.SetDefault("server.debug", DefaultDebug)
	v.SetDefault("server.timeout", DefaultTimeout)
	v.SetDefault("server.max_upload_size_mb", DefaultMaxUploadSizeMB)
	v.SetDefault("server.cors_origins", []string{})
}
