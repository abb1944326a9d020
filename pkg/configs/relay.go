package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultRelayAPIURL  = "https://api.telegram.org" // Telegram Bot API 地址
	DefaultRelayTimeout = 0                          // 0 表示不设置超时，沿用请求上下文
)

// RelayConfig Telegram 中继配置.
// Token 与 ChatID 为空时服务照常启动，只有需要中继的请求会失败.
type RelayConfig struct {
	APIURL  string        `mapstructure:"api_url" rule:"required,url"`
	Token   string        `mapstructure:"token"   json:"-"`
	ChatID  string        `mapstructure:"chat_id"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Configured 是否已配置 bot token 和目标会话.
func (c *RelayConfig) Configured() bool {
	return c.Token != "" && c.ChatID != ""
}

func (c *RelayConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("relay.api_url", DefaultRelayAPIURL)
	v.SetDefault("relay.token", "")
	v.SetDefault("relay.chat_id", "")
	v.SetDefault("relay.timeout", DefaultRelayTimeout)
}
