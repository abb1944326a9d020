package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled  bool             `mapstructure:"enabled"` // 总开关
	Producer string           `mapstructure:"producer"`
	Audit    bool             `mapstructure:"audit"` // 进程内订阅全部主题并写审计日志
	File     FileEventsConfig `mapstructure:"file"`
}

// FileEventsConfig 文件生命周期事件开关。
type FileEventsConfig struct {
	Stored             bool `mapstructure:"stored"`
	Deleted            bool `mapstructure:"deleted"`
	RemoteDeleteFailed bool `mapstructure:"remote_delete_failed"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认启用，gochannel 为进程内实现，无外部依赖
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.producer", "tgvault")
	v.SetDefault("events.audit", false)

	v.SetDefault("events.file.stored", true)
	v.SetDefault("events.file.deleted", true)
	v.SetDefault("events.file.remote_delete_failed", true)
}
