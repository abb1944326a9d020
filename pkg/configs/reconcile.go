package configs

import "github.com/spf13/viper"

const (
	DefaultReconcileCron        = "*/10 * * * *" // 每 10 分钟重试一次
	DefaultReconcileMaxAttempts = 5
	DefaultReconcileBatchSize   = 50
)

// ReconcileConfig 远端消息删除失败后的补偿任务配置.
// 关闭时删除接口仍然只记录日志并继续删除数据库记录.
type ReconcileConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Cron        string `mapstructure:"cron"         rule:"required"`
	MaxAttempts int    `mapstructure:"max_attempts" rule:"min=1"`
	BatchSize   int    `mapstructure:"batch_size"   rule:"min=1,max=1000"`
}

func (c *ReconcileConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("reconcile.enabled", false)
	v.SetDefault("reconcile.cron", DefaultReconcileCron)
	v.SetDefault("reconcile.max_attempts", DefaultReconcileMaxAttempts)
	v.SetDefault("reconcile.batch_size", DefaultReconcileBatchSize)
}
