// Package configs 管理应用程序配置，包括服务器、数据库、Telegram 中继、缓存和事件队列的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv），读取 .env 文件并可启用热重载.
//
// Example:
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing Relay config:
//
//	relayConfig := configs.GetConfig().Relay
//	if !relayConfig.Configured() {
//		fmt.Println("TG_BOT_TOKEN / TG_CHAT_ID not set")
//	}
//
// Example building a public URL:
//
//	publicConfig := configs.GetConfig().Public
//	fmt.Println(publicConfig.BuildURL(2025, 1, 2, "0b6c..."))
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/yeisme/tgvault/pkg/rule"
)

// EnvPrefix 环境变量前缀，例如 TGVAULT_SERVER_PORT.
const EnvPrefix = "TGVAULT"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 服务器配置，监听地址、端口等
		DB             DBConfig             `mapstructure:"db"`              // DBConfig 元数据数据库配置
		Relay          RelayConfig          `mapstructure:"relay"`           // RelayConfig Telegram 中继配置
		Public         PublicConfig         `mapstructure:"public"`          // PublicConfig 对外访问地址配置
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		KV             KVConfig             `mapstructure:"kv"`              // KVConfig 记录缓存配置
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 消息队列配置
		Events         EventsConfig         `mapstructure:"events"`          // EventsConfig 事件发布开关
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 监控指标配置
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 链路追踪配置
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 限流配置
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 中继熔断配置
		Reconcile      ReconcileConfig      `mapstructure:"reconcile"`       // ReconcileConfig 远端删除补偿任务配置
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// legacyEnv 兼容旧部署使用的环境变量名.
var legacyEnv = map[string][]string{
	"relay.token":     {"TG_BOT_TOKEN"},
	"relay.chat_id":   {"TG_CHAT_ID"},
	"relay.api_url":   {"TG_API_URL"},
	"public.protocol": {"PROTOCOL"},
	"public.domain":   {"CUSTOM_DOMAIN"},
	"public.port":     {"CUSTOM_PORT"},
}

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并可启用热重载.
// 找不到配置文件时只使用默认值与环境变量.
func InitConfig(path string) error {
	v, err := load(path)
	if err != nil {
		return err
	}

	cfg, err := decode(v)
	if err != nil {
		return err
	}

	appViper = v
	globalConfig = *cfg

	reloadConfigs(v, globalConfig.Server.ReloadConfig)

	return nil
}

// Load 读取配置到新的 AppConfig，不修改全局实例.
func Load(path string) (*AppConfig, error) {
	v, err := load(path)
	if err != nil {
		return nil, err
	}

	return decode(v)
}

// decode 解析并校验配置.
func decode(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Public.normalize()

	if err := rule.ValidateStruct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func load(path string) (*viper.Viper, error) {
	v := viper.New()
	// 设置默认值
	setAllDefaults(v)

	if path == "" {
		path = "."
	}

	// .env 只补充尚未设置的环境变量
	dir := path
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		dir = filepath.Dir(path)
	}

	_ = godotenv.Load(filepath.Join(dir, ".env"))

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(path)
		v.AddConfigPath(filepath.Join(path, "configs"))

		for _, ext := range []string{"yaml", "yml", "json", "toml"} {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				v.SetConfigFile(cfg)

				break
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range legacyEnv {
		envs := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	// 读取配置
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return v, nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var (
		serverConfig    ServerConfig
		dbConfig        DBConfig
		relayConfig     RelayConfig
		publicConfig    PublicConfig
		logConfig       LogConfig
		kvConfig        KVConfig
		mqConfig        MQConfig
		eventsConfig    EventsConfig
		metricsConfig   MetricsConfig
		tracingConfig   TracingConfig
		rateLimitConfig RateLimitConfig
		cbConfig        CircuitBreakerConfig
		reconcileConfig ReconcileConfig
	)

	serverConfig.setDefaults(v)
	dbConfig.setDefaults(v)
	relayConfig.setDefaults(v)
	publicConfig.setDefaults(v)
	logConfig.setDefaults(v)
	kvConfig.setDefaults(v)
	mqConfig.setDefaults(v)
	eventsConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	rateLimitConfig.setDefaults(v)
	cbConfig.setDefaults(v)
	reconcileConfig.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload || v.ConfigFileUsed() == "" {
		return
	}
	// 启用配置热重载
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Str("file", e.Name).Msg("config file changed, reloading")

		next, err := decode(v)
		if err != nil {
			log.Error().Err(err).Msg("reloaded config is invalid, keeping previous one")
			return
		}

		globalConfig = *next
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

// GetViper 返回全局 Viper 实例，未初始化时为 nil.
func GetViper() *viper.Viper {
	return appViper
}
