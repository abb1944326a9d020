// Package metrics 提供基于 Prometheus 的监控指标.
//
// Example:
//
//	if err := metrics.InitMetrics(config.Metrics); err != nil {
//		return err
//	}
//
//	metrics.RelayRequests.WithLabelValues("upload", "ok").Inc()
package metrics

import (
	"errors"
	"net/http/pprof"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/tgvault/pkg/configs"
)

// Namespace 应用指标命名空间.
const Namespace = "tgvault"

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// InFlightRequests 处理中的请求数.
	InFlightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests being served",
		},
	)

	// RelayRequests Telegram 中继调用次数，outcome 为 ok、relay_error、decode_error、network_error、rejected.
	RelayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "relay_requests_total",
			Help:      "Total number of relay API calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// RelayDuration Telegram 中继调用耗时.
	RelayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "relay_request_duration_seconds",
			Help:      "Relay API call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"op"},
	)

	// RecordCache 记录缓存命中情况.
	RecordCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "record_cache_total",
			Help:      "Record cache lookups by result",
		},
		[]string{"result"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
)

// InitMetrics 注册指标，可重复调用.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	cs := []prometheus.Collector{
		RequestCounter, RequestDuration, InFlightRequests,
		RelayRequests, RelayDuration, RecordCache,
	}

	for _, c := range cs {
		if err := registry.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}

	return nil
}

// StartMetricsServer 在给定 engine 上挂载 metrics 与可选的 pprof 端点.
// runtime_metrics 打开时同时汇总默认注册表，其中包含 Go 运行时、进程与 gorm 插件的指标.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	path := config.Path
	if path == "" {
		path = "/metrics"
	}

	gatherers := prometheus.Gatherers{registry}
	if config.RuntimeMetrics {
		gatherers = append(gatherers, prometheus.DefaultGatherer)
	}

	engine.GET(path, gin.WrapH(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})))

	if config.Pprof {
		pp := engine.Group("/debug/pprof")
		pp.GET("/", gin.WrapF(pprof.Index))
		pp.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pp.GET("/profile", gin.WrapF(pprof.Profile))
		pp.GET("/symbol", gin.WrapF(pprof.Symbol))
		pp.GET("/trace", gin.WrapF(pprof.Trace))
		pp.GET("/:name", func(c *gin.Context) {
			pprof.Handler(c.Param("name")).ServeHTTP(c.Writer, c.Request)
		})
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
