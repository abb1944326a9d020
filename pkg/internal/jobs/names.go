package jobs

// 任务名称常量.
const (
	JobRelayDeleteRetry = "relay.delete.retry"
)
