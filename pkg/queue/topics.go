// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：tgv.<域>.<动作>[.<状态>]，保持稳定且向后兼容.
// 域：file(文件元数据与中继对象)、relay(中继调用)

const (
	// 文件领域.
	TopicFileStored  = "tgv.file.stored"  // 文件已上传到中继且元数据已写入数据库
	TopicFileDeleted = "tgv.file.deleted" // 元数据行已删除（中继消息可能删除失败）

	// 中继领域.
	TopicRelayDeleteFailed = "tgv.relay.delete.failed" // 中继消息删除失败
)

// Topics 返回所有已知主题.
func Topics() []string {
	return []string{TopicFileStored, TopicFileDeleted, TopicRelayDeleteFailed}
}
