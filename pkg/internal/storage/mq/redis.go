package mq

import (
	"context"
	"errors"
	"sync"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/tgvault/pkg/configs"
)

// DefaultChannelBufferSize Redis 订阅输出通道缓冲.
const DefaultChannelBufferSize = 100

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

// redisFrame 是 Redis 频道上传输的消息帧，保留 watermill 的 UUID 与元数据.
type redisFrame struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

// redisConn 由 Publisher 与 Subscriber 共享，仅关闭一次.
type redisConn struct {
	client    *redis.Client
	closeOnce sync.Once
	closeErr  error
}

func (c *redisConn) close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.client.Close()
	})

	return c.closeErr
}

// RedisPublisher 基于 Redis PUBLISH 的 Publisher.
type RedisPublisher struct {
	conn *redisConn
}

// RedisSubscriber 基于 Redis SUBSCRIBE 的 Subscriber，消息不持久化.
type RedisSubscriber struct {
	conn   *redisConn
	logger watermill.LoggerAdapter

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
	subs    []*redis.PubSub
	wg      sync.WaitGroup
}

// redisFactory 创建 Redis Publisher & Subscriber.
func redisFactory(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()

		return nil, nil, err
	}

	conn := &redisConn{client: rdb}

	return &RedisPublisher{conn: conn}, &RedisSubscriber{conn: conn, logger: logger, closeCh: make(chan struct{})}, nil
}

// Publish 实现 message.Publisher.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		data, err := sonic.Marshal(redisFrame{UUID: msg.UUID, Metadata: msg.Metadata, Payload: msg.Payload})
		if err != nil {
			return err
		}

		if err := p.conn.client.Publish(msg.Context(), topic, data).Err(); err != nil {
			return err
		}
	}

	return nil
}

// Close 实现 message.Publisher.
func (p *RedisPublisher) Close() error {
	return p.conn.close()
}

// Subscribe 实现 message.Subscriber，每次调用建立独立的 Redis 订阅.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	ps := s.conn.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()

		return nil, err
	}

	s.subs = append(s.subs, ps)
	out := make(chan *message.Message, DefaultChannelBufferSize)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer close(out)

		s.consume(ctx, topic, ps, out)
	}()

	return out, nil
}

// consume 逐条投递消息，等待 Ack 或 Nack 后再处理下一条.
func (s *RedisSubscriber) consume(ctx context.Context, topic string, ps *redis.PubSub, out chan<- *message.Message) {
	in := ps.Channel()

	for {
		var raw *redis.Message

		select {
		case <-s.closeCh:
			return
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}

			raw = m
		}

		var frame redisFrame
		if err := sonic.UnmarshalString(raw.Payload, &frame); err != nil {
			s.logger.Error("drop malformed redis frame", err, watermill.LogFields{"topic": topic})

			continue
		}

		msg := message.NewMessage(frame.UUID, frame.Payload)
		for k, v := range frame.Metadata {
			msg.Metadata.Set(k, v)
		}

		msg.SetContext(ctx)

		select {
		case out <- msg:
		case <-s.closeCh:
			return
		case <-ctx.Done():
			return
		}

		select {
		case <-msg.Acked():
		case <-msg.Nacked():
			s.logger.Info("message nacked, redis pub/sub does not redeliver", watermill.LogFields{"topic": topic, "uuid": msg.UUID})
		case <-s.closeCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Close 实现 message.Subscriber.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return nil
	}

	s.closed = true
	close(s.closeCh)

	var errs []error
	for _, ps := range s.subs {
		errs = append(errs, ps.Close())
	}

	s.mu.Unlock()

	s.wg.Wait()

	errs = append(errs, s.conn.close())

	return errors.Join(errs...)
}
