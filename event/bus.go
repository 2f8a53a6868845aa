package event

import (
	"context"
	"sync"
	"time"

	"stockmesh/logger"
)

// EventBus 事件总线
// 非阻塞发布，带缓冲通道，由后台协程分发给订阅者
type EventBus struct {
	eventCh     chan *Event
	bufferSize  int
	subscribers []Sink
	mu          sync.RWMutex
	wg          sync.WaitGroup
	started     bool
}

var _ Sink = (*EventBus)(nil)

// NewEventBus 创建事件总线
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = 1000 // 默认1000
	}
	return &EventBus{
		eventCh:    make(chan *Event, bufferSize),
		bufferSize: bufferSize,
	}
}

// Subscribe 注册订阅者
func (eb *EventBus) Subscribe(sink Sink) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, sink)
}

// Publish 发布事件（非阻塞）
func (eb *EventBus) Publish(event *Event) {
	if event == nil {
		return
	}

	// 设置时间戳
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case eb.eventCh <- event:
		// 成功发布
	default:
		// Channel 满了，记录警告但不阻塞
		logger.Warn("⚠️ 事件队列已满，丢弃事件: %s", event.Type)
	}
}

// Start 启动事件分发协程
func (eb *EventBus) Start(ctx context.Context) {
	eb.mu.Lock()
	if eb.started {
		eb.mu.Unlock()
		return
	}
	eb.started = true
	eb.mu.Unlock()

	eb.wg.Add(1)
	go func() {
		defer eb.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-eb.eventCh:
				if !ok {
					return
				}
				eb.dispatch(ev)
			}
		}
	}()
}

// dispatch 分发事件给全部订阅者
func (eb *EventBus) dispatch(ev *Event) {
	eb.mu.RLock()
	subs := eb.subscribers
	eb.mu.RUnlock()

	for _, sink := range subs {
		sink.Publish(ev)
	}
}

// Close 关闭事件总线并等待分发完成
func (eb *EventBus) Close() {
	close(eb.eventCh)
	eb.wg.Wait()
}

// LogSink 日志订阅者，把事件写入应用日志
type LogSink struct{}

var _ Sink = (*LogSink)(nil)

// Publish 实现 Sink 接口
func (s *LogSink) Publish(event *Event) {
	switch event.Type {
	case EventTypeTradeExecuted:
		logger.Info("💹 成交: %v", event.Data)
	case EventTypeBacktestStarted:
		logger.Debug("🚀 回测开始: %v", event.Data)
	case EventTypeBacktestCompleted:
		logger.Info("✅ 回测完成: %v", event.Data)
	case EventTypeError:
		logger.Error("❌ 事件: %v", event.Data)
	default:
		logger.Debug("事件: %s %v", event.Type, event.Data)
	}
}
