// Package event 结构化运行事件
// 回测器按次（每笔成交、每轮回测）向调用方提供的 Sink 发布事件，
// 核心计算本身不打日志
package event

import (
	"time"
)

// EventType 事件类型
type EventType string

const (
	EventTypeBacktestStarted   EventType = "backtest_started"
	EventTypeTradeExecuted     EventType = "trade_executed"
	EventTypeBacktestCompleted EventType = "backtest_completed"
	EventTypeError             EventType = "error"
)

// Event 事件结构
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      map[string]interface{}
}

// Sink 事件接收器
type Sink interface {
	Publish(event *Event)
}

// SinkFunc 函数式事件接收器
type SinkFunc func(event *Event)

// Publish 实现 Sink 接口
func (f SinkFunc) Publish(event *Event) {
	f(event)
}
