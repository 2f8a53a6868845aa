// Package market 行情数据模型
// 定义日线数据、指标表以及输入校验，供信号分类和回测使用
package market

import (
	"math"
	"time"
)

// Candle 日线K线数据
type Candle struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"timestamp"` // 毫秒时间戳（当日开盘）
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Date 返回K线对应的交易日（UTC）
func (c *Candle) Date() time.Time {
	return time.Unix(c.Timestamp/1000, 0).UTC().Truncate(24 * time.Hour)
}

// DailyBar 带指标的日线行情（指标表的一行）
// 预热期内的指标单元为 NaN，调用方不应丢弃这些行，
// 否则会改变回测的有效起始日
type DailyBar struct {
	Date  time.Time // 交易日，严格递增且唯一
	Close float64   // 收盘价，必须为正

	// 技术指标（预热期为 NaN）
	RSI        float64
	SMAShort   float64
	SMALong    float64
	MACD       float64
	MACDSignal float64
	BBHigh     float64
	BBLow      float64
	OBV        float64
}

// HasSignalInputs 判断信号计算所需的指标是否全部有效
func (b *DailyBar) HasSignalInputs() bool {
	return !math.IsNaN(b.RSI) && !math.IsNaN(b.SMAShort) && !math.IsNaN(b.SMALong)
}

// NewDailyBar 创建一个指标未填充的日线行（指标全部为 NaN）
func NewDailyBar(date time.Time, close float64) DailyBar {
	nan := math.NaN()
	return DailyBar{
		Date:       date,
		Close:      close,
		RSI:        nan,
		SMAShort:   nan,
		SMALong:    nan,
		MACD:       nan,
		MACDSignal: nan,
		BBHigh:     nan,
		BBLow:      nan,
		OBV:        nan,
	}
}
