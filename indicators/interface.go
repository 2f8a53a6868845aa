// Package indicators 技术指标库
// 提供策略所需的 RSI、SMA、MACD、布林带、OBV 指标计算
package indicators

import "stockmesh/market"

// Indicator 指标接口
type Indicator interface {
	// Name 指标名称
	Name() string
	// Calculate 计算指标值
	Calculate(candles []*market.Candle) []float64
	// Period 计算所需的最小周期数
	Period() int
}

// MultiValueIndicator 多值指标接口（如 MACD、布林带）
type MultiValueIndicator interface {
	Indicator
	// CalculateMulti 计算多个值
	CalculateMulti(candles []*market.Candle) map[string][]float64
}

// ClosePrices 提取收盘价序列
func ClosePrices(candles []*market.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
