package indicators

import "stockmesh/market"

// ========== 趋势指标 ==========

// SimpleMovingAverage 简单移动平均指标
type SimpleMovingAverage struct {
	period int
}

var _ Indicator = (*SimpleMovingAverage)(nil)

// NewSimpleMovingAverage 创建 SMA 指标
func NewSimpleMovingAverage(period int) *SimpleMovingAverage {
	return &SimpleMovingAverage{period: period}
}

// Name 指标名称
func (s *SimpleMovingAverage) Name() string {
	return "SMA"
}

// Period 所需周期数
func (s *SimpleMovingAverage) Period() int {
	return s.period
}

// Calculate 计算 SMA
func (s *SimpleMovingAverage) Calculate(candles []*market.Candle) []float64 {
	return SMA(ClosePrices(candles), s.period)
}

// MACD 指数平滑异同移动平均线
type MACD struct {
	FastPeriod   int
	SlowPeriod   int
	SignalPeriod int
}

var _ MultiValueIndicator = (*MACD)(nil)

// NewMACD 创建 MACD 指标
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		FastPeriod:   fast,
		SlowPeriod:   slow,
		SignalPeriod: signal,
	}
}

// Name 指标名称
func (m *MACD) Name() string {
	return "MACD"
}

// Period 所需周期数
func (m *MACD) Period() int {
	return m.SlowPeriod + m.SignalPeriod
}

// Calculate 计算 MACD 线
func (m *MACD) Calculate(candles []*market.Candle) []float64 {
	result := m.CalculateMulti(candles)
	if result == nil {
		return nil
	}
	return result["macd"]
}

// CalculateMulti 计算所有 MACD 组件
func (m *MACD) CalculateMulti(candles []*market.Candle) map[string][]float64 {
	closes := ClosePrices(candles)
	if len(closes) < m.SlowPeriod+m.SignalPeriod {
		return nil
	}

	fastEMA := EMA(closes, m.FastPeriod)
	slowEMA := EMA(closes, m.SlowPeriod)

	if fastEMA == nil || slowEMA == nil {
		return nil
	}

	// 对齐长度
	offset := len(fastEMA) - len(slowEMA)
	macdLine := make([]float64, len(slowEMA))
	for i := range macdLine {
		macdLine[i] = fastEMA[i+offset] - slowEMA[i]
	}

	// 计算信号线
	signalLine := EMA(macdLine, m.SignalPeriod)
	if signalLine == nil {
		return nil
	}

	// 计算柱状图
	offset2 := len(macdLine) - len(signalLine)
	histogram := make([]float64, len(signalLine))
	for i := range histogram {
		histogram[i] = macdLine[i+offset2] - signalLine[i]
	}

	return map[string][]float64{
		"macd":      macdLine[offset2:],
		"signal":    signalLine,
		"histogram": histogram,
	}
}
