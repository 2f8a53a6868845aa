package indicators

import "stockmesh/market"

// ========== 波动率指标 ==========

// BollingerBands 布林带
type BollingerBands struct {
	period     int
	multiplier float64
}

var _ MultiValueIndicator = (*BollingerBands)(nil)

// NewBollingerBands 创建布林带指标
func NewBollingerBands(period int, multiplier float64) *BollingerBands {
	return &BollingerBands{
		period:     period,
		multiplier: multiplier,
	}
}

// Name 指标名称
func (bb *BollingerBands) Name() string {
	return "BollingerBands"
}

// Period 所需周期数
func (bb *BollingerBands) Period() int {
	return bb.period
}

// Calculate 计算中轨
func (bb *BollingerBands) Calculate(candles []*market.Candle) []float64 {
	result := bb.CalculateMulti(candles)
	if result == nil {
		return nil
	}
	return result["middle"]
}

// CalculateMulti 计算上轨、中轨、下轨
func (bb *BollingerBands) CalculateMulti(candles []*market.Candle) map[string][]float64 {
	closes := ClosePrices(candles)
	if len(closes) < bb.period {
		return nil
	}

	middle := SMA(closes, bb.period)
	stdDev := StdDev(closes, bb.period)

	if middle == nil || stdDev == nil {
		return nil
	}

	upper := make([]float64, len(middle))
	lower := make([]float64, len(middle))

	for i := range middle {
		band := bb.multiplier * stdDev[i]
		upper[i] = middle[i] + band
		lower[i] = middle[i] - band
	}

	return map[string][]float64{
		"upper":  upper,
		"middle": middle,
		"lower":  lower,
	}
}
