package indicators

import "stockmesh/market"

// ========== 成交量指标 ==========

// OBV 能量潮
type OBV struct{}

var _ Indicator = (*OBV)(nil)

// NewOBV 创建 OBV 指标
func NewOBV() *OBV {
	return &OBV{}
}

// Name 指标名称
func (o *OBV) Name() string {
	return "OBV"
}

// Period 所需周期数
func (o *OBV) Period() int {
	return 2
}

// Calculate 计算 OBV
func (o *OBV) Calculate(candles []*market.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}

	result := make([]float64, len(candles))
	result[0] = candles[0].Volume

	for i := 1; i < len(candles); i++ {
		if candles[i].Close > candles[i-1].Close {
			result[i] = result[i-1] + candles[i].Volume
		} else if candles[i].Close < candles[i-1].Close {
			result[i] = result[i-1] - candles[i].Volume
		} else {
			result[i] = result[i-1]
		}
	}

	return result
}
