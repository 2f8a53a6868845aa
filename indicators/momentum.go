package indicators

import "stockmesh/market"

// ========== 动量指标 ==========

// RSI 相对强弱指数
type RSI struct {
	period int
}

var _ Indicator = (*RSI)(nil)

// NewRSI 创建 RSI 指标
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Name 指标名称
func (r *RSI) Name() string {
	return "RSI"
}

// Period 所需周期数
func (r *RSI) Period() int {
	return r.period + 1
}

// Calculate 计算 RSI
func (r *RSI) Calculate(candles []*market.Candle) []float64 {
	closes := ClosePrices(candles)
	if len(closes) < r.period+1 {
		return nil
	}

	// 计算价格变化
	changes := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		changes[i-1] = closes[i] - closes[i-1]
	}

	// 分离上涨和下跌
	gains := make([]float64, len(changes))
	losses := make([]float64, len(changes))
	for i, change := range changes {
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	// 使用 EMA 平滑
	avgGain := EMA(gains, r.period)
	avgLoss := EMA(losses, r.period)

	if avgGain == nil || avgLoss == nil {
		return nil
	}

	result := make([]float64, len(avgGain))
	for i := range avgGain {
		if avgLoss[i] == 0 {
			result[i] = 100
		} else {
			rs := avgGain[i] / avgLoss[i]
			result[i] = 100 - 100/(1+rs)
		}
	}

	return result
}
