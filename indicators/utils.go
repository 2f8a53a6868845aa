package indicators

import (
	"math"
)

// ========== 基础计算工具 ==========

// SMA 简单移动平均
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	result := make([]float64, len(values)-period+1)
	sum := 0.0

	// 计算第一个 SMA
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	result[0] = sum / float64(period)

	// 滑动计算后续 SMA
	for i := period; i < len(values); i++ {
		sum = sum - values[i-period] + values[i]
		result[i-period+1] = sum / float64(period)
	}

	return result
}

// EMA 指数移动平均
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	result := make([]float64, len(values))
	multiplier := 2.0 / (float64(period) + 1.0)

	// 第一个 EMA 使用 SMA
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	result[period-1] = sum / float64(period)

	// 计算后续 EMA
	for i := period; i < len(values); i++ {
		result[i] = (values[i] * multiplier) + (result[i-1] * (1 - multiplier))
	}

	return result[period-1:]
}

// StdDev 滚动标准差
func StdDev(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	result := make([]float64, len(values)-period+1)
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]

		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)

		variance := 0.0
		for _, v := range window {
			diff := v - mean
			variance += diff * diff
		}
		variance /= float64(period)

		result[i-period+1] = math.Sqrt(variance)
	}

	return result
}

// CrossOver 判断 a 是否在最后一个周期上穿 b
// 上穿定义：前一日 a ≤ b，当日 a > b（前一日允许相等）
func CrossOver(a, b []float64) bool {
	if len(a) < 2 || len(b) < 2 {
		return false
	}
	n := len(a) - 1
	m := len(b) - 1
	return a[n-1] <= b[m-1] && a[n] > b[m]
}

// CrossUnder 判断 a 是否在最后一个周期下穿 b
func CrossUnder(a, b []float64) bool {
	if len(a) < 2 || len(b) < 2 {
		return false
	}
	n := len(a) - 1
	m := len(b) - 1
	return a[n-1] >= b[m-1] && a[n] < b[m]
}

// PadLeft 在序列前部补 NaN，对齐到指定长度
// 指标计算结果比输入短（预热期），对齐后预热期的单元为 NaN
func PadLeft(values []float64, length int) []float64 {
	if values == nil {
		values = []float64{}
	}
	if len(values) >= length {
		return values[len(values)-length:]
	}

	result := make([]float64, length)
	offset := length - len(values)
	for i := 0; i < offset; i++ {
		result[i] = math.NaN()
	}
	copy(result[offset:], values)
	return result
}
