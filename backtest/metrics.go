package backtest

import (
	"math"
)

// 年化假设：日线数据，每年约252个交易日
const tradingDaysPerYear = 252

// RiskMetrics 扩展风险指标
type RiskMetrics struct {
	// 收益指标
	AnnualizedReturn float64 `json:"annualized_return"` // 年化收益率 (%)

	// 风险指标
	MaxDrawdown         float64 `json:"max_drawdown"`          // 最大回撤 (%)
	MaxDrawdownDuration int     `json:"max_drawdown_duration"` // 最大回撤持续时间（天）
	Volatility          float64 `json:"volatility"`            // 年化波动率 (%)

	// 风险调整收益
	SharpeRatio  float64 `json:"sharpe_ratio"`  // 夏普比率
	SortinoRatio float64 `json:"sortino_ratio"` // 索提诺比率
	CalmarRatio  float64 `json:"calmar_ratio"`  // 卡玛比率

	// 交易指标
	ProfitFactor float64 `json:"profit_factor"` // 利润因子
	AvgWin       float64 `json:"avg_win"`       // 平均盈利
	AvgLoss      float64 `json:"avg_loss"`      // 平均亏损
	LargestWin   float64 `json:"largest_win"`   // 最大单笔盈利
	LargestLoss  float64 `json:"largest_loss"`  // 最大单笔亏损

	// 连续性指标
	MaxConsecutiveWins   int `json:"max_consecutive_wins"`   // 最大连续盈利次数
	MaxConsecutiveLosses int `json:"max_consecutive_losses"` // 最大连续亏损次数
}

// CalculateRiskMetrics 计算扩展风险指标
func CalculateRiskMetrics(portfolio []PortfolioPoint, trades []TradeRecord) RiskMetrics {
	if len(portfolio) == 0 {
		return RiskMetrics{}
	}

	returns := calculateReturns(portfolio)

	return RiskMetrics{
		AnnualizedReturn:    calculateAnnualizedReturn(portfolio),
		MaxDrawdown:         calculateMaxDrawdown(portfolio),
		MaxDrawdownDuration: calculateMaxDrawdownDuration(portfolio),
		Volatility:          calculateVolatility(returns),
		SharpeRatio:         calculateSharpeRatio(returns),
		SortinoRatio:        calculateSortinoRatio(returns),
		CalmarRatio:         calculateCalmarRatio(portfolio),
		ProfitFactor:        calculateProfitFactor(trades),
		AvgWin:              calculateAvgWin(trades),
		AvgLoss:             calculateAvgLoss(trades),
		LargestWin:          calculateLargestWin(trades),
		LargestLoss:         calculateLargestLoss(trades),

		MaxConsecutiveWins:   calculateMaxConsecutiveWins(trades),
		MaxConsecutiveLosses: calculateMaxConsecutiveLosses(trades),
	}
}

// calculateReturns 计算日收益率序列
func calculateReturns(portfolio []PortfolioPoint) []float64 {
	if len(portfolio) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(portfolio)-1)
	for i := 1; i < len(portfolio); i++ {
		if portfolio[i-1].PortfolioValue > 0 {
			returns[i-1] = (portfolio[i].PortfolioValue - portfolio[i-1].PortfolioValue) / portfolio[i-1].PortfolioValue
		}
	}

	return returns
}

// calculateAnnualizedReturn 计算年化收益率
func calculateAnnualizedReturn(portfolio []PortfolioPoint) float64 {
	if len(portfolio) < 2 {
		return 0
	}

	first := portfolio[0]
	last := portfolio[len(portfolio)-1]
	days := last.Date.Sub(first.Date).Hours() / 24
	if days <= 0 || first.PortfolioValue <= 0 {
		return 0
	}

	totalReturn := (last.PortfolioValue - first.PortfolioValue) / first.PortfolioValue
	return (math.Pow(1+totalReturn, 365/days) - 1) * 100
}

// calculateMaxDrawdown 计算最大回撤
func calculateMaxDrawdown(portfolio []PortfolioPoint) float64 {
	maxDrawdown := 0.0
	peak := portfolio[0].PortfolioValue

	for _, point := range portfolio {
		if point.PortfolioValue > peak {
			peak = point.PortfolioValue
		}

		if peak > 0 {
			drawdown := (peak - point.PortfolioValue) / peak * 100
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

// calculateMaxDrawdownDuration 计算最大回撤持续时间（天）
func calculateMaxDrawdownDuration(portfolio []PortfolioPoint) int {
	maxDuration := 0
	currentDuration := 0
	peak := portfolio[0].PortfolioValue
	inDrawdown := false

	for _, point := range portfolio {
		if point.PortfolioValue > peak {
			peak = point.PortfolioValue
			if inDrawdown {
				if currentDuration > maxDuration {
					maxDuration = currentDuration
				}
				currentDuration = 0
				inDrawdown = false
			}
		} else if point.PortfolioValue < peak {
			inDrawdown = true
			currentDuration++
		}
	}

	if currentDuration > maxDuration {
		maxDuration = currentDuration
	}

	return maxDuration
}

// calculateVolatility 计算波动率（年化）
func calculateVolatility(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear) * 100
}

// calculateSharpeRatio 计算夏普比率
func calculateSharpeRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns))
	stdDev := math.Sqrt(variance)

	if stdDev == 0 {
		return 0
	}

	riskFreeRate := 0.02 / tradingDaysPerYear // 日化无风险利率（假设年化2%）
	return (mean - riskFreeRate) / stdDev * math.Sqrt(tradingDaysPerYear)
}

// calculateSortinoRatio 计算索提诺比率（只考虑下行波动）
func calculateSortinoRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	// 只计算负收益的方差
	downVariance := 0.0
	downCount := 0
	for _, r := range returns {
		if r < 0 {
			downVariance += r * r
			downCount++
		}
	}

	if downCount == 0 {
		return 0
	}

	downVariance /= float64(downCount)
	downStdDev := math.Sqrt(downVariance)

	if downStdDev == 0 {
		return 0
	}

	riskFreeRate := 0.02 / tradingDaysPerYear
	return (mean - riskFreeRate) / downStdDev * math.Sqrt(tradingDaysPerYear)
}

// calculateCalmarRatio 计算卡玛比率（年化收益率 / 最大回撤）
func calculateCalmarRatio(portfolio []PortfolioPoint) float64 {
	annualizedReturn := calculateAnnualizedReturn(portfolio)
	maxDrawdown := calculateMaxDrawdown(portfolio)

	if maxDrawdown == 0 {
		return 0
	}

	return annualizedReturn / maxDrawdown
}

// calculateProfitFactor 计算利润因子（总盈利 / 总亏损）
func calculateProfitFactor(trades []TradeRecord) float64 {
	totalProfit := 0.0
	totalLoss := 0.0

	for i := range trades {
		if trades[i].PnL == nil {
			continue
		}
		if *trades[i].PnL > 0 {
			totalProfit += *trades[i].PnL
		} else {
			totalLoss += math.Abs(*trades[i].PnL)
		}
	}

	if totalLoss == 0 {
		return 0
	}

	return totalProfit / totalLoss
}

// calculateAvgWin 计算平均盈利
func calculateAvgWin(trades []TradeRecord) float64 {
	totalWin := 0.0
	winCount := 0

	for i := range trades {
		if trades[i].PnL != nil && *trades[i].PnL > 0 {
			totalWin += *trades[i].PnL
			winCount++
		}
	}

	if winCount == 0 {
		return 0
	}

	return totalWin / float64(winCount)
}

// calculateAvgLoss 计算平均亏损
func calculateAvgLoss(trades []TradeRecord) float64 {
	totalLoss := 0.0
	lossCount := 0

	for i := range trades {
		if trades[i].PnL != nil && *trades[i].PnL < 0 {
			totalLoss += math.Abs(*trades[i].PnL)
			lossCount++
		}
	}

	if lossCount == 0 {
		return 0
	}

	return totalLoss / float64(lossCount)
}

// calculateLargestWin 计算最大单笔盈利
func calculateLargestWin(trades []TradeRecord) float64 {
	largestWin := 0.0

	for i := range trades {
		if trades[i].PnL != nil && *trades[i].PnL > largestWin {
			largestWin = *trades[i].PnL
		}
	}

	return largestWin
}

// calculateLargestLoss 计算最大单笔亏损
func calculateLargestLoss(trades []TradeRecord) float64 {
	largestLoss := 0.0

	for i := range trades {
		if trades[i].PnL == nil || *trades[i].PnL >= 0 {
			continue
		}
		loss := math.Abs(*trades[i].PnL)
		if loss > largestLoss {
			largestLoss = loss
		}
	}

	return largestLoss
}

// calculateMaxConsecutiveWins 计算最大连续盈利次数
func calculateMaxConsecutiveWins(trades []TradeRecord) int {
	maxWins := 0
	currentWins := 0

	for i := range trades {
		if trades[i].PnL == nil {
			continue
		}
		if *trades[i].PnL > 0 {
			currentWins++
			if currentWins > maxWins {
				maxWins = currentWins
			}
		} else {
			currentWins = 0
		}
	}

	return maxWins
}

// calculateMaxConsecutiveLosses 计算最大连续亏损次数
func calculateMaxConsecutiveLosses(trades []TradeRecord) int {
	maxLosses := 0
	currentLosses := 0

	for i := range trades {
		if trades[i].PnL == nil {
			continue
		}
		if *trades[i].PnL < 0 {
			currentLosses++
			if currentLosses > maxLosses {
				maxLosses = currentLosses
			}
		} else {
			currentLosses = 0
		}
	}

	return maxLosses
}
