// Package backtest 单仓位回测器
// 把信号表逐日重放为资金/持仓账本，输出成交记录与绩效指标
package backtest

import (
	"math"
	"time"

	"stockmesh/event"
	"stockmesh/market"
	"stockmesh/signal"
)

// TradeRecord 成交记录
type TradeRecord struct {
	Date   time.Time     `json:"date"`
	Action signal.Signal `json:"action"` // BUY 或 SELL
	Price  float64       `json:"price"`
	Shares float64       `json:"shares"` // 允许小数股
	Value  float64       `json:"value"`  // price × shares
	PnL    *float64      `json:"pnl,omitempty"` // 仅 SELL 记录有值（已实现盈亏）
}

// PortfolioPoint 每日组合快照
// 不变式：cash 与 shares_held 至多一个严格为正（满仓或空仓）
type PortfolioPoint struct {
	Date           time.Time `json:"date"`
	Cash           float64   `json:"cash"`
	SharesHeld     float64   `json:"shares_held"`
	PortfolioValue float64   `json:"portfolio_value"` // cash + shares_held × close
}

// Result 回测结果
type Result struct {
	Symbol         string  `json:"symbol,omitempty"`
	InitialCapital float64 `json:"initial_capital"`
	FinalValue     float64 `json:"final_value"`
	TotalReturnPct float64 `json:"total_return_pct"`
	TotalPnL       float64 `json:"total_pnl"` // 仅已实现盈亏之和
	WinRatePct     float64 `json:"win_rate_pct"`
	TotalTrades    int     `json:"total_trades"`    // 完整买卖回合数（SELL 记录数）
	WinningTrades  int     `json:"winning_trades"`  // 盈利回合数（pnl > 0）

	Trades        []TradeRecord    `json:"trades"`
	PortfolioData []PortfolioPoint `json:"portfolio_data"`

	// 扩展风险指标，由每日组合序列计算，不影响上面的核心字段
	Risk RiskMetrics `json:"risk"`
}

// Simulate 运行回测
//
// 状态机只有两个状态：空仓（cash = 全部资金）与满仓（cash = 0）。
// BUY 只在空仓时成交（全仓买入），SELL 只在持仓时成交（全部卖出），
// 其余信号/状态组合当日不动作。每个输入行都会产生一条组合快照。
// 序列结束时不强制平仓：最终市值按最后一日收盘价盯市，
// 未了结的浮动盈亏不计入 TotalPnL。
//
// sink 可以为 nil；传入时每笔成交和每轮回测各发布一条事件。
func Simulate(rows []signal.Row, initialCapital float64, sink event.Sink) (*Result, error) {
	if math.IsNaN(initialCapital) || math.IsInf(initialCapital, 0) || initialCapital <= 0 {
		return nil, market.NewValidationError(-1, "initial_capital", "必须大于0")
	}

	// 先完整校验输入，再开始改动模拟状态
	for i := range rows {
		if rows[i].Date.IsZero() {
			return nil, market.NewValidationError(i, "date", "缺失")
		}
		if i > 0 && !rows[i].Date.After(rows[i-1].Date) {
			return nil, market.NewValidationError(i, "date", "必须严格递增且唯一")
		}
		if math.IsNaN(rows[i].Close) || rows[i].Close <= 0 {
			return nil, market.NewValidationError(i, "close", "必须大于0")
		}
	}

	publish := func(eventType event.EventType, data map[string]interface{}) {
		if sink != nil {
			sink.Publish(&event.Event{Type: eventType, Data: data})
		}
	}

	publish(event.EventTypeBacktestStarted, map[string]interface{}{
		"rows":            len(rows),
		"initial_capital": initialCapital,
	})

	cash := initialCapital
	shares := 0.0
	buyPrice := 0.0

	trades := make([]TradeRecord, 0)
	portfolio := make([]PortfolioPoint, 0, len(rows))

	for i := range rows {
		price := rows[i].Close

		switch {
		case rows[i].Signal == signal.SignalBuy && shares == 0:
			// 空仓 → 满仓：全部资金买入
			shares = cash / price
			buyPrice = price
			cash = 0

			trades = append(trades, TradeRecord{
				Date:   rows[i].Date,
				Action: signal.SignalBuy,
				Price:  price,
				Shares: shares,
				Value:  shares * price,
			})
			publish(event.EventTypeTradeExecuted, map[string]interface{}{
				"date": rows[i].Date, "action": "BUY", "price": price, "shares": shares,
			})

		case rows[i].Signal == signal.SignalSell && shares > 0:
			// 满仓 → 空仓：全部卖出，记录已实现盈亏
			sellValue := shares * price
			pnl := sellValue - shares*buyPrice
			cash = sellValue

			trades = append(trades, TradeRecord{
				Date:   rows[i].Date,
				Action: signal.SignalSell,
				Price:  price,
				Shares: shares,
				Value:  sellValue,
				PnL:    &pnl,
			})
			publish(event.EventTypeTradeExecuted, map[string]interface{}{
				"date": rows[i].Date, "action": "SELL", "price": price, "shares": shares, "pnl": pnl,
			})

			shares = 0
			buyPrice = 0
		}
		// 其余组合（满仓遇 BUY、空仓遇 SELL、HOLD）当日不动作

		portfolio = append(portfolio, PortfolioPoint{
			Date:           rows[i].Date,
			Cash:           cash,
			SharesHeld:     shares,
			PortfolioValue: cash + shares*price,
		})
	}

	result := buildResult(initialCapital, trades, portfolio)

	publish(event.EventTypeBacktestCompleted, map[string]interface{}{
		"final_value":  result.FinalValue,
		"total_return": result.TotalReturnPct,
		"total_trades": result.TotalTrades,
		"win_rate":     result.WinRatePct,
	})

	return result, nil
}

// buildResult 汇总绩效指标
func buildResult(initialCapital float64, trades []TradeRecord, portfolio []PortfolioPoint) *Result {
	finalValue := initialCapital
	if len(portfolio) > 0 {
		finalValue = portfolio[len(portfolio)-1].PortfolioValue
	}

	totalPnL := 0.0
	totalTrades := 0
	winningTrades := 0
	for i := range trades {
		if trades[i].PnL == nil {
			continue
		}
		totalTrades++
		totalPnL += *trades[i].PnL
		if *trades[i].PnL > 0 {
			winningTrades++
		}
	}

	winRate := 0.0
	if totalTrades > 0 {
		winRate = float64(winningTrades) / float64(totalTrades) * 100
	}

	return &Result{
		InitialCapital: initialCapital,
		FinalValue:     finalValue,
		TotalReturnPct: (finalValue - initialCapital) / initialCapital * 100,
		TotalPnL:       totalPnL,
		WinRatePct:     winRate,
		TotalTrades:    totalTrades,
		WinningTrades:  winningTrades,
		Trades:         trades,
		PortfolioData:  portfolio,
		Risk:           CalculateRiskMetrics(portfolio, trades),
	}
}
