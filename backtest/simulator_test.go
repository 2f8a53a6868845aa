package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"stockmesh/market"
	"stockmesh/signal"
)

// makeRow 构造一行信号表
func makeRow(day int, close float64, sig signal.Signal) signal.Row {
	bar := market.NewDailyBar(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day), close)
	return signal.Row{DailyBar: bar, Signal: sig}
}

// TestSimulateBuyAndHold 测试买入后持有到结束不强制平仓
func TestSimulateBuyAndHold(t *testing.T) {
	rows := []signal.Row{
		makeRow(0, 100, signal.SignalHold),
		makeRow(1, 102, signal.SignalBuy),
		makeRow(2, 105, signal.SignalHold),
	}

	result, err := Simulate(rows, 10000, nil)
	if err != nil {
		t.Fatalf("回测失败: %v", err)
	}

	// 全仓买入: 10000/102 股
	expectedShares := 10000.0 / 102.0
	if len(result.Trades) != 1 {
		t.Fatalf("应只有1笔买入成交, 得到 %d", len(result.Trades))
	}
	if result.Trades[0].Action != signal.SignalBuy {
		t.Errorf("成交类型应为 BUY, 得到 %s", result.Trades[0].Action)
	}
	if math.Abs(result.Trades[0].Shares-expectedShares) > 1e-9 {
		t.Errorf("买入股数不正确: 期望 %.6f, 得到 %.6f", expectedShares, result.Trades[0].Shares)
	}

	// 最终市值按最后一日收盘价盯市
	expectedFinal := expectedShares * 105
	if math.Abs(result.FinalValue-expectedFinal) > 1e-6 {
		t.Errorf("最终市值不正确: 期望 %.2f, 得到 %.2f", expectedFinal, result.FinalValue)
	}

	// 未平仓: 已实现盈亏为0, 完整回合数为0, 胜率为0
	if result.TotalPnL != 0 {
		t.Errorf("未平仓时已实现盈亏应为0, 得到 %.2f", result.TotalPnL)
	}
	if result.TotalTrades != 0 {
		t.Errorf("未平仓时完整回合数应为0, 得到 %d", result.TotalTrades)
	}
	if result.WinRatePct != 0 {
		t.Errorf("没有完整回合时胜率应为0, 得到 %.2f", result.WinRatePct)
	}
}

// TestSimulateFullRoundTrip 测试完整的买卖回合
func TestSimulateFullRoundTrip(t *testing.T) {
	rows := []signal.Row{
		makeRow(0, 100, signal.SignalBuy),
		makeRow(1, 110, signal.SignalSell),
		makeRow(2, 105, signal.SignalBuy),
		makeRow(3, 100, signal.SignalSell),
	}

	result, err := Simulate(rows, 10000, nil)
	if err != nil {
		t.Fatalf("回测失败: %v", err)
	}

	if result.TotalTrades != 2 {
		t.Fatalf("应有2个完整回合, 得到 %d", result.TotalTrades)
	}
	if result.WinningTrades != 1 {
		t.Errorf("应有1个盈利回合, 得到 %d", result.WinningTrades)
	}
	if math.Abs(result.WinRatePct-50) > 1e-9 {
		t.Errorf("胜率应为50%%, 得到 %.2f%%", result.WinRatePct)
	}

	// 第一回合: 100股 × (110-100) = +1000
	// 第二回合: (11000/105)股 × (100-105) ≈ -523.81
	firstPnL := 100.0 * 10
	secondShares := 11000.0 / 105.0
	secondPnL := secondShares * (100 - 105)
	expectedPnL := firstPnL + secondPnL
	if math.Abs(result.TotalPnL-expectedPnL) > 1e-6 {
		t.Errorf("已实现盈亏不正确: 期望 %.4f, 得到 %.4f", expectedPnL, result.TotalPnL)
	}

	// 结束时空仓, 最终市值 = 现金 = 初始资金 + 已实现盈亏
	if math.Abs(result.FinalValue-(10000+expectedPnL)) > 1e-6 {
		t.Errorf("最终市值不正确: 期望 %.4f, 得到 %.4f", 10000+expectedPnL, result.FinalValue)
	}
}

// TestSimulateIgnoresRedundantSignals 测试满仓遇BUY、空仓遇SELL时不动作
func TestSimulateIgnoresRedundantSignals(t *testing.T) {
	rows := []signal.Row{
		makeRow(0, 100, signal.SignalSell), // 空仓遇 SELL, 忽略
		makeRow(1, 100, signal.SignalBuy),
		makeRow(2, 102, signal.SignalBuy), // 满仓遇 BUY, 忽略
		makeRow(3, 104, signal.SignalSell),
		makeRow(4, 103, signal.SignalSell), // 空仓遇 SELL, 忽略
	}

	result, err := Simulate(rows, 10000, nil)
	if err != nil {
		t.Fatalf("回测失败: %v", err)
	}

	if len(result.Trades) != 2 {
		t.Fatalf("应只有2笔成交(1买1卖), 得到 %d", len(result.Trades))
	}
	if result.Trades[0].Action != signal.SignalBuy || result.Trades[1].Action != signal.SignalSell {
		t.Errorf("成交序列应为 BUY, SELL, 得到 %s, %s", result.Trades[0].Action, result.Trades[1].Action)
	}
}

// TestSimulatePortfolioInvariants 测试每日组合快照的不变式
func TestSimulatePortfolioInvariants(t *testing.T) {
	rows := []signal.Row{
		makeRow(0, 100, signal.SignalHold),
		makeRow(1, 101, signal.SignalBuy),
		makeRow(2, 99, signal.SignalHold),
		makeRow(3, 103, signal.SignalSell),
		makeRow(4, 102, signal.SignalHold),
	}

	result, err := Simulate(rows, 10000, nil)
	if err != nil {
		t.Fatalf("回测失败: %v", err)
	}

	// 每个输入行产生一条快照
	if len(result.PortfolioData) != len(rows) {
		t.Fatalf("快照数应与输入行数相等: 期望 %d, 得到 %d", len(rows), len(result.PortfolioData))
	}

	for i, point := range result.PortfolioData {
		// 满仓或空仓: 现金与持仓至多一个为正
		if point.Cash > 0 && point.SharesHeld > 0 {
			t.Errorf("第 %d 日现金与持仓同时为正: cash=%.2f, shares=%.6f", i, point.Cash, point.SharesHeld)
		}
		expectedValue := point.Cash + point.SharesHeld*rows[i].Close
		if math.Abs(point.PortfolioValue-expectedValue) > 1e-9 {
			t.Errorf("第 %d 日组合市值不自洽: 期望 %.6f, 得到 %.6f", i, expectedValue, point.PortfolioValue)
		}
	}
}

// TestSimulateEmptyInput 测试空输入返回恒等结果
func TestSimulateEmptyInput(t *testing.T) {
	result, err := Simulate(nil, 10000, nil)
	if err != nil {
		t.Fatalf("空输入不应报错: %v", err)
	}

	if result.FinalValue != 10000 {
		t.Errorf("空输入最终市值应等于初始资金, 得到 %.2f", result.FinalValue)
	}
	if result.TotalReturnPct != 0 || result.TotalPnL != 0 || result.TotalTrades != 0 {
		t.Errorf("空输入应返回零收益零交易: return=%.2f pnl=%.2f trades=%d",
			result.TotalReturnPct, result.TotalPnL, result.TotalTrades)
	}
	if len(result.Trades) != 0 || len(result.PortfolioData) != 0 {
		t.Errorf("空输入不应有成交或快照")
	}
}

// TestScenarioOversoldCrossover 三天行情的端到端场景: 超卖上穿买入后持有
func TestScenarioOversoldCrossover(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mk := func(day int, close, rsi, smaShort, smaLong float64) market.DailyBar {
		bar := market.NewDailyBar(base.AddDate(0, 0, day), close)
		bar.RSI = rsi
		bar.SMAShort = smaShort
		bar.SMALong = smaLong
		return bar
	}
	bars := []market.DailyBar{
		mk(0, 100, 40, 9, 10),
		mk(1, 102, 25, 10, 9),
		mk(2, 105, 20, 11, 9),
	}

	rows, err := signal.Classify(bars, signal.DefaultConfig())
	if err != nil {
		t.Fatalf("分类失败: %v", err)
	}
	result, err := Simulate(rows, 10000, nil)
	if err != nil {
		t.Fatalf("回测失败: %v", err)
	}

	// 第1天买入 10000/102 ≈ 98.0392 股, 第2天盯市 ≈ 10294.12
	expectedShares := 10000.0 / 102.0
	if len(result.Trades) != 1 || result.Trades[0].Action != signal.SignalBuy {
		t.Fatalf("应只有1笔买入成交, 得到 %v", result.Trades)
	}
	if math.Abs(result.Trades[0].Shares-expectedShares) > 1e-4 {
		t.Errorf("买入股数不正确: 期望 %.4f, 得到 %.4f", expectedShares, result.Trades[0].Shares)
	}
	if math.Abs(result.FinalValue-10294.1176) > 0.01 {
		t.Errorf("最终市值不正确: 期望 ≈10294.12, 得到 %.4f", result.FinalValue)
	}
	if result.TotalPnL != 0 || result.TotalTrades != 0 {
		t.Errorf("持仓未平时不应有已实现盈亏: pnl=%.2f trades=%d", result.TotalPnL, result.TotalTrades)
	}
}

// TestSimulateInvalidCapital 测试非法初始资金返回校验错误
func TestSimulateInvalidCapital(t *testing.T) {
	for _, capital := range []float64{0, -100, math.NaN(), math.Inf(1)} {
		_, err := Simulate([]signal.Row{makeRow(0, 100, signal.SignalHold)}, capital, nil)
		if err == nil {
			t.Errorf("初始资金 %v 应返回错误", capital)
			continue
		}
		var vErr *market.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("初始资金 %v 应返回 ValidationError, 得到 %T", capital, err)
		}
	}
}

// TestSimulateInvalidRows 测试非法输入行在任何状态改动前被拒绝
func TestSimulateInvalidRows(t *testing.T) {
	rows := []signal.Row{
		makeRow(0, 100, signal.SignalBuy),
		makeRow(1, -5, signal.SignalSell), // 非法收盘价
	}
	if _, err := Simulate(rows, 10000, nil); err == nil {
		t.Error("非法收盘价应返回错误")
	}

	// 日期不递增
	rows = []signal.Row{
		makeRow(1, 100, signal.SignalHold),
		makeRow(0, 101, signal.SignalHold),
	}
	if _, err := Simulate(rows, 10000, nil); err == nil {
		t.Error("日期不递增应返回错误")
	}
}
