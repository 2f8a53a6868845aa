package backtest

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"stockmesh/market"
	"stockmesh/signal"
)

// mockSource 生成确定性的模拟K线
type mockSource struct {
	fail map[string]bool
}

func (m *mockSource) GetHistoricalData(ctx context.Context, symbol string, days int) ([]*market.Candle, error) {
	if m.fail[symbol] {
		return nil, fmt.Errorf("模拟数据源错误: %s", symbol)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]*market.Candle, 0, days)
	price := 100.0
	for i := 0; i < days; i++ {
		// 确定性的震荡行情
		price = price * (1 + 0.02*math.Sin(float64(i)/5))
		candles = append(candles, &market.Candle{
			Symbol:    symbol,
			Timestamp: base.AddDate(0, 0, i).UnixMilli(),
			Open:      price * 0.99,
			High:      price * 1.01,
			Low:       price * 0.98,
			Close:     price,
			Volume:    1000 + float64(i),
		})
	}
	return candles, nil
}

// TestRunnerSingleSymbol 测试单标的完整流水线
func TestRunnerSingleSymbol(t *testing.T) {
	runner := NewRunner(&mockSource{}, RunnerOptions{
		Symbols:        []string{"BTCUSDT"},
		Days:           120,
		InitialCapital: 10000,
		Strategy:       signal.Config{SMAShortPeriod: 5, SMALongPeriod: 20},
	})

	result, err := runner.RunSymbol(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("流水线执行失败: %v", err)
	}

	if len(result.PortfolioData) != 120 {
		t.Errorf("每个交易日都应有组合快照: 期望 120, 得到 %d", len(result.PortfolioData))
	}
	if result.InitialCapital != 10000 {
		t.Errorf("初始资金不正确: %.2f", result.InitialCapital)
	}
	if result.FinalValue <= 0 {
		t.Errorf("最终市值必须为正: %.2f", result.FinalValue)
	}
	if result.WinRatePct < 0 || result.WinRatePct > 100 {
		t.Errorf("胜率越界: %.2f", result.WinRatePct)
	}
}

// TestRunnerBasket 测试批量回测的并发与汇总
func TestRunnerBasket(t *testing.T) {
	symbols := []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "FAILUSDT"}
	runner := NewRunner(&mockSource{fail: map[string]bool{"FAILUSDT": true}}, RunnerOptions{
		Symbols:        symbols,
		Days:           100,
		InitialCapital: 10000,
		Strategy:       signal.Config{SMAShortPeriod: 5, SMALongPeriod: 20},
		Workers:        3,
	})

	basket := runner.Run(context.Background())

	if len(basket.Results) != len(symbols) {
		t.Fatalf("汇总结果数不正确: 期望 %d, 得到 %d", len(symbols), len(basket.Results))
	}
	if basket.Succeeded != 4 {
		t.Errorf("应有4个标的成功, 得到 %d", basket.Succeeded)
	}
	if basket.Failed != 1 {
		t.Errorf("应有1个标的失败, 得到 %d", basket.Failed)
	}

	// 失败标的必须带错误信息且无结果
	for i := range basket.Results {
		if basket.Results[i].Symbol != "FAILUSDT" {
			continue
		}
		if basket.Results[i].Error == "" || basket.Results[i].Result != nil {
			t.Errorf("失败标的应只有错误信息: err=%q result=%v",
				basket.Results[i].Error, basket.Results[i].Result)
		}
	}
}

// TestRunnerCancelled 测试取消后放弃剩余标的
func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // 立即取消

	runner := NewRunner(&mockSource{}, RunnerOptions{
		Symbols:        []string{"BTCUSDT", "ETHUSDT"},
		Days:           100,
		InitialCapital: 10000,
		Workers:        1,
	})

	basket := runner.Run(ctx)
	if len(basket.Results) > len(runner.opts.Symbols) {
		t.Errorf("取消后不应产生额外结果: %d", len(basket.Results))
	}
}
