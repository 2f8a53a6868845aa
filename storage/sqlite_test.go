package storage

import (
	"os"
	"testing"
	"time"

	"stockmesh/backtest"
	"stockmesh/signal"
)

func TestSQLiteStorage(t *testing.T) {
	dbPath := "./test_stockmesh.db"
	defer os.Remove(dbPath)
	defer os.Remove(dbPath + "-shm")
	defer os.Remove(dbPath + "-wal")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("创建存储失败: %v", err)
	}
	defer store.Close()

	// 构造一个包含买卖回合的结果
	pnl := 500.0
	result := &backtest.Result{
		Symbol:         "BTCUSDT",
		InitialCapital: 10000,
		FinalValue:     10500,
		TotalReturnPct: 5,
		TotalPnL:       500,
		WinRatePct:     100,
		TotalTrades:    1,
		WinningTrades:  1,
		Trades: []backtest.TradeRecord{
			{
				Date:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
				Action: signal.SignalBuy,
				Price:  100, Shares: 100, Value: 10000,
			},
			{
				Date:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
				Action: signal.SignalSell,
				Price:  105, Shares: 100, Value: 10500, PnL: &pnl,
			},
		},
	}

	runID, err := store.SaveResult(result)
	if err != nil {
		t.Fatalf("保存回测结果失败: %v", err)
	}
	if runID <= 0 {
		t.Fatalf("运行ID不正确: %d", runID)
	}

	// 查询运行记录
	runs, err := store.QueryRuns(10, 0)
	if err != nil {
		t.Fatalf("查询运行记录失败: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("应查到1条运行记录, 得到 %d", len(runs))
	}
	if runs[0].Symbol != "BTCUSDT" || runs[0].TotalPnL != 500 || runs[0].TotalTrades != 1 {
		t.Errorf("运行记录不一致: %+v", runs[0])
	}

	// 查询成交明细
	trades, err := store.QueryTrades(runID)
	if err != nil {
		t.Fatalf("查询成交明细失败: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("应查到2笔成交, 得到 %d", len(trades))
	}

	// BUY 的 pnl 为 NULL, SELL 的 pnl 有值
	if trades[0].Action != "BUY" || trades[0].PnL != nil {
		t.Errorf("BUY 成交不正确: action=%s pnl=%v", trades[0].Action, trades[0].PnL)
	}
	if trades[1].Action != "SELL" || trades[1].PnL == nil || *trades[1].PnL != 500 {
		t.Errorf("SELL 成交不正确: action=%s pnl=%v", trades[1].Action, trades[1].PnL)
	}

	// 第二次保存后分页查询
	if _, err := store.SaveResult(result); err != nil {
		t.Fatalf("第二次保存失败: %v", err)
	}
	runs, err = store.QueryRuns(1, 0)
	if err != nil {
		t.Fatalf("分页查询失败: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("limit=1 应只返回1条, 得到 %d", len(runs))
	}
}
