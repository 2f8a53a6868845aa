package storage

import "time"

// BacktestRun 回测运行记录
type BacktestRun struct {
	ID             int64
	Symbol         string
	InitialCapital float64
	FinalValue     float64
	TotalReturnPct float64
	TotalPnL       float64
	WinRatePct     float64
	TotalTrades    int
	WinningTrades  int
	MaxDrawdown    float64
	CreatedAt      time.Time
}

// TradeRow 成交记录（持久化形态）
type TradeRow struct {
	ID     int64
	RunID  int64
	Date   time.Time
	Action string
	Price  float64
	Shares float64
	Value  float64
	PnL    *float64 // 仅 SELL 有值
}
