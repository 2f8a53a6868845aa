package backtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockmesh/event"
	"stockmesh/indicators"
	"stockmesh/logger"
	"stockmesh/market"
	"stockmesh/metrics"
	"stockmesh/signal"
)

// DataSource 行情数据源
type DataSource interface {
	GetHistoricalData(ctx context.Context, symbol string, days int) ([]*market.Candle, error)
}

// RunnerOptions 批量回测选项
type RunnerOptions struct {
	Symbols        []string
	Days           int           // 回测窗口（日线条数）
	InitialCapital float64       // 每个标的的初始资金
	Strategy       signal.Config // 策略参数
	Workers        int           // 并发worker数，默认4
	Sink           event.Sink    // 事件接收器，可为 nil
}

// SymbolResult 单标的回测结果
type SymbolResult struct {
	Symbol string  `json:"symbol"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// BasketResult 一篮子标的的汇总结果
type BasketResult struct {
	Results []SymbolResult `json:"results"`

	// 汇总指标（仅统计成功的标的）
	TotalPnL    float64 `json:"total_pnl"`
	TotalTrades int     `json:"total_trades"`
	AvgWinRate  float64 `json:"avg_win_rate"`
	Succeeded   int     `json:"succeeded"`
	Failed      int     `json:"failed"`
}

// Runner 批量回测器
// 每个标的的 分类+回测 流水线相互独立，用固定大小的worker池并发执行；
// 单个标的内部的逐日状态严格串行
type Runner struct {
	source DataSource
	opts   RunnerOptions
}

// NewRunner 创建批量回测器
func NewRunner(source DataSource, opts RunnerOptions) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Days <= 0 {
		opts.Days = 180 // 默认6个月
	}
	if opts.InitialCapital <= 0 {
		opts.InitialCapital = 10000
	}
	opts.Strategy.Normalize()

	return &Runner{source: source, opts: opts}
}

// RunSymbol 运行单个标的的完整流水线：取数 → 算指标 → 信号分类 → 回测
func (r *Runner) RunSymbol(ctx context.Context, symbol string) (*Result, error) {
	start := time.Now()

	candles, err := r.source.GetHistoricalData(ctx, symbol, r.opts.Days)
	if err != nil {
		return nil, fmt.Errorf("获取 %s 行情失败: %w", symbol, err)
	}

	bars, err := indicators.Enrich(candles, r.opts.Strategy.SMAShortPeriod, r.opts.Strategy.SMALongPeriod)
	if err != nil {
		return nil, fmt.Errorf("计算 %s 指标失败: %w", symbol, err)
	}

	rows, err := signal.Classify(bars, r.opts.Strategy)
	if err != nil {
		return nil, fmt.Errorf("生成 %s 信号失败: %w", symbol, err)
	}

	result, err := Simulate(rows, r.opts.InitialCapital, r.opts.Sink)
	if err != nil {
		return nil, fmt.Errorf("回测 %s 失败: %w", symbol, err)
	}
	result.Symbol = symbol

	metrics.RecordBacktest(symbol, result.TotalTrades, result.WinRatePct, result.TotalPnL,
		result.TotalReturnPct, time.Since(start))

	logger.Info("✅ %s 回测完成: 收益率 %.2f%%, 胜率 %.2f%%, 交易 %d 笔",
		symbol, result.TotalReturnPct, result.WinRatePct, result.TotalTrades)

	return result, nil
}

// Run 并发运行一篮子标的
// 各标的之间没有顺序要求，也没有共享状态；ctx 取消后剩余标的被放弃，
// 已完成标的的结果保持完整
func (r *Runner) Run(ctx context.Context) *BasketResult {
	logger.Info("🚀 开始批量回测: %d 个标的, %d 个worker", len(r.opts.Symbols), r.opts.Workers)

	jobs := make(chan string)
	results := make([]SymbolResult, 0, len(r.opts.Symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < r.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				sr := SymbolResult{Symbol: symbol}
				result, err := r.RunSymbol(ctx, symbol)
				if err != nil {
					logger.Error("❌ %s 回测失败: %v", symbol, err)
					sr.Error = err.Error()
				} else {
					sr.Result = result
				}

				mu.Lock()
				results = append(results, sr)
				mu.Unlock()
			}
		}()
	}

	for _, symbol := range r.opts.Symbols {
		select {
		case <-ctx.Done():
			logger.Warn("⚠️ 批量回测被取消，放弃剩余标的")
			goto done
		case jobs <- symbol:
		}
	}
done:
	close(jobs)
	wg.Wait()

	return aggregate(results)
}

// aggregate 汇总一篮子结果
func aggregate(results []SymbolResult) *BasketResult {
	basket := &BasketResult{Results: results}

	winRateSum := 0.0
	for i := range results {
		if results[i].Result == nil {
			basket.Failed++
			continue
		}
		basket.Succeeded++
		basket.TotalPnL += results[i].Result.TotalPnL
		basket.TotalTrades += results[i].Result.TotalTrades
		winRateSum += results[i].Result.WinRatePct
	}
	if basket.Succeeded > 0 {
		basket.AvgWinRate = winRateSum / float64(basket.Succeeded)
	}

	logger.Info("🎯 批量回测汇总: 成功 %d / 失败 %d, 总盈亏 %.2f, 平均胜率 %.2f%%",
		basket.Succeeded, basket.Failed, basket.TotalPnL, basket.AvgWinRate)

	return basket
}
