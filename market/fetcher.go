package market

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"golang.org/x/time/rate"

	"stockmesh/logger"
)

// Fetcher 历史行情获取器（Binance 现货日线）
type Fetcher struct {
	client  *binance.Client
	limiter *rate.Limiter
}

// NewFetcher 创建行情获取器
// 公开的K线接口不需要鉴权，apiKey/secretKey 可以为空
func NewFetcher(apiKey, secretKey string) *Fetcher {
	return &Fetcher{
		client: binance.NewClient(apiKey, secretKey),
		// Binance 权重限制，限制请求频率为每秒5次
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

// FetchDailyCandles 获取最近 days 根日线K线
func (f *Fetcher) FetchDailyCandles(ctx context.Context, symbol string, days int) ([]*Candle, error) {
	if days <= 0 {
		return nil, fmt.Errorf("K线数量必须大于0: %d", days)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("等待限流器失败: %w", err)
	}

	klines, err := f.client.NewKlinesService().
		Symbol(symbol).
		Interval("1d").
		Limit(days).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取历史K线失败: %w", err)
	}

	candles := make([]*Candle, 0, len(klines))
	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		close, _ := strconv.ParseFloat(k.Close, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)

		candles = append(candles, &Candle{
			Symbol:    symbol,
			Timestamp: k.OpenTime,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
		})
	}

	return candles, nil
}

// GetHistoricalData 智能获取历史日线数据（优先缓存）
func (f *Fetcher) GetHistoricalData(ctx context.Context, symbol string, days int) ([]*Candle, error) {
	// 1. 生成缓存键（按当日日期，隔日自动失效）
	cacheKey := fmt.Sprintf("%s_1d_%d_%s", symbol, days, time.Now().UTC().Format("2006-01-02"))

	// 2. 检查缓存
	if candles, err := LoadFromCache(cacheKey); err == nil {
		logger.Info("✅ 从缓存加载: %s (%d 根K线)", cacheKey, len(candles))
		return candles, nil
	}

	// 3. 从 Binance 获取
	logger.Info("⬇️ 从 Binance 下载: %s 日线 %d 天", symbol, days)

	candles, err := f.FetchDailyCandles(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	// 4. 保存缓存
	if err := SaveToCache(cacheKey, candles); err != nil {
		logger.Warn("⚠️ 缓存保存失败: %v", err)
	} else {
		logger.Info("💾 已缓存: %s (%d 根K线)", cacheKey, len(candles))
	}

	return candles, nil
}
