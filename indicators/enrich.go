package indicators

import (
	"fmt"

	"stockmesh/market"
)

// 默认指标参数（与策略无关的辅助指标）
const (
	DefaultRSIPeriod    = 14
	DefaultMACDFast     = 12
	DefaultMACDSlow     = 26
	DefaultMACDSignal   = 9
	DefaultBBPeriod     = 20
	DefaultBBMultiplier = 2.0
)

// Enrich 根据K线计算指标表
// 输出与输入等长，预热期的指标单元为 NaN 而不是被丢弃，
// 由下游的信号分类器按 HOLD 处理
func Enrich(candles []*market.Candle, shortPeriod, longPeriod int) ([]market.DailyBar, error) {
	if shortPeriod <= 0 || longPeriod <= 0 {
		return nil, fmt.Errorf("均线周期必须大于0: short=%d long=%d", shortPeriod, longPeriod)
	}
	if shortPeriod >= longPeriod {
		return nil, fmt.Errorf("短期均线周期必须小于长期均线周期: short=%d long=%d", shortPeriod, longPeriod)
	}

	n := len(candles)
	bars := make([]market.DailyBar, n)
	for i, c := range candles {
		bars[i] = market.NewDailyBar(c.Date(), c.Close)
	}
	if n == 0 {
		return bars, nil
	}

	// 各指标结果比输入短（预热期），统一向左补 NaN 对齐
	rsi := PadLeft(NewRSI(DefaultRSIPeriod).Calculate(candles), n)
	smaShort := PadLeft(NewSimpleMovingAverage(shortPeriod).Calculate(candles), n)
	smaLong := PadLeft(NewSimpleMovingAverage(longPeriod).Calculate(candles), n)
	obv := PadLeft(NewOBV().Calculate(candles), n)

	macdParts := NewMACD(DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal).CalculateMulti(candles)
	var macd, macdSignal []float64
	if macdParts != nil {
		macd = macdParts["macd"]
		macdSignal = macdParts["signal"]
	}
	macd = PadLeft(macd, n)
	macdSignal = PadLeft(macdSignal, n)

	bbParts := NewBollingerBands(DefaultBBPeriod, DefaultBBMultiplier).CalculateMulti(candles)
	var bbHigh, bbLow []float64
	if bbParts != nil {
		bbHigh = bbParts["upper"]
		bbLow = bbParts["lower"]
	}
	bbHigh = PadLeft(bbHigh, n)
	bbLow = PadLeft(bbLow, n)

	for i := range bars {
		bars[i].RSI = rsi[i]
		bars[i].SMAShort = smaShort[i]
		bars[i].SMALong = smaLong[i]
		bars[i].MACD = macd[i]
		bars[i].MACDSignal = macdSignal[i]
		bars[i].BBHigh = bbHigh[i]
		bars[i].BBLow = bbLow[i]
		bars[i].OBV = obv[i]
	}

	return bars, nil
}
