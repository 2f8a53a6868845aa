package indicators

import (
	"math"
	"testing"
	"time"

	"stockmesh/market"
)

func makeCandles(closes []float64) []*market.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]*market.Candle, len(closes))
	for i, close := range closes {
		candles[i] = &market.Candle{
			Timestamp: base.AddDate(0, 0, i).UnixMilli(),
			Open:      close,
			High:      close * 1.01,
			Low:       close * 0.99,
			Close:     close,
			Volume:    1000,
		}
	}
	return candles
}

// TestSMA 测试简单移动平均
func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	result := SMA(values, 3)

	expected := []float64{2, 3, 4}
	if len(result) != len(expected) {
		t.Fatalf("SMA 长度不正确: 期望 %d, 得到 %d", len(expected), len(result))
	}
	for i := range expected {
		if math.Abs(result[i]-expected[i]) > 1e-9 {
			t.Errorf("SMA[%d] 不正确: 期望 %.4f, 得到 %.4f", i, expected[i], result[i])
		}
	}

	// 数据不足时返回 nil
	if SMA([]float64{1, 2}, 3) != nil {
		t.Error("数据不足时 SMA 应返回 nil")
	}
}

// TestEMA 测试指数移动平均
func TestEMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	result := EMA(values, 3)

	// 第一个值为前3个的 SMA = 2
	if len(result) != 4 {
		t.Fatalf("EMA 长度不正确: 期望 4, 得到 %d", len(result))
	}
	if math.Abs(result[0]-2) > 1e-9 {
		t.Errorf("EMA 首值应为 SMA: 期望 2, 得到 %.4f", result[0])
	}
	// multiplier = 0.5, EMA[1] = 4*0.5 + 2*0.5 = 3
	if math.Abs(result[1]-3) > 1e-9 {
		t.Errorf("EMA[1] 不正确: 期望 3, 得到 %.4f", result[1])
	}
}

// TestCrossOverAndUnder 测试均线交叉判断
func TestCrossOverAndUnder(t *testing.T) {
	// 前一日相等也算上穿的起点
	if !CrossOver([]float64{10, 11}, []float64{10, 10}) {
		t.Error("前一日相等、当日更高应判定为上穿")
	}
	if CrossOver([]float64{11, 12}, []float64{10, 10}) {
		t.Error("一直在上方不是上穿")
	}
	if !CrossUnder([]float64{10, 9}, []float64{10, 10}) {
		t.Error("前一日相等、当日更低应判定为下穿")
	}
	if CrossOver([]float64{10}, []float64{10}) {
		t.Error("单点序列不应判定交叉")
	}
}

// TestPadLeft 测试 NaN 左对齐
func TestPadLeft(t *testing.T) {
	result := PadLeft([]float64{1, 2, 3}, 5)
	if len(result) != 5 {
		t.Fatalf("对齐后长度不正确: 期望 5, 得到 %d", len(result))
	}
	if !math.IsNaN(result[0]) || !math.IsNaN(result[1]) {
		t.Error("前部应补 NaN")
	}
	if result[2] != 1 || result[4] != 3 {
		t.Error("后部数值应保持不变")
	}

	// nil 输入补满 NaN
	result = PadLeft(nil, 3)
	for i, v := range result {
		if !math.IsNaN(v) {
			t.Errorf("nil 输入对齐后第 %d 个应为 NaN, 得到 %.4f", i, v)
		}
	}
}

// TestRSIRange 测试 RSI 的取值范围
func TestRSIRange(t *testing.T) {
	closes := make([]float64, 60)
	price := 100.0
	for i := range closes {
		price = price * (1 + 0.03*math.Sin(float64(i)/3))
		closes[i] = price
	}

	rsi := NewRSI(14)
	values := rsi.Calculate(makeCandles(closes))
	if len(values) == 0 {
		t.Fatal("RSI 计算结果为空")
	}
	for i, v := range values {
		if v < 0 || v > 100 {
			t.Errorf("RSI[%d] 越界: %.4f", i, v)
		}
	}

	// 单边上涨时 RSI 接近 100
	up := make([]float64, 40)
	for i := range up {
		up[i] = 100 + float64(i)
	}
	values = NewRSI(14).Calculate(makeCandles(up))
	if last := values[len(values)-1]; last < 95 {
		t.Errorf("单边上涨行情 RSI 应接近 100, 得到 %.4f", last)
	}
}

// TestEnrichAlignment 测试指标表与输入等长且预热期为 NaN
func TestEnrichAlignment(t *testing.T) {
	closes := make([]float64, 80)
	price := 100.0
	for i := range closes {
		price = price * (1 + 0.01*math.Sin(float64(i)/4))
		closes[i] = price
	}
	candles := makeCandles(closes)

	bars, err := Enrich(candles, 5, 20)
	if err != nil {
		t.Fatalf("指标计算失败: %v", err)
	}
	if len(bars) != len(candles) {
		t.Fatalf("指标表必须与输入等长: 期望 %d, 得到 %d", len(candles), len(bars))
	}

	// 长期均线预热期(前19行)应为 NaN, 之后应有数值
	for i := 0; i < 19; i++ {
		if !math.IsNaN(bars[i].SMALong) {
			t.Errorf("第 %d 行长期均线应为 NaN, 得到 %.4f", i, bars[i].SMALong)
		}
	}
	if math.IsNaN(bars[25].SMALong) {
		t.Error("预热期之后长期均线不应为 NaN")
	}

	// 收盘价与日期原样保留
	for i := range bars {
		if bars[i].Close != closes[i] {
			t.Errorf("第 %d 行收盘价被改动: 期望 %.4f, 得到 %.4f", i, closes[i], bars[i].Close)
		}
	}

	// 日期严格递增
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			t.Errorf("第 %d 行日期未递增", i)
		}
	}
}

// TestEnrichInvalidPeriods 测试非法均线周期
func TestEnrichInvalidPeriods(t *testing.T) {
	candles := makeCandles([]float64{100, 101, 102})

	if _, err := Enrich(candles, 20, 20); err == nil {
		t.Error("短期周期不小于长期周期时应报错")
	}
	if _, err := Enrich(candles, 0, 20); err == nil {
		t.Error("非正周期应报错")
	}
}

// TestEnrichEmpty 测试空输入
func TestEnrichEmpty(t *testing.T) {
	bars, err := Enrich(nil, 5, 20)
	if err != nil {
		t.Fatalf("空输入不应报错: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("空输入应返回空指标表, 得到 %d 行", len(bars))
	}
}
