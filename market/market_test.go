package market

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// TestValidate 测试指标表校验
func TestValidate(t *testing.T) {
	valid := []DailyBar{
		NewDailyBar(day(0), 100),
		NewDailyBar(day(1), 101),
	}
	if err := Validate(valid); err != nil {
		t.Errorf("合法指标表不应报错: %v", err)
	}

	// 空表合法
	if err := Validate(nil); err != nil {
		t.Errorf("空表不应报错: %v", err)
	}

	// 日期重复
	dup := []DailyBar{NewDailyBar(day(0), 100), NewDailyBar(day(0), 101)}
	err := Validate(dup)
	if err == nil {
		t.Fatal("日期重复应报错")
	}
	vErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("应返回 ValidationError, 得到 %T", err)
	}
	if vErr.Row != 1 || vErr.Field != "date" {
		t.Errorf("错误定位不正确: row=%d field=%s", vErr.Row, vErr.Field)
	}

	// 非法收盘价
	bad := []DailyBar{NewDailyBar(day(0), -1)}
	if err := Validate(bad); err == nil {
		t.Error("负收盘价应报错")
	}
	bad[0].Close = math.NaN()
	if err := Validate(bad); err == nil {
		t.Error("NaN 收盘价应报错")
	}
}

// TestHasSignalInputs 测试信号指标完备性判断
func TestHasSignalInputs(t *testing.T) {
	bar := NewDailyBar(day(0), 100)
	if bar.HasSignalInputs() {
		t.Error("指标全 NaN 时不应判定为完备")
	}

	bar.RSI = 50
	bar.SMAShort = 10
	if bar.HasSignalInputs() {
		t.Error("长期均线缺失时不应判定为完备")
	}

	bar.SMALong = 9
	if !bar.HasSignalInputs() {
		t.Error("RSI 和两条均线齐全时应判定为完备")
	}
	// MACD 等辅助指标缺失不影响完备性
	if !math.IsNaN(bar.MACD) {
		t.Error("辅助指标应保持 NaN")
	}
}

// TestSignalTableRoundTrip 测试指标表 CSV 保存与加载
func TestSignalTableRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")

	bars := []DailyBar{
		NewDailyBar(day(0), 100), // 预热行, 指标全 NaN
		NewDailyBar(day(1), 102),
	}
	bars[1].RSI = 25.5
	bars[1].SMAShort = 10.25
	bars[1].SMALong = 9.75

	if err := SaveSignalTable(path, bars, 20, 50); err != nil {
		t.Fatalf("保存指标表失败: %v", err)
	}

	loaded, err := LoadSignalTable(path, 20, 50)
	if err != nil {
		t.Fatalf("加载指标表失败: %v", err)
	}
	if len(loaded) != len(bars) {
		t.Fatalf("行数不一致: 期望 %d, 得到 %d", len(bars), len(loaded))
	}

	// 预热行的 NaN 必须保留
	if !math.IsNaN(loaded[0].RSI) || !math.IsNaN(loaded[0].SMAShort) {
		t.Error("预热行的指标加载后应为 NaN")
	}
	if !loaded[0].Date.Equal(bars[0].Date) || loaded[0].Close != bars[0].Close {
		t.Errorf("预热行日期/收盘价不一致: %v %.2f", loaded[0].Date, loaded[0].Close)
	}

	if loaded[1].RSI != 25.5 || loaded[1].SMAShort != 10.25 || loaded[1].SMALong != 9.75 {
		t.Errorf("指标数值不一致: rsi=%.2f short=%.2f long=%.2f",
			loaded[1].RSI, loaded[1].SMAShort, loaded[1].SMALong)
	}
}

// TestLoadSignalTableMissingColumn 测试缺少必需列时报错
func TestLoadSignalTableMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	content := "date,close,rsi,sma_20\n2024-01-01,100,50,10\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}

	if _, err := LoadSignalTable(path, 20, 50); err == nil {
		t.Error("缺少 sma_50 列时应报错")
	}
}

// TestCSVSource 测试本地CSV数据源
func TestCSVSource(t *testing.T) {
	dir := t.TempDir()
	content := "date,open,high,low,close,volume\n" +
		"2024-01-01,99,101,98,100,1000\n" +
		"2024-01-02,100,103,99,102,1100\n" +
		"2024-01-03,102,106,101,105,1200\n"
	if err := os.WriteFile(filepath.Join(dir, "BTCUSDT.csv"), []byte(content), 0644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}

	source := NewCSVSource(dir)
	candles, err := source.GetHistoricalData(context.Background(), "BTCUSDT", 2)
	if err != nil {
		t.Fatalf("读取本地行情失败: %v", err)
	}

	// days=2 只取最近2根
	if len(candles) != 2 {
		t.Fatalf("应只返回最近2根K线, 得到 %d", len(candles))
	}
	if candles[0].Close != 102 || candles[1].Close != 105 {
		t.Errorf("K线顺序或数值不正确: %.2f, %.2f", candles[0].Close, candles[1].Close)
	}

	// 不存在的标的
	if _, err := source.GetHistoricalData(context.Background(), "NOPE", 10); err == nil {
		t.Error("不存在的标的应报错")
	}
}
