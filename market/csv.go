package market

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"stockmesh/utils"
)

// 指标表 CSV 格式
// 必需列: date, close, rsi, sma_<short>, sma_<long>（均线列名由周期参数决定）
// 可选列: macd, macd_signal, bb_high, bb_low, obv
// 预热期的指标单元留空，加载后为 NaN——不要在文件里预先删除这些行，
// 否则回测的有效起始日会悄悄改变

// LoadSignalTable 从 CSV 加载指标表
func LoadSignalTable(path string, shortPeriod, longPeriod int) ([]DailyBar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开指标表失败: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("读取指标表失败: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("指标表为空: %s", path)
	}

	// 解析表头，定位各列
	smaShortCol := fmt.Sprintf("sma_%d", shortPeriod)
	smaLongCol := fmt.Sprintf("sma_%d", longPeriod)
	colIdx := make(map[string]int)
	for i, name := range records[0] {
		colIdx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "close", "rsi", smaShortCol, smaLongCol} {
		if _, ok := colIdx[required]; !ok {
			return nil, fmt.Errorf("指标表缺少必需列: %s", required)
		}
	}

	parseCell := func(record []string, col string) float64 {
		idx, ok := colIdx[col]
		if !ok || idx >= len(record) {
			return math.NaN()
		}
		cell := strings.TrimSpace(record[idx])
		if cell == "" {
			return math.NaN()
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return math.NaN()
		}
		return v
	}

	bars := make([]DailyBar, 0, len(records)-1)
	for i, record := range records[1:] {
		date, err := utils.ParseTradeDate(strings.TrimSpace(record[colIdx["date"]]))
		if err != nil {
			return nil, fmt.Errorf("第 %d 行日期解析失败: %w", i+2, err)
		}
		closeCell := strings.TrimSpace(record[colIdx["close"]])
		close, err := strconv.ParseFloat(closeCell, 64)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行收盘价解析失败: %w", i+2, err)
		}

		bar := NewDailyBar(date, close)
		bar.RSI = parseCell(record, "rsi")
		bar.SMAShort = parseCell(record, smaShortCol)
		bar.SMALong = parseCell(record, smaLongCol)
		bar.MACD = parseCell(record, "macd")
		bar.MACDSignal = parseCell(record, "macd_signal")
		bar.BBHigh = parseCell(record, "bb_high")
		bar.BBLow = parseCell(record, "bb_low")
		bar.OBV = parseCell(record, "obv")
		bars = append(bars, bar)
	}

	return bars, nil
}

// SaveSignalTable 保存指标表到 CSV
func SaveSignalTable(path string, bars []DailyBar, shortPeriod, longPeriod int) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建指标表文件失败: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"date", "close", "rsi",
		fmt.Sprintf("sma_%d", shortPeriod),
		fmt.Sprintf("sma_%d", longPeriod),
		"macd", "macd_signal", "bb_high", "bb_low", "obv",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}

	formatCell := func(v float64) string {
		if math.IsNaN(v) {
			return "" // 预热期留空
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	for _, bar := range bars {
		record := []string{
			utils.FormatTradeDate(bar.Date),
			strconv.FormatFloat(bar.Close, 'f', -1, 64),
			formatCell(bar.RSI),
			formatCell(bar.SMAShort),
			formatCell(bar.SMALong),
			formatCell(bar.MACD),
			formatCell(bar.MACDSignal),
			formatCell(bar.BBHigh),
			formatCell(bar.BBLow),
			formatCell(bar.OBV),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("写入数据失败: %w", err)
		}
	}

	return nil
}
