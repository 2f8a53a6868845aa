package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"stockmesh/utils"
)

// CSVSource 本地CSV行情数据源
// 从目录中读取 <symbol>.csv（date,open,high,low,close,volume），
// 行按日期升序；用于离线回测或无法访问远端行情时
type CSVSource struct {
	dir string
}

// NewCSVSource 创建本地CSV数据源
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// GetHistoricalData 读取本地K线，返回最近 days 根
func (s *CSVSource) GetHistoricalData(ctx context.Context, symbol string, days int) ([]*Candle, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s.csv", symbol))
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开本地行情文件失败: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("读取本地行情文件失败: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("本地行情文件为空: %s", path)
	}

	// 解析表头，按列名取值（列顺序不限）
	colIndex := make(map[string]int)
	for i, name := range records[0] {
		colIndex[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := colIndex[required]; !ok {
			return nil, fmt.Errorf("本地行情文件缺少列 %s: %s", required, path)
		}
	}

	candles := make([]*Candle, 0, len(records)-1)
	for i, record := range records[1:] {
		date, err := utils.ParseTradeDate(record[colIndex["date"]])
		if err != nil {
			return nil, fmt.Errorf("第 %d 行日期解析失败: %w", i+1, err)
		}

		candle := &Candle{Timestamp: date.UnixMilli()}
		fields := []struct {
			name string
			dst  *float64
		}{
			{"open", &candle.Open},
			{"high", &candle.High},
			{"low", &candle.Low},
			{"close", &candle.Close},
			{"volume", &candle.Volume},
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[colIndex[f.name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("第 %d 行 %s 解析失败: %w", i+1, f.name, err)
			}
			*f.dst = v
		}
		candles = append(candles, candle)
	}

	// 只保留最近 days 根
	if days > 0 && len(candles) > days {
		candles = candles[len(candles)-days:]
	}

	return candles, nil
}
