package market

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"stockmesh/logger"
)

// cacheDir 缓存目录
var cacheDir = filepath.Join("data", "cache")

// CacheIndexEntry 缓存索引条目
type CacheIndexEntry struct {
	Symbol  string    `json:"symbol"`
	Candles int       `json:"candles"`
	Created time.Time `json:"created"`
}

// LoadFromCache 从缓存加载K线数据
func LoadFromCache(cacheKey string) ([]*Candle, error) {
	filename := filepath.Join(cacheDir, cacheKey+".csv")
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("缓存不存在: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("读取缓存文件失败: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("缓存文件为空: %s", filename)
	}

	// 跳过表头
	candles := make([]*Candle, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 7 {
			return nil, fmt.Errorf("缓存第 %d 行格式错误", i+2)
		}
		timestamp, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("缓存第 %d 行时间戳解析失败: %w", i+2, err)
		}
		open, _ := strconv.ParseFloat(record[1], 64)
		high, _ := strconv.ParseFloat(record[2], 64)
		low, _ := strconv.ParseFloat(record[3], 64)
		close, _ := strconv.ParseFloat(record[4], 64)
		volume, _ := strconv.ParseFloat(record[5], 64)

		candles = append(candles, &Candle{
			Timestamp: timestamp,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
			Symbol:    record[6],
		})
	}

	return candles, nil
}

// SaveToCache 保存K线数据到缓存
func SaveToCache(cacheKey string, candles []*Candle) error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return fmt.Errorf("创建缓存目录失败: %w", err)
	}

	filename := filepath.Join(cacheDir, cacheKey+".csv")
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("创建缓存文件失败: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// 写入表头
	if err := writer.Write([]string{"timestamp", "open", "high", "low", "close", "volume", "symbol"}); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}

	// 写入数据
	for _, c := range candles {
		record := []string{
			fmt.Sprintf("%d", c.Timestamp),
			fmt.Sprintf("%.8f", c.Open),
			fmt.Sprintf("%.8f", c.High),
			fmt.Sprintf("%.8f", c.Low),
			fmt.Sprintf("%.8f", c.Close),
			fmt.Sprintf("%.8f", c.Volume),
			c.Symbol,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("写入数据失败: %w", err)
		}
	}

	// 更新缓存索引
	if err := updateCacheIndex(cacheKey, candles); err != nil {
		logger.Warn("⚠️ 更新缓存索引失败: %v", err)
	}

	return nil
}

// updateCacheIndex 更新缓存索引
func updateCacheIndex(cacheKey string, candles []*Candle) error {
	indexFile := filepath.Join(cacheDir, "cache_index.json")

	// 读取现有索引
	index := make(map[string]CacheIndexEntry)
	if data, err := os.ReadFile(indexFile); err == nil {
		json.Unmarshal(data, &index)
	}

	symbol := ""
	if len(candles) > 0 {
		symbol = candles[0].Symbol
	}

	index[cacheKey] = CacheIndexEntry{
		Symbol:  symbol,
		Candles: len(candles),
		Created: time.Now(),
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化缓存索引失败: %w", err)
	}

	return os.WriteFile(indexFile, data, 0644)
}

// ClearCache 清空全部缓存
func ClearCache() error {
	if err := os.RemoveAll(cacheDir); err != nil {
		return fmt.Errorf("清空缓存失败: %w", err)
	}
	return nil
}
