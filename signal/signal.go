// Package signal 交易信号分类器
// 根据 RSI 阈值与均线交叉规则，将每个交易日分类为 BUY / SELL / HOLD
package signal

import (
	"stockmesh/market"
)

// Signal 交易信号
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Row 信号表的一行（指标行 + 信号）
type Row struct {
	market.DailyBar

	Signal Signal
	// Strength 信号强度，取值 [0, 1]，HOLD 时为 0
	Strength float64
}

// Config 策略参数
type Config struct {
	RSIBuyThreshold  float64 `yaml:"rsi_buy_threshold" json:"rsi_buy_threshold"`   // RSI 超卖买入阈值（默认30）
	RSISellThreshold float64 `yaml:"rsi_sell_threshold" json:"rsi_sell_threshold"` // RSI 超买卖出阈值（默认70）
	SMAShortPeriod   int     `yaml:"sma_short_period" json:"sma_short_period"`     // 短期均线周期（默认20）
	SMALongPeriod    int     `yaml:"sma_long_period" json:"sma_long_period"`       // 长期均线周期（默认50）
}

// DefaultConfig 返回默认策略参数
func DefaultConfig() Config {
	return Config{
		RSIBuyThreshold:  30,
		RSISellThreshold: 70,
		SMAShortPeriod:   20,
		SMALongPeriod:    50,
	}
}

// Normalize 将零值字段填充为默认值
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.RSIBuyThreshold <= 0 {
		c.RSIBuyThreshold = def.RSIBuyThreshold
	}
	if c.RSISellThreshold <= 0 {
		c.RSISellThreshold = def.RSISellThreshold
	}
	if c.SMAShortPeriod <= 0 {
		c.SMAShortPeriod = def.SMAShortPeriod
	}
	if c.SMALongPeriod <= 0 {
		c.SMALongPeriod = def.SMALongPeriod
	}
}

// Validate 校验策略参数
func (c *Config) Validate() error {
	if c.RSIBuyThreshold <= 0 || c.RSIBuyThreshold >= 100 {
		return market.NewValidationError(-1, "rsi_buy_threshold", "必须在 (0, 100) 区间内")
	}
	if c.RSISellThreshold <= 0 || c.RSISellThreshold >= 100 {
		return market.NewValidationError(-1, "rsi_sell_threshold", "必须在 (0, 100) 区间内")
	}
	if c.RSIBuyThreshold >= c.RSISellThreshold {
		return market.NewValidationError(-1, "rsi_buy_threshold", "必须小于卖出阈值")
	}
	if c.SMAShortPeriod <= 0 || c.SMALongPeriod <= 0 {
		return market.NewValidationError(-1, "sma_period", "必须大于0")
	}
	if c.SMAShortPeriod >= c.SMALongPeriod {
		return market.NewValidationError(-1, "sma_short_period", "必须小于长期均线周期")
	}
	return nil
}
