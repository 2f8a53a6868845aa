package signal

import (
	"stockmesh/market"
)

// Classify 对指标表逐日分类，输出与输入等长的信号表
//
// 规则（逐行独立判断，只依赖当日与前一日）：
//   - BUY：RSI < 买入阈值，且短期均线当日上穿长期均线
//     （前一日短期 ≤ 长期，当日短期 > 长期）
//   - 否则 SELL：RSI > 卖出阈值，或短期均线当日下穿长期均线
//   - 否则 HOLD
//
// BUY 条件先于 SELL 判断，两者同日满足时 BUY 优先。
// 这是策略的既定优先级，会影响回测的成交序列，不要调整判断顺序。
// 第 0 行没有前一日可比，恒为 HOLD；预热期指标缺失的行同样为 HOLD。
func Classify(bars []market.DailyBar, cfg Config) ([]Row, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := market.Validate(bars); err != nil {
		return nil, err
	}

	rows := make([]Row, len(bars))
	for i := range bars {
		rows[i] = Row{DailyBar: bars[i], Signal: SignalHold, Strength: 0}

		if i == 0 || !bars[i].HasSignalInputs() {
			continue
		}

		rsi := bars[i].RSI
		smaShort := bars[i].SMAShort
		smaLong := bars[i].SMALong
		prevShort := bars[i-1].SMAShort
		prevLong := bars[i-1].SMALong

		// 前一日均线缺失时，交叉比较不成立（NaN 比较恒为 false），
		// 但 RSI 超买仍可单独触发 SELL，与交叉判断无关

		// 买入：RSI 超卖 且 短期均线上穿长期均线
		crossUp := prevShort <= prevLong && smaShort > smaLong
		if rsi < cfg.RSIBuyThreshold && crossUp {
			rows[i].Signal = SignalBuy
			rows[i].Strength = clamp01((cfg.RSIBuyThreshold - rsi) / cfg.RSIBuyThreshold)
			continue
		}

		// 卖出：RSI 超买 或 短期均线下穿长期均线
		crossDown := prevShort >= prevLong && smaShort < smaLong
		if rsi > cfg.RSISellThreshold || crossDown {
			rows[i].Signal = SignalSell
			rows[i].Strength = clamp01((rsi - cfg.RSISellThreshold) / (100 - cfg.RSISellThreshold))
		}
	}

	return rows, nil
}

// clamp01 将信号强度收敛到 [0, 1]
// 下穿触发的 SELL 在 RSI 低于卖出阈值时按公式会得到负强度，收敛为 0
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
