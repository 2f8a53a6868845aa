package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"stockmesh/utils"
)

// GenerateReport 生成 Markdown 回测报告
func GenerateReport(result *Result) (string, error) {
	// 创建报告目录
	reportDir := filepath.Join("data", "reports")
	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	// 生成报告文件名
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s.md", result.Symbol, timestamp)
	reportPath := filepath.Join(reportDir, filename)

	// 准备模板数据
	data := prepareReportData(result)

	// 渲染模板
	content, err := renderReportTemplate(data)
	if err != nil {
		return "", fmt.Errorf("渲染报告模板失败: %w", err)
	}

	// 写入文件
	if err := os.WriteFile(reportPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("写入报告文件失败: %w", err)
	}

	return reportPath, nil
}

// ReportData 报告数据
type ReportData struct {
	// 基本信息
	Symbol         string
	GeneratedAt    string
	StartDate      string
	EndDate        string
	Duration       string
	InitialCapital string
	FinalValue     string

	// 收益指标
	TotalReturn      string
	AnnualizedReturn string
	TotalPnL         string

	// 风险指标
	MaxDrawdown         string
	MaxDrawdownDuration string
	Volatility          string

	// 风险调整收益
	SharpeRatio  string
	SortinoRatio string
	CalmarRatio  string

	// 交易指标
	TotalTrades          string
	WinRate              string
	ProfitFactor         string
	AvgWin               string
	AvgLoss              string
	LargestWin           string
	LargestLoss          string
	MaxConsecutiveWins   string
	MaxConsecutiveLosses string

	// 交易明细
	TradeRows []ReportTradeRow

	// 结论
	Conclusion string
}

// ReportTradeRow 报告中的交易行
type ReportTradeRow struct {
	Date   string
	Action string
	Price  string
	Shares string
	PnL    string
}

// prepareReportData 准备报告数据
func prepareReportData(result *Result) ReportData {
	startDate := "-"
	endDate := "-"
	durationStr := "-"
	if len(result.PortfolioData) > 0 {
		first := result.PortfolioData[0].Date
		last := result.PortfolioData[len(result.PortfolioData)-1].Date
		startDate = utils.FormatTradeDate(first)
		endDate = utils.FormatTradeDate(last)
		durationStr = fmt.Sprintf("%d 天", int(last.Sub(first).Hours()/24))
	}

	// 准备交易明细（前20笔卖出）
	tradeRows := make([]ReportTradeRow, 0)
	for i := range result.Trades {
		if result.Trades[i].PnL == nil || len(tradeRows) >= 20 {
			continue
		}
		tradeRows = append(tradeRows, ReportTradeRow{
			Date:   utils.FormatTradeDate(result.Trades[i].Date),
			Action: string(result.Trades[i].Action),
			Price:  fmt.Sprintf("%.2f", result.Trades[i].Price),
			Shares: fmt.Sprintf("%.4f", result.Trades[i].Shares),
			PnL:    fmt.Sprintf("%.2f", *result.Trades[i].PnL),
		})
	}

	return ReportData{
		Symbol:         result.Symbol,
		GeneratedAt:    time.Now().Format("2006-01-02 15:04:05"),
		StartDate:      startDate,
		EndDate:        endDate,
		Duration:       durationStr,
		InitialCapital: fmt.Sprintf("%.2f", result.InitialCapital),
		FinalValue:     fmt.Sprintf("%.2f", result.FinalValue),

		TotalReturn:      fmt.Sprintf("%.2f%%", result.TotalReturnPct),
		AnnualizedReturn: fmt.Sprintf("%.2f%%", result.Risk.AnnualizedReturn),
		TotalPnL:         fmt.Sprintf("%.2f", result.TotalPnL),

		MaxDrawdown:         fmt.Sprintf("%.2f%%", result.Risk.MaxDrawdown),
		MaxDrawdownDuration: fmt.Sprintf("%d 天", result.Risk.MaxDrawdownDuration),
		Volatility:          fmt.Sprintf("%.2f%%", result.Risk.Volatility),

		SharpeRatio:  fmt.Sprintf("%.2f", result.Risk.SharpeRatio),
		SortinoRatio: fmt.Sprintf("%.2f", result.Risk.SortinoRatio),
		CalmarRatio:  fmt.Sprintf("%.2f", result.Risk.CalmarRatio),

		TotalTrades:          fmt.Sprintf("%d", result.TotalTrades),
		WinRate:              fmt.Sprintf("%.2f%%", result.WinRatePct),
		ProfitFactor:         fmt.Sprintf("%.2f", result.Risk.ProfitFactor),
		AvgWin:               fmt.Sprintf("%.2f", result.Risk.AvgWin),
		AvgLoss:              fmt.Sprintf("%.2f", result.Risk.AvgLoss),
		LargestWin:           fmt.Sprintf("%.2f", result.Risk.LargestWin),
		LargestLoss:          fmt.Sprintf("%.2f", result.Risk.LargestLoss),
		MaxConsecutiveWins:   fmt.Sprintf("%d", result.Risk.MaxConsecutiveWins),
		MaxConsecutiveLosses: fmt.Sprintf("%d", result.Risk.MaxConsecutiveLosses),

		TradeRows: tradeRows,

		Conclusion: generateConclusion(result),
	}
}

// generateConclusion 生成结论
func generateConclusion(result *Result) string {
	var conclusions []string

	// 收益评估
	if result.TotalReturnPct > 50 {
		conclusions = append(conclusions, "✅ 策略表现优秀，总收益率超过 50%")
	} else if result.TotalReturnPct > 20 {
		conclusions = append(conclusions, "✅ 策略表现良好，总收益率超过 20%")
	} else if result.TotalReturnPct > 0 {
		conclusions = append(conclusions, "⚠️ 策略盈利，但收益率较低")
	} else {
		conclusions = append(conclusions, "❌ 策略亏损，需要优化参数或更换策略")
	}

	// 风险评估
	if result.Risk.MaxDrawdown < 10 {
		conclusions = append(conclusions, "✅ 风险控制良好，最大回撤小于 10%")
	} else if result.Risk.MaxDrawdown < 20 {
		conclusions = append(conclusions, "⚠️ 风险适中，最大回撤在 10-20% 之间")
	} else {
		conclusions = append(conclusions, "❌ 风险较高，最大回撤超过 20%")
	}

	// 胜率评估
	if result.TotalTrades == 0 {
		conclusions = append(conclusions, "⚠️ 回测期间没有完整的买卖回合，建议放宽阈值或延长窗口")
	} else if result.WinRatePct > 60 {
		conclusions = append(conclusions, "✅ 胜率高，超过 60%")
	} else if result.WinRatePct > 50 {
		conclusions = append(conclusions, "✅ 胜率良好，超过 50%")
	} else {
		conclusions = append(conclusions, "⚠️ 胜率较低，需要优化策略")
	}

	return strings.Join(conclusions, "\n\n")
}

// renderReportTemplate 渲染报告模板
func renderReportTemplate(data ReportData) (string, error) {
	tmpl := `# {{.Symbol}} RSI+均线交叉策略回测报告

生成时间: {{.GeneratedAt}}

## 执行摘要

- **标的**: {{.Symbol}}
- **回测期间**: {{.StartDate}} 至 {{.EndDate}} ({{.Duration}})
- **初始资金**: ${{.InitialCapital}}
- **最终市值**: ${{.FinalValue}}
- **总收益率**: {{.TotalReturn}}
- **已实现盈亏**: ${{.TotalPnL}}
- **最大回撤**: {{.MaxDrawdown}}
- **夏普比率**: {{.SharpeRatio}}

注：未平仓头寸按最后一日收盘价盯市计入最终市值，其浮动盈亏不计入已实现盈亏。

## 收益指标

| 指标 | 数值 |
|------|------|
| 总收益率 | {{.TotalReturn}} |
| 年化收益率 | {{.AnnualizedReturn}} |

## 风险指标

| 指标 | 数值 |
|------|------|
| 最大回撤 | {{.MaxDrawdown}} |
| 最大回撤持续时间 | {{.MaxDrawdownDuration}} |
| 波动率（年化） | {{.Volatility}} |

## 风险调整收益

| 指标 | 数值 |
|------|------|
| 夏普比率 | {{.SharpeRatio}} |
| 索提诺比率 | {{.SortinoRatio}} |
| 卡玛比率 | {{.CalmarRatio}} |

## 交易指标

| 指标 | 数值 |
|------|------|
| 完整回合数 | {{.TotalTrades}} |
| 胜率 | {{.WinRate}} |
| 利润因子 | {{.ProfitFactor}} |
| 平均盈利 | ${{.AvgWin}} |
| 平均亏损 | ${{.AvgLoss}} |
| 最大单笔盈利 | ${{.LargestWin}} |
| 最大单笔亏损 | ${{.LargestLoss}} |
| 最大连续盈利 | {{.MaxConsecutiveWins}} 笔 |
| 最大连续亏损 | {{.MaxConsecutiveLosses}} 笔 |

## 交易明细（前20笔平仓）

| 日期 | 类型 | 价格 | 数量 | 盈亏 |
|------|------|------|------|------|
{{range .TradeRows}}| {{.Date}} | {{.Action}} | {{.Price}} | {{.Shares}} | {{.PnL}} |
{{end}}

## 结论

{{.Conclusion}}

---

*本报告由 StockMesh 回测系统自动生成*
`

	t, err := template.New("report").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// SavePortfolioCurveCSV 保存每日组合净值曲线到 CSV
func SavePortfolioCurveCSV(result *Result) (string, error) {
	reportDir := filepath.Join("data", "reports")
	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s_portfolio.csv", result.Symbol, timestamp)
	csvPath := filepath.Join(reportDir, filename)

	file, err := os.Create(csvPath)
	if err != nil {
		return "", fmt.Errorf("创建 CSV 文件失败: %w", err)
	}
	defer file.Close()

	// 写入表头
	file.WriteString("date,cash,shares_held,portfolio_value\n")

	// 写入数据
	for _, point := range result.PortfolioData {
		file.WriteString(fmt.Sprintf("%s,%.2f,%.8f,%.2f\n",
			utils.FormatTradeDate(point.Date), point.Cash, point.SharesHeld, point.PortfolioValue))
	}

	return csvPath, nil
}
