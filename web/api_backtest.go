package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stockmesh/backtest"
	"stockmesh/logger"
	"stockmesh/signal"
)

// BacktestRequest 回测请求
type BacktestRequest struct {
	Symbol         string  `json:"symbol" binding:"required"` // 如 "BTCUSDT"
	Days           int     `json:"days"`                      // 回测窗口，默认取配置
	InitialCapital float64 `json:"initial_capital"`           // 初始资金，默认取配置

	// 策略参数，零值字段回退到配置中的值
	Strategy signal.Config `json:"strategy"`
}

// BacktestResponse 回测响应
type BacktestResponse struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message,omitempty"`
	Result     *backtest.Result `json:"result,omitempty"`
	ReportPath string           `json:"report_path,omitempty"`
	RunID      int64            `json:"run_id,omitempty"`
}

// runBacktest 运行单标的回测
func (s *Server) runBacktest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, BacktestResponse{
			Success: false,
			Message: fmt.Sprintf("请求参数错误: %v", err),
		})
		return
	}

	// 零值回退到配置
	if req.Days <= 0 {
		req.Days = s.cfg.Backtest.Days
	}
	if req.InitialCapital == 0 {
		req.InitialCapital = s.cfg.Backtest.InitialCapital
	}
	strategy := s.cfg.Strategy
	if req.Strategy != (signal.Config{}) {
		strategy = req.Strategy
		strategy.Normalize()
	}
	if err := strategy.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, BacktestResponse{
			Success: false,
			Message: fmt.Sprintf("策略参数错误: %v", err),
		})
		return
	}

	logger.Info("📊 API回测请求: 标的=%s, 窗口=%d天", req.Symbol, req.Days)

	runner := backtest.NewRunner(s.source, backtest.RunnerOptions{
		Symbols:        []string{req.Symbol},
		Days:           req.Days,
		InitialCapital: req.InitialCapital,
		Strategy:       strategy,
	})

	result, err := runner.RunSymbol(c.Request.Context(), req.Symbol)
	if err != nil {
		logger.Error("❌ API回测失败: %v", err)
		c.JSON(http.StatusInternalServerError, BacktestResponse{
			Success: false,
			Message: fmt.Sprintf("回测失败: %v", err),
		})
		return
	}

	resp := BacktestResponse{
		Success: true,
		Result:  result,
	}

	// 保存结果（存储未启用时跳过）
	if s.store != nil {
		runID, err := s.store.SaveResult(result)
		if err != nil {
			logger.Warn("⚠️ 保存回测结果失败: %v", err)
		} else {
			resp.RunID = runID
		}
	}

	// 生成报告
	reportPath, err := backtest.GenerateReport(result)
	if err != nil {
		logger.Warn("⚠️ 生成报告失败: %v", err)
	} else {
		resp.ReportPath = reportPath
	}

	c.JSON(http.StatusOK, resp)
}

// listRuns 查询历史回测记录
func (s *Server) listRuns(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "存储未启用"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	runs, err := s.store.QueryRuns(limit, offset)
	if err != nil {
		logger.Error("❌ 查询回测记录失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询回测记录失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}

// getRunTrades 查询某次回测的交易明细
func (s *Server) getRunTrades(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "存储未启用"})
		return
	}

	runID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的回测ID"})
		return
	}

	trades, err := s.store.QueryTrades(runID)
	if err != nil {
		logger.Error("❌ 查询交易明细失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询交易明细失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"trades": trades,
		"count":  len(trades),
	})
}
