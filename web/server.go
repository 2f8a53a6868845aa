package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stockmesh/backtest"
	"stockmesh/config"
	"stockmesh/logger"
	"stockmesh/storage"
)

// Server Web服务器
type Server struct {
	server *http.Server
	cfg    *config.Config
	store  *storage.SQLiteStorage
	source backtest.DataSource
}

// NewServer 创建Web服务器
// store 可为 nil（未启用存储时历史查询接口返回 503）
func NewServer(cfg *config.Config, store *storage.SQLiteStorage, source backtest.DataSource) *Server {
	if !cfg.Web.Enabled {
		return nil
	}

	// 设置Gin模式
	if cfg.System.LogLevel == "DEBUG" || cfg.System.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:    cfg,
		store:  store,
		source: source,
	}

	r := gin.Default()
	s.setupRoutes(r)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // 回测接口同步执行，放宽写超时
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(r *gin.Engine) {
	// Prometheus metrics 端点（供 Prometheus 抓取）
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// pprof 性能分析端点
	pprofGroup := r.Group("/debug/pprof")
	{
		pprofGroup.GET("/", gin.WrapF(pprof.Index))
		pprofGroup.GET("/profile", gin.WrapF(pprof.Profile))
		pprofGroup.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofGroup.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	}

	// API 路由
	api := r.Group("/api")
	{
		api.GET("/health", s.getHealth)
		api.POST("/backtest", s.runBacktest)
		api.GET("/runs", s.listRuns)
		api.GET("/runs/:id/trades", s.getRunTrades)
	}
}

// getHealth 健康检查
func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Start 启动Web服务器
func (s *Server) Start(ctx context.Context) {
	if s == nil {
		return
	}

	go func() {
		logger.Info("🌐 Web服务器启动在 http://localhost:%d", s.cfg.Web.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("❌ Web服务器启动失败: %v", err)
		}
	}()

	// 等待context取消
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logger.Error("❌ Web服务器关闭失败: %v", err)
		} else {
			logger.Info("✅ Web服务器已关闭")
		}
	}()
}
