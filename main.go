package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stockmesh/backtest"
	"stockmesh/config"
	"stockmesh/event"
	"stockmesh/logger"
	"stockmesh/market"
	"stockmesh/storage"
	"stockmesh/utils"
	"stockmesh/web"
)

// Version 版本号
var Version = "1.2.0"

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	mode := flag.String("mode", "run", "运行模式: run(批量回测) / serve(Web服务) / watch(配置热重载)")
	symbolsFlag := flag.String("symbols", "", "标的列表（逗号分隔），覆盖配置文件")
	showVersion := flag.Bool("version", false, "显示版本号")
	flag.Parse()

	if *showVersion {
		fmt.Printf("StockMesh Strategy Backtester\n")
		fmt.Printf("Version: %s\n", Version)
		os.Exit(0)
	}

	// 加载配置（不存在时用默认配置并写出模板）
	var cfg *config.Config
	if _, statErr := os.Stat(*configPath); os.IsNotExist(statErr) {
		logger.Warn("⚠️ 配置文件 %s 不存在，使用默认配置", *configPath)
		cfg = config.DefaultConfig()
		if saveErr := config.SaveConfig(cfg, *configPath); saveErr == nil {
			logger.Info("📝 已生成默认配置模板: %s", *configPath)
		}
	} else {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
			os.Exit(1)
		}
	}

	// 命令行标的覆盖配置
	if *symbolsFlag != "" {
		symbols := make([]string, 0)
		for _, s := range strings.Split(*symbolsFlag, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, strings.ToUpper(s))
			}
		}
		cfg.Backtest.Symbols = symbols
	}

	// 初始化日志和时区
	logger.SetLevel(logger.ParseLogLevel(cfg.System.LogLevel))
	defer logger.Close()
	if err := utils.SetLocation(cfg.System.Timezone); err != nil {
		logger.Warn("⚠️ 设置时区失败: %v，使用默认时区", err)
	}
	logger.SetLocation(utils.ToConfiguredTimezone(time.Now()).Location())

	logger.Info("🚀 StockMesh v%s 启动，模式: %s", Version, *mode)

	// 退出信号处理
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("🛑 收到退出信号，开始优雅关闭...")
		cancel()
	}()

	// 初始化存储
	var store *storage.SQLiteStorage
	if cfg.Storage.Enabled {
		s, err := storage.NewSQLiteStorage(cfg.Storage.Path)
		if err != nil {
			logger.Fatal("❌ 初始化存储失败: %v", err)
		}
		store = s
		defer store.Close()
		logger.Info("💾 结果存储已启用: %s", cfg.Storage.Path)
	}

	// 初始化数据源：配置了本地CSV目录时优先本地
	var source backtest.DataSource
	if cfg.Data.CSVDir != "" {
		source = market.NewCSVSource(cfg.Data.CSVDir)
		logger.Info("📂 使用本地CSV数据源: %s", cfg.Data.CSVDir)
	} else {
		source = market.NewFetcher(cfg.Data.APIKey, cfg.Data.SecretKey)
		logger.Info("🌍 使用 Binance 日线数据源")
	}

	// 事件总线
	eventBus := event.NewEventBus(256)
	eventBus.Subscribe(&event.LogSink{})
	eventBus.Start(ctx)
	defer eventBus.Close()

	switch *mode {
	case "run":
		runOnce(ctx, cfg, source, store, eventBus)
	case "serve":
		runServe(ctx, cfg, source, store)
	case "watch":
		runWatch(ctx, *configPath, cfg, source, store, eventBus)
	default:
		fmt.Fprintf(os.Stderr, "未知模式: %s（支持 run / serve / watch）\n", *mode)
		os.Exit(1)
	}
}

// runOnce 执行一轮批量回测
func runOnce(ctx context.Context, cfg *config.Config, source backtest.DataSource,
	store *storage.SQLiteStorage, bus *event.EventBus) {

	runner := backtest.NewRunner(source, backtest.RunnerOptions{
		Symbols:        cfg.Backtest.Symbols,
		Days:           cfg.Backtest.Days,
		InitialCapital: cfg.Backtest.InitialCapital,
		Strategy:       cfg.Strategy,
		Workers:        cfg.Backtest.Workers,
		Sink:           bus,
	})

	basket := runner.Run(ctx)

	for i := range basket.Results {
		result := basket.Results[i].Result
		if result == nil {
			continue
		}

		if store != nil {
			if runID, err := store.SaveResult(result); err != nil {
				logger.Warn("⚠️ 保存 %s 回测结果失败: %v", result.Symbol, err)
			} else {
				logger.Debug("💾 %s 结果已保存, run_id=%d", result.Symbol, runID)
			}
		}

		if reportPath, err := backtest.GenerateReport(result); err != nil {
			logger.Warn("⚠️ 生成 %s 报告失败: %v", result.Symbol, err)
		} else {
			logger.Info("📄 %s 报告已生成: %s", result.Symbol, reportPath)
		}

		if csvPath, err := backtest.SavePortfolioCurveCSV(result); err != nil {
			logger.Warn("⚠️ 保存 %s 净值曲线失败: %v", result.Symbol, err)
		} else {
			logger.Debug("📈 %s 净值曲线已保存: %s", result.Symbol, csvPath)
		}
	}
}

// runServe 启动Web服务并阻塞到退出信号
func runServe(ctx context.Context, cfg *config.Config, source backtest.DataSource, store *storage.SQLiteStorage) {
	// serve 模式隐含启用Web
	cfg.Web.Enabled = true
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 28890
	}

	server := web.NewServer(cfg, store, source)
	server.Start(ctx)

	logger.Info("✅ 系统初始化完成，程序正在运行中...")
	logger.Info("💡 按 Ctrl+C 退出程序")
	<-ctx.Done()

	// 给Web服务器留出优雅关闭的时间
	time.Sleep(500 * time.Millisecond)
}

// runWatch 监听配置文件变更，每次变更后重新执行批量回测
func runWatch(ctx context.Context, configPath string, cfg *config.Config,
	source backtest.DataSource, store *storage.SQLiteStorage, bus *event.EventBus) {

	watcher, err := config.NewConfigWatcher(configPath)
	if err != nil {
		logger.Fatal("❌ 创建配置监听器失败: %v", err)
	}
	if err := watcher.Start(ctx); err != nil {
		logger.Fatal("❌ 启动配置监听器失败: %v", err)
	}

	// 先用当前配置跑一轮
	runOnce(ctx, cfg, source, store, bus)
	logger.Info("👀 监听配置文件变更: %s", configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-watcher.Updates():
			if !ok {
				return
			}
			logger.Info("🔄 配置已更新，重新执行批量回测")
			runOnce(ctx, newCfg, source, store, bus)
		}
	}
}
