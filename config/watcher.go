package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"stockmesh/logger"
)

// ConfigWatcher 配置文件监控器
// watch 模式下监听配置文件变化，解析成功后通过 updateChan 通知调用方重跑
type ConfigWatcher struct {
	configPath  string
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	isWatching  bool
	lastReload  time.Time
	updateChan  chan *Config
}

// NewConfigWatcher 创建配置监控器
func NewConfigWatcher(configPath string) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监控器失败: %v", err)
	}

	return &ConfigWatcher{
		configPath: configPath,
		watcher:    watcher,
		updateChan: make(chan *Config, 1),
	}, nil
}

// Updates 返回配置更新通道
func (cw *ConfigWatcher) Updates() <-chan *Config {
	return cw.updateChan
}

// Start 开始监控配置文件
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	cw.mu.Lock()
	if cw.isWatching {
		cw.mu.Unlock()
		return fmt.Errorf("配置监控器已经在运行")
	}

	// 监控配置文件所在目录（编辑器的原子保存会替换文件本身）
	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		cw.mu.Unlock()
		return fmt.Errorf("添加监控目录失败: %v", err)
	}
	cw.isWatching = true
	cw.mu.Unlock()

	logger.Info("👀 开始监控配置文件: %s", cw.configPath)

	go cw.watchLoop(ctx)
	return nil
}

// watchLoop 监控循环
func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	defer cw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			logger.Info("⏹️ 配置监控器已停止")
			return

		case evt, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != filepath.Clean(cw.configPath) {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
				continue
			}

			// 编辑器保存会触发多个事件，做简单去抖
			cw.mu.Lock()
			if time.Since(cw.lastReload) < time.Second {
				cw.mu.Unlock()
				continue
			}
			cw.lastReload = time.Now()
			cw.mu.Unlock()

			cfg, err := LoadConfig(cw.configPath)
			if err != nil {
				logger.Error("❌ 配置热加载失败: %v", err)
				continue
			}

			logger.Info("🔄 配置已更新: %s", cw.configPath)
			select {
			case cw.updateChan <- cfg:
			default:
				// 上一次更新还未被消费，替换为最新配置
				select {
				case <-cw.updateChan:
				default:
				}
				cw.updateChan <- cfg
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("❌ 文件监控错误: %v", err)
		}
	}
}
