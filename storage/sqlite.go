// Package storage 回测结果持久化（SQLite）
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stockmesh/backtest"
	"stockmesh/utils"
)

// SQLiteStorage SQLite 存储实现
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage 创建 SQLite 存储
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	// 使用 WAL 模式提高并发性能
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	// SQLite 并发限制
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("创建表失败: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// createTables 创建表
func createTables(db *sql.DB) error {
	// 回测运行表
	runsSQL := `
	CREATE TABLE IF NOT EXISTS backtest_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT,
		initial_capital DECIMAL(20,8),
		final_value DECIMAL(20,8),
		total_return_pct DECIMAL(20,8),
		total_pnl DECIMAL(20,8),
		win_rate_pct DECIMAL(20,8),
		total_trades INTEGER,
		winning_trades INTEGER,
		max_drawdown DECIMAL(20,8),
		created_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_runs_symbol ON backtest_runs(symbol);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON backtest_runs(created_at);`

	// 成交记录表
	tradesSQL := `
	CREATE TABLE IF NOT EXISTS trade_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER,
		trade_date TEXT,
		action TEXT,
		price DECIMAL(20,8),
		shares DECIMAL(20,8),
		value DECIMAL(20,8),
		pnl DECIMAL(20,8),
		FOREIGN KEY (run_id) REFERENCES backtest_runs(id)
	);
	CREATE INDEX IF NOT EXISTS idx_trades_run_id ON trade_records(run_id);`

	for _, stmt := range []string{runsSQL, tradesSQL} {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveResult 保存一次回测结果，返回运行ID
func (s *SQLiteStorage) SaveResult(result *backtest.Result) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO backtest_runs
		(symbol, initial_capital, final_value, total_return_pct, total_pnl,
		 win_rate_pct, total_trades, winning_trades, max_drawdown, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.Symbol, result.InitialCapital, result.FinalValue, result.TotalReturnPct,
		result.TotalPnL, result.WinRatePct, result.TotalTrades, result.WinningTrades,
		result.Risk.MaxDrawdown, time.Now())
	if err != nil {
		return 0, fmt.Errorf("保存回测运行失败: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("获取运行ID失败: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO trade_records (run_id, trade_date, action, price, shares, value, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("准备成交插入失败: %w", err)
	}
	defer stmt.Close()

	for i := range result.Trades {
		t := &result.Trades[i]
		var pnl interface{}
		if t.PnL != nil {
			pnl = *t.PnL
		}
		if _, err := stmt.Exec(runID, utils.FormatTradeDate(t.Date), string(t.Action),
			t.Price, t.Shares, t.Value, pnl); err != nil {
			return 0, fmt.Errorf("保存成交记录失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("提交事务失败: %w", err)
	}

	return runID, nil
}

// QueryRuns 查询最近的回测运行
func (s *SQLiteStorage) QueryRuns(limit, offset int) ([]*BacktestRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, symbol, initial_capital, final_value, total_return_pct, total_pnl,
		       win_rate_pct, total_trades, winning_trades, max_drawdown, created_at
		FROM backtest_runs
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("查询回测运行失败: %w", err)
	}
	defer rows.Close()

	runs := make([]*BacktestRun, 0)
	for rows.Next() {
		run := &BacktestRun{}
		if err := rows.Scan(&run.ID, &run.Symbol, &run.InitialCapital, &run.FinalValue,
			&run.TotalReturnPct, &run.TotalPnL, &run.WinRatePct, &run.TotalTrades,
			&run.WinningTrades, &run.MaxDrawdown, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("扫描回测运行失败: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// QueryTrades 查询某次回测的全部成交
func (s *SQLiteStorage) QueryTrades(runID int64) ([]*TradeRow, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, trade_date, action, price, shares, value, pnl
		FROM trade_records
		WHERE run_id = ?
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("查询成交记录失败: %w", err)
	}
	defer rows.Close()

	trades := make([]*TradeRow, 0)
	for rows.Next() {
		t := &TradeRow{}
		var dateStr string
		var pnl sql.NullFloat64
		if err := rows.Scan(&t.ID, &t.RunID, &dateStr, &t.Action, &t.Price,
			&t.Shares, &t.Value, &pnl); err != nil {
			return nil, fmt.Errorf("扫描成交记录失败: %w", err)
		}
		if date, err := utils.ParseTradeDate(dateStr); err == nil {
			t.Date = date
		}
		if pnl.Valid {
			v := pnl.Float64
			t.PnL = &v
		}
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// Close 关闭数据库
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
