package market

import (
	"fmt"
	"math"
)

// ValidationError 输入校验错误
// 携带出错的行号和字段，行号为 -1 表示与具体行无关的参数错误
type ValidationError struct {
	Row    int
	Field  string
	Reason string
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("输入校验失败: 字段 %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("输入校验失败: 第 %d 行字段 %s %s", e.Row, e.Field, e.Reason)
}

// NewValidationError 创建输入校验错误
func NewValidationError(row int, field, reason string) *ValidationError {
	return &ValidationError{Row: row, Field: field, Reason: reason}
}

// Validate 校验指标表
// 要求日期严格递增且唯一、收盘价为正且有限
// 指标单元允许为 NaN（预热期），由信号分类器按 HOLD 处理
func Validate(bars []DailyBar) error {
	for i := range bars {
		if bars[i].Date.IsZero() {
			return NewValidationError(i, "date", "缺失")
		}
		if i > 0 && !bars[i].Date.After(bars[i-1].Date) {
			return NewValidationError(i, "date", "必须严格递增且唯一")
		}
		if math.IsNaN(bars[i].Close) || math.IsInf(bars[i].Close, 0) {
			return NewValidationError(i, "close", "必须为有限数值")
		}
		if bars[i].Close <= 0 {
			return NewValidationError(i, "close", "必须大于0")
		}
	}
	return nil
}
