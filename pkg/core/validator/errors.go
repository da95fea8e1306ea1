package validator

import (
	"errors"
	"fmt"
	"strings"
)

// 校验失败的摘要信息，每类错误对应一个摘要
const (
	SummarySchema    = "tree schema is invalid"
	SummaryReference = "tree has invalid prerequisites"
	SummaryDuplicate = "tree has duplicate node ids"
)

// ValidationError 结构化校验错误（对外导出）
// 要么整棵树通过校验，要么整棵树不可用，不存在部分生效
type ValidationError struct {
	Summary string   `json:"summary"`
	Details []string `json:"details"`
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Summary
	}
	return fmt.Sprintf("%s: %s", e.Summary, strings.Join(e.Details, "; "))
}

// AsValidationError 从错误链中提取ValidationError
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func newError(summary string, details []string) *ValidationError {
	return &ValidationError{Summary: summary, Details: details}
}
