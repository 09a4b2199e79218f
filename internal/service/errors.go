package service

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = fmt.Errorf("会话不存在")
	ErrEmptyMessage    = fmt.Errorf("消息内容不能为空")
	ErrNilSession      = fmt.Errorf("会话为空")
)

// ValidationError 调用方输入不合法，宿主应提示用户重新输入
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数校验失败 %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError 判断是否为输入校验错误
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
