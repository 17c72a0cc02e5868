package util

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrPermissionDenied = errors.New("permission denied")
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrTeamNotFound     = errors.New("team not found")
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
)

// ValidationError 请求数据不合法，调用方修正输入后可重试
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var t *ValidationError
	return errors.As(err, &t)
}

// NotEligibleError 当前状态下不允许的业务操作（未报名、窗口关闭、
// 依赖未满足、重复待审提交等），不应自动重试
type NotEligibleError struct {
	Msg string
}

func (e *NotEligibleError) Error() string { return e.Msg }

func NotEligiblef(format string, args ...interface{}) error {
	return &NotEligibleError{Msg: fmt.Sprintf(format, args...)}
}

func IsNotEligible(err error) bool {
	var t *NotEligibleError
	return errors.As(err, &t)
}

// ConflictError 与既有状态冲突（复审已落定的提交、重复报名），
// 显式拒绝而非静默忽略，避免掩盖操作失误
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func Conflictf(format string, args ...interface{}) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

func IsConflict(err error) bool {
	var t *ConflictError
	return errors.As(err, &t)
}
