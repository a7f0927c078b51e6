package core

import (
	"errors"
	"fmt"
	"strings"

	"dns01-hook/internal/poll"
)

var (
	// ErrDeadlineExceeded 发布任务或DNS传播等待超时
	ErrDeadlineExceeded = poll.ErrDeadlineExceeded

	// ErrReloadFailed 提供商报告发布任务失败
	ErrReloadFailed = errors.New("Zone发布任务失败")

	// ErrAmbiguousMatch 多条记录同时匹配名称和值
	ErrAmbiguousMatch = errors.New("匹配到多条DNS记录")

	// ErrUnknownOperation 不支持的操作
	ErrUnknownOperation = errors.New("不支持的操作")
)

// AmbiguousMatchError 多条记录匹配同一 (名称, 值)
type AmbiguousMatchError struct {
	ZoneID    string
	Name      string
	RecordIDs []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%s: zone=%s name=%s ids=[%s]",
		ErrAmbiguousMatch, e.ZoneID, e.Name, strings.Join(e.RecordIDs, ","))
}

func (e *AmbiguousMatchError) Unwrap() error {
	return ErrAmbiguousMatch
}
