// 包 resolver：按数据域的“先缓存、后上游、回写”级联，以及邮编地址的负向检查闸门
package resolver

import (
	"context"
	"errors"
)

// 上游失败的分类；仅在包内与提供方之间传递，对外边界统一折叠为“无结果”
var (
	ErrUnavailable = errors.New("upstream unavailable")
	ErrMalformed   = errors.New("malformed upstream payload")
	ErrEmpty       = errors.New("empty upstream result")
)

// Kind：错误分类标签（日志与指标用）
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrEmpty):
		return "empty"
	default:
		return "other"
	}
}
