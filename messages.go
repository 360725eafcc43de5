package llmprovider

import (
	"context"
	"errors"
)

// User-facing failure messages. The pages this library serves are Chinese,
// so the table is too.
const (
	MessageAuthFailed   = "认证失败，请检查API密钥"
	MessageRateLimited  = "请求过于频繁，请稍后再试"
	MessageServerError  = "服务器内部错误，请稍后重试"
	MessageNetworkError = "网络连接失败，请检查您的网络连接"
	MessageNotFound     = "请求的API地址不存在，请检查配置"
	MessageBadResponse  = "服务返回了无法解析的内容，请稍后重试"
	MessageCanceled     = "生成已取消"
	MessageGeneric      = "生成过程中发生错误，请稍后重试"
)

// UserMessage maps an error to the text shown to the student.
// It is a pure lookup and never inspects error strings.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Reason
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return MessageCanceled
	case errors.Is(err, ErrInvalidAPIKey):
		return MessageAuthFailed
	case errors.Is(err, ErrRateLimited):
		return MessageRateLimited
	case errors.Is(err, ErrNotFound):
		return MessageNotFound
	case errors.Is(err, ErrProviderUnavailable):
		return MessageServerError
	case errors.Is(err, ErrNetwork):
		return MessageNetworkError
	case errors.Is(err, ErrDecode):
		return MessageBadResponse
	default:
		return MessageGeneric
	}
}
