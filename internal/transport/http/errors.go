package httptransport

import (
	"guestbook/backend/internal/domain"
)

// 错误消息映射表（业务错误 -> 客户端消息）
var errorMessages = map[error]string{
	domain.ErrEmptyFields:    "content and name must not be empty",
	domain.ErrContentTooLong: "content must not exceed 1000 characters",
	domain.ErrImageTooLarge:  "image must not exceed 5MB",
	domain.ErrNotImage:       "only image files are allowed",
}

// GetErrorMessage 获取错误的客户端消息
func GetErrorMessage(err error) string {
	if msg, ok := errorMessages[err]; ok {
		return msg
	}
	return err.Error()
}

// 通用消息
const (
	// 留言相关
	MsgMessageSent    = "message sent"
	MsgMessageDeleted = "message deleted"
	MsgDeleteFailed   = "delete failed"

	// 资源相关
	MsgImageNotFound = "Image not found"
	MsgRouteNotFound = "Not Found"
)
