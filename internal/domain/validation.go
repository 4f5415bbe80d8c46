package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// 验证相关的错误定义
var (
	ErrEmptyFields     = errors.New("content and name must not be empty")
	ErrContentTooLong  = errors.New("content must not exceed 1000 characters")
	ErrImageTooLarge   = errors.New("image must not exceed 5MB")
	ErrNotImage        = errors.New("only image files are allowed")
	ErrImageMismatched = errors.New("image data and image type must be set together")
)

// 验证常量
const (
	// 留言内容长度上限（按字符数，不是字节数）
	MaxContentChars = 1000

	// 图片大小上限 5MiB
	MaxImageBytes = 5 * 1024 * 1024

	// 图片 MIME 类型前缀
	ImageTypePrefix = "image/"
)

// NewMessageInput 创建留言的原始输入。
//
// ImageSize 和 ImageType 来自 multipart 头部声明，
// 校验在读取图片字节之前完成。
type NewMessageInput struct {
	Content   string
	Name      string
	HasImage  bool
	ImageSize int64
	ImageType string
}

// Validate 按固定顺序校验输入，遇到第一个错误立即返回。
//
// 顺序：必填字段 → 内容长度 → 图片大小 → 图片类型。
func (in NewMessageInput) Validate() error {
	if in.Content == "" || in.Name == "" {
		return ErrEmptyFields
	}
	if utf8.RuneCountInString(in.Content) > MaxContentChars {
		return ErrContentTooLong
	}
	if in.HasImage {
		if in.ImageSize > MaxImageBytes {
			return ErrImageTooLarge
		}
		if !strings.HasPrefix(in.ImageType, ImageTypePrefix) {
			return ErrNotImage
		}
	}
	return nil
}

// ValidateMessage 校验一条即将入库的留言实体。
//
// 入库前的最后一道防线，保证 image_data/image_type 的同生同灭不变量。
func ValidateMessage(m *Message) error {
	if err := (NewMessageInput{
		Content:   m.Content,
		Name:      m.Name,
		HasImage:  len(m.ImageData) > 0,
		ImageSize: int64(len(m.ImageData)),
		ImageType: imageTypeOrEmpty(m),
	}).Validate(); err != nil {
		return err
	}

	hasData := len(m.ImageData) > 0
	hasType := m.ImageType != nil && *m.ImageType != ""
	if hasData != hasType {
		return ErrImageMismatched
	}
	return nil
}

func imageTypeOrEmpty(m *Message) string {
	if m.ImageType == nil {
		return ""
	}
	return *m.ImageType
}
