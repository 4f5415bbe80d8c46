package service

import (
	"errors"
	"fmt"
	"math"

	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/storage"
)

// PageSize 留言列表每页固定条数
const PageSize = 10

// ErrDeleteNotAcknowledged 存储层执行了删除但未确认成功（软失败）。
//
// 与存储层抛出的错误不同，调用方对两者走不同的失败路径。
var ErrDeleteNotAcknowledged = errors.New("delete not acknowledged")

// Pagination 描述分页查询结果的元信息。
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// MessageService 封装留言板业务逻辑。
type MessageService struct {
	repo storage.MessageRepository
}

// NewMessageService 创建留言业务服务。
func NewMessageService(repo storage.MessageRepository) *MessageService {
	return &MessageService{repo: repo}
}

// CreateMessageInput 定义发布留言的输入。
type CreateMessageInput struct {
	Content   string
	Name      string
	ImageData []byte // 图片字节，nil 表示没有附带图片
	ImageType string // 图片 MIME 类型
}

// Create 发布一条新留言。
//
// 校验失败返回域层的哨兵错误，调用方据此区分客户端错误和服务端错误。
func (s *MessageService) Create(input CreateMessageInput) (*domain.Message, error) {
	check := domain.NewMessageInput{
		Content:   input.Content,
		Name:      input.Name,
		HasImage:  len(input.ImageData) > 0,
		ImageSize: int64(len(input.ImageData)),
		ImageType: input.ImageType,
	}
	if err := check.Validate(); err != nil {
		return nil, err
	}

	message := &domain.Message{
		Content: input.Content,
		Name:    input.Name,
	}
	if len(input.ImageData) > 0 && input.ImageType != "" {
		message.ImageData = input.ImageData
		imageType := input.ImageType
		message.ImageType = &imageType
	}

	// 入库前的最后一道不变量检查
	if err := domain.ValidateMessage(message); err != nil {
		return nil, err
	}

	result, err := s.repo.InsertMessage(message)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("insert not acknowledged")
	}

	return message, nil
}

// List 按时间倒序返回指定页的留言。
//
// page 小于 1 时按第 1 页处理。返回的留言不包含图片字节。
// 总数和页数据来自两次独立查询，并发写入时可能出现轻微偏差。
func (s *MessageService) List(page int) ([]domain.Message, *Pagination, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * PageSize

	messages, err := s.repo.ListMessages(PageSize, offset)
	if err != nil {
		return nil, nil, err
	}

	total, err := s.repo.CountMessages()
	if err != nil {
		return nil, nil, err
	}

	pagination := &Pagination{
		Page:       page,
		Limit:      PageSize,
		Total:      total,
		TotalPages: int64(math.Ceil(float64(total) / float64(PageSize))),
	}

	return messages, pagination, nil
}

// GetImage 获取留言附带的图片。
//
// 留言不存在或没有图片时返回 storage.ErrImageNotFound。
func (s *MessageService) GetImage(id int64) (*domain.Image, error) {
	return s.repo.GetImage(id)
}

// Delete 删除指定留言。
//
// 留言不存在视为删除成功（幂等语义）。存储层上报的软失败返回
// ErrDeleteNotAcknowledged，存储层抛出的错误原样透传。
func (s *MessageService) Delete(id int64) error {
	result, err := s.repo.DeleteMessage(id)
	if err != nil {
		return err
	}
	if !result.Success {
		return ErrDeleteNotAcknowledged
	}

	return nil
}
