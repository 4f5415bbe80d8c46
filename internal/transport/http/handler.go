package httptransport

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/service"
	"guestbook/backend/internal/storage"
)

// Handler 聚合所有 HTTP 处理逻辑。
type Handler struct {
	messages *service.MessageService
}

// NewHandler 创建 HTTP 处理器。
func NewHandler(messages *service.MessageService) *Handler {
	return &Handler{messages: messages}
}

// ListMessages 获取分页留言列表。
//
// GET /api/messages?page=N
func (h *Handler) ListMessages(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			page = parsed
		}
	}

	messages, pagination, err := h.messages.List(page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	views := make([]MessageView, 0, len(messages))
	for i := range messages {
		views = append(views, NewMessageView(&messages[i]))
	}

	c.JSON(http.StatusOK, ListResponse{
		Messages:   views,
		Pagination: pagination,
	})
}

// CreateMessage 发布一条留言。
//
// POST /api/messages，multipart/form-data，
// 字段: content, name, image（可选文件）
func (h *Handler) CreateMessage(c *gin.Context) {
	content := c.PostForm("content")
	name := c.PostForm("name")

	file, err := c.FormFile("image")
	hasImage := err == nil && file != nil

	input := domain.NewMessageInput{
		Content: content,
		Name:    name,
	}
	if hasImage {
		input.HasImage = true
		input.ImageSize = file.Size
		input.ImageType = file.Header.Get("Content-Type")
	}

	// 校验通过之前不读取图片内容
	if err := input.Validate(); err != nil {
		BadRequest(c, GetErrorMessage(err))
		return
	}

	var imageData []byte
	if hasImage {
		src, err := file.Open()
		if err != nil {
			_ = c.Error(err)
			return
		}
		defer src.Close()

		imageData, err = io.ReadAll(src)
		if err != nil {
			_ = c.Error(err)
			return
		}
	}

	_, err = h.messages.Create(service.CreateMessageInput{
		Content:   content,
		Name:      name,
		ImageData: imageData,
		ImageType: input.ImageType,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	if hasImage {
		c.Set("image_size", input.ImageSize)
	}

	OK(c, MsgMessageSent)
}

// GetImage 获取留言附带的图片。
//
// GET /api/images/:id
func (h *Handler) GetImage(c *gin.Context) {
	id, parseErr := strconv.ParseInt(c.Param("id"), 10, 64)
	if parseErr != nil {
		c.String(http.StatusNotFound, MsgImageNotFound)
		return
	}

	image, err := h.messages.GetImage(id)
	if errors.Is(err, storage.ErrImageNotFound) {
		c.String(http.StatusNotFound, MsgImageNotFound)
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, image.Type, image.Data)
}

// DeleteMessage 删除一条留言。
//
// DELETE /api/messages/:id，删除不存在的留言同样返回成功。
func (h *Handler) DeleteMessage(c *gin.Context) {
	// 非法 ID 当作不存在的留言处理
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	err := h.messages.Delete(id)
	if errors.Is(err, service.ErrDeleteNotAcknowledged) {
		// 存储层软失败走专用响应，抛出的错误走全局错误处理
		ServerError(c, MsgDeleteFailed)
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	OK(c, MsgMessageDeleted)
}
