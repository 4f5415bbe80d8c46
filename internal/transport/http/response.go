package httptransport

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/service"
)

// MessageView 留言的列表视图（不含图片字节）
type MessageView struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	ImageURL  *string   `json:"imageUrl"`
}

// ListResponse 分页留言列表响应
type ListResponse struct {
	Messages   []MessageView       `json:"messages"`
	Pagination *service.Pagination `json:"pagination"`
}

// NewMessageView 将留言实体转换为列表视图
func NewMessageView(m *domain.Message) MessageView {
	view := MessageView{
		ID:        m.ID,
		Content:   m.Content,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
	if m.HasImage() {
		url := fmt.Sprintf("/api/images/%d", m.ID)
		view.ImageURL = &url
	}
	return view
}

// OK 操作成功响应（200）
func OK(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": msg,
	})
}

// BadRequest 请求参数错误（400）
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": msg,
	})
}

// ServerError 服务器内部错误（500）
func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": msg,
	})
}
