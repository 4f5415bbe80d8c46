package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/storage"
	"guestbook/backend/internal/storage/memory"
)

func newTestService(t *testing.T) *MessageService {
	t.Helper()
	return NewMessageService(memory.NewStore())
}

func TestMessageServiceCreate(t *testing.T) {
	t.Run("发布纯文本留言", func(t *testing.T) {
		svc := newTestService(t)

		message, err := svc.Create(CreateMessageInput{
			Content: "hello",
			Name:    "alice",
		})
		require.NoError(t, err)
		assert.NotZero(t, message.ID)
		assert.False(t, message.HasImage())
	})

	t.Run("发布带图片的留言", func(t *testing.T) {
		svc := newTestService(t)

		message, err := svc.Create(CreateMessageInput{
			Content:   "look at this",
			Name:      "bob",
			ImageData: []byte{0x89, 0x50, 0x4e, 0x47},
			ImageType: "image/png",
		})
		require.NoError(t, err)
		assert.True(t, message.HasImage())

		image, err := svc.GetImage(message.ID)
		require.NoError(t, err)
		assert.Equal(t, "image/png", image.Type)
		assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, image.Data)
	})

	t.Run("内容为空返回校验错误", func(t *testing.T) {
		svc := newTestService(t)

		_, err := svc.Create(CreateMessageInput{Content: "", Name: "alice"})
		assert.ErrorIs(t, err, domain.ErrEmptyFields)
	})

	t.Run("非图片类型返回校验错误", func(t *testing.T) {
		svc := newTestService(t)

		_, err := svc.Create(CreateMessageInput{
			Content:   "hi",
			Name:      "alice",
			ImageData: []byte("not an image"),
			ImageType: "application/pdf",
		})
		assert.ErrorIs(t, err, domain.ErrNotImage)
	})
}

func TestMessageServiceList(t *testing.T) {
	seed := func(t *testing.T, svc *MessageService, n int) {
		t.Helper()
		for i := 1; i <= n; i++ {
			_, err := svc.Create(CreateMessageInput{
				Content: fmt.Sprintf("message %d", i),
				Name:    "alice",
			})
			require.NoError(t, err)
		}
	}

	t.Run("空留言板", func(t *testing.T) {
		svc := newTestService(t)

		messages, pagination, err := svc.List(1)
		require.NoError(t, err)
		assert.Empty(t, messages)
		assert.Equal(t, int64(0), pagination.Total)
		assert.Equal(t, int64(0), pagination.TotalPages)
	})

	t.Run("按时间倒序分页", func(t *testing.T) {
		svc := newTestService(t)
		seed(t, svc, 25)

		messages, pagination, err := svc.List(1)
		require.NoError(t, err)
		require.Len(t, messages, 10)
		assert.Equal(t, "message 25", messages[0].Content)
		assert.Equal(t, int64(25), pagination.Total)
		assert.Equal(t, int64(3), pagination.TotalPages)
		assert.Equal(t, 10, pagination.Limit)

		messages, _, err = svc.List(3)
		require.NoError(t, err)
		require.Len(t, messages, 5)
		assert.Equal(t, "message 5", messages[0].Content)
		assert.Equal(t, "message 1", messages[4].Content)
	})

	t.Run("页码小于1按第1页处理", func(t *testing.T) {
		svc := newTestService(t)
		seed(t, svc, 3)

		messages, pagination, err := svc.List(0)
		require.NoError(t, err)
		assert.Len(t, messages, 3)
		assert.Equal(t, 1, pagination.Page)

		messages, pagination, err = svc.List(-5)
		require.NoError(t, err)
		assert.Len(t, messages, 3)
		assert.Equal(t, 1, pagination.Page)
	})

	t.Run("超出范围的页返回空列表", func(t *testing.T) {
		svc := newTestService(t)
		seed(t, svc, 3)

		messages, pagination, err := svc.List(99)
		require.NoError(t, err)
		assert.Empty(t, messages)
		assert.Equal(t, 99, pagination.Page)
		assert.Equal(t, int64(3), pagination.Total)
	})

	t.Run("列表不携带图片字节", func(t *testing.T) {
		svc := newTestService(t)
		_, err := svc.Create(CreateMessageInput{
			Content:   "with image",
			Name:      "bob",
			ImageData: []byte("binary"),
			ImageType: "image/jpeg",
		})
		require.NoError(t, err)

		messages, _, err := svc.List(1)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Nil(t, messages[0].ImageData)
		assert.True(t, messages[0].HasImage())
	})
}

func TestMessageServiceGetImage(t *testing.T) {
	t.Run("留言不存在", func(t *testing.T) {
		svc := newTestService(t)

		_, err := svc.GetImage(42)
		assert.ErrorIs(t, err, storage.ErrImageNotFound)
	})

	t.Run("留言没有图片", func(t *testing.T) {
		svc := newTestService(t)
		message, err := svc.Create(CreateMessageInput{Content: "plain", Name: "alice"})
		require.NoError(t, err)

		_, err = svc.GetImage(message.ID)
		assert.ErrorIs(t, err, storage.ErrImageNotFound)
	})
}

func TestMessageServiceDelete(t *testing.T) {
	t.Run("删除存在的留言", func(t *testing.T) {
		svc := newTestService(t)
		message, err := svc.Create(CreateMessageInput{Content: "bye", Name: "alice"})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(message.ID))

		_, pagination, err := svc.List(1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), pagination.Total)
	})

	t.Run("删除不存在的留言不报错", func(t *testing.T) {
		svc := newTestService(t)

		assert.NoError(t, svc.Delete(999))
	})

	t.Run("存储层软失败返回专用错误", func(t *testing.T) {
		svc := NewMessageService(&stubDeleteRepo{result: storage.ExecResult{Success: false}})

		err := svc.Delete(1)
		assert.ErrorIs(t, err, ErrDeleteNotAcknowledged)
	})

	t.Run("存储层抛出的错误原样透传", func(t *testing.T) {
		boom := errors.New("connection refused")
		svc := NewMessageService(&stubDeleteRepo{err: boom})

		err := svc.Delete(1)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrDeleteNotAcknowledged)
	})
}

// stubDeleteRepo 只关心 DeleteMessage 的返回值，其余方法不会被调用。
type stubDeleteRepo struct {
	storage.MessageRepository
	result storage.ExecResult
	err    error
}

func (r *stubDeleteRepo) DeleteMessage(int64) (storage.ExecResult, error) {
	return r.result, r.err
}
