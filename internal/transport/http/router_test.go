package httptransport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/service"
	"guestbook/backend/internal/storage"
	"guestbook/backend/internal/storage/memory"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return newStubRouter(t, memory.NewStore())
}

func newStubRouter(t *testing.T, repo storage.MessageRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	return NewRouter(RouterDependencies{
		MessageService: service.NewMessageService(repo),
		Logger:         zap.NewNop(),
	})
}

// faultyRepo 在内存存储之上注入可控的存储层失败。
type faultyRepo struct {
	*memory.Store
	deleteFn func(id int64) (storage.ExecResult, error)
	imageFn  func(id int64) (*domain.Image, error)
}

func (r *faultyRepo) DeleteMessage(id int64) (storage.ExecResult, error) {
	if r.deleteFn != nil {
		return r.deleteFn(id)
	}
	return r.Store.DeleteMessage(id)
}

func (r *faultyRepo) GetImage(id int64) (*domain.Image, error) {
	if r.imageFn != nil {
		return r.imageFn(id)
	}
	return r.Store.GetImage(id)
}

// multipartBody 构造 multipart 表单请求体，imageData 为 nil 时不携带文件。
func multipartBody(t *testing.T, fields map[string]string, imageType string, imageData []byte) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}

	if imageData != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="image"; filename="upload.bin"`)
		header.Set("Content-Type", imageType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(imageData)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func postMessage(t *testing.T, router *gin.Engine, fields map[string]string, imageType string, imageData []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, fields, imageType, imageData)
	req := httptest.NewRequest(http.MethodPost, "/api/messages", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func assertCORSHeaders(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func assertNoCORSHeaders(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCreateMessage(t *testing.T) {
	t.Run("发布纯文本留言", func(t *testing.T) {
		router := newTestRouter(t)

		rec := postMessage(t, router, map[string]string{"content": "hello", "name": "alice"}, "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		payload := decodeJSON(t, rec)
		assert.Equal(t, true, payload["success"])
		assert.Equal(t, "message sent", payload["message"])
		assertCORSHeaders(t, rec)
	})

	t.Run("内容为空", func(t *testing.T) {
		router := newTestRouter(t)

		rec := postMessage(t, router, map[string]string{"content": "", "name": "alice"}, "", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		payload := decodeJSON(t, rec)
		assert.Equal(t, "content and name must not be empty", payload["error"])
	})

	t.Run("昵称为空", func(t *testing.T) {
		router := newTestRouter(t)

		rec := postMessage(t, router, map[string]string{"content": "hi", "name": ""}, "", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		payload := decodeJSON(t, rec)
		assert.Equal(t, "content and name must not be empty", payload["error"])
	})

	t.Run("内容超长", func(t *testing.T) {
		router := newTestRouter(t)

		long := strings.Repeat("a", domain.MaxContentChars+1)
		rec := postMessage(t, router, map[string]string{"content": long, "name": "alice"}, "", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		payload := decodeJSON(t, rec)
		assert.Equal(t, "content must not exceed 1000 characters", payload["error"])
	})

	t.Run("按字符数而非字节数计长", func(t *testing.T) {
		router := newTestRouter(t)

		// 1000 个多字节字符，字节数远超 1000
		content := strings.Repeat("汉", domain.MaxContentChars)
		rec := postMessage(t, router, map[string]string{"content": content, "name": "alice"}, "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("非图片附件", func(t *testing.T) {
		router := newTestRouter(t)

		rec := postMessage(t, router, map[string]string{"content": "hi", "name": "alice"},
			"application/pdf", []byte("%PDF-1.4"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		payload := decodeJSON(t, rec)
		assert.Equal(t, "only image files are allowed", payload["error"])
	})

	t.Run("图片超出大小限制", func(t *testing.T) {
		router := newTestRouter(t)

		oversized := bytes.Repeat([]byte{0xff}, domain.MaxImageBytes+1)
		rec := postMessage(t, router, map[string]string{"content": "hi", "name": "alice"},
			"image/jpeg", oversized)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		payload := decodeJSON(t, rec)
		assert.Equal(t, "image must not exceed 5MB", payload["error"])
	})

	t.Run("图片恰好5MB通过", func(t *testing.T) {
		router := newTestRouter(t)

		exact := bytes.Repeat([]byte{0xff}, domain.MaxImageBytes)
		rec := postMessage(t, router, map[string]string{"content": "big", "name": "alice"},
			"image/jpeg", exact)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("远超上限的图片仍走业务校验", func(t *testing.T) {
		router := newTestRouter(t)

		huge := bytes.Repeat([]byte{0xff}, 7*1024*1024)
		rec := postMessage(t, router, map[string]string{"content": "huge", "name": "alice"},
			"image/jpeg", huge)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		payload := decodeJSON(t, rec)
		assert.Equal(t, "image must not exceed 5MB", payload["error"])
	})

	t.Run("非multipart请求体", func(t *testing.T) {
		router := newTestRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/api/messages",
			strings.NewReader(`{"content":"hi","name":"alice"}`))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		// 表单字段解析不到，按字段缺失处理
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListMessages(t *testing.T) {
	listPage := func(t *testing.T, router *gin.Engine, query string) (*httptest.ResponseRecorder, map[string]interface{}) {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/api/messages"+query, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		return rec, decodeJSON(t, rec)
	}

	t.Run("空留言板", func(t *testing.T) {
		router := newTestRouter(t)

		rec, payload := listPage(t, router, "")
		assertCORSHeaders(t, rec)

		messages := payload["messages"].([]interface{})
		assert.Empty(t, messages)

		pagination := payload["pagination"].(map[string]interface{})
		assert.Equal(t, float64(1), pagination["page"])
		assert.Equal(t, float64(10), pagination["limit"])
		assert.Equal(t, float64(0), pagination["total"])
		assert.Equal(t, float64(0), pagination["totalPages"])
	})

	t.Run("倒序分页", func(t *testing.T) {
		router := newTestRouter(t)
		for i := 1; i <= 12; i++ {
			rec := postMessage(t, router, map[string]string{
				"content": fmt.Sprintf("message %d", i),
				"name":    "alice",
			}, "", nil)
			require.Equal(t, http.StatusOK, rec.Code)
		}

		_, payload := listPage(t, router, "?page=1")
		messages := payload["messages"].([]interface{})
		require.Len(t, messages, 10)
		first := messages[0].(map[string]interface{})
		assert.Equal(t, "message 12", first["content"])
		assert.Equal(t, "alice", first["name"])
		assert.Nil(t, first["imageUrl"])

		pagination := payload["pagination"].(map[string]interface{})
		assert.Equal(t, float64(12), pagination["total"])
		assert.Equal(t, float64(2), pagination["totalPages"])

		_, payload = listPage(t, router, "?page=2")
		messages = payload["messages"].([]interface{})
		require.Len(t, messages, 2)
		last := messages[1].(map[string]interface{})
		assert.Equal(t, "message 1", last["content"])
	})

	t.Run("非法页码按第1页处理", func(t *testing.T) {
		router := newTestRouter(t)
		rec := postMessage(t, router, map[string]string{"content": "hi", "name": "alice"}, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		for _, query := range []string{"?page=abc", "?page=0", "?page=-3", ""} {
			_, payload := listPage(t, router, query)
			pagination := payload["pagination"].(map[string]interface{})
			assert.Equal(t, float64(1), pagination["page"], "query %q", query)
			assert.Len(t, payload["messages"].([]interface{}), 1)
		}
	})

	t.Run("带图片的留言包含imageUrl", func(t *testing.T) {
		router := newTestRouter(t)
		rec := postMessage(t, router, map[string]string{"content": "pic", "name": "bob"},
			"image/png", []byte{0x89, 0x50, 0x4e, 0x47})
		require.Equal(t, http.StatusOK, rec.Code)

		_, payload := listPage(t, router, "")
		messages := payload["messages"].([]interface{})
		require.Len(t, messages, 1)

		item := messages[0].(map[string]interface{})
		id := int64(item["id"].(float64))
		assert.Equal(t, fmt.Sprintf("/api/images/%d", id), item["imageUrl"])
	})
}

func TestGetImage(t *testing.T) {
	t.Run("图片往返一致", func(t *testing.T) {
		router := newTestRouter(t)
		imageData := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
		rec := postMessage(t, router, map[string]string{"content": "pic", "name": "bob"},
			"image/png", imageData)
		require.Equal(t, http.StatusOK, rec.Code)

		req := httptest.NewRequest(http.MethodGet, "/api/images/1", nil)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
		assert.Equal(t, imageData, rec.Body.Bytes())
		assertNoCORSHeaders(t, rec)
	})

	t.Run("留言不存在", func(t *testing.T) {
		router := newTestRouter(t)

		req := httptest.NewRequest(http.MethodGet, "/api/images/42", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Image not found", rec.Body.String())
		assertNoCORSHeaders(t, rec)
	})

	t.Run("留言没有图片", func(t *testing.T) {
		router := newTestRouter(t)
		rec := postMessage(t, router, map[string]string{"content": "plain", "name": "alice"}, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		req := httptest.NewRequest(http.MethodGet, "/api/images/1", nil)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Image not found", rec.Body.String())
	})

	t.Run("非数字ID", func(t *testing.T) {
		router := newTestRouter(t)

		req := httptest.NewRequest(http.MethodGet, "/api/images/abc", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Image not found", rec.Body.String())
	})

	t.Run("存储层错误返回带CORS头的500", func(t *testing.T) {
		repo := &faultyRepo{Store: memory.NewStore(), imageFn: func(int64) (*domain.Image, error) {
			return nil, errors.New("connection refused")
		}}
		router := newStubRouter(t, repo)

		req := httptest.NewRequest(http.MethodGet, "/api/images/1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		payload := decodeJSON(t, rec)
		assert.Equal(t, "server error: connection refused", payload["error"])
		assertCORSHeaders(t, rec)
	})
}

func TestDeleteMessage(t *testing.T) {
	deleteMessage := func(t *testing.T, router *gin.Engine, id string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodDelete, "/api/messages/"+id, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("删除存在的留言", func(t *testing.T) {
		router := newTestRouter(t)
		rec := postMessage(t, router, map[string]string{"content": "bye", "name": "alice"}, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = deleteMessage(t, router, "1")
		assert.Equal(t, http.StatusOK, rec.Code)
		payload := decodeJSON(t, rec)
		assert.Equal(t, true, payload["success"])
		assert.Equal(t, "message deleted", payload["message"])
		assertCORSHeaders(t, rec)

		req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
		listRec := httptest.NewRecorder()
		router.ServeHTTP(listRec, req)
		payload = decodeJSON(t, listRec)
		assert.Empty(t, payload["messages"].([]interface{}))
	})

	t.Run("删除不存在的留言返回成功", func(t *testing.T) {
		router := newTestRouter(t)

		rec := deleteMessage(t, router, "999")
		assert.Equal(t, http.StatusOK, rec.Code)
		payload := decodeJSON(t, rec)
		assert.Equal(t, true, payload["success"])
	})

	t.Run("非数字ID当作不存在处理", func(t *testing.T) {
		router := newTestRouter(t)

		rec := deleteMessage(t, router, "abc")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("存储层软失败返回删除失败", func(t *testing.T) {
		repo := &faultyRepo{Store: memory.NewStore(), deleteFn: func(int64) (storage.ExecResult, error) {
			return storage.ExecResult{Success: false}, nil
		}}
		router := newStubRouter(t, repo)

		rec := deleteMessage(t, router, "1")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		payload := decodeJSON(t, rec)
		assert.Equal(t, "delete failed", payload["error"])
	})

	t.Run("存储层错误走全局错误处理", func(t *testing.T) {
		repo := &faultyRepo{Store: memory.NewStore(), deleteFn: func(int64) (storage.ExecResult, error) {
			return storage.ExecResult{}, errors.New("connection refused")
		}}
		router := newStubRouter(t, repo)

		rec := deleteMessage(t, router, "1")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		payload := decodeJSON(t, rec)
		assert.Equal(t, "server error: connection refused", payload["error"])
		assertCORSHeaders(t, rec)
	})
}

func TestCORSAndRouting(t *testing.T) {
	t.Run("OPTIONS预检任意路径返回200", func(t *testing.T) {
		router := newTestRouter(t)

		for _, path := range []string{"/api/messages", "/api/images/1", "/whatever"} {
			req := httptest.NewRequest(http.MethodOptions, path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
			assertCORSHeaders(t, rec)
		}
	})

	t.Run("未匹配路由返回纯文本404", func(t *testing.T) {
		router := newTestRouter(t)

		req := httptest.NewRequest(http.MethodGet, "/no/such/route", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Not Found", rec.Body.String())
		assertCORSHeaders(t, rec)
	})

	t.Run("静态首页不带CORS头", func(t *testing.T) {
		router := newTestRouter(t)

		for _, path := range []string{"/", "/index.html"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			assertNoCORSHeaders(t, rec)
		}
	})
}
