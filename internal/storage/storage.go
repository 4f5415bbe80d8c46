package storage

import (
	"errors"
	"fmt"

	"guestbook/backend/internal/domain"
)

// ErrImageNotFound 图片未找到错误（留言不存在或没有图片附件）
var ErrImageNotFound = errors.New("image not found")

// ExecResult 描述一次写操作的结果。
//
// 底层存储以成功标志加受影响行数的形式上报，
// 调用方据此区分软失败（Success 为 false）与正常的零行命中
// （例如删除一条不存在的留言：Success 为 true、RowsAffected 为 0）。
type ExecResult struct {
	Success      bool
	RowsAffected int64
}

// MessageRepository 定义留言数据存取操作。
//
// ListMessages 与 CountMessages 是两次独立读取，不保证一致快照，
// 并发写入窗口内 total 可能与返回页面轻微不符，属已知弱一致行为。
type MessageRepository interface {
	// ListMessages 按 created_at 降序（id 降序兜底）返回一页留言，
	// 不加载 image_data。
	ListMessages(limit, offset int) ([]domain.Message, error)

	// CountMessages 返回留言总数。
	CountMessages() (int64, error)

	// InsertMessage 插入一条新留言，存储层负责分配 id 与 created_at（UTC），
	// 并把两者回填到传入的实体上。
	InsertMessage(message *domain.Message) (ExecResult, error)

	// GetImage 返回指定留言的图片附件；留言不存在或无图片时
	// 返回 ErrImageNotFound。
	GetImage(id int64) (*domain.Image, error)

	// DeleteMessage 按 id 删除留言。无匹配行不算失败。
	DeleteMessage(id int64) (ExecResult, error)
}

// Store 定义完整的存储接口。
type Store interface {
	MessageRepository

	Close() error
	Health() error
}

// NormalizeBlob 把驱动返回的任意 BLOB 表示归一化为字节切片。
//
// database/sql 与 pgx 依驱动不同可能交回 []byte、string 或 nil，
// 统一在存储适配层转换，上层永远只见 []byte。
func NormalizeBlob(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported blob representation %T", value)
	}
}
