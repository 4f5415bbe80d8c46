package sql

import (
	"database/sql"
	"fmt"
	"time"

	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/storage"
)

// ========== Message Repository ==========

// ListMessages 按 created_at 降序返回一页留言（不加载 image_data）
func (s *Store) ListMessages(limit, offset int) ([]domain.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, content, email, image_type, created_at
		FROM messages
		ORDER BY created_at DESC, id DESC
		LIMIT %s OFFSET %s
	`, s.placeholder(1), s.placeholder(2))

	rows, err := s.db.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]domain.Message, 0, limit)
	for rows.Next() {
		var msg domain.Message
		var imageType sql.NullString

		if err := rows.Scan(&msg.ID, &msg.Content, &msg.Name, &imageType, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if imageType.Valid {
			msg.ImageType = &imageType.String
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// CountMessages 返回留言总数
//
// 与 ListMessages 是两次独立查询，不包在同一事务里，
// 并发写入时 total 可能与已返回的页面轻微不符，属已知弱一致行为。
func (s *Store) CountMessages() (int64, error) {
	var total int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&total)
	return total, err
}

// InsertMessage 插入一条新留言，回填 id 与创建时间
func (s *Store) InsertMessage(message *domain.Message) (storage.ExecResult, error) {
	now := time.Now().UTC()

	var imageData interface{}
	var imageType interface{}
	if len(message.ImageData) > 0 && message.ImageType != nil {
		imageData = message.ImageData
		imageType = *message.ImageType
	}

	if s.driverName == "postgres" {
		query := `
			INSERT INTO messages (content, email, image_data, image_type, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		var id int64
		if err := s.db.QueryRow(query, message.Content, message.Name, imageData, imageType, now).Scan(&id); err != nil {
			return storage.ExecResult{}, err
		}
		message.ID = id
		message.CreatedAt = now
		return storage.ExecResult{Success: true, RowsAffected: 1}, nil
	}

	query := `
		INSERT INTO messages (content, email, image_data, image_type, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.Exec(query, message.Content, message.Name, imageData, imageType, now)
	if err != nil {
		return storage.ExecResult{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storage.ExecResult{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.ExecResult{}, err
	}

	message.ID = id
	message.CreatedAt = now
	return storage.ExecResult{Success: affected > 0, RowsAffected: affected}, nil
}

// GetImage 返回指定留言的图片附件
func (s *Store) GetImage(id int64) (*domain.Image, error) {
	query := fmt.Sprintf(`
		SELECT image_data, image_type
		FROM messages
		WHERE id = %s
	`, s.placeholder(1))

	var rawData interface{}
	var imageType sql.NullString

	err := s.db.QueryRow(query, id).Scan(&rawData, &imageType)
	if err == sql.ErrNoRows {
		return nil, storage.ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}

	// 驱动可能交回 []byte 或 string，统一归一化为字节切片
	data, err := storage.NormalizeBlob(rawData)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || !imageType.Valid {
		return nil, storage.ErrImageNotFound
	}

	return &domain.Image{Data: data, Type: imageType.String}, nil
}

// DeleteMessage 按 id 删除留言，无匹配行不算失败
func (s *Store) DeleteMessage(id int64) (storage.ExecResult, error) {
	query := fmt.Sprintf(`DELETE FROM messages WHERE id = %s`, s.placeholder(1))

	result, err := s.db.Exec(query, id)
	if err != nil {
		return storage.ExecResult{}, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return storage.ExecResult{}, err
	}
	return storage.ExecResult{Success: true, RowsAffected: affected}, nil
}
