package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"guestbook/backend/internal/config"
	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/storage"
)

// Store 基于 pgx 连接池的 PostgreSQL 存储实现
type Store struct {
	client *Client
}

// NewStore 创建 PostgreSQL 存储，并确保 messages 表存在
func NewStore(cfg *config.DatabaseConfig) (*Store, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	store := &Store{client: client}
	if err := store.migrate(); err != nil {
		client.Close()
		return nil, err
	}
	return store, nil
}

// migrate 创建留言表（幂等）
func (s *Store) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.client.Pool().Exec(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id         BIGSERIAL PRIMARY KEY,
			content    TEXT NOT NULL,
			email      VARCHAR(255) NOT NULL,
			image_data BYTEA,
			image_type VARCHAR(100),
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

// ListMessages 按 created_at 降序返回一页留言（不加载 image_data）
func (s *Store) ListMessages(limit, offset int) ([]domain.Message, error) {
	rows, err := s.client.Pool().Query(context.Background(), `
		SELECT id, content, email, image_type, created_at
		FROM messages
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]domain.Message, 0, limit)
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.Content, &msg.Name, &msg.ImageType, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// CountMessages 返回留言总数
func (s *Store) CountMessages() (int64, error) {
	var total int64
	err := s.client.Pool().QueryRow(context.Background(), `SELECT COUNT(*) FROM messages`).Scan(&total)
	return total, err
}

// InsertMessage 插入一条新留言，回填 id 与创建时间
func (s *Store) InsertMessage(message *domain.Message) (storage.ExecResult, error) {
	now := time.Now().UTC()

	var imageData []byte
	var imageType *string
	if len(message.ImageData) > 0 && message.ImageType != nil {
		imageData = message.ImageData
		imageType = message.ImageType
	}

	var id int64
	err := s.client.Pool().QueryRow(context.Background(), `
		INSERT INTO messages (content, email, image_data, image_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, message.Content, message.Name, imageData, imageType, now).Scan(&id)
	if err != nil {
		return storage.ExecResult{}, err
	}

	message.ID = id
	message.CreatedAt = now
	return storage.ExecResult{Success: true, RowsAffected: 1}, nil
}

// GetImage 返回指定留言的图片附件
func (s *Store) GetImage(id int64) (*domain.Image, error) {
	var rawData interface{}
	var imageType *string

	err := s.client.Pool().QueryRow(context.Background(), `
		SELECT image_data, image_type
		FROM messages
		WHERE id = $1
	`, id).Scan(&rawData, &imageType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}

	data, err := storage.NormalizeBlob(rawData)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || imageType == nil {
		return nil, storage.ErrImageNotFound
	}

	return &domain.Image{Data: data, Type: *imageType}, nil
}

// DeleteMessage 按 id 删除留言，无匹配行不算失败
func (s *Store) DeleteMessage(id int64) (storage.ExecResult, error) {
	tag, err := s.client.Pool().Exec(context.Background(), `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return storage.ExecResult{}, err
	}
	return storage.ExecResult{Success: true, RowsAffected: tag.RowsAffected()}, nil
}

// Close 关闭数据库连接池
func (s *Store) Close() error {
	s.client.Close()
	return nil
}

// Health 检查数据库健康状态
func (s *Store) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Ping(ctx)
}
