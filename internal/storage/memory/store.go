package memory

import (
	"sort"
	"sync"
	"time"

	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/storage"
)

// Store 使用内存保存留言数据，主要用于开发验证与测试。
//
// id 单调递增且删除后不复用，与关系库的自增主键语义一致。
type Store struct {
	mu       sync.RWMutex
	messages map[int64]*domain.Message
	nextID   int64
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		messages: make(map[int64]*domain.Message),
		nextID:   1,
	}
}

// ListMessages 按 created_at 降序（id 降序兜底）返回一页留言。
func (s *Store) ListMessages(limit, offset int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.Message, 0, len(s.messages))
	for _, msg := range s.messages {
		all = append(all, msg)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if offset >= len(all) {
		return []domain.Message{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	result := make([]domain.Message, 0, end-offset)
	for _, msg := range all[offset:end] {
		// 列表查询不携带图片数据，与 SQL 实现保持一致
		copied := *msg
		copied.ImageData = nil
		result = append(result, copied)
	}
	return result, nil
}

// CountMessages 返回留言总数。
func (s *Store) CountMessages() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.messages)), nil
}

// InsertMessage 插入一条新留言，分配 id 与创建时间。
func (s *Store) InsertMessage(message *domain.Message) (storage.ExecResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message.ID = s.nextID
	s.nextID++
	message.CreatedAt = time.Now().UTC()

	copied := *message
	s.messages[message.ID] = &copied
	return storage.ExecResult{Success: true, RowsAffected: 1}, nil
}

// GetImage 返回指定留言的图片附件。
func (s *Store) GetImage(id int64) (*domain.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok || len(msg.ImageData) == 0 || !msg.HasImage() {
		return nil, storage.ErrImageNotFound
	}

	data := make([]byte, len(msg.ImageData))
	copy(data, msg.ImageData)
	return &domain.Image{Data: data, Type: *msg.ImageType}, nil
}

// DeleteMessage 按 id 删除留言，无匹配行不算失败。
func (s *Store) DeleteMessage(id int64) (storage.ExecResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return storage.ExecResult{Success: true, RowsAffected: 0}, nil
	}
	delete(s.messages, id)
	return storage.ExecResult{Success: true, RowsAffected: 1}, nil
}

// Close 关闭存储（内存实现无事可做）。
func (s *Store) Close() error {
	return nil
}

// Health 检查存储健康状态。
func (s *Store) Health() error {
	return nil
}
