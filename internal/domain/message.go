package domain

import "time"

// Message 表示留言板上的一条留言。
//
// 发件人名字历史上存放在 email 列中（早期版本要求填写邮箱，后来改为昵称），
// 为兼容既有数据保留该列名，JSON 层面统一暴露为 name。
type Message struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Name      string    `json:"name" gorm:"column:email;type:varchar(255);not null"`
	ImageData []byte    `json:"-" gorm:"column:image_data;type:blob"`
	ImageType *string   `json:"-" gorm:"column:image_type;type:varchar(100)"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名。
func (Message) TableName() string {
	return "messages"
}

// HasImage 判断留言是否携带图片附件。
//
// image_data 与 image_type 要么同时为空、要么同时存在，
// 这里以 image_type 为准（列表查询不加载 image_data）。
func (m *Message) HasImage() bool {
	return m.ImageType != nil && *m.ImageType != ""
}

// Image 表示一条留言的图片附件。
type Image struct {
	Data []byte // 原始字节，已由存储层归一化
	Type string // 上传时声明的 MIME 类型，形如 image/png
}
