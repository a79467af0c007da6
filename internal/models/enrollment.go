package models

import (
	"time"
)

// Enrollment 声纹注册记录模型
type Enrollment struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"type:varchar(255);uniqueIndex;not null"`
	Embedding []byte    `json:"-" gorm:"type:blob;not null"`
	Dimension int       `json:"dimension" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Enrollment) TableName() string {
	return "enrollments"
}

// EnrollResponse 注册响应
type EnrollResponse struct {
	Name           string    `json:"name"`
	OriginalFormat string    `json:"original_format,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// AuthenticateResponse 认证响应
type AuthenticateResponse struct {
	Authenticated  bool               `json:"authenticated"`
	Message        string             `json:"message"`
	RecognizedUser string             `json:"recognized_user,omitempty"`
	ClosestMatch   string             `json:"closest_match,omitempty"`
	Distance       *float64           `json:"distance,omitempty"`
	Confidence     *float64           `json:"confidence_score,omitempty"`
	AllDistances   map[string]float64 `json:"all_distances,omitempty"`
	Threshold      *float64           `json:"threshold,omitempty"`
	Token          string             `json:"token,omitempty"`
}

// UserListResponse 已注册用户列表响应
type UserListResponse struct {
	EnrolledUsers []string `json:"enrolled_users"`
	Count         int      `json:"count"`
}

// CloneVoiceRequest 语音克隆请求
type CloneVoiceRequest struct {
	Question string `json:"question" binding:"required"`
}
