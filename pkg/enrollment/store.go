package enrollment

import (
	"context"
	"fmt"
	"time"
)

// 注册表相关错误定义
var (
	ErrUserNotFound      = fmt.Errorf("user not found")
	ErrInvalidName       = fmt.Errorf("invalid enrollment name")
	ErrDimensionMismatch = fmt.Errorf("embedding dimension mismatch")
	ErrStorage           = fmt.Errorf("enrollment storage failure")
)

// Record 一条声纹注册记录。由 Store 独占管理：
// 注册时创建，同名重注册整体替换，删除后销毁。
type Record struct {
	Name      string
	Embedding []float64
	CreatedAt time.Time
}

// Store 声纹注册表。名字是唯一键，Put 为按名 upsert。
// 实现要求：Put/Delete 互斥且原子（写失败不得留下残缺记录），
// 读操作可并发；记录跨进程重启持久。
type Store interface {
	// Put 写入或整体覆盖 name 的记录。向量维度与部署维度不符时
	// 返回 ErrDimensionMismatch 且不改变既有记录。
	Put(ctx context.Context, name string, embedding []float64) (*Record, error)

	// Get 读取单条记录，不存在返回 ErrUserNotFound
	Get(ctx context.Context, name string) (*Record, error)

	// All 枚举全部当前记录。空表返回空映射，与存储错误严格区分。
	All(ctx context.Context) (map[string][]float64, error)

	// Delete 删除记录，不存在返回 ErrUserNotFound
	Delete(ctx context.Context, name string) error

	// List 返回全部已注册名字
	List(ctx context.Context) ([]string, error)

	// Count 返回记录数
	Count(ctx context.Context) (int, error)

	// Close 释放底层资源
	Close() error
}

// ValidateName 校验注册名：非空、不超过 100 字符，
// 仅允许字母、数字、下划线和连字符。
func ValidateName(name string) error {
	if len(name) == 0 || len(name) > 100 {
		return fmt.Errorf("%w: must be 1-100 characters", ErrInvalidName)
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_' || r == '-') {
			return fmt.Errorf("%w: only letters, digits, underscores and hyphens allowed", ErrInvalidName)
		}
	}
	return nil
}
