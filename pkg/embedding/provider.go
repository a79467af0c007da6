package embedding

import (
	"context"
	"fmt"

	"github.com/code-100-precent/LingVoice/pkg/features"
)

// 嵌入服务相关错误定义
var (
	// ErrProviderUnavailable 模型服务不可用。按请求为致命错误，
	// 恢复路径是进程级重启或模型重载，而非请求内重试。
	ErrProviderUnavailable = fmt.Errorf("embedding provider unavailable")
	// ErrInvalidTensor 输入张量为空或形状非法
	ErrInvalidTensor = fmt.Errorf("invalid feature tensor")
	// ErrDimensionDrift 模型返回的向量维度与声明维度不一致
	ErrDimensionDrift = fmt.Errorf("embedding dimension mismatch from provider")
)

// Vector 定长嵌入向量，维度 D 在部署内恒定
type Vector []float64

// Clone 返回向量副本
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Provider 外部嵌入模型边界：特征张量 → 定长向量。
// 要求：相同输入输出确定；输出维度与桶宽无关；调用可能昂贵，
// 调用方避免重复嵌入同一音频。
type Provider interface {
	// Embed 计算特征张量的嵌入向量
	Embed(ctx context.Context, tensor *features.Tensor) (Vector, error)

	// Dimension 返回输出向量维度 D
	Dimension() int

	// Healthy 探测模型服务是否就绪
	Healthy(ctx context.Context) error
}
