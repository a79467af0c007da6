package voiceclone

import (
	"context"
	"fmt"
	"time"
)

// CloneRequest 克隆合成请求
type CloneRequest struct {
	// Speaker 认证通过的注册名，决定使用谁的音色
	Speaker string `json:"speaker"`
	// Question 用户提问，先经文本生成再合成
	Question string `json:"question"`
}

// CloneResult 克隆合成结果
type CloneResult struct {
	// Speaker 音色来源
	Speaker string `json:"speaker"`
	// Answer 文本生成服务给出的回答
	Answer string `json:"answer"`
	// AudioData 合成音频数据
	AudioData []byte `json:"audio_data"`
	// Format 音频格式，如 wav
	Format string `json:"format"`
	// SampleRate 采样率
	SampleRate int `json:"sample_rate"`
}

// Service 语音克隆服务接口。只有携带有效认证令牌的请求
// 才会走到这里，令牌校验由网关中间件完成。
type Service interface {
	// Clone 为指定说话人生成回答并用其音色合成
	Clone(ctx context.Context, req *CloneRequest) (*CloneResult, error)

	// Ready 检查下游合成服务是否可用
	Ready(ctx context.Context) error
}

// Config 语音克隆配置
type Config struct {
	// Enabled 是否启用克隆端点
	Enabled bool `env:"CLONE_ENABLED"`
	// SynthesisURL 合成服务地址
	SynthesisURL string `env:"CLONE_SYNTHESIS_URL"`
	// TextGenURL 文本生成服务地址
	TextGenURL string `env:"CLONE_TEXTGEN_URL"`
	// Timeout 下游请求超时
	Timeout time.Duration `env:"CLONE_TIMEOUT"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Enabled:      false,
		SynthesisURL: "http://localhost:8502",
		TextGenURL:   "http://localhost:8503",
		Timeout:      120 * time.Second,
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.SynthesisURL == "" {
		return fmt.Errorf("clone synthesis URL is required")
	}
	if c.TextGenURL == "" {
		return fmt.Errorf("clone textgen URL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("clone timeout must be positive")
	}
	return nil
}
