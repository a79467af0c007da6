package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/code-100-precent/LingVoice/pkg/features"
)

// Config 嵌入模型服务客户端配置
type Config struct {
	BaseURL   string        `env:"EMBEDDING_BASE_URL"`
	Dimension int           `env:"EMBEDDING_DIMENSION"`
	Timeout   time.Duration `env:"EMBEDDING_TIMEOUT"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "http://localhost:8501",
		Dimension: 1024,
		Timeout:   60 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("embedding base_url is required")
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}
	return nil
}

// Client 嵌入模型服务 HTTP 客户端
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient 创建嵌入服务客户端
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		},
		logger: zap.L().Named("embedding"),
	}, nil
}

type embedRequest struct {
	Features [][]float64 `json:"features"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed 将特征张量发送到模型服务，返回定长嵌入向量
func (c *Client) Embed(ctx context.Context, tensor *features.Tensor) (Vector, error) {
	if tensor == nil || tensor.Frames() == 0 {
		return nil, ErrInvalidTensor
	}

	body, err := json.Marshal(embedRequest{Features: tensor.Data})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/embed", c.config.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isConnectionError(err) {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, fmt.Errorf("%w: model not loaded", ErrProviderUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embed request failed: HTTP %d: %s", resp.StatusCode, string(msg))
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(result.Embedding) != c.config.Dimension {
		return nil, fmt.Errorf("%w: got %d, want %d",
			ErrDimensionDrift, len(result.Embedding), c.config.Dimension)
	}

	c.logger.Debug("embedding computed",
		zap.Int("frames", tensor.Frames()),
		zap.Int("dimension", len(result.Embedding)),
		zap.Duration("duration", time.Since(start)))

	return Vector(result.Embedding), nil
}

// Dimension 返回向量维度
func (c *Client) Dimension() int {
	return c.config.Dimension
}

// Healthy 探测模型服务健康状态
func (c *Client) Healthy(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", c.config.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", ErrProviderUnavailable, resp.StatusCode)
	}
	return nil
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
