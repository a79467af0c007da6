package voiceclone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPService 语音克隆客户端：先调用文本生成服务得到回答，
// 再调用合成服务用注册人的音色合成。两个下游都是 HTTP 服务。
type HTTPService struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPService 创建语音克隆客户端
func NewHTTPService(config *Config) (*HTTPService, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 5,
		},
	}

	return &HTTPService{
		config:     config,
		httpClient: httpClient,
		logger:     zap.L().Named("voiceclone"),
	}, nil
}

type textGenRequest struct {
	Question string `json:"question"`
	Speaker  string `json:"speaker"`
}

type textGenResponse struct {
	Answer string `json:"answer"`
}

type synthesizeRequest struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Clone 为指定说话人生成回答并合成音频
func (s *HTTPService) Clone(ctx context.Context, req *CloneRequest) (*CloneResult, error) {
	if !s.config.Enabled {
		return nil, fmt.Errorf("voice clone service is disabled")
	}
	if req == nil || req.Speaker == "" || req.Question == "" {
		return nil, fmt.Errorf("speaker and question are required")
	}

	startTime := time.Now()

	answer, err := s.generateAnswer(ctx, req)
	if err != nil {
		return nil, err
	}

	audioData, err := s.synthesize(ctx, req.Speaker, answer)
	if err != nil {
		return nil, err
	}

	s.logger.Info("voice clone completed",
		zap.String("speaker", req.Speaker),
		zap.Int("answer_len", len(answer)),
		zap.Int("audio_bytes", len(audioData)),
		zap.Duration("duration", time.Since(startTime)))

	return &CloneResult{
		Speaker:    req.Speaker,
		Answer:     answer,
		AudioData:  audioData,
		Format:     "wav",
		SampleRate: 16000,
	}, nil
}

func (s *HTTPService) generateAnswer(ctx context.Context, req *CloneRequest) (string, error) {
	body, err := json.Marshal(textGenRequest{Question: req.Question, Speaker: req.Speaker})
	if err != nil {
		return "", fmt.Errorf("marshal textgen request: %w", err)
	}

	url := s.config.TextGenURL + "/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create textgen request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("textgen request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("textgen HTTP %d: %s", resp.StatusCode, string(payload))
	}

	var result textGenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode textgen response: %w", err)
	}
	if result.Answer == "" {
		return "", fmt.Errorf("textgen returned empty answer")
	}
	return result.Answer, nil
}

func (s *HTTPService) synthesize(ctx context.Context, speaker, text string) ([]byte, error) {
	body, err := json.Marshal(synthesizeRequest{Speaker: speaker, Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}

	url := s.config.SynthesisURL + "/synthesize"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create synthesis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("synthesis HTTP %d: %s", resp.StatusCode, string(payload))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}
	if len(audioData) == 0 {
		return nil, fmt.Errorf("synthesis returned empty audio")
	}
	return audioData, nil
}

// Ready 检查下游合成服务是否可用
func (s *HTTPService) Ready(ctx context.Context) error {
	if !s.config.Enabled {
		return fmt.Errorf("voice clone service is disabled")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.SynthesisURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("synthesis health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("synthesis health HTTP %d", resp.StatusCode)
	}
	return nil
}

// Close 关闭客户端
func (s *HTTPService) Close() error {
	if s.httpClient != nil {
		s.httpClient.CloseIdleConnections()
	}
	return nil
}
