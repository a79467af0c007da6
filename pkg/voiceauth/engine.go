package voiceauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/code-100-precent/LingVoice/pkg/audio"
	"github.com/code-100-precent/LingVoice/pkg/cache"
	"github.com/code-100-precent/LingVoice/pkg/embedding"
	"github.com/code-100-precent/LingVoice/pkg/enrollment"
	"github.com/code-100-precent/LingVoice/pkg/features"
	"github.com/code-100-precent/LingVoice/pkg/matcher"
	"github.com/code-100-precent/LingVoice/pkg/vad"
)

const (
	snapshotCacheKey = "enrollment:snapshot"
	snapshotCacheTTL = 5 * time.Minute
)

// EnrollResult 注册结果
type EnrollResult struct {
	Name      string
	CreatedAt time.Time
}

// AuthResult 认证结果。Authenticated 只由距离小于 epsilon 决定；
// NoEnrollments 为真表示注册表为空，是与拒绝不同的独立结果。
type AuthResult struct {
	Authenticated  bool
	NoEnrollments  bool
	RecognizedUser string
	ClosestMatch   string
	Distance       float64
	Confidence     float64
	WithinGeneral  bool
	AllDistances   map[string]float64
	Threshold      float64
	Token          string
}

// Engine 声纹认证引擎：规范化 → 静音裁剪 → 谱特征 → 嵌入 → 注册/匹配。
// 注册和认证共用同一条前处理管线，同一段音频两侧产出相同向量。
type Engine struct {
	normalizer *audio.Normalizer
	trimmer    *vad.Trimmer
	extractor  *features.Extractor
	provider   embedding.Provider
	store      enrollment.Store
	matcher    *matcher.Matcher
	tokens     *TokenIssuer
	cache      cache.Cache
	logger     *zap.Logger
}

// NewEngine 创建认证引擎。cache 为 nil 时不做注册表快照缓存。
func NewEngine(
	provider embedding.Provider,
	store enrollment.Store,
	m *matcher.Matcher,
	tokens *TokenIssuer,
	c cache.Cache,
) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("embedding provider is required")
	}
	if store == nil {
		return nil, fmt.Errorf("enrollment store is required")
	}
	if m == nil {
		var err error
		if m, err = matcher.NewMatcher(nil); err != nil {
			return nil, err
		}
	}
	if tokens == nil {
		var err error
		if tokens, err = NewTokenIssuer(nil); err != nil {
			return nil, err
		}
	}
	return &Engine{
		normalizer: audio.NewNormalizer(),
		trimmer:    vad.NewTrimmer(nil),
		extractor:  features.NewExtractor(),
		provider:   provider,
		store:      store,
		matcher:    m,
		tokens:     tokens,
		cache:      c,
		logger:     zap.L().Named("voiceauth"),
	}, nil
}

// Tokens 返回令牌签发器，供网关中间件校验克隆请求
func (e *Engine) Tokens() *TokenIssuer { return e.tokens }

// embed 执行共享前处理管线，输入音频产出嵌入向量
func (e *Engine) embed(ctx context.Context, in audio.Input) (embedding.Vector, error) {
	wave, err := e.normalizer.Normalize(ctx, in)
	if err != nil {
		return nil, wrapPipelineError(err)
	}

	trimmed := e.trimmer.Trim(wave)
	if trimmed.Len() == 0 {
		return nil, wrapPipelineError(ErrAudioTooShort)
	}

	tensor, err := e.extractor.Extract(trimmed)
	if err != nil {
		return nil, wrapPipelineError(err)
	}

	vec, err := e.provider.Embed(ctx, tensor)
	if err != nil {
		return nil, wrapPipelineError(err)
	}
	return vec, nil
}

// Enroll 注册声纹，同名重复注册覆盖旧向量
func (e *Engine) Enroll(ctx context.Context, name string, in audio.Input) (*EnrollResult, error) {
	if err := enrollment.ValidateName(name); err != nil {
		return nil, wrapPipelineError(err)
	}

	vec, err := e.embed(ctx, in)
	if err != nil {
		return nil, err
	}

	rec, err := e.store.Put(ctx, name, vec)
	if err != nil {
		return nil, wrapPipelineError(err)
	}
	e.invalidateSnapshot(ctx)

	e.logger.Info("user enrolled",
		zap.String("name", name),
		zap.Int("dimension", len(vec)))
	return &EnrollResult{Name: rec.Name, CreatedAt: rec.CreatedAt}, nil
}

// Authenticate 认证声纹：计算探针向量到全部注册向量的距离，
// 最近距离小于 epsilon 才接受，并签发短时令牌
func (e *Engine) Authenticate(ctx context.Context, in audio.Input) (*AuthResult, error) {
	vec, err := e.embed(ctx, in)
	if err != nil {
		return nil, err
	}

	enrolled, err := e.snapshot(ctx)
	if err != nil {
		return nil, wrapPipelineError(err)
	}

	res := e.matcher.Match(vec, enrolled)
	if res == nil {
		e.logger.Info("authentication with empty enrollment set")
		return &AuthResult{NoEnrollments: true, Threshold: e.matcher.Epsilon()}, nil
	}

	out := &AuthResult{
		Authenticated: res.Accepted,
		ClosestMatch:  res.ClosestName,
		Distance:      res.Distance,
		WithinGeneral: res.WithinGeneral,
		AllDistances:  res.AllDistances,
		Threshold:     e.matcher.Epsilon(),
	}
	if res.Accepted {
		out.RecognizedUser = res.ClosestName
		out.Confidence = res.Confidence
		token, err := e.tokens.Issue(res.ClosestName)
		if err != nil {
			return nil, fmt.Errorf("issue token: %w", err)
		}
		out.Token = token
	}

	e.logger.Info("authentication completed",
		zap.Bool("authenticated", res.Accepted),
		zap.String("closest", res.ClosestName),
		zap.Float64("distance", res.Distance))
	return out, nil
}

// ListUsers 返回全部已注册名字（升序）
func (e *Engine) ListUsers(ctx context.Context) ([]string, error) {
	names, err := e.store.List(ctx)
	if err != nil {
		return nil, wrapPipelineError(err)
	}
	return names, nil
}

// DeleteUser 删除注册记录
func (e *Engine) DeleteUser(ctx context.Context, name string) error {
	if err := e.store.Delete(ctx, name); err != nil {
		return wrapPipelineError(err)
	}
	e.invalidateSnapshot(ctx)
	e.logger.Info("user removed", zap.String("name", name))
	return nil
}

// HasUser 判断名字当前是否仍在注册表中。令牌有效期内注册可能已被删除，
// 克隆端点放行前必须用它做二次校验。
func (e *Engine) HasUser(ctx context.Context, name string) (bool, error) {
	_, err := e.store.Get(ctx, name)
	if errors.Is(err, enrollment.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, wrapPipelineError(err)
	}
	return true, nil
}

// CheckHealth 检查嵌入服务连通性
func (e *Engine) CheckHealth(ctx context.Context) error {
	return e.provider.Healthy(ctx)
}

// snapshot 读取注册表快照。只缓存注册向量，探针向量从不缓存。
func (e *Engine) snapshot(ctx context.Context) (map[string][]float64, error) {
	if e.cache != nil {
		if v, ok := e.cache.Get(ctx, snapshotCacheKey); ok {
			if snap, ok := decodeSnapshot(v); ok {
				return snap, nil
			}
		}
	}

	snap, err := e.store.All(ctx)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, snapshotCacheKey, snap, snapshotCacheTTL); err != nil {
			e.logger.Warn("snapshot cache set failed", zap.Error(err))
		}
	}
	return snap, nil
}

// decodeSnapshot 还原缓存的快照。本地缓存按原类型取回；redis 后端
// 经过 JSON 序列化，取回的是 map[string]interface{}，需要逐项转回。
// 无法还原按缓存未命中处理。
func decodeSnapshot(v interface{}) (map[string][]float64, bool) {
	switch snap := v.(type) {
	case map[string][]float64:
		return snap, true
	case map[string]interface{}:
		out := make(map[string][]float64, len(snap))
		for name, raw := range snap {
			items, ok := raw.([]interface{})
			if !ok {
				return nil, false
			}
			vec := make([]float64, len(items))
			for i, item := range items {
				f, ok := item.(float64)
				if !ok {
					return nil, false
				}
				vec[i] = f
			}
			out[name] = vec
		}
		return out, true
	default:
		return nil, false
	}
}

func (e *Engine) invalidateSnapshot(ctx context.Context) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Delete(ctx, snapshotCacheKey); err != nil {
		e.logger.Warn("snapshot cache invalidation failed", zap.Error(err))
	}
}
