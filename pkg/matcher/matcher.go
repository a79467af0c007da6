package matcher

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

const (
	// DefaultEpsilon 接受判据：距离小于该值才算同一条音频的回放
	DefaultEpsilon = 1e-6
	// DefaultGeneralThreshold 宽松参考阈值，只用于提示，不参与接受判定
	DefaultGeneralThreshold = 0.35
)

// Config 匹配器配置
type Config struct {
	// Metric 距离度量："euclidean" 或 "cosine"
	Metric Metric `env:"MATCHER_METRIC"`
	// Epsilon 接受阈值
	Epsilon float64 `env:"MATCHER_EPSILON"`
	// GeneralThreshold 参考阈值
	GeneralThreshold float64 `env:"MATCHER_GENERAL_THRESHOLD"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Metric:           MetricEuclidean,
		Epsilon:          DefaultEpsilon,
		GeneralThreshold: DefaultGeneralThreshold,
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if _, err := ParseMetric(string(c.Metric)); err != nil {
		return err
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("matcher epsilon must be positive")
	}
	if c.GeneralThreshold <= 0 {
		return fmt.Errorf("matcher general threshold must be positive")
	}
	return nil
}

// Result 一次匹配的完整结果。Accepted 只由 Distance < Epsilon 决定；
// WithinGeneral 表示落入宽松参考阈值，仅用于响应里的提示信息。
type Result struct {
	Accepted      bool
	ClosestName   string
	Distance      float64
	Confidence    float64
	WithinGeneral bool
	AllDistances  map[string]float64
}

// Matcher 在注册表快照上做最近邻判定
type Matcher struct {
	cfg    *Config
	logger *zap.Logger
}

// NewMatcher 创建匹配器
func NewMatcher(cfg *Config) (*Matcher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Matcher{
		cfg:    cfg,
		logger: zap.L().Named("matcher"),
	}, nil
}

// Epsilon 返回接受阈值
func (m *Matcher) Epsilon() float64 { return m.cfg.Epsilon }

// GeneralThreshold 返回参考阈值
func (m *Matcher) GeneralThreshold() float64 { return m.cfg.GeneralThreshold }

// Match 计算探针向量到全部注册向量的距离并选出最近者。
// 快照为空或没有可比较的向量时返回 nil，由调用方映射为"无注册用户"结果。
// 距离相同取名字字典序最小者，保证结果可复现。
func (m *Matcher) Match(probe []float64, enrolled map[string][]float64) *Result {
	if len(enrolled) == 0 {
		return nil
	}

	names := make([]string, 0, len(enrolled))
	for name := range enrolled {
		names = append(names, name)
	}
	sort.Strings(names)

	res := &Result{
		AllDistances: make(map[string]float64, len(enrolled)),
	}
	first := true
	for _, name := range names {
		vec := enrolled[name]
		// 与探针维度不符的向量无法比较，跳过而不是越界崩溃
		if len(vec) != len(probe) {
			m.logger.Warn("skipping enrollment with mismatched dimension",
				zap.String("name", name),
				zap.Int("got", len(vec)),
				zap.Int("want", len(probe)))
			continue
		}
		d := m.cfg.Metric.Distance(probe, vec)
		res.AllDistances[name] = d
		if first || d < res.Distance {
			res.Distance = d
			res.ClosestName = name
			first = false
		}
	}
	if first {
		return nil
	}

	res.Accepted = res.Distance < m.cfg.Epsilon
	res.WithinGeneral = res.Distance < m.cfg.GeneralThreshold
	if res.Accepted {
		res.Confidence = 1 - res.Distance/m.cfg.Epsilon
	}

	m.logger.Debug("match completed",
		zap.String("closest", res.ClosestName),
		zap.Float64("distance", res.Distance),
		zap.Bool("accepted", res.Accepted))
	return res
}
