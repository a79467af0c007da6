package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetric(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Metric
		wantErr  bool
	}{
		{"euclidean", "euclidean", MetricEuclidean, false},
		{"cosine", "cosine", MetricCosine, false},
		{"empty defaults to euclidean", "", MetricEuclidean, false},
		{"unknown metric", "manhattan", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMetric(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, m)
		})
	}
}

func TestEuclideanDistance(t *testing.T) {
	assert.Equal(t, 0.0, euclideanDistance([]float64{1, 2, 3}, []float64{1, 2, 3}))
	assert.InDelta(t, 5.0, euclideanDistance([]float64{0, 0}, []float64{3, 4}), 1e-12)
}

func TestCosineDistance(t *testing.T) {
	// Identical direction
	assert.InDelta(t, 0.0, cosineDistance([]float64{1, 0}, []float64{2, 0}), 1e-12)
	// Orthogonal
	assert.InDelta(t, 1.0, cosineDistance([]float64{1, 0}, []float64{0, 1}), 1e-12)
	// Opposite direction
	assert.InDelta(t, 2.0, cosineDistance([]float64{1, 0}, []float64{-1, 0}), 1e-12)
	// Zero vector
	assert.Equal(t, 1.0, cosineDistance([]float64{0, 0}, []float64{1, 1}))
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg = &Config{Metric: "bogus", Epsilon: 1e-6, GeneralThreshold: 0.35}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Metric: MetricEuclidean, Epsilon: 0, GeneralThreshold: 0.35}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Metric: MetricEuclidean, Epsilon: 1e-6, GeneralThreshold: -1}
	assert.Error(t, cfg.Validate())
}

func TestNewMatcher_Defaults(t *testing.T) {
	m, err := NewMatcher(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultEpsilon, m.Epsilon())
	assert.Equal(t, DefaultGeneralThreshold, m.GeneralThreshold())
}

func TestMatcher_Match_EmptyEnrollment(t *testing.T) {
	m, err := NewMatcher(nil)
	require.NoError(t, err)

	assert.Nil(t, m.Match([]float64{1, 2, 3}, nil))
	assert.Nil(t, m.Match([]float64{1, 2, 3}, map[string][]float64{}))
}

func TestMatcher_Match_ExactMatch(t *testing.T) {
	m, err := NewMatcher(nil)
	require.NoError(t, err)

	probe := []float64{0.1, 0.2, 0.3}
	enrolled := map[string][]float64{
		"alice": {0.1, 0.2, 0.3},
		"bob":   {0.9, 0.8, 0.7},
	}

	res := m.Match(probe, enrolled)
	require.NotNil(t, res)
	assert.True(t, res.Accepted)
	assert.Equal(t, "alice", res.ClosestName)
	assert.Equal(t, 0.0, res.Distance)
	assert.Equal(t, 1.0, res.Confidence)
	assert.True(t, res.WithinGeneral)
	assert.Len(t, res.AllDistances, 2)
}

func TestMatcher_Match_DifferentAudioRejected(t *testing.T) {
	m, err := NewMatcher(nil)
	require.NoError(t, err)

	// A nearby but distinct vector. Far above epsilon, inside the
	// general threshold.
	probe := []float64{0.1, 0.2, 0.3}
	enrolled := map[string][]float64{
		"alice": {0.1, 0.2, 0.35},
	}

	res := m.Match(probe, enrolled)
	require.NotNil(t, res)
	assert.False(t, res.Accepted)
	assert.Equal(t, "alice", res.ClosestName)
	assert.InDelta(t, 0.05, res.Distance, 1e-9)
	assert.Equal(t, 0.0, res.Confidence)
	assert.True(t, res.WithinGeneral)
}

func TestMatcher_Match_EpsilonBoundary(t *testing.T) {
	cfg := &Config{Metric: MetricEuclidean, Epsilon: 0.5, GeneralThreshold: 1.0}
	m, err := NewMatcher(cfg)
	require.NoError(t, err)

	// Distance exactly equal to epsilon is rejected. Acceptance
	// requires strict inequality.
	res := m.Match([]float64{0, 0}, map[string][]float64{"alice": {0.5, 0}})
	require.NotNil(t, res)
	assert.Equal(t, 0.5, res.Distance)
	assert.False(t, res.Accepted)

	res = m.Match([]float64{0, 0}, map[string][]float64{"alice": {0.4, 0}})
	require.NotNil(t, res)
	assert.True(t, res.Accepted)
	assert.InDelta(t, 1-0.4/0.5, res.Confidence, 1e-12)
}

func TestMatcher_Match_TieBreakLexicographic(t *testing.T) {
	m, err := NewMatcher(nil)
	require.NoError(t, err)

	// Both enrollments are equidistant from the probe. The smaller
	// name wins regardless of map iteration order.
	probe := []float64{0, 0}
	enrolled := map[string][]float64{
		"zoe": {1, 0},
		"amy": {0, 1},
	}

	for i := 0; i < 20; i++ {
		res := m.Match(probe, enrolled)
		require.NotNil(t, res)
		assert.Equal(t, "amy", res.ClosestName)
	}
}

func TestMatcher_Match_CosineMetric(t *testing.T) {
	cfg := &Config{Metric: MetricCosine, Epsilon: 1e-6, GeneralThreshold: 0.35}
	m, err := NewMatcher(cfg)
	require.NoError(t, err)

	// Same direction, different magnitude. Cosine distance is zero.
	res := m.Match([]float64{2, 4, 6}, map[string][]float64{"alice": {1, 2, 3}})
	require.NotNil(t, res)
	assert.True(t, res.Accepted)
	assert.Equal(t, "alice", res.ClosestName)
}

func TestMatcher_Match_AllDistancesComplete(t *testing.T) {
	m, err := NewMatcher(nil)
	require.NoError(t, err)

	probe := []float64{0, 0}
	enrolled := map[string][]float64{
		"a": {1, 0},
		"b": {2, 0},
		"c": {3, 0},
	}

	res := m.Match(probe, enrolled)
	require.NotNil(t, res)
	require.Len(t, res.AllDistances, 3)
	assert.InDelta(t, 1.0, res.AllDistances["a"], 1e-12)
	assert.InDelta(t, 2.0, res.AllDistances["b"], 1e-12)
	assert.InDelta(t, 3.0, res.AllDistances["c"], 1e-12)
	assert.Equal(t, "a", res.ClosestName)
}

// Benchmark tests
func BenchmarkMatcher_Match(b *testing.B) {
	m, err := NewMatcher(nil)
	if err != nil {
		b.Fatal(err)
	}

	probe := make([]float64, 1024)
	enrolled := make(map[string][]float64, 50)
	for i := 0; i < 50; i++ {
		vec := make([]float64, 1024)
		for j := range vec {
			vec[j] = float64(i*j) * 0.001
		}
		enrolled[string(rune('a'+i%26))+string(rune('0'+i/26))] = vec
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Match(probe, enrolled)
	}
}

func TestMatcher_Match_MismatchedDimensionSkipped(t *testing.T) {
	m, err := NewMatcher(nil)
	require.NoError(t, err)

	// 维度不符的注册向量不参与比较，也不会让匹配崩溃
	probe := []float64{1, 0, 0}
	enrolled := map[string][]float64{
		"alice": {1, 0, 0},
		"stale": {1, 0},
	}

	res := m.Match(probe, enrolled)
	require.NotNil(t, res)
	assert.True(t, res.Accepted)
	assert.Equal(t, "alice", res.ClosestName)
	assert.Len(t, res.AllDistances, 1)
	assert.NotContains(t, res.AllDistances, "stale")

	// 全部向量都不可比较时等同于注册表为空
	assert.Nil(t, m.Match(probe, map[string][]float64{"stale": {1, 0}}))
}
