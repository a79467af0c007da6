package bootstrap

import (
	"math"

	"gorm.io/gorm"

	"github.com/code-100-precent/LingVoice/internal/models"
	"github.com/code-100-precent/LingVoice/pkg/config"
	"github.com/code-100-precent/LingVoice/pkg/enrollment"
)

type SeedService struct {
	db *gorm.DB
}

func (s *SeedService) SeedAll() error {
	return s.seedDemoEnrollments()
}

// seedDemoEnrollments 写入演示声纹记录，便于非生产环境联调。
// 向量是确定性生成的，不对应真实说话人。
func (s *SeedService) seedDemoEnrollments() error {
	dimension := 1024
	if config.GlobalConfig != nil && config.GlobalConfig.Enrollment.Dimension > 0 {
		dimension = config.GlobalConfig.Enrollment.Dimension
	}

	demos := []string{"demo_alice", "demo_bob"}
	for i, name := range demos {
		var count int64
		err := s.db.Model(&models.Enrollment{}).Where("name = ?", name).Count(&count).Error
		if err != nil {
			return err
		}
		if count != 0 {
			continue
		}

		rec := models.Enrollment{
			Name:      name,
			Embedding: enrollment.EncodeVector(demoVector(dimension, i+1)),
			Dimension: dimension,
		}
		if err := s.db.Create(&rec).Error; err != nil {
			return err
		}
	}
	return nil
}

// demoVector 生成确定性单位向量
func demoVector(dimension, seed int) []float64 {
	vec := make([]float64, dimension)
	var norm float64
	for i := range vec {
		vec[i] = math.Sin(float64(seed) * float64(i+1))
		norm += vec[i] * vec[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
