package simulate

import (
	"math"
	"math/rand"

	"github.com/rushteam/learnpath/core"
)

// GenerateUsers 生成一批学习者画像。
//
// 初始掌握度服从 Beta(2,5)（整体偏低、少数技能较强），
// 学习率、难度耐受、放弃敏感度均匀采样。固定种子下输出确定。
func GenerateUsers(numUsers, numSkills int, seed int64) map[int64]*core.User {
	rng := rand.New(rand.NewSource(seed))
	users := make(map[int64]*core.User, numUsers)

	for id := int64(0); id < int64(numUsers); id++ {
		mastery := make([]float64, numSkills)
		for k := range mastery {
			mastery[k] = betaSample(rng, 2, 5)
		}
		users[id] = &core.User{
			ID:                  id,
			Mastery:             mastery,
			LearningRate:        0.05 + rng.Float64()*0.25,
			DifficultyTolerance: 0.5 + rng.Float64()*1.0,
			DropoutSensitivity:  rng.Float64(),
		}
	}
	return users
}

// betaSample 用整数形状的 Gamma 合成采样 Beta(a,b)：
// Gamma(n) = -ln(U1*...*Un)，Beta = Ga/(Ga+Gb)。
func betaSample(rng *rand.Rand, a, b int) float64 {
	ga := gammaIntSample(rng, a)
	gb := gammaIntSample(rng, b)
	if ga+gb == 0 {
		return 0
	}
	return ga / (ga + gb)
}

func gammaIntSample(rng *rand.Rand, shape int) float64 {
	prod := 1.0
	for i := 0; i < shape; i++ {
		u := rng.Float64()
		for u == 0 {
			u = rng.Float64()
		}
		prod *= u
	}
	return -math.Log(prod)
}
