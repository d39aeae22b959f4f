package core

// User 是学习者画像。
//
// 进入 Pipeline 后画像只读：各阶段只引用，绝不修改。
// 模拟器在生成日志的过程中演进掌握度，交付的是演进后的最终画像。
type User struct {
	ID int64

	// Mastery 是固定技能集上的掌握度向量，每个分量取值 [0,1]
	Mastery []float64

	// LearningRate 控制成功交互后掌握度的提升幅度
	LearningRate float64

	// DifficultyTolerance 表示对高难度物品的耐受程度
	DifficultyTolerance float64

	// DropoutSensitivity 表示连续失败后放弃学习的敏感度
	DropoutSensitivity float64
}

// MeanMastery 返回掌握度向量的均值；空向量返回 0。
func (u *User) MeanMastery() float64 {
	if len(u.Mastery) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range u.Mastery {
		sum += m
	}
	return sum / float64(len(u.Mastery))
}

// DerivedLevel 把 [0,1] 的平均掌握度映射到物品难度所在的 0-5 刻度。
// 这是一个固定的确定性映射，difficulty_gap 特征依赖它。
func (u *User) DerivedLevel() float64 {
	return u.MeanMastery() * 5
}
