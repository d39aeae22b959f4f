package core

// Interaction 是一条学习交互记录。
//
// 交互日志按发生顺序排列，这个顺序是承载语义的：历史聚合特征只允许
// 看到严格早于当前交互的记录。Step 是同一用户内单调递增的序号，
// 特征抽取前会校验这一前置约束（见 feature 包）。
type Interaction struct {
	UserID int64
	ItemID int64

	// Step 是该用户的交互序号，从 0 开始、严格递增
	Step int

	// Success 表示是否通过
	Success bool

	// QuizScore 是测验得分，0-100
	QuizScore float64

	// TimeSpent 是实际耗时（分钟）
	TimeSpent float64

	// SkillMatch / DifficultyGap 是模拟器或上游预计算的辅助字段，
	// 特征抽取不依赖它们，仅透传
	SkillMatch    float64
	DifficultyGap float64
}

// SuccessValue 把 Success 转为 0/1，便于数值聚合。
func (in *Interaction) SuccessValue() float64 {
	if in.Success {
		return 1
	}
	return 0
}
