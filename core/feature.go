package core

// 特征列名常量。模型按列名取值（与列顺序无关），
// 预测时缺失任何一列都是配置错误，而不是静默补默认值。
const (
	FeatureSkillGap                = "skill_gap"
	FeatureFractionSkillsMastered  = "fraction_skills_mastered"
	FeatureDifficultyGap           = "difficulty_gap"
	FeatureUserSuccessRate         = "user_success_rate"
	FeatureUserAvgQuiz             = "user_avg_quiz"
	FeatureUserAvgTime             = "user_avg_time"
	FeatureUserNumAttempts         = "user_num_attempts"
	FeatureItemAvgSuccess          = "item_avg_success"
	FeatureItemAvgQuiz             = "item_avg_quiz"
	FeatureItemAvgTime             = "item_avg_time"
	FeatureItemNumSkills           = "item_num_skills"
	FeatureSkillMatch              = "skill_match"
	FeatureDifficulty              = "difficulty"
	FeatureEstimatedTime           = "estimated_time"
)

// FeatureColumns 返回全部 14 个特征列名（固定顺序，用于持久化与展示）。
// 返回新切片，调用方可以安全修改。
func FeatureColumns() []string {
	return []string{
		FeatureSkillGap,
		FeatureFractionSkillsMastered,
		FeatureDifficultyGap,
		FeatureUserSuccessRate,
		FeatureUserAvgQuiz,
		FeatureUserAvgTime,
		FeatureUserNumAttempts,
		FeatureItemAvgSuccess,
		FeatureItemAvgQuiz,
		FeatureItemAvgTime,
		FeatureItemNumSkills,
		FeatureSkillMatch,
		FeatureDifficulty,
		FeatureEstimatedTime,
	}
}

// FeatureVector 是一条交互派生出的特征行。
//
// 每条 Interaction 恰好产出一行，生成后不再修改。
// Features 按列名存值；Label 是训练目标（相关度），只用于训练，
// 不是模型输入。
type FeatureVector struct {
	UserID int64
	ItemID int64

	Features map[string]float64

	// Label 是监督目标：0.5*技能增益 + 0.3*挑战匹配 + 0.2*参与信号
	Label float64
}

// NewFeatureVector 创建一个空特征行。
func NewFeatureVector(userID, itemID int64) *FeatureVector {
	return &FeatureVector{
		UserID:   userID,
		ItemID:   itemID,
		Features: make(map[string]float64, 14),
	}
}
