package core

// 推荐选择默认参数。
const (
	// DefaultTopK 是每个用户默认返回的推荐条数
	DefaultTopK = 5

	// DefaultMinRelevance 是默认的最低相关度阈值
	DefaultMinRelevance = 0.2
)

// 特征抽取固定常量。
const (
	// MasteryThreshold 是判定"已掌握"某技能的掌握度阈值
	MasteryThreshold = 0.8

	// 冷启动默认值：实体还没有任何历史交互时使用，
	// 取中性值而不是 NaN/0 污染下游训练。
	// 比率类取刻度中点，耗时类取 0，次数恒为 0。
	ColdSuccessRate = 0.5
	ColdQuizScore   = 50.0
	ColdTimeSpent   = 0.0
)

// 训练目标（相关度）的固定组合权重。
const (
	RelevanceWeightSkillGain          = 0.5 // 用户能学到多少
	RelevanceWeightChallengeAlignment = 0.3 // 难度是否合适
	RelevanceWeightEngagement         = 0.2 // 表现/参与信号
)
