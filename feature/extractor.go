package feature

import (
	"context"
	"fmt"
	"math"

	"github.com/rushteam/learnpath/core"
)

// Extractor 把原始交互日志转换为特征行，每条交互恰好产出一行，顺序不变。
//
// 因果约束（无泄漏）：第 p 条交互的全部历史聚合特征，只是位置 < p 的
// 交互的函数：用户侧聚合限定同一用户，物品侧聚合限定同一物品。
// 违反这一点是正确性 bug，不是风格问题。实现方式是单趟遍历 + 显式
// Accumulator：先用当前聚合读出特征，再把当前行折叠进聚合。
//
// 前置约束：日志必须按发生顺序排列，且同一用户的 Step 严格递增。
// 校验失败立即报 DATA_INTEGRITY_ERROR，绝不静默算出错误聚合。
type Extractor struct {
	// MasteryThreshold 是 fraction_skills_mastered 的掌握判定阈值
	MasteryThreshold float64
}

// NewExtractor 创建使用默认阈值的特征抽取器。
func NewExtractor() *Extractor {
	return &Extractor{MasteryThreshold: core.MasteryThreshold}
}

// Process 处理整份交互日志，返回特征行与遍历结束时的历史聚合。
// 返回的特征行与输入交互一一对应、同序。
func (e *Extractor) Process(
	ctx context.Context,
	users map[int64]*core.User,
	items map[int64]*core.Item,
	logs []*core.Interaction,
) ([]*core.FeatureVector, *Accumulator, error) {
	if err := validateOrdering(logs); err != nil {
		return nil, nil, err
	}

	acc := NewAccumulator()
	vectors := make([]*core.FeatureVector, 0, len(logs))

	for _, in := range logs {
		user, ok := users[in.UserID]
		if !ok {
			return nil, nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeDataIntegrity,
				fmt.Sprintf("feature: interaction references unknown user %d", in.UserID))
		}
		item, ok := items[in.ItemID]
		if !ok {
			return nil, nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeDataIntegrity,
				fmt.Sprintf("feature: interaction references unknown item %d", in.ItemID))
		}

		// 先读：当前行只能看到严格更早的历史
		fv := e.BuildRow(user, item, acc)
		fv.Label = relevanceLabel(user, item, in)
		vectors = append(vectors, fv)

		// 后写：把当前行折叠进聚合，供后续行使用
		acc.Observe(in)
	}

	return vectors, acc, nil
}

// BuildRow 根据给定的历史聚合为 (user, item) 构造一条特征行（不含标签）。
// 传入 Process 返回的聚合即可得到"截至日志末尾"的打分特征。
func (e *Extractor) BuildRow(user *core.User, item *core.Item, acc *Accumulator) *core.FeatureVector {
	fv := core.NewFeatureVector(user.ID, item.ID)
	f := fv.Features

	// 技能特征。skill_gap 对物品要求的技能做 (1 - mastery) 的逐元素均值，
	// 固定使用均值归约；无要求技能时为 0。
	required := item.RequiredSkills()
	if len(required) > 0 {
		gapSum := 0.0
		mastered := 0
		for _, idx := range required {
			m := 0.0
			if idx < len(user.Mastery) {
				m = user.Mastery[idx]
			}
			gapSum += 1 - m
			if m >= e.MasteryThreshold {
				mastered++
			}
		}
		f[core.FeatureSkillGap] = math.Max(0, gapSum/float64(len(required)))
		f[core.FeatureFractionSkillsMastered] = float64(mastered) / float64(len(required))
	} else {
		f[core.FeatureSkillGap] = 0
		f[core.FeatureFractionSkillsMastered] = 0
	}
	f[core.FeatureSkillMatch] = item.SkillMatch(user.Mastery)

	// 难度特征
	f[core.FeatureDifficultyGap] = item.Difficulty - user.DerivedLevel()
	f[core.FeatureDifficulty] = item.Difficulty
	f[core.FeatureItemNumSkills] = float64(item.NumSkills())

	// 用户历史特征（严格早于当前位置的同用户交互）
	us := acc.userStats(user.ID)
	f[core.FeatureUserSuccessRate] = us.successRate()
	f[core.FeatureUserAvgQuiz] = us.avgQuiz()
	f[core.FeatureUserAvgTime] = us.avgTime()
	f[core.FeatureUserNumAttempts] = float64(us.attempts)

	// 物品历史特征（严格早于当前位置的同物品交互，不区分用户）
	is := acc.itemStats(item.ID)
	f[core.FeatureItemAvgSuccess] = is.successRate()
	f[core.FeatureItemAvgQuiz] = is.avgQuiz()
	f[core.FeatureItemAvgTime] = is.avgTime()

	// 静态特征
	f[core.FeatureEstimatedTime] = item.EstimatedTime

	return fv
}

// relevanceLabel 计算训练目标：0.5*技能增益 + 0.3*挑战匹配 + 0.2*参与信号。
//
//   - 技能增益：成功时为 learning_rate * mean(1-mastery)（物品要求技能上），失败为 0
//   - 挑战匹配：exp(-|difficulty - (meanMastery*5 + 1)|)，难度略高于当前水平时最大
//   - 参与信号：0.6*success + 0.4*quiz/100
func relevanceLabel(user *core.User, item *core.Item, in *core.Interaction) float64 {
	skillGain := 0.0
	if in.Success {
		required := item.RequiredSkills()
		if len(required) > 0 {
			gapSum := 0.0
			for _, idx := range required {
				m := 0.0
				if idx < len(user.Mastery) {
					m = user.Mastery[idx]
				}
				gapSum += 1 - m
			}
			skillGain = user.LearningRate * gapSum / float64(len(required))
		}
	}

	challenge := math.Exp(-math.Abs(item.Difficulty - (user.MeanMastery()*5 + 1)))
	engagement := 0.6*in.SuccessValue() + 0.4*in.QuizScore/100

	return core.RelevanceWeightSkillGain*skillGain +
		core.RelevanceWeightChallengeAlignment*challenge +
		core.RelevanceWeightEngagement*engagement
}

// validateOrdering 校验同一用户的 Step 严格递增。
// 排序是否成立是显式前置条件，而不是存储顺序的偶然性质。
func validateOrdering(logs []*core.Interaction) error {
	lastStep := make(map[int64]int)
	for i, in := range logs {
		if in == nil {
			return core.NewDomainError(core.ModuleFeature, core.ErrorCodeDataIntegrity,
				fmt.Sprintf("feature: nil interaction at position %d", i))
		}
		if prev, ok := lastStep[in.UserID]; ok && in.Step <= prev {
			return core.NewDomainError(core.ModuleFeature, core.ErrorCodeDataIntegrity,
				fmt.Sprintf("feature: interactions out of order for user %d: step %d after %d (position %d)",
					in.UserID, in.Step, prev, i))
		}
		lastStep[in.UserID] = in.Step
	}
	return nil
}
