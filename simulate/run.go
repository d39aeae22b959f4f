// Package simulate 是合成数据源：生成用户、物品与交互日志，
// 形状与真实埋点一致，供 Pipeline 端到端运行与测试使用。
package simulate

import (
	"math"
	"math/rand"
	"sort"

	"github.com/rushteam/learnpath/core"
)

// Config 是模拟参数。
type Config struct {
	NumUsers     int
	NumItems     int
	NumSkills    int
	StepsPerUser int
	Seed         int64
}

// DefaultConfig 返回一组小而可用的模拟参数。
func DefaultConfig() Config {
	return Config{
		NumUsers:     50,
		NumItems:     30,
		NumSkills:    8,
		StepsPerUser: 20,
		Seed:         42,
	}
}

// Run 生成用户、物品并模拟学习过程，返回按发生顺序排列的交互日志。
//
// 每个用户独立演进：按"难度略高于当前水平"的偏好随机选择满足
// 前置技能的物品，sigmoid 成功模型决定结果，成功后提升掌握度，
// 连续失败可能放弃。同一用户的 Step 严格递增，满足特征抽取的
// 排序前置约束。
func Run(cfg Config) (map[int64]*core.User, map[int64]*core.Item, []*core.Interaction) {
	users := GenerateUsers(cfg.NumUsers, cfg.NumSkills, cfg.Seed)
	items := GenerateItems(cfg.NumItems, cfg.NumSkills, cfg.Seed)
	rng := rand.New(rand.NewSource(cfg.Seed))

	var logs []*core.Interaction

	// map 遍历无序，按 id 升序保证可复现
	userIDs := make([]int64, 0, len(users))
	for id := range users {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	for _, uid := range userIDs {
		user := users[uid]
		consecutiveFailures := 0

		for step := 0; step < cfg.StepsPerUser; step++ {
			item := selectItem(user, items, rng)
			in := simulateInteraction(user, item, step, rng)
			logs = append(logs, in)

			if in.Success {
				consecutiveFailures = 0
			} else {
				consecutiveFailures++
			}

			dropout := 0.1 * float64(consecutiveFailures) * user.DropoutSensitivity
			if dropout > 1 {
				dropout = 1
			}
			if rng.Float64() < dropout {
				break
			}
		}
	}

	return users, items, logs
}

// prerequisitesSatisfied 检查用户掌握度是否满足物品的前置技能。
func prerequisitesSatisfied(user *core.User, item *core.Item, threshold float64) bool {
	for _, k := range item.Prerequisites {
		if k >= len(user.Mastery) || user.Mastery[k] < threshold {
			return false
		}
	}
	return true
}

// selectItem 按当前掌握度与难度偏好选择下一个物品：
// 在满足前置技能的候选中，难度越接近 (平均掌握度*5 + 1) 的物品概率越大。
func selectItem(user *core.User, items map[int64]*core.Item, rng *rand.Rand) *core.Item {
	itemIDs := make([]int64, 0, len(items))
	for id := range items {
		itemIDs = append(itemIDs, id)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })

	candidates := make([]*core.Item, 0, len(items))
	for _, id := range itemIDs {
		if prerequisitesSatisfied(user, items[id], 0.6) {
			candidates = append(candidates, items[id])
		}
	}
	if len(candidates) == 0 {
		for _, id := range itemIDs {
			candidates = append(candidates, items[id])
		}
	}

	target := user.MeanMastery()*5 + 1
	weights := make([]float64, len(candidates))
	total := 0.0
	for i, item := range candidates {
		w := math.Exp(-math.Abs(item.Difficulty - target))
		weights[i] = w
		total += w
	}

	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}

// simulateInteraction 模拟一次交互并更新用户掌握度（成功时）。
func simulateInteraction(user *core.User, item *core.Item, step int, rng *rand.Rand) *core.Interaction {
	skillMatch := item.SkillMatch(user.Mastery)
	difficultyGap := item.Difficulty / user.DifficultyTolerance

	// alpha 掌握度权重，beta 难度惩罚
	const alpha, beta = 3.0, 1.0
	logit := alpha*skillMatch - beta*difficultyGap
	successProb := 1 / (1 + math.Exp(-logit))
	success := rng.Float64() < successProb

	var quiz float64
	if success {
		quiz = 80 + 20*skillMatch + rng.NormFloat64()*5
	} else {
		quiz = 40 + 20*skillMatch + rng.NormFloat64()*10
	}
	quiz = clamp(quiz, 0, 100)

	var timeSpent float64
	noise := rng.NormFloat64() * 2
	if success {
		timeSpent = item.EstimatedTime*(1+0.1*difficultyGap) + noise
	} else {
		timeSpent = item.EstimatedTime*(1.5+0.2*difficultyGap) + noise
	}
	if timeSpent < 1 {
		timeSpent = 1
	}

	if success {
		for k, s := range item.Skills {
			if s != 0 && k < len(user.Mastery) {
				user.Mastery[k] = clamp(user.Mastery[k]+user.LearningRate*(1-user.Mastery[k]), 0, 1)
			}
		}
	}

	return &core.Interaction{
		UserID:        user.ID,
		ItemID:        item.ID,
		Step:          step,
		Success:       success,
		QuizScore:     quiz,
		TimeSpent:     timeSpent,
		SkillMatch:    skillMatch,
		DifficultyGap: difficultyGap,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
