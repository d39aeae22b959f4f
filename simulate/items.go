package simulate

import (
	"math/rand"

	"github.com/rushteam/learnpath/core"
)

// GenerateItems 生成学习物品目录。
//
// 每个物品有 1-3 个要求技能、1-5 的离散难度、难度 >= 3 时可能带
// 前置技能（只允许引用更早的技能），预计时长 = 10*难度 + 噪声（下限 5 分钟）。
func GenerateItems(numItems, numSkills int, seed int64) map[int64]*core.Item {
	rng := rand.New(rand.NewSource(seed))
	items := make(map[int64]*core.Item, numItems)

	for id := int64(0); id < int64(numItems); id++ {
		difficulty := float64(1 + rng.Intn(5))

		maxItemSkills := 3
		if numSkills < maxItemSkills {
			maxItemSkills = numSkills
		}
		numItemSkills := 1 + rng.Intn(maxItemSkills)
		skillIdx := rng.Perm(numSkills)[:numItemSkills]

		skills := make([]float64, numSkills)
		for _, k := range skillIdx {
			skills[k] = 1
		}

		var prereqs []int
		if difficulty >= 3 {
			seen := make(map[int]bool)
			for _, k := range skillIdx {
				if k > 0 && rng.Float64() < 0.5 {
					p := rng.Intn(k)
					if !seen[p] {
						seen[p] = true
						prereqs = append(prereqs, p)
					}
				}
			}
		}

		estimated := 10*difficulty + rng.NormFloat64()*2
		if estimated < 5 {
			estimated = 5
		}

		items[id] = &core.Item{
			ID:            id,
			Skills:        skills,
			Difficulty:    difficulty,
			Prerequisites: prereqs,
			EstimatedTime: estimated,
		}
	}
	return items
}
