package core

// Item 是学习物品（课程/练习/题目）。
//
// Skills 与 User.Mastery 对齐同一技能集；分量非零表示该物品要求此技能。
// 物品一旦生成即不可变。
type Item struct {
	ID int64

	// Skills 是技能需求向量，与用户掌握度向量同维
	Skills []float64

	// Difficulty 是难度，1-5 刻度
	Difficulty float64

	// Prerequisites 是前置技能下标
	Prerequisites []int

	// EstimatedTime 是预计完成时长（分钟）
	EstimatedTime float64
}

// NumSkills 返回需求向量中非零分量的个数。
func (it *Item) NumSkills() int {
	n := 0
	for _, s := range it.Skills {
		if s != 0 {
			n++
		}
	}
	return n
}

// RequiredSkills 返回需求向量中非零分量的下标。
func (it *Item) RequiredSkills() []int {
	idx := make([]int, 0, len(it.Skills))
	for i, s := range it.Skills {
		if s != 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

// SkillMatch 计算用户掌握度与物品技能需求的归一化点积，取值 [0,1]。
// 物品不要求任何技能时返回 0。
func (it *Item) SkillMatch(mastery []float64) float64 {
	count := it.NumSkills()
	if count == 0 {
		return 0
	}
	dot := 0.0
	for i, s := range it.Skills {
		if i < len(mastery) {
			dot += s * mastery[i]
		}
	}
	return dot / float64(count)
}
