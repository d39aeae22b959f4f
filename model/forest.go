package model

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/rushteam/learnpath/core"
)

// RandomForest 是回归随机森林：bootstrap 采样 + 特征子采样 +
// 方差削减划分的决策树集成，预测取各树均值。
//
// 不需要输入缩放。确定性：全部随机性来自单一种子的 rand 源，
// 特征遍历按固定列序，因此相同种子与输入下输出逐位一致。
type RandomForest struct {
	columns  []string
	seed     int64
	numTrees int
	maxDepth int
	minLeaf  int

	trees  []*treeNode
	imp    []float64 // 不纯度下降累计，与 columns 对齐
	fitted bool
}

// treeNode 是树节点。叶节点 Feature 为 -1，只有 Value 有效。
type treeNode struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Value     float64   `json:"v,omitempty"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
}

func newRandomForest(cfg Config) *RandomForest {
	m := &RandomForest{
		columns:  cfg.Columns,
		seed:     cfg.Seed,
		numTrees: cfg.NumTrees,
		maxDepth: cfg.MaxDepth,
		minLeaf:  cfg.MinLeaf,
	}
	if m.numTrees <= 0 {
		m.numTrees = 100
	}
	if m.maxDepth <= 0 {
		m.maxDepth = 10
	}
	if m.minLeaf <= 0 {
		m.minLeaf = 2
	}
	return m
}

func (m *RandomForest) Name() string { return "random_forest" }

// Fit 实现 RankingModel 接口。
func (m *RandomForest) Fit(X []map[string]float64, y []float64) error {
	if len(X) != len(y) {
		return errSizeMismatch(len(X), len(y))
	}
	if len(X) == 0 {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeConfiguration,
			"model: random forest fit requires at least one sample")
	}

	rows, err := toMatrix(core.ModuleModel, m.columns, X)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(m.seed))
	n := len(rows)
	d := len(m.columns)
	mtry := d / 3
	if mtry < 1 {
		mtry = 1
	}

	m.trees = make([]*treeNode, 0, m.numTrees)
	m.imp = make([]float64, d)

	for t := 0; t < m.numTrees; t++ {
		// bootstrap：有放回采样 n 个下标
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		tree := m.buildTree(rows, y, idx, 0, mtry, rng)
		m.trees = append(m.trees, tree)
	}

	// 重要性归一化为占比
	total := 0.0
	for _, v := range m.imp {
		total += v
	}
	if total > 0 {
		for j := range m.imp {
			m.imp[j] /= total
		}
	}

	m.fitted = true
	return nil
}

func (m *RandomForest) buildTree(rows [][]float64, y []float64, idx []int, depth, mtry int, rng *rand.Rand) *treeNode {
	mean, sse := meanSSE(y, idx)
	if depth >= m.maxDepth || len(idx) < 2*m.minLeaf || sse == 0 {
		return &treeNode{Feature: -1, Value: mean}
	}

	// 特征子采样：从固定列序中无放回抽 mtry 个
	candidates := rng.Perm(len(m.columns))[:mtry]
	sort.Ints(candidates) // 固定评估顺序，保证平手时选择可复现

	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0
	var bestLeft, bestRight []int

	for _, j := range candidates {
		sorted := append([]int{}, idx...)
		sort.Slice(sorted, func(a, b int) bool {
			if rows[sorted[a]][j] != rows[sorted[b]][j] {
				return rows[sorted[a]][j] < rows[sorted[b]][j]
			}
			return sorted[a] < sorted[b]
		})

		// 前缀和扫一遍即可评估所有切分点
		sumL, sqL := 0.0, 0.0
		sumT, sqT := 0.0, 0.0
		for _, i := range sorted {
			sumT += y[i]
			sqT += y[i] * y[i]
		}
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			sumL += y[i]
			sqL += y[i] * y[i]
			if rows[sorted[k]][j] == rows[sorted[k+1]][j] {
				continue // 相同特征值之间不可切分
			}
			nl := k + 1
			nr := len(sorted) - nl
			if nl < m.minLeaf || nr < m.minLeaf {
				continue
			}
			sseL := sqL - sumL*sumL/float64(nl)
			sumR := sumT - sumL
			sseR := (sqT - sqL) - sumR*sumR/float64(nr)
			gain := sse - sseL - sseR
			if gain > bestGain {
				bestGain = gain
				bestFeature = j
				bestThreshold = (rows[sorted[k]][j] + rows[sorted[k+1]][j]) / 2
				bestLeft = append([]int{}, sorted[:nl]...)
				bestRight = append([]int{}, sorted[nl:]...)
			}
		}
	}

	if bestFeature < 0 {
		return &treeNode{Feature: -1, Value: mean}
	}

	m.imp[bestFeature] += bestGain

	return &treeNode{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      m.buildTree(rows, y, bestLeft, depth+1, mtry, rng),
		Right:     m.buildTree(rows, y, bestRight, depth+1, mtry, rng),
	}
}

func meanSSE(y []float64, idx []int) (float64, float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	sum, sq := 0.0, 0.0
	for _, i := range idx {
		sum += y[i]
		sq += y[i] * y[i]
	}
	n := float64(len(idx))
	mean := sum / n
	return mean, sq - sum*sum/n
}

// Predict 实现 RankingModel 接口。
func (m *RandomForest) Predict(x map[string]float64) (float64, error) {
	if !m.fitted {
		return 0, errNotFitted(m.Name())
	}
	row := make([]float64, len(m.columns))
	for j, col := range m.columns {
		v, ok := x[col]
		if !ok {
			return 0, core.NewDomainError(core.ModuleModel, core.ErrorCodeConfiguration,
				fmt.Sprintf("model: missing feature column %q", col))
		}
		row[j] = v
	}

	sum := 0.0
	for _, tree := range m.trees {
		sum += tree.eval(row)
	}
	return sum / float64(len(m.trees)), nil
}

func (t *treeNode) eval(row []float64) float64 {
	node := t
	for node.Feature >= 0 {
		if row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// FeatureImportance 返回各列不纯度下降的归一化占比（非负，总和为 1）。
func (m *RandomForest) FeatureImportance() map[string]float64 {
	imp := make(map[string]float64, len(m.columns))
	if !m.fitted {
		return imp
	}
	for j, col := range m.columns {
		imp[col] = m.imp[j]
	}
	return imp
}
