package model

import (
	"fmt"
	"sort"

	"github.com/rushteam/learnpath/core"
)

// RankingModel 是排序阶段的统一抽象：在 (特征, 标签) 样本上拟合，
// 之后对任意特征行输出相关度分数。
//
// 契约：
//   - Fit 拒绝样本数与标签数不一致的输入（CONFIGURATION_ERROR）
//   - Predict 按列名取特征值，与列顺序无关；缺失任何必需列立即报错，
//     绝不静默补默认值（CONFIGURATION_ERROR）
//   - 未拟合/未加载时调用 Predict 报 MODEL_UNAVAILABLE
//   - 固定种子下 Fit/Predict 完全确定，重复运行输出逐位一致
type RankingModel interface {
	Name() string

	// Fit 在 N 行特征与 N 个标量标签上拟合模型
	Fit(X []map[string]float64, y []float64) error

	// Predict 对单行特征打分
	Predict(x map[string]float64) (float64, error)

	// FeatureImportance 返回列名到权重的映射。
	// 随机森林为非负的不纯度下降占比，岭回归为带符号的系数。
	FeatureImportance() map[string]float64
}

// Type 是模型变体的枚举。不用字符串鸭子类型做运行时分发，
// 变体在构造时由枚举值显式选定。
type Type string

const (
	// TypeRandomForest 是集成非线性模型：不需要输入缩放，暴露特征重要性
	TypeRandomForest Type = "random_forest"

	// TypeRidge 是正则化线性模型：需要输入缩放（内部拟合 StandardScaler），暴露系数
	TypeRidge Type = "ridge"
)

// Config 是模型超参数。零值字段使用默认值。
type Config struct {
	// Columns 是特征列名；为空时使用 core.FeatureColumns()
	Columns []string

	// Seed 是随机种子（随机森林的 bootstrap / 特征子采样）
	Seed int64

	// NumTrees 是随机森林的树数量，默认 100
	NumTrees int

	// MaxDepth 是单棵树的最大深度，默认 10
	MaxDepth int

	// MinLeaf 是叶节点最小样本数，默认 2
	MinLeaf int

	// Lambda 是岭回归的 L2 正则强度，默认 1.0
	Lambda float64
}

// New 按枚举类型构造模型。未知类型返回 CONFIGURATION_ERROR。
func New(typ Type, cfg Config) (RankingModel, error) {
	if len(cfg.Columns) == 0 {
		cfg.Columns = core.FeatureColumns()
	}
	switch typ {
	case TypeRandomForest:
		return newRandomForest(cfg), nil
	case TypeRidge:
		return newRidge(cfg), nil
	default:
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeConfiguration,
			fmt.Sprintf("model: unknown model type %q", typ))
	}
}

// ImportanceEntry 是特征重要性排名的一项。
type ImportanceEntry struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// TopFeatures 返回按权重绝对值降序的前 n 个特征；
// 权重相同按列名升序，保证排名可复现。n <= 0 时返回全部。
func TopFeatures(m RankingModel, n int) []ImportanceEntry {
	imp := m.FeatureImportance()
	entries := make([]ImportanceEntry, 0, len(imp))
	for name, w := range imp {
		entries = append(entries, ImportanceEntry{Feature: name, Importance: w})
	}
	sort.Slice(entries, func(i, j int) bool {
		ai, aj := abs(entries[i].Importance), abs(entries[j].Importance)
		if ai != aj {
			return ai > aj
		}
		return entries[i].Feature < entries[j].Feature
	})
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// toMatrix 按列名把特征行转为稠密矩阵；任何一行缺列都立即失败。
func toMatrix(module string, columns []string, X []map[string]float64) ([][]float64, error) {
	rows := make([][]float64, len(X))
	for i, x := range X {
		row := make([]float64, len(columns))
		for j, col := range columns {
			v, ok := x[col]
			if !ok {
				return nil, core.NewDomainError(module, core.ErrorCodeConfiguration,
					fmt.Sprintf("model: missing feature column %q at row %d", col, i))
			}
			row[j] = v
		}
		rows[i] = row
	}
	return rows, nil
}

func errNotFitted(name string) error {
	return core.NewDomainError(core.ModuleModel, core.ErrorCodeModelUnavailable,
		fmt.Sprintf("model: %s not fitted, call Fit or load a bundle first", name))
}

func errSizeMismatch(nx, ny int) error {
	return core.NewDomainError(core.ModuleModel, core.ErrorCodeConfiguration,
		fmt.Sprintf("model: feature rows (%d) and labels (%d) length mismatch", nx, ny))
}
