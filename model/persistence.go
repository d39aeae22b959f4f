package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rushteam/learnpath/core"
)

// Bundle 是模型的可序列化快照：模型状态 + 缩放器（可空）+ 有序特征列名。
// 加载同一个 Bundle 对相同输入必须复现逐位一致的预测
// （encoding/json 的 float64 编码可精确往返）。
type Bundle struct {
	ModelType Type     `json:"model_type"`
	Columns   []string `json:"feature_columns"`

	// Scaler 仅岭回归存在，随机森林为 null
	Scaler *StandardScaler `json:"scaler"`

	Forest *ForestState `json:"forest,omitempty"`
	Ridge  *RidgeState  `json:"ridge,omitempty"`
}

// ForestState 是随机森林的持久化状态。
type ForestState struct {
	Trees      []*treeNode `json:"trees"`
	Importance []float64   `json:"importance"`
}

// RidgeState 是岭回归的持久化状态。
type RidgeState struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	Lambda    float64   `json:"lambda"`
}

// Export 把已拟合的模型导出为 Bundle。未拟合的模型导出会失败。
func Export(m RankingModel) (*Bundle, error) {
	switch v := m.(type) {
	case *RandomForest:
		if !v.fitted {
			return nil, errNotFitted(v.Name())
		}
		return &Bundle{
			ModelType: TypeRandomForest,
			Columns:   append([]string{}, v.columns...),
			Forest:    &ForestState{Trees: v.trees, Importance: v.imp},
		}, nil
	case *Ridge:
		if !v.fitted {
			return nil, errNotFitted(v.Name())
		}
		return &Bundle{
			ModelType: TypeRidge,
			Columns:   append([]string{}, v.columns...),
			Scaler:    v.scaler,
			Ridge:     &RidgeState{Coef: v.coef, Intercept: v.intercept, Lambda: v.lambda},
		}, nil
	default:
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			fmt.Sprintf("model: cannot export model type %T", m))
	}
}

// Restore 从 Bundle 还原可预测的模型。
func Restore(b *Bundle) (RankingModel, error) {
	switch b.ModelType {
	case TypeRandomForest:
		if b.Forest == nil {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeConfiguration,
				"model: bundle missing forest state")
		}
		m := newRandomForest(Config{Columns: b.Columns})
		m.trees = b.Forest.Trees
		m.imp = b.Forest.Importance
		m.fitted = true
		return m, nil
	case TypeRidge:
		if b.Ridge == nil || b.Scaler == nil {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeConfiguration,
				"model: bundle missing ridge state or scaler")
		}
		m := newRidge(Config{Columns: b.Columns, Lambda: b.Ridge.Lambda})
		m.scaler = b.Scaler
		m.coef = b.Ridge.Coef
		m.intercept = b.Ridge.Intercept
		m.fitted = true
		return m, nil
	default:
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeConfiguration,
			fmt.Sprintf("model: unknown model type %q in bundle", b.ModelType))
	}
}

// SaveBundle 把模型序列化为 JSON 文件。
func SaveBundle(m RankingModel, path string) error {
	b, err := Export(m)
	if err != nil {
		return err
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create bundle dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	return nil
}

// LoadBundle 从 JSON 文件加载模型。
func LoadBundle(path string) (RankingModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotFound,
				fmt.Sprintf("model: bundle not found: %s", path))
		}
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}
	return Restore(&b)
}

// BundleExists 检查 Bundle 文件是否存在。
func BundleExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ListBundles 列出目录下的全部 Bundle 文件名（不含扩展名）。
func ListBundles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read bundle dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	return names, nil
}
