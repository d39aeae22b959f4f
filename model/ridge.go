package model

import (
	"fmt"

	"github.com/rushteam/learnpath/core"
)

// Ridge 是带 L2 正则的线性回归，闭式解：
//
//	beta = (Z'Z + lambda*I)^-1 Z'y
//
// Z 是标准化后的特征矩阵外加常数列；截距项不参与正则。
// FeatureImportance 返回带符号的系数（标准化空间下可比）。
type Ridge struct {
	columns []string
	lambda  float64

	scaler    *StandardScaler
	coef      []float64 // 与 columns 对齐
	intercept float64
	fitted    bool
}

func newRidge(cfg Config) *Ridge {
	lambda := cfg.Lambda
	if lambda == 0 {
		lambda = 1.0
	}
	return &Ridge{
		columns: cfg.Columns,
		lambda:  lambda,
	}
}

func (m *Ridge) Name() string { return "ridge" }

// Fit 实现 RankingModel 接口。
func (m *Ridge) Fit(X []map[string]float64, y []float64) error {
	if len(X) != len(y) {
		return errSizeMismatch(len(X), len(y))
	}
	if len(X) == 0 {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeConfiguration,
			"model: ridge fit requires at least one sample")
	}

	rows, err := toMatrix(core.ModuleModel, m.columns, X)
	if err != nil {
		return err
	}

	m.scaler = FitScaler(rows, len(m.columns))
	z := m.scaler.TransformAll(rows)

	d := len(m.columns)
	// 正规方程，最后一维是截距（不加正则）
	dim := d + 1
	a := make([][]float64, dim)
	for i := range a {
		a[i] = make([]float64, dim+1)
	}
	for r, row := range z {
		ext := append(append([]float64{}, row...), 1.0)
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				a[i][j] += ext[i] * ext[j]
			}
			a[i][dim] += ext[i] * y[r]
		}
	}
	for i := 0; i < d; i++ {
		a[i][i] += m.lambda
	}

	beta, err := solveLinear(a)
	if err != nil {
		return fmt.Errorf("ridge fit: %w", err)
	}
	m.coef = beta[:d]
	m.intercept = beta[d]
	m.fitted = true
	return nil
}

// Predict 实现 RankingModel 接口。
func (m *Ridge) Predict(x map[string]float64) (float64, error) {
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
	z := m.scaler.Transform(row)
	score := m.intercept
	for j, v := range z {
		score += m.coef[j] * v
	}
	return score, nil
}

// FeatureImportance 返回标准化空间下的回归系数。
func (m *Ridge) FeatureImportance() map[string]float64 {
	imp := make(map[string]float64, len(m.columns))
	if !m.fitted {
		return imp
	}
	for j, col := range m.columns {
		imp[col] = m.coef[j]
	}
	return imp
}

// Scaler 返回拟合得到的缩放器（未拟合时为 nil），随模型一起持久化。
func (m *Ridge) Scaler() *StandardScaler {
	return m.scaler
}

// solveLinear 用列主元高斯消元解增广矩阵 a（n 行 n+1 列）。
func solveLinear(a [][]float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		// 选主元
		pivot := col
		for r := col + 1; r < n; r++ {
			if abs(a[r][col]) > abs(a[pivot][col]) {
				pivot = r
			}
		}
		if abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system at column %d", col)
		}
		a[col], a[pivot] = a[pivot], a[col]

		inv := 1 / a[col][col]
		for j := col; j <= n; j++ {
			a[col][j] *= inv
		}
		for r := 0; r < n; r++ {
			if r == col || a[r][col] == 0 {
				continue
			}
			factor := a[r][col]
			for j := col; j <= n; j++ {
				a[r][j] -= factor * a[col][j]
			}
		}
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = a[i][n]
	}
	return out, nil
}
