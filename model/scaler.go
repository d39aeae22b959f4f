package model

import "math"

// StandardScaler 对每一列做 (x - mean) / std 标准化。
// 岭回归在拟合时顺带拟合缩放器，预测时复用同一份缩放参数，
// 并随模型一起持久化。
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler 在稠密矩阵上估计每列的均值与标准差。
// 方差为 0 的列 std 记为 1，标准化后恒等于 0。
func FitScaler(rows [][]float64, dim int) *StandardScaler {
	s := &StandardScaler{
		Mean: make([]float64, dim),
		Std:  make([]float64, dim),
	}
	n := float64(len(rows))
	if n == 0 {
		for j := range s.Std {
			s.Std[j] = 1
		}
		return s
	}
	for _, row := range rows {
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= n
	}
	for _, row := range rows {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Std[j] += d * d
		}
	}
	for j := range s.Std {
		s.Std[j] = math.Sqrt(s.Std[j] / n)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return s
}

// Transform 返回标准化后的新行，不修改输入。
func (s *StandardScaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

// TransformAll 标准化整个矩阵。
func (s *StandardScaler) TransformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = s.Transform(row)
	}
	return out
}
