package classify

import "fmt"

// 算法名称
const (
	AlgorithmKNN   = "knn"
	AlgorithmBayes = "bayes"
)

// Algorithm 分类算法配置（KNNConfig 或 BayesConfig 二选一）
type Algorithm interface {
	Name() string
	algorithm()
}

// KNNConfig k 近邻分类配置
type KNNConfig struct {
	K     int // 近邻数量
	MinDf int // 最小文档频率
	MinTf int // 最小词频
}

// Name 算法名称
func (KNNConfig) Name() string { return AlgorithmKNN }

func (KNNConfig) algorithm() {}

// BayesConfig 朴素贝叶斯分类配置，无调优参数
type BayesConfig struct{}

// Name 算法名称
func (BayesConfig) Name() string { return AlgorithmBayes }

func (BayesConfig) algorithm() {}

// ParseAlgorithm 根据算法名称构造配置，knn 才使用 k/minDf/minTf
func ParseAlgorithm(name string, knn KNNConfig) (Algorithm, error) {
	switch name {
	case AlgorithmKNN:
		return knn, nil
	case AlgorithmBayes:
		return BayesConfig{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
}
