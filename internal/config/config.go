package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Index      IndexConfig      `yaml:"index"`
	Redis      RedisConfig      `yaml:"redis"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `yaml:"port"`
	Name string `yaml:"name"`
	Mode string `yaml:"mode"` // debug, release, test

	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// ClassifierConfig 分类算法配置，启动时加载一次
type ClassifierConfig struct {
	Algorithm string      `yaml:"algorithm"` // knn, bayes
	KNN       KNNConfig   `yaml:"knn"`
	Bayes     BayesConfig `yaml:"bayes"`
}

// KNNConfig k 近邻参数
type KNNConfig struct {
	K     int `yaml:"k"`
	MinDf int `yaml:"minDf"`
	MinTf int `yaml:"minTf"`
}

// BayesConfig 朴素贝叶斯参数
type BayesConfig struct {
	MaxTrainingDocs int `yaml:"maxTrainingDocs"`
}

// IndexConfig 索引配置
type IndexConfig struct {
	Path            string        `yaml:"path"`
	MemOnly         bool          `yaml:"memOnly"`
	DefaultField    string        `yaml:"defaultField"`
	DefaultAnalyzer string        `yaml:"defaultAnalyzer"`
	BatchSize       int           `yaml:"batchSize"`
	Fields          []FieldConfig `yaml:"fields"`
}

// FieldConfig 字段及其分词器
type FieldConfig struct {
	Name     string `yaml:"name"`
	Analyzer string `yaml:"analyzer"`
}

// RedisConfig Redis 配置，用于缓存分类结果
type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttlSeconds"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Name: "docclassify",
			Mode: "release",
		},
		Classifier: ClassifierConfig{
			Algorithm: "knn",
			KNN:       KNNConfig{K: 10, MinDf: 1, MinTf: 1},
			Bayes:     BayesConfig{MaxTrainingDocs: 10000},
		},
		Index: IndexConfig{
			Path:            "data/classify.bleve",
			DefaultAnalyzer: "standard",
			BatchSize:       500,
		},
		Redis: RedisConfig{
			Host:       "localhost",
			Port:       6379,
			TTLSeconds: 300,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig 加载并校验配置文件，文件中未出现的项保留默认值
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return Parse(data)
}

// Parse 解析并校验 YAML 配置
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FieldNames 返回所有配置的字段名
func (c IndexConfig) FieldNames() []string {
	names := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		names = append(names, f.Name)
	}
	return names
}
