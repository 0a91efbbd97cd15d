package config

import (
	"fmt"
	"strings"
)

// ValidationError 单个配置项校验错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationErrors 全部校验错误
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("found %d configuration error(s):\n", len(errs)))
	for i, err := range errs {
		b.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return b.String()
}

// Validate 校验配置，任何错误都会阻止服务启动
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateClassifier()...)
	errs = append(errs, c.validateIndex()...)
	errs = append(errs, c.validateRedis()...)
	errs = append(errs, c.validateLog()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (c *Config) validateServer() ValidationErrors {
	var errs ValidationErrors

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", c.Server.Port),
		})
	}

	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, ValidationError{
			Field:   "server.mode",
			Message: fmt.Sprintf("unknown mode %q", c.Server.Mode),
		})
	}
	return errs
}

func (c *Config) validateClassifier() ValidationErrors {
	var errs ValidationErrors

	// 请求可以临时切换到 knn，无论默认算法是什么都校验 knn 参数
	knn := c.Classifier.KNN
	if knn.K <= 0 {
		errs = append(errs, ValidationError{
			Field:   "classifier.knn.k",
			Message: fmt.Sprintf("k must be positive, got %d", knn.K),
		})
	}
	if knn.MinDf < 0 {
		errs = append(errs, ValidationError{
			Field:   "classifier.knn.minDf",
			Message: fmt.Sprintf("minDf must not be negative, got %d", knn.MinDf),
		})
	}
	if knn.MinTf < 0 {
		errs = append(errs, ValidationError{
			Field:   "classifier.knn.minTf",
			Message: fmt.Sprintf("minTf must not be negative, got %d", knn.MinTf),
		})
	}

	switch c.Classifier.Algorithm {
	case "knn", "bayes":
	case "":
		errs = append(errs, ValidationError{
			Field:   "classifier.algorithm",
			Message: "algorithm is required (knn or bayes)",
		})
	default:
		errs = append(errs, ValidationError{
			Field:   "classifier.algorithm",
			Message: fmt.Sprintf("unsupported algorithm %q (knn or bayes)", c.Classifier.Algorithm),
		})
	}

	if c.Classifier.Bayes.MaxTrainingDocs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "classifier.bayes.maxTrainingDocs",
			Message: "maxTrainingDocs must be positive",
		})
	}
	return errs
}

func (c *Config) validateIndex() ValidationErrors {
	var errs ValidationErrors

	if !c.Index.MemOnly && c.Index.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "index.path",
			Message: "index path is required unless memOnly is set",
		})
	}

	if len(c.Index.Fields) == 0 {
		errs = append(errs, ValidationError{
			Field:   "index.fields",
			Message: "at least one field mapping is required",
		})
	}

	seen := make(map[string]bool, len(c.Index.Fields))
	for i, f := range c.Index.Fields {
		if f.Name == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("index.fields[%d].name", i),
				Message: "field name is required",
			})
			continue
		}
		if seen[f.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("index.fields[%d].name", i),
				Message: fmt.Sprintf("duplicate field %q", f.Name),
			})
		}
		seen[f.Name] = true
	}

	if c.Index.DefaultField != "" && !seen[c.Index.DefaultField] {
		errs = append(errs, ValidationError{
			Field:   "index.defaultField",
			Message: fmt.Sprintf("default field %q is not a configured field", c.Index.DefaultField),
		})
	}

	if c.Index.BatchSize <= 0 {
		errs = append(errs, ValidationError{
			Field:   "index.batchSize",
			Message: "batch size must be positive",
		})
	}
	return errs
}

func (c *Config) validateRedis() ValidationErrors {
	if !c.Redis.Enabled {
		return nil
	}

	var errs ValidationErrors
	if c.Redis.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "redis.host",
			Message: "redis host is required when redis is enabled",
		})
	}
	if c.Redis.TTLSeconds <= 0 {
		errs = append(errs, ValidationError{
			Field:   "redis.ttlSeconds",
			Message: "cache TTL must be positive",
		})
	}
	return errs
}

func (c *Config) validateLog() ValidationErrors {
	var errs ValidationErrors

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown log level %q", c.Log.Level),
		})
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("unknown log format %q", c.Log.Format),
		})
	}
	return errs
}
