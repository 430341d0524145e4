package core

import "time"

// RecallConfig 是召回相关的配置接口，用于提供默认值。
type RecallConfig interface {
	// DefaultTopK 返回单路召回默认的 TopK
	DefaultTopK() int

	// DefaultPerSourceQuota 返回合并时每路最多保留的条数
	DefaultPerSourceQuota() int

	// DefaultCap 返回最终推荐集合的上限
	DefaultCap() int

	// DefaultTimeout 返回单路召回的默认超时时间
	DefaultTimeout() time.Duration
}

// DefaultRecallConfig 是默认的召回配置实现。
type DefaultRecallConfig struct{}

func (c *DefaultRecallConfig) DefaultTopK() int {
	return 50
}

func (c *DefaultRecallConfig) DefaultPerSourceQuota() int {
	return 25
}

func (c *DefaultRecallConfig) DefaultCap() int {
	return 50
}

func (c *DefaultRecallConfig) DefaultTimeout() time.Duration {
	return 2 * time.Second
}
