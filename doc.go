// Package recommend 是一个图书推荐系统：离线用隐式反馈 ALS 学习用户/图书隐因子，
// 在线并发执行协同过滤与内容（偏好向量）两路召回，再按固定配额混合成最终推荐集合。
//
// 主要组成：
//   - feature.Builder：行为事件 → (user, item, weight) 加权交互
//   - model.ALS：交替最小二乘训练隐因子
//   - store.FactorStore：因子表 parquet 持久化与加载
//   - recall.ALSRecall / recall.ContentRecall：两路召回源
//   - recall.Fanout + recall.HybridMerger：并发召回、降级与合并
//   - service：训练任务与在线推荐的组装
package recommend

import "github.com/osako110/Recommend/pipeline"

// 轻量 facade：便于直接 import 根包使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindPostProcess = pipeline.KindPostProcess
)
