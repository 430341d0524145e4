// Package store 提供各领域接口的基础设施实现：
//   - core.Store：MemoryStore、RedisStore（图书元数据缓存）
//   - core.ArtifactStore：File / S3 / MinIO / Memory（训练产物）
//   - core.VectorService：MemoryVectorService
//   - FactorStore：隐因子表的 parquet 持久化与加载
package store
