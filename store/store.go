// Package store 提供 core.Store / core.KeyValueStore 的实现：
// MemoryStore（测试/开发）、RedisStore（生产）、BoltStore（单机持久化）。
//
// 接口定义在 core 包：
//
//	var kv core.KeyValueStore = store.NewMemoryStore()
package store
