package domain

// Resource: 一个可用的调度资源
// Capacity 是整个调度周期内可以消耗的总时长，而不是并发槽位数
type Resource struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Capacity int64  `json:"capacity"`
}
