package scheduler

import "errors"

var (
	// ErrConfiguration: 输入的任务、资源或参数组合使得调度根本无法进行
	ErrConfiguration = errors.New("调度配置不合法")
	// ErrCyclicDependency: 任务依赖图中存在环
	ErrCyclicDependency = errors.New("任务依赖图中存在环")
	// ErrInfeasibleConstruction: 单次贪心构造中没有任何任务可以被放置
	ErrInfeasibleConstruction = errors.New("无法构造可行的初始调度")
	// ErrSchedulingFailure: 整个搜索过程中没有找到任何适应度有限的方案
	ErrSchedulingFailure = errors.New("未能找到可行的调度方案")
)
