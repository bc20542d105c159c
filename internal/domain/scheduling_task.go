package domain

// SchedulingParameters: 一次排程运行所使用的遗传算法参数
type SchedulingParameters struct {
	PopulationSize int32   `json:"populationSize"`
	MutationRate   float64 `json:"mutationRate"`
	CrossoverRate  float64 `json:"crossoverRate"`
	SelectionRatio float64 `json:"selectionRatio"`
	TournamentSize int32   `json:"tournamentSize"`
	Quantum        int64   `json:"quantum"`
	AllowChunking  bool    `json:"allowChunking"`
	Patience       int32   `json:"patience"`
}

// SchedulingTask: 投递到消息队列中的排程任务
type SchedulingTask struct {
	SchedulePlanID int64                `json:"schedulePlanID"`
	NotifyEmail    string               `json:"notifyEmail"`
	Parameters     SchedulingParameters `json:"parameters"`
}
