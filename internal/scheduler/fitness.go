package scheduler

import (
	"math"
	"sort"
)

// 适应度各惩罚项的权重
const (
	dependencyPenaltyWeight = 100.0 // 早于依赖完成时间开始
	overlapPenaltyWeight    = 100.0 // 同一资源上的时间重叠
	idlePenaltyWeight       = 0.2   // 资源上的空闲间隙
	criticalPenaltyWeight   = 0.1   // 有依赖的任务（关键任务）
	imbalancePenaltyWeight  = 0.1   // 资源之间的利用率失衡
)

// calcFitness 计算染色体的适应度并赋值给染色体，数值越低越好
func (s *Scheduler) calcFitness(ch *Chromosome) {
	ch.fitness = s.evaluate(ch)
}

/**
 * 评估染色体的代价：
 * fitness = makespan + 依赖惩罚 + 重叠惩罚 + 空闲惩罚 + 关键任务惩罚 + 利用率失衡惩罚
 * 任何结构性违规（分片时长不符、非正时长、未知任务或资源、资源实际用量超过容量）
 * 直接返回正无穷，这样的染色体不可行
 */
func (s *Scheduler) evaluate(ch *Chromosome) float64 {
	infeasible := math.Inf(1)

	if len(ch.genes) == 0 {
		return infeasible
	}

	// 结构校验，同时建立按任务查找基因的索引
	geneByTask := make(map[TaskID]*Gene, len(ch.genes))
	for _, gene := range ch.genes {
		if gene.end <= gene.start {
			return infeasible
		}
		job, ok := s.jobMap[gene.task.JobID]
		if !ok {
			return infeasible
		}
		if _, ok := s.resourceMap[gene.resourceID]; !ok {
			return infeasible
		}
		if gene.task.IsChunk() {
			if !s.needsChunking(job) {
				return infeasible
			}
			if gene.task.Chunk > chunkCount(job.Duration, s.parameters.Quantum) {
				return infeasible
			}
			if gene.Duration() != chunkLength(job.Duration, s.parameters.Quantum, gene.task.Chunk) {
				return infeasible
			}
		}
		geneByTask[gene.task] = gene
	}

	// 每个任务的完成时间：该任务所有基因的最大结束时间
	jobCompletion := make(map[int64]int64, len(s.jobs))
	for _, gene := range ch.genes {
		if gene.end > jobCompletion[gene.task.JobID] {
			jobCompletion[gene.task.JobID] = gene.end
		}
	}

	// 按开始时间升序处理
	sorted := make([]*Gene, len(ch.genes))
	copy(sorted, ch.genes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start < sorted[j].start
		}
		return sorted[i].end < sorted[j].end
	})

	type resourceState struct {
		intervals [][2]int64
		usage     int64
		lastEnd   int64
	}
	states := make(map[int64]*resourceState, len(s.resources))

	var depPenalty, overlapPenalty, idlePenalty, criticalPenalty float64
	var makespan int64

	for _, gene := range sorted {
		job := s.jobMap[gene.task.JobID]

		// 本任务依赖的最大完成时间：
		// 后继分片依赖前一个分片，首分片和整任务依赖父任务的依赖集合
		var depDone int64
		if gene.task.Chunk > 1 {
			if prev, ok := geneByTask[TaskID{JobID: gene.task.JobID, Chunk: gene.task.Chunk - 1}]; ok {
				depDone = prev.end
			}
		} else {
			for _, dep := range job.Dependencies {
				if jobCompletion[dep] > depDone {
					depDone = jobCompletion[dep]
				}
			}
		}

		// 惩罚记账时把实际开始时间钳制到依赖完成时间，基因本身不被修改
		effStart := gene.start
		if depDone > effStart {
			depPenalty += dependencyPenaltyWeight * float64(depDone-effStart)
			effStart = depDone
		}

		state := states[gene.resourceID]
		if state == nil {
			state = &resourceState{}
			states[gene.resourceID] = state
		}

		for _, interval := range state.intervals {
			lo := max(interval[0], effStart)
			hi := min(interval[1], gene.end)
			if hi > lo {
				overlapPenalty += overlapPenaltyWeight * float64(hi-lo)
			}
		}

		if gap := effStart - state.lastEnd; gap > 0 {
			idlePenalty += idlePenaltyWeight * float64(gap)
		}

		if len(job.Dependencies) > 0 {
			criticalPenalty += criticalPenaltyWeight * float64(gene.Duration())
		}

		state.usage += gene.Duration()
		if state.usage > s.resourceMap[gene.resourceID].Capacity {
			return infeasible
		}

		state.intervals = append(state.intervals, [2]int64{effStart, gene.end})
		if gene.end > state.lastEnd {
			state.lastEnd = gene.end
		}
		if gene.end > makespan {
			makespan = gene.end
		}
	}

	// 利用率失衡惩罚：每个资源的已用时长与平均利用率（总用量/总容量）之差的绝对值之和
	var totalUsed, totalCapacity int64
	for _, resource := range s.resources {
		totalCapacity += resource.Capacity
		if state := states[resource.ID]; state != nil {
			totalUsed += state.usage
		}
	}
	avgUtilization := 0.0
	if totalCapacity > 0 {
		avgUtilization = float64(totalUsed) / float64(totalCapacity)
	}
	imbalancePenalty := 0.0
	for _, resource := range s.resources {
		usage := 0.0
		if state := states[resource.ID]; state != nil {
			usage = float64(state.usage)
		}
		imbalancePenalty += math.Abs(usage-avgUtilization) * imbalancePenaltyWeight
	}

	return float64(makespan) + depPenalty + overlapPenalty + idlePenalty + criticalPenalty + imbalancePenalty
}
