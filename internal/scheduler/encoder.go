package scheduler

import (
	"sort"

	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
)

// encodeChromosome 通过贪心的列表调度构造一个可行的染色体
// 任务先打乱再按时长降序稳定排序，时长相同的任务之间顺序随机，
// 种群的多样性正是来源于此
func (s *Scheduler) encodeChromosome() (*Chromosome, error) {
	order := make([]*domain.Job, len(s.jobs))
	copy(order, s.jobs)
	s.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Duration > order[j].Duration
	})

	// 每个资源的剩余容量和下一个空闲时刻
	remaining := make(map[int64]int64, len(s.resources))
	nextFree := make(map[int64]int64, len(s.resources))
	for _, resource := range s.resources {
		remaining[resource.ID] = resource.Capacity
	}

	completion := make(map[int64]int64, len(order))
	scheduled := make(map[int64]bool, len(order))
	genes := make([]*Gene, 0, len(order))

	// placeTask 在剩余容量足够的资源中选择最早可开始的那一个
	// 开始时间取依赖完成时间和资源空闲时刻的较大者，并列时按资源遍历顺序取先者
	placeTask := func(task TaskID, length, ready int64) (*Gene, bool) {
		var chosen int64
		chosenStart := int64(-1)

		for _, resource := range s.resources {
			if remaining[resource.ID] < length {
				continue
			}
			start := ready
			if nextFree[resource.ID] > start {
				start = nextFree[resource.ID]
			}
			if chosenStart < 0 || start < chosenStart {
				chosen = resource.ID
				chosenStart = start
			}
		}

		if chosenStart < 0 {
			return nil, false
		}

		gene := &Gene{
			task:       task,
			resourceID: chosen,
			start:      chosenStart,
			end:        chosenStart + length,
		}
		nextFree[chosen] = gene.end
		remaining[chosen] -= length
		return gene, true
	}

	// 按轮次扫描：只有依赖全部被调度的任务才能被调度，
	// 一整轮没有任何任务被调度且仍有剩余任务时，本次构造失败
	for len(scheduled) < len(order) {
		progressed := false

		for _, job := range order {
			if scheduled[job.ID] {
				continue
			}

			ready := int64(0)
			depsReady := true
			for _, dep := range job.Dependencies {
				if !scheduled[dep] {
					depsReady = false
					break
				}
				if completion[dep] > ready {
					ready = completion[dep]
				}
			}
			if !depsReady {
				continue
			}

			if s.needsChunking(job) {
				// 超长任务切分为分片链，后继分片依赖前一个分片的完成时间
				count := chunkCount(job.Duration, s.parameters.Quantum)
				allPlaced := true
				for k := int32(1); k <= count; k++ {
					length := chunkLength(job.Duration, s.parameters.Quantum, k)
					gene, ok := placeTask(TaskID{JobID: job.ID, Chunk: k}, length, ready)
					if !ok {
						// 分片放不下说明容量已经耗尽，后续轮次也不可能成功
						allPlaced = false
						break
					}
					genes = append(genes, gene)
					ready = gene.end
				}
				if !allPlaced {
					return nil, ErrInfeasibleConstruction
				}
				completion[job.ID] = ready
			} else {
				gene, ok := placeTask(TaskID{JobID: job.ID}, job.Duration, ready)
				if !ok {
					continue
				}
				genes = append(genes, gene)
				completion[job.ID] = gene.end
			}

			scheduled[job.ID] = true
			progressed = true
		}

		if !progressed {
			return nil, ErrInfeasibleConstruction
		}
	}

	return &Chromosome{genes: genes}, nil
}
