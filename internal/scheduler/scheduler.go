package scheduler

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
)

// Observer 在每一代结束后被调用一次，用于外部观察搜索的进展
// 不允许在回调中修改种群状态
type Observer func(generation int32, bestFitness float64, stallCount int32)

type Scheduler struct {
	parameters  *Parameters
	jobs        []*domain.Job
	resources   []*domain.Resource
	jobMap      map[int64]*domain.Job
	resourceMap map[int64]*domain.Resource
	rng         *rand.Rand
	observer    Observer
}

func New(parameters *Parameters, jobs []*domain.Job, resources []*domain.Resource, rng *rand.Rand, observer Observer) (*Scheduler, error) {
	if err := parameters.validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: 随机数生成器不能为 nil", ErrConfiguration)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: 任务列表为空", ErrConfiguration)
	}
	if len(resources) == 0 {
		return nil, fmt.Errorf("%w: 资源列表为空", ErrConfiguration)
	}

	params := *parameters
	if params.TournamentSize < 2 {
		params.TournamentSize = defaultTournamentSize
	}

	s := &Scheduler{
		parameters:  &params,
		jobs:        jobs,
		resources:   resources,
		jobMap:      make(map[int64]*domain.Job, len(jobs)),
		resourceMap: make(map[int64]*domain.Resource, len(resources)),
		rng:         rng,
		observer:    observer,
	}

	var maxCapacity int64
	for _, resource := range resources {
		if resource.Capacity < 0 {
			return nil, fmt.Errorf("%w: 资源 %d 的容量不能为负数", ErrConfiguration, resource.ID)
		}
		if _, exists := s.resourceMap[resource.ID]; exists {
			return nil, fmt.Errorf("%w: 资源 ID %d 重复", ErrConfiguration, resource.ID)
		}
		s.resourceMap[resource.ID] = resource
		if resource.Capacity > maxCapacity {
			maxCapacity = resource.Capacity
		}
	}

	for _, job := range jobs {
		if job.Duration <= 0 {
			return nil, fmt.Errorf("%w: 任务 %d 的时长必须为正数", ErrConfiguration, job.ID)
		}
		if _, exists := s.jobMap[job.ID]; exists {
			return nil, fmt.Errorf("%w: 任务 ID %d 重复", ErrConfiguration, job.ID)
		}
		s.jobMap[job.ID] = job
		// 不允许分片时，任何资源都容纳不下的任务永远无法被调度
		if !params.AllowChunking && job.Duration > maxCapacity {
			return nil, fmt.Errorf("%w: 任务 %d 的时长 %d 超过了所有资源的容量且不允许分片", ErrConfiguration, job.ID, job.Duration)
		}
	}

	for _, job := range jobs {
		for _, dep := range job.Dependencies {
			if _, exists := s.jobMap[dep]; !exists {
				return nil, fmt.Errorf("%w: 任务 %d 依赖了不存在的任务 %d", ErrConfiguration, job.ID, dep)
			}
		}
	}

	if DetectCycle(jobs) {
		return nil, ErrCyclicDependency
	}

	return s, nil
}

// Schedule 运行遗传算法搜索，返回找到过的最优染色体及其适应度
func (s *Scheduler) Schedule() (*Chromosome, float64, error) {
	pop, err := s.buildInitialPopulation()
	if err != nil {
		return nil, 0, err
	}

	best := &Chromosome{fitness: math.Inf(1)}
	stall := int32(0)

	for gen := int32(0); ; gen++ {
		// 评估整个种群
		for _, ch := range pop {
			s.calcFitness(ch)
		}

		// 跟踪全局最优个体
		genBest := pop[0]
		for _, ch := range pop[1:] {
			if ch.fitness < genBest.fitness {
				genBest = ch
			}
		}
		if genBest.fitness < best.fitness {
			best = genBest.clone()
			stall = 0
		} else {
			stall++
		}

		if s.observer != nil {
			s.observer(gen, best.fitness, stall)
		}

		if stall >= s.parameters.Patience {
			break
		}

		// 繁殖下一代
		survivors := s.selectPopulation(pop)
		pop = s.breed(survivors)

		// 按值检查最优个体是否仍在种群中，不在则强制插入到最后一个位置
		// 这保证了最优适应度随代数单调不增
		bestHash := best.hash()
		present := false
		for _, ch := range pop {
			if ch.hash() == bestHash {
				present = true
				break
			}
		}
		if !present {
			pop[len(pop)-1] = best.clone()
		}
	}

	if math.IsInf(best.fitness, 1) {
		return nil, 0, ErrSchedulingFailure
	}
	return best, best.fitness, nil
}

// buildInitialPopulation 通过贪心编码器构造初始种群
// 单次构造失败只影响这一次尝试，整体重试直到预算耗尽
func (s *Scheduler) buildInitialPopulation() ([]*Chromosome, error) {
	popSize := int(s.parameters.PopulationSize)
	maxAttempts := popSize * 10

	pop := make([]*Chromosome, 0, popSize)
	seen := make(map[uint64]bool, popSize)

	for attempts := 0; len(pop) < popSize; attempts++ {
		if attempts >= maxAttempts {
			return nil, fmt.Errorf("%w: 连续 %d 次贪心构造尝试均告失败", ErrInfeasibleConstruction, attempts)
		}

		ch, err := s.encodeChromosome()
		if err != nil {
			continue
		}

		// 与已有个体重复的染色体通过变异扰动，保持种群多样性
		for i := 0; i < 8 && seen[ch.hash()]; i++ {
			s.mutate(ch)
		}

		seen[ch.hash()] = true
		pop = append(pop, ch)
	}

	return pop, nil
}

// breed 将幸存者依次两两配对繁殖，产出的非法后代被直接丢弃
// 落单的幸存者原样进入下一代
func (s *Scheduler) breed(survivors []*Chromosome) []*Chromosome {
	popSize := int(s.parameters.PopulationSize)
	next := make([]*Chromosome, 0, popSize)

	const maxPasses = 64
	for pass := 0; pass < maxPasses && len(next) < popSize; pass++ {
		for i := 0; i+1 < len(survivors) && len(next) < popSize; i += 2 {
			c1, c2 := s.crossover(survivors[i], survivors[i+1])
			s.mutate(c1)
			s.mutate(c2)

			if s.validateOffspring(c1) {
				next = append(next, c1)
			}
			if len(next) < popSize && s.validateOffspring(c2) {
				next = append(next, c2)
			}
		}
		if len(survivors)%2 == 1 && len(next) < popSize {
			next = append(next, survivors[len(survivors)-1].clone())
		}
	}

	// 兜底：算子持续产生非法后代时用幸存者的拷贝补齐种群
	for i := 0; len(next) < popSize; i++ {
		next = append(next, survivors[i%len(survivors)].clone())
	}

	return next
}
