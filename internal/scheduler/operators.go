package scheduler

// selectPopulation 实行精英保留加锦标赛选择
// 适应度最低的个体无条件保留，其余名额由相互独立的锦标赛填充
func (s *Scheduler) selectPopulation(pop []*Chromosome) []*Chromosome {
	count := int(s.parameters.SelectionRatio * float64(s.parameters.PopulationSize))
	if count < 1 {
		count = 1
	}
	if count > len(pop) {
		count = len(pop)
	}

	bestIndex := 0
	for i, ch := range pop {
		if ch.fitness < pop[bestIndex].fitness {
			bestIndex = i
		}
	}

	survivors := make([]*Chromosome, 0, count)
	survivors = append(survivors, pop[bestIndex])
	for len(survivors) < count {
		survivors = append(survivors, s.tournamentSelect(pop))
	}
	return survivors
}

// tournamentSelect 随机抽取 k 个互不相同的个体，返回其中适应度最低者
func (s *Scheduler) tournamentSelect(pop []*Chromosome) *Chromosome {
	k := int(s.parameters.TournamentSize)
	if k > len(pop) {
		k = len(pop)
	}

	best := -1
	picked := make(map[int]bool, k)
	for len(picked) < k {
		i := s.rng.Intn(len(pop))
		if picked[i] {
			continue
		}
		picked[i] = true
		if best < 0 || pop[i].fitness < pop[best].fitness {
			best = i
		}
	}
	return pop[best]
}

// crossover 以 CrossoverRate 的概率进行两点段交换，否则返回双亲的拷贝
func (s *Scheduler) crossover(p1, p2 *Chromosome) (*Chromosome, *Chromosome) {
	minLen := len(p1.genes)
	if len(p2.genes) < minLen {
		minLen = len(p2.genes)
	}

	if minLen < 2 || s.rng.Float64() >= s.parameters.CrossoverRate {
		return p1.clone(), p2.clone()
	}

	a := s.rng.Intn(minLen)
	b := s.rng.Intn(minLen)
	for b == a {
		b = s.rng.Intn(minLen)
	}
	if a > b {
		a, b = b, a
	}

	return s.crossoverChild(p1, p2, a, b), s.crossoverChild(p2, p1, a, b)
}

// crossoverChild 取 main 的 [a, b) 段，再按 other 的原始顺序补上段中没有的任务
// 产出的孩子按任务去重，但不保证按开始时间有序
func (s *Scheduler) crossoverChild(main, other *Chromosome, a, b int) *Chromosome {
	genes := make([]*Gene, 0, len(other.genes))
	inSegment := make(map[TaskID]bool, b-a)

	for _, gene := range main.genes[a:b] {
		genes = append(genes, gene.clone())
		inSegment[gene.task] = true
	}
	for _, gene := range other.genes {
		if inSegment[gene.task] {
			continue
		}
		genes = append(genes, gene.clone())
	}

	return &Chromosome{genes: genes}
}

// mutate 以 MutationRate 的概率独立变异每一个基因
// 整任务基因以 0.7 的概率换资源，否则整体平移 [-2, 2] 的随机偏移；
// 分片基因的时长被分片公式固定，只允许换资源
func (s *Scheduler) mutate(ch *Chromosome) {
	for _, gene := range ch.genes {
		if s.rng.Float64() >= s.parameters.MutationRate {
			continue
		}

		if gene.task.IsChunk() {
			gene.resourceID = s.randomResourceID()
			continue
		}

		if s.rng.Float64() < 0.7 {
			gene.resourceID = s.randomResourceID()
		} else {
			offset := int64(s.rng.Intn(5) - 2)
			newStart := gene.start + offset
			newEnd := gene.end + offset
			if newEnd > newStart {
				gene.start = newStart
				gene.end = newEnd
			}
		}
	}
}

func (s *Scheduler) randomResourceID() int64 {
	return s.resources[s.rng.Intn(len(s.resources))].ID
}

// validateOffspring 重新计算每个任务期望的分片数量和分片时长，
// 拒绝任何分片时长与期望不符的候选染色体；整任务基因不受此约束
// 被拒绝的后代直接丢弃，不做修复
func (s *Scheduler) validateOffspring(ch *Chromosome) bool {
	for _, gene := range ch.genes {
		if !gene.task.IsChunk() {
			continue
		}
		job, ok := s.jobMap[gene.task.JobID]
		if !ok {
			return false
		}
		if !s.needsChunking(job) {
			return false
		}
		if gene.task.Chunk > chunkCount(job.Duration, s.parameters.Quantum) {
			return false
		}
		if gene.Duration() != chunkLength(job.Duration, s.parameters.Quantum, gene.task.Chunk) {
			return false
		}
	}
	return true
}
