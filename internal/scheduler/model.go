package scheduler

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
)

// TaskID: 调度的最小单位
// Chunk 为 0 时表示整个任务，大于 0 时表示任务的第 Chunk 个分片（从 1 开始）
type TaskID struct {
	JobID int64
	Chunk int32
}

func (t TaskID) IsChunk() bool {
	return t.Chunk > 0
}

func (t TaskID) String() string {
	if t.IsChunk() {
		return fmt.Sprintf("%d-%d", t.JobID, t.Chunk)
	}
	return fmt.Sprintf("%d", t.JobID)
}

// Gene: 对某个任务（或任务分片）的一条安排
type Gene struct {
	task       TaskID
	resourceID int64
	start      int64
	end        int64
}

func (g *Gene) Task() TaskID      { return g.task }
func (g *Gene) ResourceID() int64 { return g.resourceID }
func (g *Gene) Start() int64      { return g.start }
func (g *Gene) End() int64        { return g.end }

func (g *Gene) Duration() int64 {
	return g.end - g.start
}

func (g *Gene) clone() *Gene {
	c := *g
	return &c
}

// Chromosome: 一个候选的完整调度方案
type Chromosome struct {
	genes   []*Gene
	fitness float64
}

func (ch *Chromosome) Genes() []*Gene   { return ch.genes }
func (ch *Chromosome) Fitness() float64 { return ch.fitness }

// 深拷贝，防止后续繁殖的过程中导致指向的基因被修改
func (ch *Chromosome) clone() *Chromosome {
	c := &Chromosome{
		genes:   make([]*Gene, len(ch.genes)),
		fitness: ch.fitness,
	}
	for i, g := range ch.genes {
		c.genes[i] = g.clone()
	}
	return c
}

// hash 计算染色体内容的哈希值，用于种群去重和按值判断最优个体是否在种群中
// 基因集合是无序的，因此先按规范顺序排序再哈希
func (ch *Chromosome) hash() uint64 {
	sorted := make([]*Gene, len(ch.genes))
	copy(sorted, ch.genes)
	sort.Slice(sorted, func(i, j int) bool {
		gi, gj := sorted[i], sorted[j]
		if gi.task.JobID != gj.task.JobID {
			return gi.task.JobID < gj.task.JobID
		}
		if gi.task.Chunk != gj.task.Chunk {
			return gi.task.Chunk < gj.task.Chunk
		}
		if gi.resourceID != gj.resourceID {
			return gi.resourceID < gj.resourceID
		}
		return gi.start < gj.start
	})

	h := fnv.New64a()
	buf := make([]byte, 8)
	writeInt := func(v int64) {
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		_, _ = h.Write(buf)
	}
	for _, g := range sorted {
		writeInt(g.task.JobID)
		writeInt(int64(g.task.Chunk))
		writeInt(g.resourceID)
		writeInt(g.start)
		writeInt(g.end)
	}
	return h.Sum64()
}

// NewChromosomeFromGenes 用持久化的排程结果重建染色体，供调度表投影使用
func NewChromosomeFromGenes(genes []domain.SchedulingResultGene) *Chromosome {
	ch := &Chromosome{
		genes: make([]*Gene, len(genes)),
	}
	for i, g := range genes {
		ch.genes[i] = &Gene{
			task:       TaskID{JobID: g.JobID, Chunk: g.ChunkIndex},
			resourceID: g.ResourceID,
			start:      g.StartTime,
			end:        g.EndTime,
		}
	}
	return ch
}

// ResultGenes 把染色体转换为可持久化的排程结果基因
func (ch *Chromosome) ResultGenes() []domain.SchedulingResultGene {
	genes := make([]domain.SchedulingResultGene, len(ch.genes))
	for i, g := range ch.genes {
		genes[i] = domain.SchedulingResultGene{
			JobID:      g.task.JobID,
			ChunkIndex: g.task.Chunk,
			ResourceID: g.resourceID,
			StartTime:  g.start,
			EndTime:    g.end,
		}
	}
	return genes
}

// Makespan 返回所有基因中最大的结束时间
func (ch *Chromosome) Makespan() int64 {
	var makespan int64
	for _, g := range ch.genes {
		if g.end > makespan {
			makespan = g.end
		}
	}
	return makespan
}

// 遗传算法参数
type Parameters struct {
	PopulationSize int32   // 种群大小
	MutationRate   float64 // 变异概率
	CrossoverRate  float64 // 交叉概率
	SelectionRatio float64 // 选择比例，每一代保留的样本占种群的比例
	TournamentSize int32   // 锦标赛选择的参赛样本数量
	Quantum        int64   // 分片的时间片长度
	AllowChunking  bool    // 是否允许将超长任务切分为分片
	Patience       int32   // 最优适应度连续多少代没有改进后停止迭代
}

const defaultTournamentSize = 3

func (p *Parameters) validate() error {
	if p.PopulationSize < 2 {
		return fmt.Errorf("%w: 种群大小必须不小于 2", ErrConfiguration)
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return fmt.Errorf("%w: 变异概率必须在 [0, 1] 之间", ErrConfiguration)
	}
	if p.CrossoverRate < 0 || p.CrossoverRate > 1 {
		return fmt.Errorf("%w: 交叉概率必须在 [0, 1] 之间", ErrConfiguration)
	}
	if p.SelectionRatio <= 0 || p.SelectionRatio > 1 {
		return fmt.Errorf("%w: 选择比例必须在 (0, 1] 之间", ErrConfiguration)
	}
	if p.AllowChunking && p.Quantum <= 0 {
		return fmt.Errorf("%w: 允许分片时时间片长度必须为正数", ErrConfiguration)
	}
	if p.Patience < 1 {
		return fmt.Errorf("%w: 停止迭代的耐心值必须为正数", ErrConfiguration)
	}
	return nil
}
