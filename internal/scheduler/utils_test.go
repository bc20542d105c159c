package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkCount(t *testing.T) {
	assert.Equal(t, int32(1), chunkCount(4, 4))
	assert.Equal(t, int32(2), chunkCount(5, 4))
	assert.Equal(t, int32(3), chunkCount(10, 4))
	assert.Equal(t, int32(3), chunkCount(12, 4))
	assert.Equal(t, int32(1), chunkCount(1, 4))
}

func TestChunkLength(t *testing.T) {
	// 10 = 4 + 4 + 2
	assert.Equal(t, int64(4), chunkLength(10, 4, 1))
	assert.Equal(t, int64(4), chunkLength(10, 4, 2))
	assert.Equal(t, int64(2), chunkLength(10, 4, 3))

	// 整除时最后一个分片也是完整的时间片
	assert.Equal(t, int64(4), chunkLength(12, 4, 3))

	// 分片时长之和应等于任务的总时长
	for _, duration := range []int64{1, 4, 5, 7, 8, 13, 100} {
		var sum int64
		for k := int32(1); k <= chunkCount(duration, 4); k++ {
			sum += chunkLength(duration, 4, k)
		}
		assert.Equal(t, duration, sum, "duration=%d", duration)
	}
}

func TestTaskIDString(t *testing.T) {
	assert.Equal(t, "12", TaskID{JobID: 12}.String())
	assert.Equal(t, "12-3", TaskID{JobID: 12, Chunk: 3}.String())
	assert.False(t, TaskID{JobID: 12}.IsChunk())
	assert.True(t, TaskID{JobID: 12, Chunk: 1}.IsChunk())
}
