package scheduler

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"

	"ledger-audit/internal/models"
)

func pushTask(h *taskHeap, seq int64, id string, p models.Priority) {
	heap.Push(h, &queueItem{task: &models.BatchTask{ID: id, Priority: p}, seq: seq})
}

func popID(h *taskHeap) string {
	return heap.Pop(h).(*queueItem).task.ID
}

func TestTaskHeap_PriorityOrder(t *testing.T) {
	var h taskHeap
	pushTask(&h, 1, "low", models.PriorityLow)
	pushTask(&h, 2, "critical", models.PriorityCritical)
	pushTask(&h, 3, "normal", models.PriorityNormal)
	pushTask(&h, 4, "high", models.PriorityHigh)

	assert.Equal(t, "critical", popID(&h))
	assert.Equal(t, "high", popID(&h))
	assert.Equal(t, "normal", popID(&h))
	assert.Equal(t, "low", popID(&h))
}

func TestTaskHeap_FIFOWithinPriority(t *testing.T) {
	var h taskHeap
	pushTask(&h, 1, "first", models.PriorityNormal)
	pushTask(&h, 2, "second", models.PriorityNormal)
	pushTask(&h, 3, "third", models.PriorityNormal)

	assert.Equal(t, "first", popID(&h))
	assert.Equal(t, "second", popID(&h))
	assert.Equal(t, "third", popID(&h))
}
