package reminders

import "container/heap"

type entry struct {
	job Job
	gen uint64
}

// jobQueue is a min-heap on fire time. Cancelled entries stay in the heap and
// are dropped when they reach the top, or in bulk by retain.
type jobQueue []entry

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool {
	if q[i].job.FireAt.Equal(q[j].job.FireAt) {
		return q[i].gen < q[j].gen
	}
	return q[i].job.FireAt.Before(q[j].job.FireAt)
}

func (q jobQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *jobQueue) Push(x any) { *q = append(*q, x.(entry)) }

func (q *jobQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}

// retain keeps the entries matching keep and restores the heap order.
func (q *jobQueue) retain(keep func(entry) bool) {
	kept := (*q)[:0]
	for _, e := range *q {
		if keep(e) {
			kept = append(kept, e)
		}
	}
	clear((*q)[len(kept):])
	*q = kept
	heap.Init(q)
}

var _ heap.Interface = (*jobQueue)(nil)
