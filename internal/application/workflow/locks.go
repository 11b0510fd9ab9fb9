package workflow

import "sync"

const lockStripes = 64

// keyedMutex serializes work per expense id. Ids sharing a stripe also
// serialize, which only costs throughput.
type keyedMutex struct {
	stripes [lockStripes]sync.Mutex
}

func (k *keyedMutex) lock(id int64) func() {
	m := &k.stripes[uint64(id)%lockStripes]
	m.Lock()
	return m.Unlock
}
