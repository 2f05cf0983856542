package store

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// keyLocks serializes merges per record key within the process. Distinct keys
// hash to distinct stripes most of the time, so unrelated writes rarely wait.
type keyLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (k *keyLocks) lock(groupID, id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(groupID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(id))
	mu := &k.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
