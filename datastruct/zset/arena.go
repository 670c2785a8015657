package mzset

// nodeID 记录句柄，0 为空句柄
type nodeID uint32

const nilNode nodeID = 0

// record 有序集合成员记录，同时挂在 hash 索引与 avl 树上
type record struct {
	name  string
	score float64

	// hash 索引链接
	hcode uint64
	next  nodeID

	// avl 树链接
	parent nodeID
	left   nodeID
	right  nodeID
	height uint32
	cnt    uint32 // 子树节点数
}

// arena 记录存储池，持有全部 record 的所有权
// 索引结构只保存句柄，不持有指针
type arena struct {
	records []record
	free    []nodeID
}

func newArena() arena {
	// 下标 0 保留给空句柄
	return arena{records: make([]record, 1)}
}

// at 返回句柄对应记录，返回的指针在下一次 alloc 前有效
func (a *arena) at(id nodeID) *record {
	return &a.records[id]
}

func (a *arena) alloc(name string, score float64, hcode uint64) nodeID {
	rec := record{
		name:   name,
		score:  score,
		hcode:  hcode,
		height: 1,
		cnt:    1,
	}

	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		a.records[id] = rec
		return id
	}

	a.records = append(a.records, rec)
	return nodeID(len(a.records) - 1)
}

func (a *arena) release(id nodeID) {
	a.records[id] = record{}
	a.free = append(a.free, id)
}

func (a *arena) reset() {
	a.records = make([]record, 1)
	a.free = nil
}
