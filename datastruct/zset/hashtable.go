package mzset

import (
	"github.com/cespare/xxhash/v2"
)

const (
	initBuckets   = 4
	rehashingWork = 128 // 每次操作最多迁移的节点数
)

func hashName(name string) uint64 {
	return xxhash.Sum64String(name)
}

// htab 固定大小的拉链哈希表，桶数为 2 的幂
type htab struct {
	slots []nodeID
	mask  uint64
	size  int
}

func newHtab(n int) htab {
	return htab{
		slots: make([]nodeID, n),
		mask:  uint64(n - 1),
	}
}

func (t *htab) insert(a *arena, id nodeID) {
	rec := a.at(id)
	pos := rec.hcode & t.mask
	rec.next = t.slots[pos]
	t.slots[pos] = id
	t.size++
}

// lookup 返回目标节点及其链表前驱，前驱为空表示位于桶头
func (t *htab) lookup(a *arena, name string, hcode uint64) (prev, cur nodeID) {
	if t.slots == nil {
		return nilNode, nilNode
	}

	for cur = t.slots[hcode&t.mask]; cur != nilNode; prev, cur = cur, a.at(cur).next {
		rec := a.at(cur)
		if rec.hcode == hcode && rec.name == name {
			return prev, cur
		}
	}
	return nilNode, nilNode
}

func (t *htab) detach(a *arena, prev, cur nodeID) {
	rec := a.at(cur)
	if prev == nilNode {
		t.slots[rec.hcode&t.mask] = rec.next
	} else {
		a.at(prev).next = rec.next
	}
	rec.next = nilNode
	t.size--
}

func (t *htab) forEach(a *arena, f func(id nodeID) bool) bool {
	for _, head := range t.slots {
		for id := head; id != nilNode; {
			next := a.at(id).next
			if !f(id) {
				return false
			}
			id = next
		}
	}
	return true
}

// hashIndex 成员名到记录的索引
// 扩容时采用渐进式 rehash：旧表保留在 older 中，每次操作迁移一部分节点
type hashIndex struct {
	a          *arena
	newer      htab
	older      htab
	migratePos int
}

func newHashIndex(a *arena) hashIndex {
	return hashIndex{a: a}
}

// lookup 按名称查找记录
func (h *hashIndex) lookup(name string, hcode uint64) nodeID {
	h.helpRehashing()
	if _, cur := h.newer.lookup(h.a, name, hcode); cur != nilNode {
		return cur
	}
	_, cur := h.older.lookup(h.a, name, hcode)
	return cur
}

// insert 插入记录，调用方保证名称不存在
func (h *hashIndex) insert(id nodeID) {
	if h.newer.slots == nil {
		h.newer = newHtab(initBuckets)
	}
	h.newer.insert(h.a, id)

	// 负载因子超过 0.75 时触发扩容
	if h.older.slots == nil && h.newer.size*4 >= len(h.newer.slots)*3 {
		h.triggerRehashing()
	}
	h.helpRehashing()
}

// remove 摘除记录并返回句柄，记录不存在时返回空句柄
func (h *hashIndex) remove(name string, hcode uint64) nodeID {
	h.helpRehashing()
	if prev, cur := h.newer.lookup(h.a, name, hcode); cur != nilNode {
		h.newer.detach(h.a, prev, cur)
		return cur
	}
	if prev, cur := h.older.lookup(h.a, name, hcode); cur != nilNode {
		h.older.detach(h.a, prev, cur)
		return cur
	}
	return nilNode
}

func (h *hashIndex) len() int {
	return h.newer.size + h.older.size
}

func (h *hashIndex) forEach(f func(id nodeID) bool) {
	if h.newer.forEach(h.a, f) {
		h.older.forEach(h.a, f)
	}
}

func (h *hashIndex) reset() {
	h.newer = htab{}
	h.older = htab{}
	h.migratePos = 0
}

func (h *hashIndex) triggerRehashing() {
	h.older = h.newer
	h.newer = newHtab(len(h.older.slots) * 2)
	h.migratePos = 0
}

func (h *hashIndex) helpRehashing() {
	for work := 0; work < rehashingWork && h.older.size > 0; {
		head := h.older.slots[h.migratePos]
		if head == nilNode {
			h.migratePos++
			continue
		}
		h.older.detach(h.a, nilNode, head)
		h.newer.insert(h.a, head)
		work++
	}

	if h.older.size == 0 && h.older.slots != nil {
		h.older = htab{}
	}
}
