package mzset

import (
	"iter"
)

// Member 有序集合成员
type Member struct {
	Name  string
	Score float64
}

// ZSet 有序集合
// hash 索引负责按名称查找，avl 树负责按 (score, name) 排序、范围查询与排名
// 两个索引共享同一批记录，记录归 arena 所有
// ZSet 不加锁，由上层保证串行访问
// 索引持有 arena 的地址，只能通过 New 构造并以指针使用，零值与拷贝均不可用
type ZSet struct {
	arena arena
	hmap  hashIndex
	tree  tree
}

// New 初始化有序集合
func New() *ZSet {
	z := &ZSet{arena: newArena()}
	z.hmap = newHashIndex(&z.arena)
	z.tree = newTree(&z.arena)
	return z
}

// Len 成员数
func (z *ZSet) Len() int {
	return z.hmap.len()
}

// Add 插入或更新成员，仅新成员返回 true
// 分数变化时先从树中摘除，更新分数后重新插入
func (z *ZSet) Add(name string, score float64) bool {
	hcode := hashName(name)
	if id := z.hmap.lookup(name, hcode); id != nilNode {
		if z.arena.at(id).score != score {
			z.tree.remove(id)
			z.arena.at(id).score = score
			z.tree.insert(id)
		}
		return false
	}

	id := z.arena.alloc(name, score, hcode)
	z.hmap.insert(id)
	z.tree.insert(id)
	return true
}

// Score 查询成员分数
func (z *ZSet) Score(name string) (float64, bool) {
	id := z.hmap.lookup(name, hashName(name))
	if id == nilNode {
		return 0, false
	}
	return z.arena.at(id).score, true
}

// Rem 删除成员，成员不存在时返回 false
func (z *ZSet) Rem(name string) bool {
	id := z.hmap.remove(name, hashName(name))
	if id == nilNode {
		return false
	}
	z.tree.remove(id)
	z.arena.release(id)
	return true
}

// Rank 查询成员排名，从 0 开始
func (z *ZSet) Rank(name string) (int64, bool) {
	id := z.hmap.lookup(name, hashName(name))
	if id == nilNode {
		return 0, false
	}
	return z.tree.rank(id), true
}

// Seek 定位游标
func (z *ZSet) Seek(score float64, name string, dir SeekDirection) Cursor {
	return Cursor{z: z, id: z.tree.seek(score, name, dir)}
}

// Query 从第一个 >= (score, name) 的成员开始，跳过 offset 个成员后最多返回 limit 个成员
// 返回的序列是惰性的，每次迭代重新定位，迭代过程中不可修改集合
func (z *ZSet) Query(score float64, name string, offset, limit int64) iter.Seq2[string, float64] {
	return func(yield func(string, float64) bool) {
		if limit <= 0 {
			return
		}

		cur := z.Seek(score, name, SeekGE)
		if !cur.Valid() {
			return
		}

		for cur = cur.Offset(offset); cur.Valid() && limit > 0; cur = cur.Next() {
			m := cur.Member()
			if !yield(m.Name, m.Score) {
				return
			}
			limit--
		}
	}
}

// Members 按顺序返回全部成员
func (z *ZSet) Members() []Member {
	members := make([]Member, 0, z.Len())
	z.tree.walk(func(id nodeID) bool {
		rec := z.arena.at(id)
		members = append(members, Member{Name: rec.name, Score: rec.score})
		return true
	})
	return members
}

// ForEach 按 hash 索引顺序遍历，f 返回 false 时停止
func (z *ZSet) ForEach(f func(name string, score float64) bool) {
	z.hmap.forEach(func(id nodeID) bool {
		rec := z.arena.at(id)
		return f(rec.name, rec.score)
	})
}

// Clear 清空集合
func (z *ZSet) Clear() {
	z.hmap.reset()
	z.tree.root = nilNode
	z.arena.reset()
}

// Cursor 指向有序集合中某个成员的游标
// 集合被修改后游标失效
type Cursor struct {
	z  *ZSet
	id nodeID
}

// Valid 游标是否指向成员
func (c Cursor) Valid() bool {
	return c.z != nil && c.id != nilNode
}

// Member 当前成员
func (c Cursor) Member() Member {
	rec := c.z.arena.at(c.id)
	return Member{Name: rec.name, Score: rec.score}
}

// Offset 前后移动 delta 个位置，越界后游标无效
func (c Cursor) Offset(delta int64) Cursor {
	if !c.Valid() {
		return c
	}
	return Cursor{z: c.z, id: c.z.tree.offset(c.id, delta)}
}

// Next 移动到下一个成员
func (c Cursor) Next() Cursor {
	return c.Offset(1)
}

// Prev 移动到上一个成员
func (c Cursor) Prev() Cursor {
	return c.Offset(-1)
}

// Rank 当前成员排名
func (c Cursor) Rank() int64 {
	return c.z.tree.rank(c.id)
}
