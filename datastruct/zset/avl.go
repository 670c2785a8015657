package mzset

// SeekDirection 定位方向
type SeekDirection int

const (
	// SeekGE 定位到第一个 >= (score, name) 的节点
	SeekGE SeekDirection = iota
	// SeekLE 定位到最后一个 <= (score, name) 的节点
	SeekLE
)

// tree avl 树，按 (score, name) 排序
type tree struct {
	a    *arena
	root nodeID
}

func newTree(a *arena) tree {
	return tree{a: a}
}

func (t *tree) height(id nodeID) uint32 {
	if id == nilNode {
		return 0
	}
	return t.a.at(id).height
}

func (t *tree) cnt(id nodeID) uint32 {
	if id == nilNode {
		return 0
	}
	return t.a.at(id).cnt
}

// compareKey 比较探测键与节点键
func compareKey(score float64, name string, n *record) int {
	switch {
	case score < n.score:
		return -1
	case score > n.score:
		return 1
	case name < n.name:
		return -1
	case name > n.name:
		return 1
	}
	return 0
}

func (t *tree) less(lhs, rhs nodeID) bool {
	l := t.a.at(lhs)
	return compareKey(l.score, l.name, t.a.at(rhs)) < 0
}

// update 重新计算高度与子树大小
func (t *tree) update(id nodeID) {
	n := t.a.at(id)
	n.height = 1 + max(t.height(n.left), t.height(n.right))
	n.cnt = 1 + t.cnt(n.left) + t.cnt(n.right)
}

func (t *tree) rotLeft(id nodeID) nodeID {
	n := t.a.at(id)
	parent := n.parent
	newID := n.right
	newNode := t.a.at(newID)
	inner := newNode.left

	n.right = inner
	if inner != nilNode {
		t.a.at(inner).parent = id
	}
	newNode.parent = parent
	newNode.left = id
	n.parent = newID

	t.update(id)
	t.update(newID)
	return newID
}

func (t *tree) rotRight(id nodeID) nodeID {
	n := t.a.at(id)
	parent := n.parent
	newID := n.left
	newNode := t.a.at(newID)
	inner := newNode.right

	n.left = inner
	if inner != nilNode {
		t.a.at(inner).parent = id
	}
	newNode.parent = parent
	newNode.right = id
	n.parent = newID

	t.update(id)
	t.update(newID)
	return newID
}

// 左子树过高
func (t *tree) fixLeft(id nodeID) nodeID {
	left := t.a.at(id).left
	if t.height(t.a.at(left).left) < t.height(t.a.at(left).right) {
		t.a.at(id).left = t.rotLeft(left)
	}
	return t.rotRight(id)
}

// 右子树过高
func (t *tree) fixRight(id nodeID) nodeID {
	right := t.a.at(id).right
	if t.height(t.a.at(right).right) < t.height(t.a.at(right).left) {
		t.a.at(id).right = t.rotRight(right)
	}
	return t.rotLeft(id)
}

// fix 自 id 向上更新并重新平衡，返回新的根节点
func (t *tree) fix(id nodeID) nodeID {
	for {
		parent := t.a.at(id).parent
		t.update(id)

		sub := id
		l, r := t.height(t.a.at(id).left), t.height(t.a.at(id).right)
		if l == r+2 {
			sub = t.fixLeft(id)
		} else if l+2 == r {
			sub = t.fixRight(id)
		}

		if parent == nilNode {
			return sub
		}

		p := t.a.at(parent)
		if p.left == id {
			p.left = sub
		} else {
			p.right = sub
		}
		id = parent
	}
}

// insert 按 (score, name) 插入节点
func (t *tree) insert(id nodeID) {
	n := t.a.at(id)
	n.parent, n.left, n.right = nilNode, nilNode, nilNode
	n.height, n.cnt = 1, 1

	var (
		parent nodeID
		goLeft bool
	)
	for cur := t.root; cur != nilNode; {
		parent = cur
		goLeft = t.less(id, cur)
		if goLeft {
			cur = t.a.at(cur).left
		} else {
			cur = t.a.at(cur).right
		}
	}

	if parent == nilNode {
		t.root = id
		return
	}

	if goLeft {
		t.a.at(parent).left = id
	} else {
		t.a.at(parent).right = id
	}
	n.parent = parent
	t.root = t.fix(id)
}

// remove 按句柄摘除节点
func (t *tree) remove(id nodeID) {
	t.root = t.detach(id)
	n := t.a.at(id)
	n.parent, n.left, n.right = nilNode, nilNode, nilNode
	n.height, n.cnt = 1, 1
}

// detachEasy 摘除至多只有一个子节点的节点
func (t *tree) detachEasy(id nodeID) nodeID {
	n := t.a.at(id)
	child := n.left
	if child == nilNode {
		child = n.right
	}
	parent := n.parent

	if child != nilNode {
		t.a.at(child).parent = parent
	}
	if parent == nilNode {
		return child
	}

	p := t.a.at(parent)
	if p.left == id {
		p.left = child
	} else {
		p.right = child
	}
	return t.fix(parent)
}

// detach 摘除节点，返回新的根节点
// 有两个子节点时，先摘除后继节点，再用后继节点顶替原位置
func (t *tree) detach(id nodeID) nodeID {
	n := t.a.at(id)
	if n.left == nilNode || n.right == nilNode {
		return t.detachEasy(id)
	}

	victim := n.right
	for t.a.at(victim).left != nilNode {
		victim = t.a.at(victim).left
	}
	root := t.detachEasy(victim)

	n = t.a.at(id)
	v := t.a.at(victim)
	v.parent, v.left, v.right = n.parent, n.left, n.right
	v.height, v.cnt = n.height, n.cnt

	if v.left != nilNode {
		t.a.at(v.left).parent = victim
	}
	if v.right != nilNode {
		t.a.at(v.right).parent = victim
	}

	if v.parent == nilNode {
		return victim
	}
	p := t.a.at(v.parent)
	if p.left == id {
		p.left = victim
	} else {
		p.right = victim
	}
	return root
}

// seek 按方向定位最接近 (score, name) 的节点
func (t *tree) seek(score float64, name string, dir SeekDirection) nodeID {
	found := nilNode
	for cur := t.root; cur != nilNode; {
		n := t.a.at(cur)
		c := compareKey(score, name, n)

		switch dir {
		case SeekLE:
			if c < 0 {
				cur = n.left
			} else {
				found = cur
				cur = n.right
			}
		default:
			if c > 0 {
				cur = n.right
			} else {
				found = cur
				cur = n.left
			}
		}
	}
	return found
}

// offset 返回距 id 偏移 delta 位置的节点，越界返回空句柄
// 借助子树大小在 O(log n) 内完成
func (t *tree) offset(id nodeID, delta int64) nodeID {
	var pos int64
	for id != nilNode && pos != delta {
		n := t.a.at(id)
		switch {
		case pos < delta && pos+int64(t.cnt(n.right)) >= delta:
			id = n.right
			pos += int64(t.cnt(t.a.at(id).left)) + 1
		case pos > delta && pos-int64(t.cnt(n.left)) <= delta:
			id = n.left
			pos -= int64(t.cnt(t.a.at(id).right)) + 1
		default:
			parent := n.parent
			if parent == nilNode {
				return nilNode
			}
			if t.a.at(parent).right == id {
				pos -= int64(t.cnt(n.left)) + 1
			} else {
				pos += int64(t.cnt(n.right)) + 1
			}
			id = parent
		}
	}
	return id
}

// rank 返回节点在整棵树中的序号，从 0 开始
func (t *tree) rank(id nodeID) int64 {
	n := t.a.at(id)
	r := int64(t.cnt(n.left))
	for cur := id; ; {
		parent := t.a.at(cur).parent
		if parent == nilNode {
			return r
		}
		p := t.a.at(parent)
		if p.right == cur {
			r += int64(t.cnt(p.left)) + 1
		}
		cur = parent
	}
}

// walk 中序遍历
func (t *tree) walk(f func(id nodeID) bool) {
	if t.root == nilNode {
		return
	}
	first := t.root
	for t.a.at(first).left != nilNode {
		first = t.a.at(first).left
	}
	for id := first; id != nilNode; id = t.offset(id, 1) {
		if !f(id) {
			return
		}
	}
}
