package mzset

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// verifyTree 校验 avl 树的结构不变量，返回子树高度与大小
func verifyTree(t *testing.T, tr *tree, parent, id nodeID) (uint32, uint32) {
	t.Helper()
	if id == nilNode {
		return 0, 0
	}

	n := tr.a.at(id)
	require.Equal(t, parent, n.parent, "parent link of %q", n.name)

	lh, lc := verifyTree(t, tr, id, n.left)
	rh, rc := verifyTree(t, tr, id, n.right)

	require.Equal(t, 1+max(lh, rh), n.height, "height of %q", n.name)
	require.Equal(t, 1+lc+rc, n.cnt, "cnt of %q", n.name)
	diff := int(lh) - int(rh)
	require.True(t, diff >= -1 && diff <= 1, "unbalanced at %q: %d", n.name, diff)

	if n.left != nilNode {
		require.True(t, tr.less(n.left, id))
	}
	if n.right != nilNode {
		require.True(t, tr.less(id, n.right))
	}
	return n.height, n.cnt
}

func newTestTree() (*arena, *tree) {
	a := newArena()
	tr := newTree(&a)
	return &a, &tr
}

func TestTree_InsertKeepsBalance(t *testing.T) {
	a, tr := newTestTree()

	// 顺序插入是退化最严重的情况
	for i := 0; i < 200; i++ {
		id := a.alloc(fmt.Sprintf("m%03d", i), float64(i), 0)
		tr.insert(id)
		verifyTree(t, tr, nilNode, tr.root)
	}
	require.EqualValues(t, 200, tr.cnt(tr.root))
	require.LessOrEqual(t, tr.height(tr.root), uint32(11))
}

func TestTree_RemoveKeepsBalance(t *testing.T) {
	a, tr := newTestTree()
	r := rand.New(rand.NewSource(7))

	ids := make([]nodeID, 0, 300)
	for i := 0; i < 300; i++ {
		id := a.alloc(fmt.Sprintf("m%d", i), float64(r.Intn(50)), 0)
		tr.insert(id)
		ids = append(ids, id)
	}

	r.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	for i, id := range ids {
		tr.remove(id)
		verifyTree(t, tr, nilNode, tr.root)
		require.EqualValues(t, len(ids)-i-1, tr.cnt(tr.root))
	}
	require.Equal(t, nilNode, tr.root)
}

func TestTree_OffsetAndRank(t *testing.T) {
	a, tr := newTestTree()

	const n = 40
	sorted := make([]nodeID, n)
	for i := 0; i < n; i++ {
		// 分数全部相同，顺序完全由名称决定
		sorted[i] = a.alloc(fmt.Sprintf("n%02d", i), 1, 0)
	}
	for _, i := range rand.New(rand.NewSource(1)).Perm(n) {
		tr.insert(sorted[i])
	}

	for i := 0; i < n; i++ {
		require.EqualValues(t, i, tr.rank(sorted[i]))
		for j := 0; j < n; j++ {
			require.Equal(t, sorted[j], tr.offset(sorted[i], int64(j-i)), "offset %d from %d", j-i, i)
		}
		require.Equal(t, nilNode, tr.offset(sorted[i], int64(n-i)))
		require.Equal(t, nilNode, tr.offset(sorted[i], int64(-i-1)))
	}
}

func TestTree_Seek(t *testing.T) {
	a, tr := newTestTree()
	for i, name := range []string{"a", "b", "c"} {
		tr.insert(a.alloc(name, float64(i+1), 0))
	}

	tests := []struct {
		name   string
		score  float64
		member string
		dir    SeekDirection
		want   string
	}{
		{name: "ge exact", score: 2, member: "b", dir: SeekGE, want: "b"},
		{name: "ge between", score: 1.5, member: "", dir: SeekGE, want: "b"},
		{name: "ge tie break", score: 1, member: "b", dir: SeekGE, want: "b"},
		{name: "ge past end", score: 3, member: "d", dir: SeekGE, want: ""},
		{name: "le exact", score: 2, member: "b", dir: SeekLE, want: "b"},
		{name: "le between", score: 2.5, member: "", dir: SeekLE, want: "b"},
		{name: "le before start", score: 1, member: "", dir: SeekLE, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tr.seek(tt.score, tt.member, tt.dir)
			if tt.want == "" {
				require.Equal(t, nilNode, id)
				return
			}
			require.NotEqual(t, nilNode, id)
			require.Equal(t, tt.want, a.at(id).name)
		})
	}
}
