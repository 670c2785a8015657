package mzset

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(z *ZSet, score float64, name string, offset, limit int64) []Member {
	var res []Member
	for n, s := range z.Query(score, name, offset, limit) {
		res = append(res, Member{Name: n, Score: s})
	}
	return res
}

func TestZSet_Transcript(t *testing.T) {
	z := New()

	_, ok := z.Score("n1")
	assert.False(t, ok)
	assert.Empty(t, collect(z, 1, "", 0, 10))

	assert.True(t, z.Add("n1", 1))
	assert.True(t, z.Add("n2", 2))
	assert.False(t, z.Add("n1", 1.1))

	score, ok := z.Score("n1")
	require.True(t, ok)
	assert.Equal(t, 1.1, score)

	assert.Equal(t, []Member{{"n1", 1.1}, {"n2", 2}}, collect(z, 1, "", 0, 10))
	assert.Equal(t, []Member{{"n2", 2}}, collect(z, 1.1, "", 1, 10))
	assert.Empty(t, collect(z, 1.1, "", 2, 10))

	assert.True(t, z.Rem("n1"))
	assert.Equal(t, []Member{{"n2", 2}}, collect(z, 1, "", 0, 10))
}

func TestZSet_AddSameScore(t *testing.T) {
	z := New()
	assert.True(t, z.Add("a", 3))
	assert.False(t, z.Add("a", 3))
	assert.Equal(t, 1, z.Len())

	score, ok := z.Score("a")
	require.True(t, ok)
	assert.Equal(t, float64(3), score)
}

func TestZSet_TieBreakByName(t *testing.T) {
	z := New()
	for _, name := range []string{"d", "b", "a", "c"} {
		z.Add(name, 5)
	}
	z.Add("z", 1)

	assert.Equal(t, []Member{{"z", 1}, {"a", 5}, {"b", 5}, {"c", 5}, {"d", 5}}, z.Members())
	assert.Equal(t, []Member{{"c", 5}, {"d", 5}}, collect(z, 5, "c", 0, 10))

	rank, ok := z.Rank("c")
	require.True(t, ok)
	assert.EqualValues(t, 3, rank)
}

func TestZSet_Rem(t *testing.T) {
	z := New()
	z.Add("a", 1)

	assert.False(t, z.Rem("b"))
	assert.Equal(t, 1, z.Len())

	assert.True(t, z.Rem("a"))
	assert.Equal(t, 0, z.Len())
	_, ok := z.Score("a")
	assert.False(t, ok)
	_, ok = z.Rank("a")
	assert.False(t, ok)
}

func TestZSet_QueryBounds(t *testing.T) {
	z := New()
	for i := 0; i < 10; i++ {
		z.Add(fmt.Sprintf("m%d", i), float64(i))
	}

	tests := []struct {
		name          string
		score         float64
		offset, limit int64
		want          []string
	}{
		{name: "limit", score: 0, offset: 0, limit: 3, want: []string{"m0", "m1", "m2"}},
		{name: "offset", score: 4, offset: 2, limit: 2, want: []string{"m6", "m7"}},
		{name: "negative offset", score: 4, offset: -2, limit: 3, want: []string{"m2", "m3", "m4"}},
		{name: "negative offset before start", score: 1, offset: -5, limit: 3},
		{name: "tail", score: 8, offset: 0, limit: 10, want: []string{"m8", "m9"}},
		{name: "past end", score: 10, offset: 0, limit: 10},
		{name: "zero limit", score: 0, offset: 0, limit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, m := range collect(z, tt.score, "", tt.offset, tt.limit) {
				got = append(got, m.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestZSet_QueryStopsEarly(t *testing.T) {
	z := New()
	for i := 0; i < 5; i++ {
		z.Add(fmt.Sprintf("m%d", i), float64(i))
	}

	seen := 0
	for range z.Query(0, "", 0, 5) {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)

	// 每次迭代独立定位
	seq := z.Query(0, "", 0, 5)
	first, second := 0, 0
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	assert.Equal(t, 5, first)
	assert.Equal(t, first, second)
}

func TestZSet_SeekAndCursor(t *testing.T) {
	z := New()
	z.Add("a", 1)
	z.Add("b", 2)
	z.Add("c", 3)

	cur := z.Seek(2.5, "", SeekLE)
	require.True(t, cur.Valid())
	assert.Equal(t, Member{"b", 2}, cur.Member())
	assert.EqualValues(t, 1, cur.Rank())

	assert.Equal(t, "a", cur.Prev().Member().Name)
	assert.Equal(t, "c", cur.Next().Member().Name)
	assert.False(t, cur.Offset(2).Valid())
	assert.False(t, cur.Offset(2).Next().Valid())

	assert.False(t, z.Seek(0, "", SeekLE).Valid())
	assert.False(t, New().Seek(0, "", SeekGE).Valid())
}

func TestZSet_Clear(t *testing.T) {
	z := New()
	for i := 0; i < 100; i++ {
		z.Add(fmt.Sprintf("m%d", i), float64(i))
	}
	z.Clear()

	assert.Equal(t, 0, z.Len())
	assert.Empty(t, z.Members())
	assert.True(t, z.Add("m1", 1))
	assert.Equal(t, []Member{{"m1", 1}}, z.Members())
}

// TestZSet_RandomOps 随机操作下，与参照 map 以及两个索引之间保持一致
func TestZSet_RandomOps(t *testing.T) {
	z := New()
	ref := make(map[string]float64)
	r := rand.New(rand.NewSource(42))

	for step := 0; step < 2000; step++ {
		name := fmt.Sprintf("m%d", r.Intn(300))
		score := float64(r.Intn(100)) / 4

		switch op := r.Intn(10); {
		case op < 6:
			_, existed := ref[name]
			require.Equal(t, !existed, z.Add(name, score), "step %d add %s", step, name)
			ref[name] = score
		case op < 9:
			_, existed := ref[name]
			require.Equal(t, existed, z.Rem(name), "step %d rem %s", step, name)
			delete(ref, name)
		default:
			got, ok := z.Score(name)
			want, existed := ref[name]
			require.Equal(t, existed, ok)
			require.Equal(t, want, got)
		}

		require.Equal(t, len(ref), z.Len())
		if step%50 == 0 {
			verifyTree(t, &z.tree, nilNode, z.tree.root)
		}
	}
	verifyTree(t, &z.tree, nilNode, z.tree.root)
	require.EqualValues(t, z.Len(), z.tree.cnt(z.tree.root))

	// 参照排序结果
	want := make([]Member, 0, len(ref))
	for name, score := range ref {
		want = append(want, Member{Name: name, Score: score})
	}
	sort.Slice(want, func(i, j int) bool {
		if want[i].Score != want[j].Score {
			return want[i].Score < want[j].Score
		}
		return want[i].Name < want[j].Name
	})

	// 树的中序遍历与 hash 索引内容一致
	assert.Equal(t, want, z.Members())
	var fromHash []Member
	z.ForEach(func(name string, score float64) bool {
		fromHash = append(fromHash, Member{Name: name, Score: score})
		return true
	})
	assert.ElementsMatch(t, want, fromHash)

	// 排名与范围查询的顺序一致
	i := int64(0)
	for name := range z.Query(-1, "", 0, int64(len(want))+1) {
		rank, ok := z.Rank(name)
		require.True(t, ok)
		require.Equal(t, i, rank, name)
		i++
	}
	assert.EqualValues(t, len(want), i)
}

func TestNew_IndependentSets(t *testing.T) {
	a, b := New(), New()
	require.True(t, a.Add("x", 1))
	require.True(t, b.Add("y", 2))
	require.True(t, b.Add("z", 3))

	// 索引绑定各自的 arena
	assert.Equal(t, []Member{{Name: "x", Score: 1}}, a.Members())
	assert.Equal(t, []Member{{Name: "y", Score: 2}, {Name: "z", Score: 3}}, b.Members())
	_, ok := a.Score("y")
	assert.False(t, ok)
}
