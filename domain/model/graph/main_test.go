package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/t-kuni/deptrace/domain/model/graph"
	"github.com/t-kuni/deptrace/domain/model/ident"
)

func mustID(t *testing.T, s string) ident.ID {
	t.Helper()
	id, err := ident.Parse(s)
	assert.NoError(t, err)
	return id
}

func TestSetDependencies(t *testing.T) {
	a := mustID(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	b := mustID(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	t.Run("依存先を設定・取得できること", func(t *testing.T) {
		g := graph.NewGraph()
		g.SetDependencies(a, graph.NewEdgeSet([]ident.ID{b}))

		assert.Equal(t, graph.EdgeSet{b}, g.DependenciesOf(a))
		assert.Equal(t, 1, g.Count())
	})

	t.Run("空集合を設定するとキーが削除されること", func(t *testing.T) {
		g := graph.NewGraph()
		g.SetDependencies(a, graph.NewEdgeSet([]ident.ID{b}))
		g.SetDependencies(a, graph.EdgeSet{})

		assert.Empty(t, g.DependenciesOf(a))
		assert.Equal(t, 0, g.Count())
	})

	t.Run("未知の識別子はエッジ0件として振る舞うこと", func(t *testing.T) {
		g := graph.NewGraph()
		assert.Empty(t, g.DependenciesOf(a))
		assert.Empty(t, g.ReferencesOf(a))
	})

	t.Run("取得結果を書き換えても内部状態に影響しないこと", func(t *testing.T) {
		g := graph.NewGraph()
		g.SetDependencies(a, graph.NewEdgeSet([]ident.ID{b}))

		got := g.DependenciesOf(a)
		got[0] = ident.Nil

		assert.Equal(t, graph.EdgeSet{b}, g.DependenciesOf(a))
	})
}

func TestReverseEdges(t *testing.T) {
	a := mustID(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	b := mustID(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	c := mustID(t, "cccccccccccccccccccccccccccccccc")

	t.Run("逆エッジの追加が冪等でありソート順が保たれること", func(t *testing.T) {
		g := graph.NewGraph()
		g.AddReverseEdge(a, c)
		g.AddReverseEdge(a, b)
		g.AddReverseEdge(a, c)

		assert.Equal(t, graph.EdgeSet{b, c}, g.ReferencesOf(a))
	})

	t.Run("逆エッジの削除が削除有無を返すこと", func(t *testing.T) {
		g := graph.NewGraph()
		g.AddReverseEdge(a, b)

		assert.True(t, g.RemoveReverseEdge(a, b))
		assert.False(t, g.RemoveReverseEdge(a, b))
		assert.Empty(t, g.ReferencesOf(a))
	})
}

func TestClosure(t *testing.T) {
	a := mustID(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	b := mustID(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	c := mustID(t, "cccccccccccccccccccccccccccccccc")

	t.Run("循環グラフでも停止し開始ノードが結果に含まれないこと", func(t *testing.T) {
		// A→B→C→A
		g := graph.NewGraph()
		g.SetDependencies(a, graph.NewEdgeSet([]ident.ID{b}))
		g.SetDependencies(b, graph.NewEdgeSet([]ident.ID{c}))
		g.SetDependencies(c, graph.NewEdgeSet([]ident.ID{a}))

		result := g.Closure(a, graph.Forward)
		assert.ElementsMatch(t, []ident.ID{b, c}, result)
	})

	t.Run("逆方向の推移閉包を辿れること", func(t *testing.T) {
		g := graph.NewGraph()
		g.SetDependencies(a, graph.NewEdgeSet([]ident.ID{b}))
		g.AddReverseEdge(b, a)
		g.SetDependencies(b, graph.NewEdgeSet([]ident.ID{c}))
		g.AddReverseEdge(c, b)

		result := g.Closure(c, graph.Reverse)
		assert.ElementsMatch(t, []ident.ID{a, b}, result)
	})

	t.Run("孤立ノードの閉包は空であること", func(t *testing.T) {
		g := graph.NewGraph()
		assert.Empty(t, g.Closure(a, graph.Forward))
	})
}

func TestEqualClone(t *testing.T) {
	a := mustID(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	b := mustID(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	t.Run("Cloneが独立した複製を返すこと", func(t *testing.T) {
		g := graph.NewGraph()
		g.SetDependencies(a, graph.NewEdgeSet([]ident.ID{b}))
		g.AddReverseEdge(b, a)

		clone := g.Clone()
		assert.True(t, g.Equal(clone))

		clone.SetDependencies(b, graph.NewEdgeSet([]ident.ID{a}))
		assert.False(t, g.Equal(clone))
		assert.Empty(t, g.DependenciesOf(b))
	})
}

func TestNewEdgeSet(t *testing.T) {
	a := mustID(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	b := mustID(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	t.Run("ソート・重複除去・ゼロ値除去が行われること", func(t *testing.T) {
		set := graph.NewEdgeSet([]ident.ID{b, a, b, ident.Nil})
		assert.Equal(t, graph.EdgeSet{a, b}, set)
		assert.True(t, set.Contains(a))
		assert.False(t, set.Contains(ident.Nil))
	})
}
