package graph

import (
	"sort"
	"time"

	"github.com/t-kuni/deptrace/domain/model/ident"
)

// EdgeSet 依存先（または参照元）の識別子集合
// 常に ident.Compare の昇順でソートされ、重複を含まない
type EdgeSet []ident.ID

// Direction selects which adjacency map a traversal follows.
type Direction int

const (
	// Forward 「依存している」方向 (item → target)
	Forward Direction = iota
	// Reverse 「参照されている」方向 (target → item)
	Reverse
)

// Meta グラフ全体のメタ情報。フルリビルドでのみ更新される
type Meta struct {
	Initialized      bool
	LastFullAnalysis time.Time
}

// Graph is the bidirectional adjacency store. For every key k and every
// v in forward[k], k is present in reverse[v], and vice versa. Neither map
// stores an empty edge set: absence of a key means zero edges.
//
// Graph itself only guarantees per-map consistency. Keeping forward and
// reverse in sync across maps is the updater's job.
type Graph struct {
	forward map[ident.ID]EdgeSet
	reverse map[ident.ID]EdgeSet
	Meta    Meta
}

func NewGraph() *Graph {
	return &Graph{
		forward: make(map[ident.ID]EdgeSet),
		reverse: make(map[ident.ID]EdgeSet),
	}
}

// SetDependencies replaces forward[id]. An empty target set removes the key.
// targets must already be sorted and de-duplicated.
func (g *Graph) SetDependencies(id ident.ID, targets EdgeSet) {
	if len(targets) == 0 {
		delete(g.forward, id)
		return
	}
	g.forward[id] = targets
}

// AddReverseEdge inserts source into reverse[target], keeping sort order.
// No-op if already present.
func (g *Graph) AddReverseEdge(target, source ident.ID) {
	g.reverse[target] = insertSorted(g.reverse[target], source)
}

// RemoveReverseEdge removes source from reverse[target] and deletes the key
// when the set becomes empty. Returns whether a removal occurred.
func (g *Graph) RemoveReverseEdge(target, source ident.ID) bool {
	set, removed := removeSorted(g.reverse[target], source)
	if !removed {
		return false
	}
	if len(set) == 0 {
		delete(g.reverse, target)
	} else {
		g.reverse[target] = set
	}
	return true
}

// DependenciesOf returns a copy of forward[id], empty when absent.
func (g *Graph) DependenciesOf(id ident.ID) EdgeSet {
	return copySet(g.forward[id])
}

// ReferencesOf returns a copy of reverse[id], empty when absent.
func (g *Graph) ReferencesOf(id ident.ID) EdgeSet {
	return copySet(g.reverse[id])
}

// Count returns the number of items with at least one dependency.
func (g *Graph) Count() int {
	return len(g.forward)
}

// Closure performs a breadth-first traversal from id over the selected
// direction and returns every reachable identifier except id itself.
// The visited set guarantees termination on cyclic graphs. Result order
// is unspecified; callers sort for display.
func (g *Graph) Closure(id ident.ID, dir Direction) []ident.ID {
	adj := g.forward
	if dir == Reverse {
		adj = g.reverse
	}

	visited := map[ident.ID]bool{id: true}
	queue := append([]ident.ID(nil), adj[id]...)
	var result []ident.ID

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true
		result = append(result, current)

		queue = append(queue, adj[current]...)
	}

	return result
}

// Equal reports whether both adjacency maps are element-for-element
// identical. Metadata is not compared.
func (g *Graph) Equal(other *Graph) bool {
	return mapsEqual(g.forward, other.forward) && mapsEqual(g.reverse, other.reverse)
}

// Clone returns a deep copy sharing no state with the receiver.
func (g *Graph) Clone() *Graph {
	clone := NewGraph()
	clone.Meta = g.Meta
	for k, v := range g.forward {
		clone.forward[k] = copySet(v)
	}
	for k, v := range g.reverse {
		clone.reverse[k] = copySet(v)
	}
	return clone
}

// ForwardKeys returns every forward key in canonical order.
func (g *Graph) ForwardKeys() []ident.ID {
	return sortedKeys(g.forward)
}

// ReverseKeys returns every reverse key in canonical order.
func (g *Graph) ReverseKeys() []ident.ID {
	return sortedKeys(g.reverse)
}

// NewEdgeSet は任意の識別子列から正規化済みの EdgeSet を作る
// ソートと重複除去を行い、ゼロ値は取り除く
func NewEdgeSet(ids []ident.ID) EdgeSet {
	set := make(EdgeSet, 0, len(ids))
	for _, id := range ids {
		if !id.IsNil() {
			set = insertSorted(set, id)
		}
	}
	return set
}

// Equal reports element-for-element equality.
func (s EdgeSet) Equal(other EdgeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Contains uses binary search over the sorted set.
func (s EdgeSet) Contains(id ident.ID) bool {
	i := sort.Search(len(s), func(i int) bool {
		return ident.Compare(s[i], id) >= 0
	})
	return i < len(s) && s[i] == id
}

func insertSorted(set EdgeSet, id ident.ID) EdgeSet {
	i := sort.Search(len(set), func(i int) bool {
		return ident.Compare(set[i], id) >= 0
	})
	if i < len(set) && set[i] == id {
		return set
	}
	set = append(set, ident.Nil)
	copy(set[i+1:], set[i:])
	set[i] = id
	return set
}

func removeSorted(set EdgeSet, id ident.ID) (EdgeSet, bool) {
	i := sort.Search(len(set), func(i int) bool {
		return ident.Compare(set[i], id) >= 0
	})
	if i >= len(set) || set[i] != id {
		return set, false
	}
	return append(set[:i], set[i+1:]...), true
}

func copySet(set EdgeSet) EdgeSet {
	if len(set) == 0 {
		return EdgeSet{}
	}
	return append(EdgeSet(nil), set...)
}

func mapsEqual(a, b map[ident.ID]EdgeSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if !v.Equal(b[k]) {
			return false
		}
	}
	return true
}

func sortedKeys(m map[ident.ID]EdgeSet) []ident.ID {
	keys := make([]ident.ID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return ident.Compare(keys[i], keys[j]) < 0
	})
	return keys
}
