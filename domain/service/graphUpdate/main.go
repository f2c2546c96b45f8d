package graphUpdate

import (
	"github.com/rotisserie/eris"
	"github.com/t-kuni/deptrace/domain/model/graph"
	"github.com/t-kuni/deptrace/domain/model/ident"
	"github.com/t-kuni/deptrace/domain/repository/assetsource"
)

// GraphUpdateService は単一アセットの依存集合が変わったとき、
// forward/reverse両マップの整合性を保ったまま最小の差分だけを適用する
type GraphUpdateService struct {
	assetSource assetsource.Source
}

func NewGraphUpdateService(assetSource assetsource.Source) *GraphUpdateService {
	return &GraphUpdateService{
		assetSource: assetSource,
	}
}

// TrackItem re-queries the item's direct dependencies from the asset source
// and applies the delta. Returns whether anything changed. Unresolvable
// paths are an expected condition and report no change.
//
// The no-change short-circuit matters: a full rebuild walks every item in
// the project and must not trigger useless writes.
func (s *GraphUpdateService) TrackItem(g *graph.Graph, path string) (bool, error) {
	id, ok := s.assetSource.PathToID(path)
	if !ok {
		return false, nil
	}

	depPaths, err := s.assetSource.DirectDependencies(path)
	if err != nil {
		return false, eris.Wrapf(err, "failed to query direct dependencies of %s", path)
	}

	// 自己参照と解決不能なターゲットは捨てる
	ids := make([]ident.ID, 0, len(depPaths))
	for _, depPath := range depPaths {
		depID, ok := s.assetSource.PathToID(depPath)
		if !ok || depID == id {
			continue
		}
		ids = append(ids, depID)
	}
	newSet := graph.NewEdgeSet(ids)

	oldSet := g.DependenciesOf(id)
	if newSet.Equal(oldSet) {
		return false, nil
	}

	for _, target := range oldSet {
		if !newSet.Contains(target) {
			g.RemoveReverseEdge(target, id)
		}
	}

	g.SetDependencies(id, newSet)

	// oldSetと重なる要素への再挿入は冪等なのでそのまま回してよい
	for _, target := range newSet {
		g.AddReverseEdge(target, id)
	}

	return true, nil
}

// UntrackItem removes the item's own dependency record: its forward entry
// and its footprint in the targets' reverse sets. Referrers are left alone
// on purpose — their forward edges still point at the vanished item, and
// referencesOf(id) keeps answering until each referrer is re-tracked.
func (s *GraphUpdateService) UntrackItem(g *graph.Graph, path string) bool {
	id, ok := s.assetSource.PathToID(path)
	if !ok {
		return false
	}

	deps := g.DependenciesOf(id)
	if len(deps) == 0 {
		return false
	}

	for _, target := range deps {
		g.RemoveReverseEdge(target, id)
	}
	g.SetDependencies(id, nil)

	return true
}

// ApplyBatch applies deletions before re-tracks and accumulates whether any
// map entry was actually touched. The orchestrator persists only when it
// reports true.
func (s *GraphUpdateService) ApplyBatch(g *graph.Graph, deleted, changed []string) (bool, error) {
	anyChange := false

	for _, path := range deleted {
		if s.UntrackItem(g, path) {
			anyChange = true
		}
	}

	for _, path := range changed {
		itemChanged, err := s.TrackItem(g, path)
		if err != nil {
			return anyChange, err
		}
		if itemChanged {
			anyChange = true
		}
	}

	return anyChange, nil
}
