package graphDatabase

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/t-kuni/deptrace/domain/model/graph"
	"github.com/t-kuni/deptrace/domain/model/ident"
	"github.com/t-kuni/deptrace/domain/repository/assetsource"
	"github.com/t-kuni/deptrace/domain/repository/graphstore"
	"github.com/t-kuni/deptrace/domain/service/graphUpdate"
	"github.com/t-kuni/deptrace/domain/system/clock"
	"github.com/t-kuni/deptrace/domain/system/ksuid"
	"github.com/t-kuni/deptrace/domain/system/progress"
)

// ErrRebuildAborted フルリビルドが途中で失敗した。ディスク上のグラフは変更されていない
var ErrRebuildAborted = eris.New("full rebuild aborted")

// GraphDatabaseService owns the single in-process graph instance.
//
// The graph is materialized lazily: the first query or mutation loads it
// from the backing store. A corrupt store is discarded and replaced with an
// empty graph; that is never surfaced to the caller of a query.
//
// mutexはmutate/persistの一連の流れ全体を守る。内部のアルゴリズム自体は同期していない
type GraphDatabaseService struct {
	storeRepo      graphstore.Repository
	assetSource    assetsource.Source
	updateService  *graphUpdate.GraphUpdateService
	clock          clock.IClock
	ksuidGenerator ksuid.IKsuid
	logger         *slog.Logger
	storePath      string

	mu    sync.Mutex
	graph *graph.Graph // nil while unloaded
	dirty bool
}

func NewGraphDatabaseService(
	storeRepo graphstore.Repository,
	assetSource assetsource.Source,
	updateService *graphUpdate.GraphUpdateService,
	clk clock.IClock,
	ksuidGenerator ksuid.IKsuid,
	logger *slog.Logger,
	storePath string,
) *GraphDatabaseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphDatabaseService{
		storeRepo:      storeRepo,
		assetSource:    assetSource,
		updateService:  updateService,
		clock:          clk,
		ksuidGenerator: ksuidGenerator,
		logger:         logger,
		storePath:      storePath,
	}
}

// ensureLoaded moves Unloaded → Loaded. Caller must hold mu.
func (s *GraphDatabaseService) ensureLoaded() *graph.Graph {
	if s.graph != nil {
		return s.graph
	}

	g, err := s.storeRepo.Load(s.storePath)
	switch {
	case err == nil:
		s.graph = g
	case os.IsNotExist(err):
		s.graph = graph.NewGraph()
	default:
		// 壊れたストアは破棄して空のグラフで続行する。クエリ呼び出し元には伝播させない
		s.logger.Warn("discarding unreadable graph store",
			"path", s.storePath,
			"corrupt", graphstore.IsCorrupt(err),
			"error", err.Error())
		if err := s.storeRepo.Delete(s.storePath); err != nil {
			s.logger.Warn("failed to delete unreadable graph store", "path", s.storePath, "error", err.Error())
		}
		s.graph = graph.NewGraph()
	}

	return s.graph
}

// persist saves the snapshot. On failure the in-memory graph stays valid
// and dirty, so the next successful mutation retries the write.
func (s *GraphDatabaseService) persist() error {
	if !s.dirty {
		return nil
	}

	if err := s.storeRepo.Save(s.storePath, s.graph); err != nil {
		s.logger.Error("failed to persist graph store", "path", s.storePath, "error", err.Error())
		return eris.Wrap(err, "failed to persist graph store")
	}

	s.dirty = false
	return nil
}

// NotifyChanged applies imported/changed paths. Moves are delivered here as
// well: a moved file arrives as changed-at-new-path, and its identifier has
// already changed underneath, so no explicit old-path removal is needed.
func (s *GraphDatabaseService) NotifyChanged(paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.ensureLoaded()
	s.assetSource.Invalidate()

	changed, err := s.updateService.ApplyBatch(g, nil, paths)
	if changed {
		s.dirty = true
	}
	if err != nil {
		return eris.Wrap(err, "failed to apply change notification")
	}

	return s.persist()
}

// NotifyDeleted applies deleted paths. Resolution happens against the
// source's existing index before it is invalidated, because the files and
// their sidecars are already gone from disk.
func (s *GraphDatabaseService) NotifyDeleted(paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.ensureLoaded()

	changed, err := s.updateService.ApplyBatch(g, paths, nil)
	s.assetSource.Invalidate()
	if changed {
		s.dirty = true
	}
	if err != nil {
		return eris.Wrap(err, "failed to apply delete notification")
	}

	return s.persist()
}

// NotifyMoved treats moved paths as changed at their new location.
func (s *GraphDatabaseService) NotifyMoved(paths []string) error {
	return s.NotifyChanged(paths)
}

// Rebuild walks every item known to the asset source through the
// incremental updater, building a fresh graph from scratch. A mid-sweep
// failure leaves both the in-memory graph and the on-disk store untouched.
// The rebuild persists unconditionally at the end so first-run
// initialization is always durable.
func (s *GraphDatabaseService) Rebuild(ctx context.Context, sink progress.Sink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := s.ksuidGenerator.New()

	s.ensureLoaded()
	s.assetSource.Invalidate()

	paths, err := s.assetSource.EnumeratePaths()
	if err != nil {
		s.logger.Error("failed to enumerate assets", "run_id", runID, "error", err.Error())
		return eris.Wrap(ErrRebuildAborted, err.Error())
	}

	s.logger.Info("full rebuild started", "run_id", runID, "items", len(paths))

	// 途中で失敗してもメモリ上のグラフと永続化ファイルを汚さないよう、
	// 空のグラフに対して構築し、成功した場合だけ差し替える
	work := graph.NewGraph()
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("full rebuild cancelled", "run_id", runID, "processed", i)
			return eris.Wrap(ErrRebuildAborted, err.Error())
		}

		if _, err := s.updateService.TrackItem(work, path); err != nil {
			s.logger.Error("full rebuild failed", "run_id", runID, "path", path, "error", err.Error())
			return eris.Wrap(ErrRebuildAborted, err.Error())
		}

		progress.Report(sink, float64(i+1)/float64(len(paths)))
	}

	work.Meta.Initialized = true
	work.Meta.LastFullAnalysis = s.clock.Now()

	s.graph = work
	s.dirty = true

	s.logger.Info("full rebuild finished", "run_id", runID, "tracked", work.Count())

	return s.persist()
}

// Clear drops the in-memory graph and deletes the backing store. Until the
// next rebuild, queries behave as uninitialized with zero items.
func (s *GraphDatabaseService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graph = graph.NewGraph()
	s.dirty = false

	if err := s.storeRepo.Delete(s.storePath); err != nil {
		return eris.Wrap(err, "failed to delete graph store")
	}

	return nil
}

func (s *GraphDatabaseService) DependenciesOf(id ident.ID) []ident.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoaded().DependenciesOf(id)
}

func (s *GraphDatabaseService) ReferencesOf(id ident.ID) []ident.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoaded().ReferencesOf(id)
}

func (s *GraphDatabaseService) TransitiveDependenciesOf(id ident.ID) []ident.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoaded().Closure(id, graph.Forward)
}

func (s *GraphDatabaseService) TransitiveReferencesOf(id ident.ID) []ident.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoaded().Closure(id, graph.Reverse)
}

// DependenciesOfPath resolves the path through the asset source.
// Unresolvable paths behave as having zero edges.
func (s *GraphDatabaseService) DependenciesOfPath(path string, transitive bool) []string {
	return s.queryPath(path, graph.Forward, transitive)
}

func (s *GraphDatabaseService) ReferencesOfPath(path string, transitive bool) []string {
	return s.queryPath(path, graph.Reverse, transitive)
}

func (s *GraphDatabaseService) queryPath(path string, dir graph.Direction, transitive bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.ensureLoaded()

	id, ok := s.assetSource.PathToID(path)
	if !ok {
		return nil
	}

	var ids []ident.ID
	if transitive {
		ids = g.Closure(id, dir)
	} else if dir == graph.Forward {
		ids = g.DependenciesOf(id)
	} else {
		ids = g.ReferencesOf(id)
	}

	return s.resolvePaths(ids)
}

// resolvePaths maps identifiers back to display paths, sorted
// lexicographically. Identifiers the source no longer knows fall back to
// the canonical hex form. Caller must hold mu.
func (s *GraphDatabaseService) resolvePaths(ids []ident.ID) []string {
	paths := make([]string, 0, len(ids))
	for _, id := range ids {
		if path, ok := s.assetSource.IDToPath(id); ok {
			paths = append(paths, path)
		} else {
			paths = append(paths, id.String())
		}
	}
	sort.Strings(paths)
	return paths
}

func (s *GraphDatabaseService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoaded().Count()
}

func (s *GraphDatabaseService) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoaded().Meta.Initialized
}

func (s *GraphDatabaseService) LastFullAnalysis() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoaded().Meta.LastFullAnalysis
}

// StaleCheck compares the recorded direct dependencies of path against a
// fresh query to the asset source, without mutating the graph. Both sides
// come back as sorted path lists for the CLI's diff view.
func (s *GraphDatabaseService) StaleCheck(path string) (recorded, current []string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.ensureLoaded()

	id, ok := s.assetSource.PathToID(path)
	if !ok {
		return nil, nil, nil
	}

	recorded = s.resolvePaths(g.DependenciesOf(id))

	depPaths, err := s.assetSource.DirectDependencies(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "failed to query direct dependencies of %s", path)
	}

	var ids []ident.ID
	for _, depPath := range depPaths {
		depID, ok := s.assetSource.PathToID(depPath)
		if !ok || depID == id {
			continue
		}
		ids = append(ids, depID)
	}
	current = s.resolvePaths(graph.NewEdgeSet(ids))

	return recorded, current, nil
}
