package graphDatabase_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/t-kuni/deptrace/domain/model/ident"
	"github.com/t-kuni/deptrace/domain/repository/assetsource"
	"github.com/t-kuni/deptrace/domain/service/graphDatabase"
	"github.com/t-kuni/deptrace/domain/service/graphUpdate"
	"github.com/t-kuni/deptrace/domain/system/clock"
	"github.com/t-kuni/deptrace/domain/system/ksuid"
	"github.com/t-kuni/deptrace/domain/system/progress"
	"github.com/t-kuni/deptrace/infrastructure/repository/graphstore"
	"github.com/t-kuni/deptrace/testUtil"
	"go.uber.org/mock/gomock"
)

type fakeWorld struct {
	ids    map[string]ident.ID
	deps   map[string][]string
	paths  []string
	broken map[string]error
}

func newFakeWorld(paths ...string) *fakeWorld {
	w := &fakeWorld{
		ids:    make(map[string]ident.ID),
		deps:   make(map[string][]string),
		paths:  paths,
		broken: make(map[string]error),
	}
	for _, p := range paths {
		w.ids[p] = ident.New()
	}
	return w
}

func (w *fakeWorld) bind(mockCtrl *gomock.Controller) *assetsource.MockSource {
	source := assetsource.NewMockSource(mockCtrl)
	source.EXPECT().EnumeratePaths().DoAndReturn(func() ([]string, error) {
		return w.paths, nil
	}).AnyTimes()
	source.EXPECT().PathToID(gomock.Any()).DoAndReturn(func(path string) (ident.ID, bool) {
		id, ok := w.ids[path]
		return id, ok
	}).AnyTimes()
	source.EXPECT().IDToPath(gomock.Any()).DoAndReturn(func(id ident.ID) (string, bool) {
		for p, candidate := range w.ids {
			if candidate == id {
				return p, true
			}
		}
		return "", false
	}).AnyTimes()
	source.EXPECT().DirectDependencies(gomock.Any()).DoAndReturn(func(path string) ([]string, error) {
		if err := w.broken[path]; err != nil {
			return nil, err
		}
		return w.deps[path], nil
	}).AnyTimes()
	source.EXPECT().Invalidate().AnyTimes()
	return source
}

func newService(t *testing.T, mockCtrl *gomock.Controller, world *fakeWorld, storePath string) *graphDatabase.GraphDatabaseService {
	t.Helper()

	source := world.bind(mockCtrl)
	updateSvc := graphUpdate.NewGraphUpdateService(source)

	mockClock := clock.NewMockIClock(mockCtrl)
	mockClock.EXPECT().Now().Return(testUtil.NewTime("2024-06-01T12:00:00Z")).AnyTimes()

	mockKsuid := ksuid.NewMockIKsuid(mockCtrl)
	mockKsuid.EXPECT().New().Return("2Sg8QF3KtDrUMyhYqzDFAdjBGXa").AnyTimes()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return graphDatabase.NewGraphDatabaseService(
		graphstore.NewRepository(),
		source,
		updateSvc,
		mockClock,
		mockKsuid,
		logger,
		storePath,
	)
}

func TestLazyLoad(t *testing.T) {
	t.Run("ストアが存在しない場合は空のグラフで動作すること", func(t *testing.T) {
		mockCtrl := gomock.NewController(t)
		defer mockCtrl.Finish()

		space := testUtil.BeginTestSpace(t)
		defer space.CleanUp()

		world := newFakeWorld("assets/a.mat")
		svc := newService(t, mockCtrl, world, filepath.Join(space.Dir, "graph.bin"))

		assert.Equal(t, 0, svc.Count())
		assert.False(t, svc.Initialized())
		assert.True(t, svc.LastFullAnalysis().IsZero())
	})

	t.Run("壊れたストアは破棄され空のグラフで続行すること", func(t *testing.T) {
		mockCtrl := gomock.NewController(t)
		defer mockCtrl.Finish()

		space := testUtil.BeginTestSpace(t)
		defer space.CleanUp()

		space.WriteFile("graph.bin", []byte("this is not a graph store"))

		world := newFakeWorld("assets/a.mat")
		svc := newService(t, mockCtrl, world, filepath.Join(space.Dir, "graph.bin"))

		// クエリ境界を越えてエラーが漏れない
		assert.Equal(t, 0, svc.Count())
		assert.False(t, svc.Initialized())
		space.AssertNotExistPath("graph.bin")
	})
}

func TestNotify(t *testing.T) {
	t.Run("変更通知でグラフが更新され永続化されること", func(t *testing.T) {
		mockCtrl := gomock.NewController(t)
		defer mockCtrl.Finish()

		space := testUtil.BeginTestSpace(t)
		defer space.CleanUp()

		world := newFakeWorld("assets/a.mat", "assets/b.mat")
		world.deps["assets/a.mat"] = []string{"assets/b.mat"}

		storePath := filepath.Join(space.Dir, "graph.bin")
		svc := newService(t, mockCtrl, world, storePath)

		err := svc.NotifyChanged([]string{"assets/a.mat"})
		assert.NoError(t, err)
		space.AssertExistPath("graph.bin")

		assert.Equal(t, []string{"assets/b.mat"}, svc.DependenciesOfPath("assets/a.mat", false))
		assert.Equal(t, []string{"assets/a.mat"}, svc.ReferencesOfPath("assets/b.mat", false))

		// 別インスタンスで読み直しても同じグラフが見えること
		reloaded := newService(t, mockCtrl, world, storePath)
		assert.Equal(t, []string{"assets/b.mat"}, reloaded.DependenciesOfPath("assets/a.mat", false))
	})

	t.Run("変更がない通知では永続化ファイルが書き換わらないこと", func(t *testing.T) {
		mockCtrl := gomock.NewController(t)
		defer mockCtrl.Finish()

		space := testUtil.BeginTestSpace(t)
		defer space.CleanUp()

		world := newFakeWorld("assets/a.mat", "assets/b.mat")
		world.deps["assets/a.mat"] = []string{"assets/b.mat"}

		storePath := filepath.Join(space.Dir, "graph.bin")
		svc := newService(t, mockCtrl, world, storePath)

		assert.NoError(t, svc.NotifyChanged([]string{"assets/a.mat"}))
		before := space.ReadFile("graph.bin")

		assert.NoError(t, svc.NotifyChanged([]string{"assets/a.mat"}))
		assert.Equal(t, before, space.ReadFile("graph.bin"))
	})

	t.Run("削除通知で依存先の逆エッジだけが取り除かれること", func(t *testing.T) {
		mockCtrl := gomock.NewController(t)
		defer mockCtrl.Finish()

		space := testUtil.BeginTestSpace(t)
		defer space.CleanUp()

		world := newFakeWorld("assets/a.mat", "assets/b.mat", "assets/c.tex")
		world.deps["assets/a.mat"] = []string{"assets/b.mat", "assets/c.tex"}
		world.deps["assets/b.mat"] = []string{"assets/c.tex"}

		svc := newService(t, mockCtrl, world, filepath.Join(space.Dir, "graph.bin"))

		assert.NoError(t, svc.NotifyChanged([]string{"assets/a.mat", "assets/b.mat", "assets/c.tex"}))
		assert.NoError(t, svc.NotifyDeleted([]string{"assets/b.mat"}))

		assert.Equal(t, []string{"assets/a.mat"}, svc.ReferencesOfPath("assets/c.tex", false))
		// Aのforwardエッジと、消えたBへの参照の記録は温存される
		assert.Equal(t, []string{"assets/b.mat", "assets/c.tex"}, svc.DependenciesOfPath("assets/a.mat", false))
		assert.Equal(t, []string{"assets/a.mat"}, svc.ReferencesOfPath("assets/b.mat", false))
	})
}

func TestRebuild(t *testing.T) {
	t.Run("フルリビルドでメタデータと進捗が報告されること", func(t *testing.T) {
		mockCtrl := gomock.NewController(t)
		defer mockCtrl.Finish()

		space := testUtil.BeginTestSpace(t)
		defer space.CleanUp()

		world := newFakeWorld("assets/a.mat", "assets/b.mat", "assets/c.tex")
		world.deps["assets/a.mat"] = []string{"assets/b.mat", "assets/c.tex"}
		world.deps["assets/b.mat"] = []string{"assets/c.tex"}

		svc := newService(t, mockCtrl, world, filepath.Join(space.Dir, "graph.bin"))

		sink := progress.NewMockSink(mockCtrl)
		gomock.InOrder(
			sink.EXPECT().Report(float64(1)/3),
			sink.EXPECT().Report(float64(2)/3),
			sink.EXPECT().Report(float64(1)),
		)

		err := svc.Rebuild(context.Background(), sink)
		assert.NoError(t, err)

		assert.True(t, svc.Initialized())
		assert.True(t, svc.LastFullAnalysis().Equal(testUtil.NewTime("2024-06-01T12:00:00Z")))
		assert.Equal(t, 2, svc.Count())
		space.AssertExistPath("graph.bin")
	})

	t.Run("進捗シンクがnilでもリビルドできること", func(t *testing.T) {
		mockCtrl := gomock.NewController(t)
		defer mockCtrl.Finish()

		space := testUtil.BeginTestSpace(t)
		defer space.CleanUp()

		world := newFakeWorld("assets/a.mat")
		svc := newService(t, mockCtrl, world, filepath.Join(space.Dir, "graph.bin"))

		assert.NoError(t, svc.Rebuild(context.Background(), nil))
		assert.True(t, svc.Initialized())
	})

	t.Run("変更が1件もなくても初回リビルドは永続化されること", func(t *testing.T) {
		mockCtrl := gomock.NewController(t)
		defer mockCtrl.Finish()

		space := testUtil.BeginTestSpace(t)
		defer space.CleanUp()

		// 依存を一切持たないプロジェクト
		world := newFakeWorld("assets/a.mat")
		svc := newService(t, mockCtrl, world, filepath.Join(space.Dir, "graph.bin"))

		assert.NoError(t, svc.Rebuild(context.Background(), nil))
		space.AssertExistPath("graph.bin")

		reloaded := newService(t, mockCtrl, world, filepath.Join(space.Dir, "graph.bin"))
		assert.True(t, reloaded.Initialized())
	})

	t.Run("リビルドが途中で失敗した場合はディスクもメモリも変化しないこと", func(t *testing.T) {
		mockCtrl := gomock.NewController(t)
		defer mockCtrl.Finish()

		space := testUtil.BeginTestSpace(t)
		defer space.CleanUp()

		world := newFakeWorld("assets/a.mat", "assets/b.mat")
		world.deps["assets/a.mat"] = []string{"assets/b.mat"}

		storePath := filepath.Join(space.Dir, "graph.bin")
		svc := newService(t, mockCtrl, world, storePath)

		assert.NoError(t, svc.Rebuild(context.Background(), nil))
		before := space.ReadFile("graph.bin")

		world.deps["assets/a.mat"] = nil
		world.broken["assets/b.mat"] = assert.AnError

		err := svc.Rebuild(context.Background(), nil)
		assert.ErrorIs(t, err, graphDatabase.ErrRebuildAborted)

		assert.Equal(t, before, space.ReadFile("graph.bin"))
		assert.Equal(t, []string{"assets/b.mat"}, svc.DependenciesOfPath("assets/a.mat", false))
	})

	t.Run("キャンセルされたコンテキストでリビルドが中断されること", func(t *testing.T) {
		mockCtrl := gomock.NewController(t)
		defer mockCtrl.Finish()

		space := testUtil.BeginTestSpace(t)
		defer space.CleanUp()

		world := newFakeWorld("assets/a.mat")
		svc := newService(t, mockCtrl, world, filepath.Join(space.Dir, "graph.bin"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := svc.Rebuild(ctx, nil)
		assert.ErrorIs(t, err, graphDatabase.ErrRebuildAborted)
		space.AssertNotExistPath("graph.bin")
	})
}

func TestTransitiveQueries(t *testing.T) {
	t.Run("推移的な依存と参照を問い合わせできること", func(t *testing.T) {
		mockCtrl := gomock.NewController(t)
		defer mockCtrl.Finish()

		space := testUtil.BeginTestSpace(t)
		defer space.CleanUp()

		world := newFakeWorld("assets/a.mat", "assets/b.mat", "assets/c.tex")
		world.deps["assets/a.mat"] = []string{"assets/b.mat"}
		world.deps["assets/b.mat"] = []string{"assets/c.tex"}

		svc := newService(t, mockCtrl, world, filepath.Join(space.Dir, "graph.bin"))
		assert.NoError(t, svc.Rebuild(context.Background(), nil))

		assert.Equal(t, []string{"assets/b.mat", "assets/c.tex"}, svc.DependenciesOfPath("assets/a.mat", true))
		assert.Equal(t, []string{"assets/a.mat", "assets/b.mat"}, svc.ReferencesOfPath("assets/c.tex", true))
		assert.Empty(t, svc.DependenciesOfPath("outside/readme.txt", true))
	})
}

func TestClear(t *testing.T) {
	t.Run("クリア後は未初期化・0件として振る舞うこと", func(t *testing.T) {
		mockCtrl := gomock.NewController(t)
		defer mockCtrl.Finish()

		space := testUtil.BeginTestSpace(t)
		defer space.CleanUp()

		world := newFakeWorld("assets/a.mat", "assets/b.mat")
		world.deps["assets/a.mat"] = []string{"assets/b.mat"}

		storePath := filepath.Join(space.Dir, "graph.bin")
		svc := newService(t, mockCtrl, world, storePath)

		assert.NoError(t, svc.Rebuild(context.Background(), nil))
		assert.NoError(t, svc.Clear())

		assert.Equal(t, 0, svc.Count())
		assert.False(t, svc.Initialized())
		space.AssertNotExistPath("graph.bin")
	})
}

func TestPersistFailure(t *testing.T) {
	t.Run("書き込み失敗時もメモリ上の状態は有効で後からリトライできること", func(t *testing.T) {
		mockCtrl := gomock.NewController(t)
		defer mockCtrl.Finish()

		space := testUtil.BeginTestSpace(t)
		defer space.CleanUp()

		world := newFakeWorld("assets/a.mat", "assets/b.mat")
		world.deps["assets/a.mat"] = []string{"assets/b.mat"}

		// 保存先をディレクトリで塞いでrenameを失敗させる
		storePath := filepath.Join(space.Dir, "graph.bin")
		space.WriteFile(filepath.Join(storePath, ".keep"), []byte{})

		svc := newService(t, mockCtrl, world, storePath)

		err := svc.NotifyChanged([]string{"assets/a.mat"})
		assert.Error(t, err)

		// メモリ上は更新済み
		assert.Equal(t, []string{"assets/b.mat"}, svc.DependenciesOfPath("assets/a.mat", false))

		// 障害を取り除くと次の通知で未保存分も書き出される
		assert.NoError(t, os.RemoveAll(storePath))

		world.deps["assets/b.mat"] = []string{"assets/a.mat"}
		assert.NoError(t, svc.NotifyChanged([]string{"assets/b.mat"}))

		reloaded := newService(t, mockCtrl, world, storePath)
		assert.Equal(t, []string{"assets/b.mat"}, reloaded.DependenciesOfPath("assets/a.mat", false))
		assert.Equal(t, []string{"assets/a.mat"}, reloaded.DependenciesOfPath("assets/b.mat", false))
	})
}

func TestStaleCheck(t *testing.T) {
	t.Run("記録済みの依存と現在の依存が比較できること", func(t *testing.T) {
		mockCtrl := gomock.NewController(t)
		defer mockCtrl.Finish()

		space := testUtil.BeginTestSpace(t)
		defer space.CleanUp()

		world := newFakeWorld("assets/a.mat", "assets/b.mat", "assets/c.tex")
		world.deps["assets/a.mat"] = []string{"assets/b.mat"}

		svc := newService(t, mockCtrl, world, filepath.Join(space.Dir, "graph.bin"))
		assert.NoError(t, svc.NotifyChanged([]string{"assets/a.mat"}))

		world.deps["assets/a.mat"] = []string{"assets/c.tex"}

		recorded, current, err := svc.StaleCheck("assets/a.mat")
		assert.NoError(t, err)
		assert.Equal(t, []string{"assets/b.mat"}, recorded)
		assert.Equal(t, []string{"assets/c.tex"}, current)
	})
}
