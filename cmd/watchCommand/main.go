package watchCommand

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/t-kuni/deptrace/domain/service/databaseFactory"
)

type WatchCommand struct {
	CobraCommand *cobra.Command
}

// NewWatchCommand アセットツリーを監視し、ファイルイベントを
// グラフへの変更通知に変換し続けるコマンド
func NewWatchCommand(factory *databaseFactory.DatabaseFactory) *WatchCommand {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the asset tree and update the graph incrementally",
		Long: `Watch the asset directory for file changes and keep the dependency graph
up to date. Creates and writes are applied as changes, removes as deletions,
and renames as a deletion of the old path (the new path arrives as a create).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, factory)
		},
	}

	return &WatchCommand{
		CobraCommand: cmd,
	}
}

func runWatch(cmd *cobra.Command, factory *databaseFactory.DatabaseFactory) error {
	project, err := factory.Create()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	assetsRoot := filepath.Join(project.RootDir, filepath.FromSlash(project.Config.AssetsDir))
	if err := addRecursive(watcher, assetsRoot); err != nil {
		return err
	}

	fmt.Printf("Watching %s\n", assetsRoot)

	for {
		select {
		case <-cmd.Context().Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if err := handleEvent(project, watcher, event); err != nil {
				fmt.Fprintf(os.Stderr, "failed to apply %s: %v\n", event, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		}
	}
}

func handleEvent(project *databaseFactory.Project, watcher *fsnotify.Watcher, event fsnotify.Event) error {
	// サイドカーの更新はアセット自体の変更として扱う
	assetPath := strings.TrimSuffix(event.Name, ".meta")

	relPath, err := filepath.Rel(project.RootDir, assetPath)
	if err != nil {
		return err
	}
	path := filepath.ToSlash(relPath)

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return addRecursive(watcher, event.Name)
		}
		return project.Database.NotifyChanged([]string{path})

	case event.Has(fsnotify.Write):
		return project.Database.NotifyChanged([]string{path})

	case event.Has(fsnotify.Remove):
		return project.Database.NotifyDeleted([]string{path})

	case event.Has(fsnotify.Rename):
		// 移動先は別途Createイベントとして届く
		return project.Database.NotifyDeleted([]string{path})
	}

	return nil
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if info.Name()[0] == '.' && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
