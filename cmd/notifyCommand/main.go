package notifyCommand

import (
	"github.com/spf13/cobra"
	"github.com/t-kuni/deptrace/domain/service/databaseFactory"
)

type NotifyCommand struct {
	CobraCommand *cobra.Command
}

// NewNotifyCommand 外部ツールから変更イベントを流し込むためのコマンド
// 監視プロセスを持たないCI環境などで使う
func NewNotifyCommand(factory *databaseFactory.DatabaseFactory) *NotifyCommand {
	var changedPaths []string
	var deletedPaths []string
	var movedPaths []string

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Notify the graph of changed, deleted, or moved assets",
		Long: `Apply change notifications to the dependency graph incrementally.
Paths are relative to the project root. Deletions are applied before
re-tracks. Moved assets are given as their new path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotify(factory, changedPaths, deletedPaths, movedPaths)
		},
	}

	cmd.Flags().StringSliceVar(&changedPaths, "changed", nil, "Imported or changed asset paths")
	cmd.Flags().StringSliceVar(&deletedPaths, "deleted", nil, "Deleted asset paths")
	cmd.Flags().StringSliceVar(&movedPaths, "moved", nil, "Moved asset paths (new location)")

	return &NotifyCommand{
		CobraCommand: cmd,
	}
}

func runNotify(factory *databaseFactory.DatabaseFactory, changed, deleted, moved []string) error {
	project, err := factory.Create()
	if err != nil {
		return err
	}

	db := project.Database

	if len(deleted) > 0 {
		if err := db.NotifyDeleted(deleted); err != nil {
			return err
		}
	}
	if len(changed) > 0 {
		if err := db.NotifyChanged(changed); err != nil {
			return err
		}
	}
	if len(moved) > 0 {
		if err := db.NotifyMoved(moved); err != nil {
			return err
		}
	}

	return nil
}
