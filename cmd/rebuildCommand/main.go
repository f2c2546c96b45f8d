package rebuildCommand

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/t-kuni/deptrace/domain/service/databaseFactory"
)

type RebuildCommand struct {
	CobraCommand *cobra.Command
}

func NewRebuildCommand(factory *databaseFactory.DatabaseFactory) *RebuildCommand {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the dependency graph from scratch",
		Long:  `Walk every asset in the project, query its direct dependencies, and rebuild the full dependency graph.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRebuild(cmd, factory)
		},
	}

	return &RebuildCommand{
		CobraCommand: cmd,
	}
}

// consoleSink 進捗を1行で上書き表示する
type consoleSink struct {
	lastPercent int
}

func (s *consoleSink) Report(fraction float64) {
	percent := int(fraction * 100)
	if percent == s.lastPercent {
		return
	}
	s.lastPercent = percent
	fmt.Printf("\rRebuilding... %3d%%", percent)
}

func runRebuild(cmd *cobra.Command, factory *databaseFactory.DatabaseFactory) error {
	project, err := factory.Create()
	if err != nil {
		return err
	}

	sink := &consoleSink{lastPercent: -1}
	if err := project.Database.Rebuild(cmd.Context(), sink); err != nil {
		fmt.Println()
		return err
	}

	fmt.Println()
	fmt.Printf("Rebuild complete. Tracking %d items.\n", project.Database.Count())
	return nil
}
