package statusCommand

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/t-kuni/deptrace/domain/service/databaseFactory"
)

type StatusCommand struct {
	CobraCommand *cobra.Command
}

func NewStatusCommand(factory *databaseFactory.DatabaseFactory) *StatusCommand {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show dependency graph status",
		Long:  `Show the tracked item count, whether a full analysis has run, and when it last ran.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(factory)
		},
	}

	return &StatusCommand{
		CobraCommand: cmd,
	}
}

func runStatus(factory *databaseFactory.DatabaseFactory) error {
	project, err := factory.Create()
	if err != nil {
		return err
	}

	db := project.Database

	fmt.Printf("Tracked items: %d\n", db.Count())
	fmt.Printf("Initialized:   %t\n", db.Initialized())

	if last := db.LastFullAnalysis(); last.IsZero() {
		fmt.Println("Last analysis: never")
	} else {
		fmt.Printf("Last analysis: %s\n", last.Format("2006-01-02 15:04:05"))
	}

	return nil
}
