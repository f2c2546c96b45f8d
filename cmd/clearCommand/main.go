package clearCommand

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/t-kuni/deptrace/domain/service/databaseFactory"
)

type ClearCommand struct {
	CobraCommand *cobra.Command
}

func NewClearCommand(factory *databaseFactory.DatabaseFactory) *ClearCommand {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop the dependency graph and its backing store",
		Long:  `Drop the in-memory dependency graph and delete the persisted graph file. Queries behave as uninitialized until the next rebuild.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(factory)
		},
	}

	return &ClearCommand{
		CobraCommand: cmd,
	}
}

func runClear(factory *databaseFactory.DatabaseFactory) error {
	project, err := factory.Create()
	if err != nil {
		return err
	}

	if err := project.Database.Clear(); err != nil {
		return err
	}

	fmt.Println("Cleared dependency graph.")
	return nil
}
