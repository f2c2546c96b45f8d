package refsCommand

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/t-kuni/deptrace/domain/service/databaseFactory"
)

type RefsCommand struct {
	CobraCommand *cobra.Command
}

func NewRefsCommand(factory *databaseFactory.DatabaseFactory) *RefsCommand {
	var transitiveFlag bool

	cmd := &cobra.Command{
		Use:   "refs [path]",
		Short: "List the assets that reference an asset",
		Long: `List the assets that depend on the given asset.
The path is relative to the project root. With --transitive the full closure
is listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefs(factory, args[0], transitiveFlag)
		},
	}

	cmd.Flags().BoolVarP(&transitiveFlag, "transitive", "t", false, "List the transitive closure instead of direct referrers")

	return &RefsCommand{
		CobraCommand: cmd,
	}
}

func runRefs(factory *databaseFactory.DatabaseFactory, path string, transitive bool) error {
	project, err := factory.Create()
	if err != nil {
		return err
	}

	for _, ref := range project.Database.ReferencesOfPath(path, transitive) {
		fmt.Println(ref)
	}
	return nil
}
