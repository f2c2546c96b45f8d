package depsCommand

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"github.com/t-kuni/deptrace/domain/service/databaseFactory"
)

type DepsCommand struct {
	CobraCommand *cobra.Command
}

func NewDepsCommand(factory *databaseFactory.DatabaseFactory) *DepsCommand {
	var transitiveFlag bool
	var staleFlag bool

	cmd := &cobra.Command{
		Use:   "deps [path]",
		Short: "List the dependencies of an asset",
		Long: `List the recorded dependencies of an asset.
The path is relative to the project root. With --transitive the full closure
is listed. With --stale the recorded dependencies are diffed against a fresh
query to the asset tree.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(factory, args[0], transitiveFlag, staleFlag)
		},
	}

	cmd.Flags().BoolVarP(&transitiveFlag, "transitive", "t", false, "List the transitive closure instead of direct dependencies")
	cmd.Flags().BoolVar(&staleFlag, "stale", false, "Diff recorded dependencies against the current asset tree")

	return &DepsCommand{
		CobraCommand: cmd,
	}
}

func runDeps(factory *databaseFactory.DatabaseFactory, path string, transitive, stale bool) error {
	project, err := factory.Create()
	if err != nil {
		return err
	}

	if stale {
		recorded, current, err := project.Database.StaleCheck(path)
		if err != nil {
			return err
		}

		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(joinLines(recorded), joinLines(current), false)
		fmt.Println(dmp.DiffPrettyText(diffs))
		return nil
	}

	for _, dep := range project.Database.DependenciesOfPath(path, transitive) {
		fmt.Println(dep)
	}
	return nil
}

func joinLines(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return strings.Join(paths, "\n") + "\n"
}
