package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/t-kuni/deptrace/cmd/clearCommand"
	"github.com/t-kuni/deptrace/cmd/depsCommand"
	"github.com/t-kuni/deptrace/cmd/initCommand"
	"github.com/t-kuni/deptrace/cmd/notifyCommand"
	"github.com/t-kuni/deptrace/cmd/rebuildCommand"
	"github.com/t-kuni/deptrace/cmd/refsCommand"
	"github.com/t-kuni/deptrace/cmd/statusCommand"
	"github.com/t-kuni/deptrace/cmd/versionCommand"
	"github.com/t-kuni/deptrace/cmd/watchCommand"
	"github.com/t-kuni/deptrace/domain/service/configFindService"
	"github.com/t-kuni/deptrace/domain/service/databaseFactory"
	assetSourceRepo "github.com/t-kuni/deptrace/infrastructure/repository/assetsource"
	configRepo "github.com/t-kuni/deptrace/infrastructure/repository/config"
	fileRepo "github.com/t-kuni/deptrace/infrastructure/repository/file"
	graphStoreRepo "github.com/t-kuni/deptrace/infrastructure/repository/graphstore"
	clockImpl "github.com/t-kuni/deptrace/infrastructure/system/clock"
	ksuidImpl "github.com/t-kuni/deptrace/infrastructure/system/ksuid"
)

type RootCommand struct {
	CobraCommand *cobra.Command
}

func NewRootCommand() *RootCommand {
	cmd := &cobra.Command{
		Use:   "deptrace",
		Short: "A dependency graph tracker for asset trees",
		Long: `Deptrace tracks directed depends-on relationships between assets and
maintains the inverse referenced-by view incrementally as files change.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	fileRepository := fileRepo.NewFileRepository()
	configRepository := configRepo.NewConfigRepository()
	graphStoreRepository := graphStoreRepo.NewRepository()
	clock := clockImpl.NewClock()
	ksuidGenerator := ksuidImpl.NewKsuidGenerator()

	configFindSrv := configFindService.NewConfigFindService(fileRepository)
	factory := databaseFactory.NewDatabaseFactory(
		configFindSrv,
		configRepository,
		graphStoreRepository,
		clock,
		ksuidGenerator,
		logger,
		assetSourceRepo.NewFileSystemSource,
	)

	cmd.AddCommand(initCommand.NewInitCommand(configRepository, fileRepository).CobraCommand)
	cmd.AddCommand(statusCommand.NewStatusCommand(factory).CobraCommand)
	cmd.AddCommand(rebuildCommand.NewRebuildCommand(factory).CobraCommand)
	cmd.AddCommand(depsCommand.NewDepsCommand(factory).CobraCommand)
	cmd.AddCommand(refsCommand.NewRefsCommand(factory).CobraCommand)
	cmd.AddCommand(notifyCommand.NewNotifyCommand(factory).CobraCommand)
	cmd.AddCommand(watchCommand.NewWatchCommand(factory).CobraCommand)
	cmd.AddCommand(clearCommand.NewClearCommand(factory).CobraCommand)
	cmd.AddCommand(versionCommand.NewVersionCommand().CobraCommand)

	return &RootCommand{
		CobraCommand: cmd,
	}
}
