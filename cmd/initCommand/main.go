package initCommand

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/t-kuni/deptrace/domain/repository/config"
	"github.com/t-kuni/deptrace/domain/repository/file"
)

type InitCommand struct {
	CobraCommand *cobra.Command
}

func NewInitCommand(configRepository config.Repository, fileRepository file.Repository) *InitCommand {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new deptrace project",
		Long:  `Initialize a new deptrace project by creating a deptrace.yml configuration file in the current directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			currentDir, err := fileRepository.Getwd()
			if err != nil {
				return err
			}

			configPath := filepath.Join(currentDir, "deptrace.yml")
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("deptrace.yml already exists in the current directory")
			}

			cfg := &config.Config{
				AssetsDir: config.DefaultAssetsDir,
				GraphPath: config.DefaultGraphPath,
			}

			err = configRepository.Write(configPath, cfg)
			if err != nil {
				return err
			}

			fmt.Println("Initialized deptrace project. Created deptrace.yml in the current directory.")
			return nil
		},
	}

	return &InitCommand{
		CobraCommand: cmd,
	}
}
