package databaseFactory

import (
	"log/slog"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/t-kuni/deptrace/domain/repository/assetsource"
	"github.com/t-kuni/deptrace/domain/repository/config"
	"github.com/t-kuni/deptrace/domain/repository/graphstore"
	"github.com/t-kuni/deptrace/domain/service/configFindService"
	"github.com/t-kuni/deptrace/domain/service/graphDatabase"
	"github.com/t-kuni/deptrace/domain/service/graphUpdate"
	"github.com/t-kuni/deptrace/domain/system/clock"
	"github.com/t-kuni/deptrace/domain/system/ksuid"
)

// SourceFactory プロジェクトルートとアセットディレクトリからAsset Sourceを作る
// infrastructure側の実装はcmdで注入される
type SourceFactory func(rootDir, assetsDir string) assetsource.Source

// DatabaseFactory はプロジェクト設定の発見からエンジン一式の組み立てまでを担う
// プロジェクトルートは実行時のカレントディレクトリに依存するため、
// エンジンはコマンド実行時に組み立てる
type DatabaseFactory struct {
	configFindService *configFindService.ConfigFindService
	configRepository  config.Repository
	storeRepository   graphstore.Repository
	clock             clock.IClock
	ksuidGenerator    ksuid.IKsuid
	logger            *slog.Logger
	sourceFactory     SourceFactory
}

type Project struct {
	RootDir  string
	Config   *config.Config
	Source   assetsource.Source
	Database *graphDatabase.GraphDatabaseService
}

func NewDatabaseFactory(
	configFindService *configFindService.ConfigFindService,
	configRepository config.Repository,
	storeRepository graphstore.Repository,
	clk clock.IClock,
	ksuidGenerator ksuid.IKsuid,
	logger *slog.Logger,
	sourceFactory SourceFactory,
) *DatabaseFactory {
	return &DatabaseFactory{
		configFindService: configFindService,
		configRepository:  configRepository,
		storeRepository:   storeRepository,
		clock:             clk,
		ksuidGenerator:    ksuidGenerator,
		logger:            logger,
		sourceFactory:     sourceFactory,
	}
}

func (f *DatabaseFactory) Create() (*Project, error) {
	configPath, err := f.configFindService.FindConfig()
	if err != nil {
		return nil, eris.Wrap(err, "failed to find config file")
	}

	cfg, err := f.configRepository.Read(configPath)
	if err != nil {
		return nil, eris.Wrap(err, "failed to read config file")
	}

	rootDir := f.configFindService.GetProjectRoot(configPath)

	source := f.sourceFactory(rootDir, cfg.AssetsDir)
	updateService := graphUpdate.NewGraphUpdateService(source)
	storePath := filepath.Join(rootDir, filepath.FromSlash(cfg.GraphPath))

	database := graphDatabase.NewGraphDatabaseService(
		f.storeRepository,
		source,
		updateService,
		f.clock,
		f.ksuidGenerator,
		f.logger,
		storePath,
	)

	return &Project{
		RootDir:  rootDir,
		Config:   cfg,
		Source:   source,
		Database: database,
	}, nil
}
