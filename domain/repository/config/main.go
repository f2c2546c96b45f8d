package config

type Config struct {
	// AssetsDir プロジェクトルートからの相対パス。この配下だけが追跡対象になる
	AssetsDir string `yaml:"assets-dir"`
	// GraphPath 永続化ファイルの置き場所（プロジェクトルートからの相対パス）
	GraphPath string `yaml:"graph-path"`
}

const DefaultAssetsDir = "assets"
const DefaultGraphPath = ".deptrace/graph.bin"

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.AssetsDir == "" {
		c.AssetsDir = DefaultAssetsDir
	}
	if c.GraphPath == "" {
		c.GraphPath = DefaultGraphPath
	}
}

type Repository interface {
	Read(path string) (*Config, error)
	Write(path string, cfg *Config) error
}
