package assetsource

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/denormal/go-gitignore"
	"github.com/rotisserie/eris"
	"github.com/t-kuni/deptrace/domain/model/ident"
	"github.com/t-kuni/deptrace/domain/repository/assetsource"
	"gopkg.in/yaml.v3"
)

const metaSuffix = ".meta"
const ignoreFileName = ".deptraceignore"

// guidPattern アセット本文中の依存参照。既知のguidに一致した32文字16進数トークンだけを依存とみなす
var guidPattern = regexp.MustCompile(`(?i)\b[0-9a-f]{32}\b`)

type metaFile struct {
	Guid string `yaml:"guid"`
}

// FileSystemSource はプロジェクトツリーを真実の源とするAsset Source実装
//
// 各アセット p は p+".meta" サイドカー (yaml) に安定した guid を持つ。
// サイドカーは最初の列挙時に生成される (import)。依存関係はアセット本文を
// 走査し、既知のguidへの参照を探すことで得る
type FileSystemSource struct {
	rootDir   string
	assetsDir string

	index *guidIndex // nil until built
}

type guidIndex struct {
	pathToID map[string]ident.ID
	idToPath map[ident.ID]string
}

func NewFileSystemSource(rootDir, assetsDir string) assetsource.Source {
	return &FileSystemSource{
		rootDir:   rootDir,
		assetsDir: filepath.ToSlash(filepath.Clean(assetsDir)),
	}
}

func (s *FileSystemSource) EnumeratePaths() ([]string, error) {
	index, err := s.ensureIndex()
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(index.pathToID))
	for path := range index.pathToID {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	return paths, nil
}

func (s *FileSystemSource) PathToID(path string) (ident.ID, bool) {
	path = normalize(path)
	if !s.inAssetsDir(path) {
		return ident.Nil, false
	}

	index, err := s.ensureIndex()
	if err != nil {
		return ident.Nil, false
	}

	id, ok := index.pathToID[path]
	return id, ok
}

func (s *FileSystemSource) IDToPath(id ident.ID) (string, bool) {
	index, err := s.ensureIndex()
	if err != nil {
		return "", false
	}

	path, ok := index.idToPath[id]
	return path, ok
}

func (s *FileSystemSource) DirectDependencies(path string) ([]string, error) {
	index, err := s.ensureIndex()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filepath.Join(s.rootDir, filepath.FromSlash(normalize(path))))
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read asset: %s", path)
	}

	var deps []string
	seen := make(map[ident.ID]bool)
	for _, token := range guidPattern.FindAllString(string(content), -1) {
		id, err := ident.Parse(token)
		if err != nil {
			continue
		}

		depPath, ok := index.idToPath[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		deps = append(deps, depPath)
	}

	return deps, nil
}

func (s *FileSystemSource) Invalidate() {
	s.index = nil
}

func (s *FileSystemSource) ensureIndex() (*guidIndex, error) {
	if s.index != nil {
		return s.index, nil
	}

	index := &guidIndex{
		pathToID: make(map[string]ident.ID),
		idToPath: make(map[ident.ID]string),
	}

	ignorePath := filepath.Join(s.rootDir, ignoreFileName)
	ignore, err := gitignore.NewFromFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "failed to load "+ignoreFileName)
	}

	assetsRoot := filepath.Join(s.rootDir, filepath.FromSlash(s.assetsDir))
	err = filepath.Walk(assetsRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == assetsRoot {
				// アセットディレクトリ未作成のプロジェクトは空として扱う
				return filepath.SkipAll
			}
			return err
		}

		// Skip hidden directories
		if info.IsDir() && info.Name()[0] == '.' && path != assetsRoot {
			return filepath.SkipDir
		}

		if ignore != nil {
			if match := ignore.Match(path); match != nil && match.Ignore() {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if info.IsDir() || strings.HasSuffix(path, metaSuffix) {
			return nil
		}

		id, err := s.loadOrCreateMeta(path)
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(s.rootDir, path)
		if err != nil {
			return err
		}

		slashPath := filepath.ToSlash(relPath)
		index.pathToID[slashPath] = id
		index.idToPath[id] = slashPath

		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "failed to enumerate assets")
	}

	s.index = index
	return index, nil
}

// loadOrCreateMeta reads the sidecar's guid, generating the sidecar when it
// is missing or unreadable. A rewritten sidecar means a fresh identity,
// which is exactly the contract for files whose sidecar was lost.
func (s *FileSystemSource) loadOrCreateMeta(assetPath string) (ident.ID, error) {
	metaPath := assetPath + metaSuffix

	content, err := os.ReadFile(metaPath)
	if err == nil {
		var meta metaFile
		if err := yaml.Unmarshal(content, &meta); err == nil {
			if id, err := ident.Parse(meta.Guid); err == nil && !id.IsNil() {
				return id, nil
			}
		}
	} else if !os.IsNotExist(err) {
		return ident.Nil, eris.Wrapf(err, "failed to read meta: %s", metaPath)
	}

	id := ident.New()
	out, err := yaml.Marshal(metaFile{Guid: id.String()})
	if err != nil {
		return ident.Nil, eris.Wrap(err, "failed to encode meta")
	}
	if err := os.WriteFile(metaPath, out, 0644); err != nil {
		return ident.Nil, eris.Wrapf(err, "failed to write meta: %s", metaPath)
	}

	return id, nil
}

func (s *FileSystemSource) inAssetsDir(path string) bool {
	return path == s.assetsDir || strings.HasPrefix(path, s.assetsDir+"/")
}

func normalize(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}
