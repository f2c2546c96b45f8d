package graphstore

import (
	"github.com/rotisserie/eris"
	"github.com/t-kuni/deptrace/domain/model/graph"
)

// ErrInvalidFormat シグネチャ不一致・構造の破損・途中で切れたストリーム
var ErrInvalidFormat = eris.New("invalid graph store format")

// ErrUnsupportedVersion コーデックが対応していないバージョン
var ErrUnsupportedVersion = eris.New("unsupported graph store version")

// IsCorrupt reports whether err means the backing store cannot be trusted.
// The orchestrator discards the file and restarts empty in that case.
func IsCorrupt(err error) bool {
	return eris.Is(err, ErrInvalidFormat) || eris.Is(err, ErrUnsupportedVersion)
}

type Repository interface {
	// Load returns fs.ErrNotExist-compatible errors when the file is absent
	// and ErrInvalidFormat / ErrUnsupportedVersion on corruption.
	Load(path string) (*graph.Graph, error)
	Save(path string, g *graph.Graph) error
	Delete(path string) error
}
