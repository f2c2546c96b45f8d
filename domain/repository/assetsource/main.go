//go:generate mockgen -source=$GOFILE -destination=${GOFILE}_mock.go -package=$GOPACKAGE

package assetsource

import "github.com/t-kuni/deptrace/domain/model/ident"

// Source グラフエンジンにとっての唯一の真実の源
// エンジン自身は依存関係を計算せず、ここから教えられたエッジを保存・伝播するだけ
type Source interface {
	// EnumeratePaths returns every tracked asset path, sorted,
	// slash-separated, relative to the project root.
	EnumeratePaths() ([]string, error)

	// PathToID resolves a path to its stable identifier. ok is false when
	// the path has no identifier or lies outside the tracked tree; that is
	// an expected condition, never an error.
	PathToID(path string) (id ident.ID, ok bool)

	// IDToPath is the inverse mapping.
	IDToPath(id ident.ID) (path string, ok bool)

	// DirectDependencies returns the ground-truth direct dependency paths
	// of the given asset. One-shot synchronous query.
	DirectDependencies(path string) ([]string, error)

	// Invalidate drops any cached path/identifier index. Called after
	// external changes to the tree.
	Invalidate()
}
