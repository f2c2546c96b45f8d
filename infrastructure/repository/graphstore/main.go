package graphstore

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/t-kuni/deptrace/domain/model/graph"
	"github.com/t-kuni/deptrace/domain/model/ident"
	"github.com/t-kuni/deptrace/domain/repository/graphstore"
)

// バイナリフォーマット (リトルエンディアン):
//   signature  長さ接頭辞付き文字列 "DEPTRACE"
//   version    uint32 (現在は1)
//   initialized 1バイト
//   lastFullAnalysisTime int64 (Unixナノ秒、ゼロ時刻は0)
//   forwardセクション、reverseセクションの順に:
//     entryCount uint32
//     entryCount × { key文字列, edgeCount uint32, edgeCount × エッジ文字列 }
// 文字列はuvarintのバイト長接頭辞付き。エントリとエッジは正規順で書き出す

const signature = "DEPTRACE"
const version = uint32(1)

type repositoryImpl struct{}

func NewRepository() graphstore.Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Load(path string) (*graph.Graph, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		// 存在しない場合はそのまま返し、呼び出し側で os.IsNotExist 判定できるようにする
		return nil, err
	}

	g, err := decode(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	return g, nil
}

// Save writes the snapshot to a temporary file in the same directory and
// atomically renames it into place, so an interrupted write never corrupts
// the previous file.
func (r *repositoryImpl) Save(path string, g *graph.Graph) error {
	var buf bytes.Buffer
	if err := encode(&buf, g); err != nil {
		return eris.Wrap(err, "failed to encode graph")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return eris.Wrap(err, "failed to create graph store directory")
	}

	tmp, err := os.CreateTemp(dir, ".graph-*.tmp")
	if err != nil {
		return eris.Wrap(err, "failed to create temporary graph store file")
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return eris.Wrap(err, "failed to write graph store")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "failed to close temporary graph store file")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrap(err, "failed to replace graph store")
	}

	return nil
}

func (r *repositoryImpl) Delete(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return eris.Wrap(err, "failed to delete graph store")
	}
	return nil
}

func encode(w *bytes.Buffer, g *graph.Graph) error {
	writeString(w, signature)

	if err := binary.Write(w, binary.LittleEndian, version); err != nil {
		return err
	}

	initialized := byte(0)
	if g.Meta.Initialized {
		initialized = 1
	}
	w.WriteByte(initialized)

	var analysisTime int64
	if !g.Meta.LastFullAnalysis.IsZero() {
		analysisTime = g.Meta.LastFullAnalysis.UnixNano()
	}
	if err := binary.Write(w, binary.LittleEndian, analysisTime); err != nil {
		return err
	}

	if err := encodeSection(w, g.ForwardKeys(), g.DependenciesOf); err != nil {
		return err
	}
	return encodeSection(w, g.ReverseKeys(), g.ReferencesOf)
}

func encodeSection(w *bytes.Buffer, keys []ident.ID, edgesOf func(ident.ID) graph.EdgeSet) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(keys))); err != nil {
		return err
	}

	for _, key := range keys {
		writeString(w, key.String())

		edges := edgesOf(key)
		if err := binary.Write(w, binary.LittleEndian, uint32(len(edges))); err != nil {
			return err
		}
		for _, edge := range edges {
			writeString(w, edge.String())
		}
	}

	return nil
}

func decode(r *bytes.Reader) (*graph.Graph, error) {
	sig, err := readString(r)
	if err != nil {
		return nil, eris.Wrap(graphstore.ErrInvalidFormat, "failed to read signature")
	}
	if sig != signature {
		return nil, eris.Wrapf(graphstore.ErrInvalidFormat, "unexpected signature %q", sig)
	}

	var v uint32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return nil, eris.Wrap(graphstore.ErrInvalidFormat, "failed to read version")
	}
	if v != version {
		return nil, eris.Wrapf(graphstore.ErrUnsupportedVersion, "version %d", v)
	}

	g := graph.NewGraph()

	initialized, err := r.ReadByte()
	if err != nil {
		return nil, eris.Wrap(graphstore.ErrInvalidFormat, "failed to read initialized flag")
	}
	g.Meta.Initialized = initialized != 0

	var analysisTime int64
	if err := binary.Read(r, binary.LittleEndian, &analysisTime); err != nil {
		return nil, eris.Wrap(graphstore.ErrInvalidFormat, "failed to read analysis time")
	}
	if analysisTime != 0 {
		g.Meta.LastFullAnalysis = time.Unix(0, analysisTime)
	}

	if err := decodeSection(r, func(key ident.ID, edges graph.EdgeSet) {
		g.SetDependencies(key, edges)
	}); err != nil {
		return nil, err
	}
	if err := decodeSection(r, func(key ident.ID, edges graph.EdgeSet) {
		for _, source := range edges {
			g.AddReverseEdge(key, source)
		}
	}); err != nil {
		return nil, err
	}

	if r.Len() != 0 {
		return nil, eris.Wrapf(graphstore.ErrInvalidFormat, "%d trailing bytes", r.Len())
	}

	return g, nil
}

// 識別子1つの最小エンコード長 (uvarint長接頭辞1バイト + 32文字)
const minIDBytes = 33

func decodeSection(r *bytes.Reader, apply func(key ident.ID, edges graph.EdgeSet)) error {
	var entryCount uint32
	if err := binary.Read(r, binary.LittleEndian, &entryCount); err != nil {
		return eris.Wrap(graphstore.ErrInvalidFormat, "failed to read entry count")
	}
	// ファイル由来のカウントを信用して確保すると、壊れたストアが巨大な
	// 割り当てを要求できてしまう。残りバイト数に収まらないカウントは破損
	if uint64(entryCount)*(minIDBytes+4) > uint64(r.Len()) {
		return eris.Wrapf(graphstore.ErrInvalidFormat, "entry count %d exceeds remaining %d bytes", entryCount, r.Len())
	}

	for i := uint32(0); i < entryCount; i++ {
		key, err := readID(r)
		if err != nil {
			return err
		}

		var edgeCount uint32
		if err := binary.Read(r, binary.LittleEndian, &edgeCount); err != nil {
			return eris.Wrap(graphstore.ErrInvalidFormat, "failed to read edge count")
		}
		if uint64(edgeCount)*minIDBytes > uint64(r.Len()) {
			return eris.Wrapf(graphstore.ErrInvalidFormat, "edge count %d exceeds remaining %d bytes", edgeCount, r.Len())
		}

		ids := make([]ident.ID, 0, edgeCount)
		for j := uint32(0); j < edgeCount; j++ {
			edge, err := readID(r)
			if err != nil {
				return err
			}
			ids = append(ids, edge)
		}

		apply(key, graph.NewEdgeSet(ids))
	}

	return nil
}

func readID(r *bytes.Reader) (ident.ID, error) {
	s, err := readString(r)
	if err != nil {
		return ident.Nil, eris.Wrap(graphstore.ErrInvalidFormat, "failed to read identifier")
	}

	id, err := ident.Parse(s)
	if err != nil {
		return ident.Nil, eris.Wrapf(graphstore.ErrInvalidFormat, "malformed identifier %q", s)
	}

	return id, nil
}

func writeString(w *bytes.Buffer, s string) {
	var length [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(length[:], uint64(len(s)))
	w.Write(length[:n])
	w.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	length, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	if length > uint64(r.Len()) {
		return "", io.ErrUnexpectedEOF
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}

	return string(buf), nil
}
