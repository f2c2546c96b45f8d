package ident

import (
	"bytes"
	"encoding/hex"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// ID アセットを一意に識別する128bitの不透明な識別子
// 正規表現は32文字の小文字16進数。ゼロ値は「識別子なし」を意味しグラフのキーには現れない
type ID [16]byte

// Nil 「識別子なし」を表すゼロ値
var Nil ID

// New returns a random, non-nil ID.
func New() ID {
	return ID(uuid.New())
}

// Parse decodes the canonical 32-hex-character form. Case insensitive.
func Parse(s string) (ID, error) {
	if len(s) != 32 {
		return Nil, eris.Errorf("invalid identifier length: %d", len(s))
	}

	var id ID
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return Nil, eris.Wrapf(err, "invalid identifier: %s", s)
	}

	return id, nil
}

// String returns the canonical form: 32 lowercase hex characters.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

func (id ID) IsNil() bool {
	return id == Nil
}

// Compare バイト列としての順序比較
// 16進エンコードは順序を保存するため、正規文字列の辞書順と完全に一致する
func Compare(a, b ID) int {
	return bytes.Compare(a[:], b[:])
}
