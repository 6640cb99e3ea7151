package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strconv"
)

// Hash returns the hex SHA-256 of data. Schemas are hashed over their
// canonical JSON (io.MarshalSchema), layouts over the layout file encoding,
// so equal content yields equal hashes across processes.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// keyHash accumulates the fields of a cache key. Each field is written as
// name=value on its own line with strings quoted, so distinct field lists
// never share an encoding. Floats use the shortest form strconv produces,
// which also covers ±Inf and NaN.
type keyHash struct {
	kind string
	h    hash.Hash
}

func newKeyHash(kind string) *keyHash {
	return &keyHash{kind: kind, h: sha256.New()}
}

func (k *keyHash) str(name, v string) *keyHash {
	return k.field(name, strconv.Quote(v))
}

func (k *keyHash) float(name string, v float64) *keyHash {
	return k.field(name, strconv.FormatFloat(v, 'g', -1, 64))
}

func (k *keyHash) flag(name string, v bool) *keyHash {
	return k.field(name, strconv.FormatBool(v))
}

func (k *keyHash) field(name, value string) *keyHash {
	k.h.Write([]byte(name + "=" + value + "\n"))
	return k
}

// key returns "kind:hex".
func (k *keyHash) key() string {
	return k.kind + ":" + hex.EncodeToString(k.h.Sum(nil))
}
