package sim

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
	"sort"
)

// Stage hashes are MD5 digests of a length-prefixed serialization in which
// every column is written in p_id order. They are equal across backends and
// across sorted and scrambled input.

type hasher struct{ h hash.Hash }

func newHasher() *hasher { return &hasher{h: md5.New()} }

func (w *hasher) field(b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	w.h.Write(n[:])
	w.h.Write(b)
}

func (w *hasher) str(s string) { w.field([]byte(s)) }

func (w *hasher) column(values []float64, order []int) {
	buf := make([]byte, 8*len(order))
	for i, r := range order {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(values[r]))
	}
	w.field(buf)
}

func (w *hasher) sum() string { return hex.EncodeToString(w.h.Sum(nil)) }

// HashProcessed digests the evaluation order and the mapped inputs.
func HashProcessed(p *Processed) string {
	w := newHasher()
	for _, name := range p.Order {
		w.str(name)
	}
	names := make([]string, 0, len(p.Inputs))
	for k := range p.Inputs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		w.str(k)
		w.column(p.Inputs[k], p.ByPID)
	}
	return w.sum()
}

// HashRaw digests the computed target columns.
func HashRaw(p *Processed, raw *RawResults) string {
	w := newHasher()
	for _, name := range p.Targets.Names() {
		w.str(name)
		w.column(raw.Columns[name], p.ByPID)
	}
	return w.sum()
}

// HashTable digests the formatted output.
func HashTable(t *Table) string {
	identity := make([]int, len(t.PID))
	for i := range identity {
		identity[i] = i
	}
	w := newHasher()
	w.str("p_id")
	w.column(t.PID, identity)
	for i, l := range t.Labels {
		w.str(l)
		w.column(t.Values[i], identity)
	}
	return w.sum()
}
