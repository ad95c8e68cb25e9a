package household

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Kind is the logical type of a numeric column.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindBool
)

// Frame is a columnar table. Bool columns hold 0 or 1.
type Frame struct {
	Columns []string
	Data    map[string][]float64
	Kinds   map[string]Kind
	rows    int
}

// NewFrame allocates a frame of n rows with zeroed columns.
func NewFrame(n int, columns []string, kinds map[string]Kind) *Frame {
	f := &Frame{
		Columns: append([]string(nil), columns...),
		Data:    make(map[string][]float64, len(columns)),
		Kinds:   make(map[string]Kind, len(columns)),
		rows:    n,
	}
	for _, c := range columns {
		f.Data[c] = make([]float64, n)
		f.Kinds[c] = kinds[c]
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Column returns the values of a column, or nil.
func (f *Frame) Column(name string) []float64 { return f.Data[name] }

// Row returns the values of row i in column order.
func (f *Frame) Row(i int) []float64 {
	out := make([]float64, len(f.Columns))
	for j, c := range f.Columns {
		out[j] = f.Data[c][i]
	}
	return out
}

// Permute reorders all rows so that new row i is old row perm[i].
func (f *Frame) Permute(perm []int) {
	for _, c := range f.Columns {
		src := f.Data[c]
		dst := make([]float64, len(src))
		for i, p := range perm {
			dst[i] = src[p]
		}
		f.Data[c] = dst
	}
}

// SizeBytes estimates the memory held by the column data.
func (f *Frame) SizeBytes() int64 {
	return int64(f.rows) * int64(len(f.Columns)) * 8
}

// WriteCSV writes the frame with a header row.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return err
	}
	rec := make([]string, len(f.Columns))
	for i := 0; i < f.rows; i++ {
		for j, c := range f.Columns {
			rec[j] = formatValue(f.Data[c][i], f.Kinds[c])
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v float64, k Kind) string {
	switch k {
	case KindBool:
		if v != 0 {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(int64(v), 10)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}
