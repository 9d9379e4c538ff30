package dataset

import (
	"reflect"
	"sort"
	"strings"
)

// Replacements configures value substitution in a ReplacementTable.
type Replacements struct {
	// Objects replaces whole cell values, e.g. "[NULL]" with nil.
	Objects map[any]any
	// Substrings replaces parts of string cells. With both delimiters set
	// only delimited tokens are replaced, and the key is the token without
	// its delimiters.
	Substrings     map[string]string
	StartDelimiter string
	EndDelimiter   string
	// Strict fails on a delimited token that has no replacement.
	Strict bool
}

func (r Replacements) delimited() bool {
	return r.StartDelimiter != "" && r.EndDelimiter != ""
}

// ReplacementTable substitutes cell values as they are read.
type ReplacementTable struct {
	table Table
	repl  Replacements
	keys  []string
}

func NewReplacementTable(t Table, repl Replacements) *ReplacementTable {
	keys := make([]string, 0, len(repl.Substrings))
	for k := range repl.Substrings {
		if k != "" {
			keys = append(keys, k)
		}
	}
	// longest first so "abc" wins over "ab" at the same position
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return &ReplacementTable{table: t, repl: repl, keys: keys}
}

func (r *ReplacementTable) TableMetaData() *TableMetaData {
	return r.table.TableMetaData()
}

func (r *ReplacementTable) RowCount() (int, error) {
	return r.table.RowCount()
}

func (r *ReplacementTable) Value(row int, column string) (any, error) {
	v, err := r.table.Value(row, column)
	if err != nil {
		return nil, err
	}
	if v != nil && reflect.TypeOf(v).Comparable() {
		if repl, ok := r.repl.Objects[v]; ok {
			return repl, nil
		}
	}
	s, ok := v.(string)
	if !ok || len(r.repl.Substrings) == 0 && !r.repl.Strict {
		return v, nil
	}
	if r.repl.delimited() {
		out, token, ok := r.replaceTokens(s)
		if !ok {
			return nil, &UnmatchedTokenError{
				Table:  r.table.TableMetaData().TableName(),
				Column: column,
				Row:    row,
				Token:  token,
			}
		}
		return out, nil
	}
	return r.replaceSubstrings(s), nil
}

func (r *ReplacementTable) replaceSubstrings(s string) string {
	if len(r.keys) == 0 {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		matched := false
		for _, k := range r.keys {
			if strings.HasPrefix(s[i:], k) {
				b.WriteString(r.repl.Substrings[k])
				i += len(k)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String()
}

// replaceTokens rewrites every delimited token. Unknown tokens are kept
// verbatim unless Strict is set, in which case the first one is returned
// with ok false.
func (r *ReplacementTable) replaceTokens(s string) (out string, token string, ok bool) {
	start, end := r.repl.StartDelimiter, r.repl.EndDelimiter
	var b strings.Builder
	for {
		i := strings.Index(s, start)
		if i < 0 {
			break
		}
		j := strings.Index(s[i+len(start):], end)
		if j < 0 {
			break
		}
		tok := s[i+len(start) : i+len(start)+j]
		b.WriteString(s[:i])
		if repl, found := r.repl.Substrings[tok]; found {
			b.WriteString(repl)
		} else if r.repl.Strict {
			return "", tok, false
		} else {
			b.WriteString(s[i : i+len(start)+j+len(end)])
		}
		s = s[i+len(start)+j+len(end):]
	}
	b.WriteString(s)
	return b.String(), "", true
}

// ReplacementDataSet applies the same replacements to every table of a
// dataset.
type ReplacementDataSet struct {
	ds   DataSet
	repl Replacements
}

func NewReplacementDataSet(ds DataSet, repl Replacements) *ReplacementDataSet {
	return &ReplacementDataSet{ds: ds, repl: repl}
}

func (r *ReplacementDataSet) TableNames() ([]string, error) {
	return r.ds.TableNames()
}

func (r *ReplacementDataSet) TableMetaData(name string) (*TableMetaData, error) {
	return r.ds.TableMetaData(name)
}

func (r *ReplacementDataSet) Table(name string) (Table, error) {
	t, err := r.ds.Table(name)
	if err != nil {
		return nil, err
	}
	return NewReplacementTable(t, r.repl), nil
}

func (r *ReplacementDataSet) Iterator() (TableIterator, error) {
	it, err := r.ds.Iterator()
	if err != nil {
		return nil, err
	}
	return &replacementIterator{TableIterator: it, repl: r.repl}, nil
}

func (r *ReplacementDataSet) ReverseIterator() (TableIterator, error) {
	it, err := r.ds.ReverseIterator()
	if err != nil {
		return nil, err
	}
	return &replacementIterator{TableIterator: it, repl: r.repl}, nil
}

func (r *ReplacementDataSet) CaseSensitive() bool {
	return r.ds.CaseSensitive()
}

type replacementIterator struct {
	TableIterator
	repl Replacements
}

func (it *replacementIterator) Table() (Table, error) {
	t, err := it.TableIterator.Table()
	if err != nil {
		return nil, err
	}
	return NewReplacementTable(t, it.repl), nil
}
