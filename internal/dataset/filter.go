package dataset

import (
	"regexp"
	"strings"
)

// TableFilter selects and orders the tables of a dataset.
type TableFilter interface {
	// Accept reports whether the named table passes the filter.
	Accept(name string) bool
	// TableNames returns the names of ds that pass, in filter order.
	TableNames(ds DataSet) ([]string, error)
}

// patternSet matches names against glob patterns where '*' is any run of
// characters and '?' a single one. Matching ignores case.
type patternSet struct {
	patterns []*regexp.Regexp
}

func newPatternSet(globs []string) patternSet {
	ps := patternSet{patterns: make([]*regexp.Regexp, 0, len(globs))}
	for _, g := range globs {
		ps.patterns = append(ps.patterns, globToRegexp(g))
	}
	return ps
}

func globToRegexp(glob string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

func (ps patternSet) match(name string) bool {
	for _, p := range ps.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

func (ps patternSet) empty() bool {
	return len(ps.patterns) == 0
}

// IncludeTableFilter accepts tables matching any of its patterns.
type IncludeTableFilter struct {
	patterns patternSet
}

func NewIncludeTableFilter(patterns ...string) *IncludeTableFilter {
	return &IncludeTableFilter{patterns: newPatternSet(patterns)}
}

func (f *IncludeTableFilter) Accept(name string) bool {
	return f.patterns.match(name)
}

func (f *IncludeTableFilter) TableNames(ds DataSet) ([]string, error) {
	return acceptedNames(ds, f.Accept)
}

// ExcludeTableFilter rejects tables matching any of its patterns.
type ExcludeTableFilter struct {
	patterns patternSet
}

func NewExcludeTableFilter(patterns ...string) *ExcludeTableFilter {
	return &ExcludeTableFilter{patterns: newPatternSet(patterns)}
}

func (f *ExcludeTableFilter) Accept(name string) bool {
	return !f.patterns.match(name)
}

func (f *ExcludeTableFilter) TableNames(ds DataSet) ([]string, error) {
	return acceptedNames(ds, f.Accept)
}

func acceptedNames(ds DataSet, accept func(string) bool) ([]string, error) {
	names, err := ds.TableNames()
	if err != nil {
		return nil, err
	}
	kept := names[:0]
	for _, n := range names {
		if accept(n) {
			kept = append(kept, n)
		}
	}
	return kept, nil
}

// SequenceTableFilter accepts exactly the listed tables and yields them in
// list order. Listed tables missing from the dataset fail with
// NoSuchTableError.
type SequenceTableFilter struct {
	names         []string
	caseSensitive bool
}

func NewSequenceTableFilter(caseSensitive bool, names ...string) *SequenceTableFilter {
	return &SequenceTableFilter{names: append([]string(nil), names...), caseSensitive: caseSensitive}
}

func (f *SequenceTableFilter) Accept(name string) bool {
	key := normalizeName(name, f.caseSensitive)
	for _, n := range f.names {
		if normalizeName(n, f.caseSensitive) == key {
			return true
		}
	}
	return false
}

func (f *SequenceTableFilter) TableNames(ds DataSet) ([]string, error) {
	names := make([]string, 0, len(f.names))
	for _, n := range f.names {
		md, err := ds.TableMetaData(n)
		if err != nil {
			return nil, err
		}
		names = append(names, md.TableName())
	}
	return names, nil
}

// FilteredDataSet exposes the tables of a dataset that pass a filter, in the
// order the filter dictates.
type FilteredDataSet struct {
	filter TableFilter
	ds     DataSet
}

func NewFilteredDataSet(filter TableFilter, ds DataSet) *FilteredDataSet {
	return &FilteredDataSet{filter: filter, ds: ds}
}

// NewIncludeDataSet is shorthand for a FilteredDataSet over an include filter.
func NewIncludeDataSet(ds DataSet, patterns ...string) *FilteredDataSet {
	return NewFilteredDataSet(NewIncludeTableFilter(patterns...), ds)
}

// NewExcludeDataSet is shorthand for a FilteredDataSet over an exclude filter.
func NewExcludeDataSet(ds DataSet, patterns ...string) *FilteredDataSet {
	return NewFilteredDataSet(NewExcludeTableFilter(patterns...), ds)
}

func (f *FilteredDataSet) TableNames() ([]string, error) {
	return f.filter.TableNames(f.ds)
}

func (f *FilteredDataSet) TableMetaData(name string) (*TableMetaData, error) {
	if !f.filter.Accept(name) {
		return nil, &NoSuchTableError{Name: name}
	}
	return f.ds.TableMetaData(name)
}

func (f *FilteredDataSet) Table(name string) (Table, error) {
	if !f.filter.Accept(name) {
		return nil, &NoSuchTableError{Name: name}
	}
	return f.ds.Table(name)
}

func (f *FilteredDataSet) Iterator() (TableIterator, error) {
	return f.iterator(false)
}

func (f *FilteredDataSet) ReverseIterator() (TableIterator, error) {
	return f.iterator(true)
}

func (f *FilteredDataSet) iterator(reverse bool) (TableIterator, error) {
	names, err := f.TableNames()
	if err != nil {
		return nil, err
	}
	return newNamedIterator(names, reverse, f.ds.Table), nil
}

func (f *FilteredDataSet) CaseSensitive() bool {
	return f.ds.CaseSensitive()
}
