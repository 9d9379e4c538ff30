package dataset

// CaseInsensitiveDataSet resolves table names of a dataset ignoring case,
// whatever the case rule of the underlying dataset.
type CaseInsensitiveDataSet struct {
	ds    DataSet
	names map[string]string
}

// NewCaseInsensitiveDataSet wraps ds. Names of ds that differ only in case
// fail with AmbiguousTableNameError.
func NewCaseInsensitiveDataSet(ds DataSet) (*CaseInsensitiveDataSet, error) {
	names, err := ds.TableNames()
	if err != nil {
		return nil, err
	}
	c := &CaseInsensitiveDataSet{ds: ds, names: make(map[string]string, len(names))}
	for _, n := range names {
		key := normalizeName(n, false)
		if _, ok := c.names[key]; ok {
			return nil, &AmbiguousTableNameError{Name: n}
		}
		c.names[key] = n
	}
	return c, nil
}

func (c *CaseInsensitiveDataSet) resolve(name string) (string, error) {
	n, ok := c.names[normalizeName(name, false)]
	if !ok {
		return "", &NoSuchTableError{Name: name}
	}
	return n, nil
}

func (c *CaseInsensitiveDataSet) TableNames() ([]string, error) {
	return c.ds.TableNames()
}

func (c *CaseInsensitiveDataSet) TableMetaData(name string) (*TableMetaData, error) {
	n, err := c.resolve(name)
	if err != nil {
		return nil, err
	}
	return c.ds.TableMetaData(n)
}

func (c *CaseInsensitiveDataSet) Table(name string) (Table, error) {
	n, err := c.resolve(name)
	if err != nil {
		return nil, err
	}
	return c.ds.Table(n)
}

func (c *CaseInsensitiveDataSet) Iterator() (TableIterator, error) {
	return c.ds.Iterator()
}

func (c *CaseInsensitiveDataSet) ReverseIterator() (TableIterator, error) {
	return c.ds.ReverseIterator()
}

func (c *CaseInsensitiveDataSet) CaseSensitive() bool {
	return false
}
