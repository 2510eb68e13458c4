package schema

// Table is the physical shape of a table as reported by the backing store.
type Table struct {
	Name    string
	Schema  string
	Columns []Column
	Exists  bool
}

// Column is one physical column as reported by information_schema.
type Column struct {
	Name       string
	DataType   string
	IsNullable bool
	Position   int
}

// Column returns the physical column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}
