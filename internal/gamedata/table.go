package gamedata

import (
	_ "embed"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultTables []byte

// Row is one plain key/value record of a balance table.
type Row struct {
	ID       string
	Category string
	Fields   map[string]any
}

// Provider is the read-only lookup surface the core consumes.
type Provider interface {
	GetByID(id string) (Row, bool)
	GetByCategory(tag string) []Row
}

// Table is an in-memory Provider. Rows keep their file order within a category.
type Table struct {
	rows       []Row
	byID       map[string]int
	byCategory map[string][]int
}

// NewTable builds a Table from rows. Row IDs must be unique across categories.
func NewTable(rows []Row) (*Table, error) {
	t := &Table{
		byID:       make(map[string]int, len(rows)),
		byCategory: make(map[string][]int),
	}
	for _, r := range rows {
		if r.ID == "" {
			return nil, fmt.Errorf("%s row without id", r.Category)
		}
		if _, dup := t.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate row id %q", r.ID)
		}
		t.byID[r.ID] = len(t.rows)
		t.byCategory[r.Category] = append(t.byCategory[r.Category], len(t.rows))
		t.rows = append(t.rows, r)
	}
	return t, nil
}

// GetByID returns the row with the given identifier.
func (t *Table) GetByID(id string) (Row, bool) {
	i, ok := t.byID[id]
	if !ok {
		return Row{}, false
	}
	return t.rows[i], true
}

// GetByCategory returns all rows tagged with category, in load order.
func (t *Table) GetByCategory(tag string) []Row {
	idx := t.byCategory[tag]
	out := make([]Row, 0, len(idx))
	for _, i := range idx {
		out = append(out, t.rows[i])
	}
	return out
}

// Categories returns the loaded category names, sorted.
func (t *Table) Categories() []string {
	out := make([]string, 0, len(t.byCategory))
	for c := range t.byCategory {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// LoadYAML parses a document of the form `category: [ {id: ..., ...}, ... ]`.
func LoadYAML(r io.Reader) (*Table, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("tables: top level must be a mapping of categories")
	}
	root := doc.Content[0]

	var rows []Row
	for i := 0; i+1 < len(root.Content); i += 2 {
		category := root.Content[i].Value
		var records []map[string]any
		if err := root.Content[i+1].Decode(&records); err != nil {
			return nil, fmt.Errorf("category %s: %w", category, err)
		}
		for _, rec := range records {
			id, _ := rec["id"].(string)
			delete(rec, "id")
			rows = append(rows, Row{ID: id, Category: category, Fields: rec})
		}
	}
	return NewTable(rows)
}

// DefaultTable returns the embedded balance tables.
func DefaultTable() (*Table, error) {
	return LoadYAML(bytesReader(defaultTables))
}
