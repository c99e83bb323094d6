// Package catalog turns a schema export (tables, fields, relationships,
// layouts, scripts, value lists, external file references) into sixteen
// normalized, cross-referenced tables.
//
// A Catalog is built once from one parsed document and never changes.
// Independent Catalogs share nothing and may be built concurrently.
//
// Usage:
//
//	file, err := xmltree.LoadFile("Orders_fmp12.xml")
//	if err != nil { ... }
//	cat, err := catalog.New(file, catalog.WithLogger(log))
//	if err != nil { ... }
//	report := cat.ImpactReport("Invoices")
package catalog

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/koustreak/ddrlens/internal/logger"
	"github.com/koustreak/ddrlens/internal/xmltree"
)

// Catalog holds the finished tables of one schema export.
type Catalog struct {
	parseID string
	tables  map[string]*Table
}

type options struct {
	log *logger.Logger
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger used for extraction diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// New runs every extractor against file (the export's File element) and
// assembles the sixteen tables. Any structural or type-coercion violation
// aborts the whole build; no partial Catalog is returned.
func New(file xmltree.Node, opts ...Option) (*Catalog, error) {
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	parseID := uuid.NewString()
	log := o.log.ForParse(parseID)

	tables := make(map[string]*Table, len(Schemas))
	for _, ex := range extractors {
		var sk skips
		sets, err := ex.run(file, &sk)
		if err != nil {
			log.ErrorWith("extraction failed", err, map[string]interface{}{"extractor": ex.name})
			return nil, err
		}

		counts := make(map[string]interface{}, len(sets)+1)
		counts["extractor"] = ex.name
		for _, s := range Schemas {
			name := s.Name
			recs, ok := sets[name]
			if !ok {
				continue
			}
			t, err := assemble(name, recs)
			if err != nil {
				log.ErrorWith("table assembly failed", err, map[string]interface{}{"table": name})
				return nil, err
			}
			if name == TableCalculatedFields {
				t = t.Distinct(calculatedRefKey...)
			}
			tables[name] = t
			counts[name] = t.Len()
		}
		for _, s := range sk {
			log.DebugWith("optional element absent, row skipped", map[string]interface{}{
				"reason":  s.reason,
				"context": map[string]string(s.ctx),
			})
		}
		counts["skipped"] = len(sk)
		log.DebugWith("extractor finished", counts)
	}

	// every schema yields a table, even if no extractor produced rows for it
	for _, s := range Schemas {
		if _, ok := tables[s.Name]; !ok {
			tables[s.Name] = NewTable(s)
		}
	}

	log.InfoWith("catalog built", map[string]interface{}{
		"base_tables": tables[TableBaseTables].Len(),
		"fields":      tables[TableFields].Len(),
		"layouts":     tables[TableLayouts].Len(),
		"scripts":     tables[TableScripts].Len(),
	})

	return &Catalog{parseID: parseID, tables: tables}, nil
}

// ParseID identifies this build in logs and exports.
func (c *Catalog) ParseID() string { return c.parseID }

// All returns the sixteen tables in canonical order.
func (c *Catalog) All() []*Table {
	out := make([]*Table, len(Schemas))
	for i, s := range Schemas {
		out[i] = c.tables[s.Name]
	}
	return out
}

// Table returns the named table.
func (c *Catalog) Table(name string) (*Table, bool) {
	t, ok := c.tables[name]
	return t, ok
}

// MustTable returns the named table and panics on an unknown name.
func (c *Catalog) MustTable(name string) *Table {
	t, ok := c.tables[name]
	if !ok {
		panic(fmt.Sprintf("catalog: unknown table %q", name))
	}
	return t
}

func (c *Catalog) Files() *Table            { return c.tables[TableFiles] }
func (c *Catalog) BaseTables() *Table       { return c.tables[TableBaseTables] }
func (c *Catalog) Fields() *Table           { return c.tables[TableFields] }
func (c *Catalog) CalculatedFields() *Table { return c.tables[TableCalculatedFields] }
func (c *Catalog) TableOccurrences() *Table { return c.tables[TableTables] }
func (c *Catalog) Relationships() *Table    { return c.tables[TableRelationships] }
func (c *Catalog) FieldJoins() *Table       { return c.tables[TableFieldJoins] }
func (c *Catalog) Layouts() *Table          { return c.tables[TableLayouts] }
func (c *Catalog) LayoutFields() *Table     { return c.tables[TableLayoutFields] }
func (c *Catalog) Scripts() *Table          { return c.tables[TableScripts] }
func (c *Catalog) ScriptSteps() *Table      { return c.tables[TableScriptSteps] }
func (c *Catalog) ScriptFields() *Table     { return c.tables[TableScriptFields] }
func (c *Catalog) ScriptLayouts() *Table    { return c.tables[TableScriptLayouts] }
func (c *Catalog) ScriptScripts() *Table    { return c.tables[TableScriptScripts] }
func (c *Catalog) ValueLists() *Table       { return c.tables[TableValueLists] }
func (c *Catalog) ValueListFields() *Table  { return c.tables[TableValueListFields] }

// Description names a table and says what it holds.
type Description struct {
	Name        string
	Description string
}

// Describe lists every table with its description, in canonical order.
func Describe() []Description {
	out := make([]Description, len(Schemas))
	for i, s := range Schemas {
		out[i] = Description{Name: s.Name, Description: s.Description}
	}
	return out
}
