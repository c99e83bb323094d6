package catalog

import (
	"maps"

	"github.com/koustreak/ddrlens/internal/xmltree"
)

// Kind names the entity an element's attributes describe. It selects the
// rename rules applied when the attributes become a Record.
type Kind string

const (
	KindFile            Kind = "file"
	KindBaseTable       Kind = "base_table"
	KindField           Kind = "field"
	KindRefField        Kind = "ref_field"
	KindTable           Kind = "table"
	KindExternalFile    Kind = "external_file"
	KindRelationship    Kind = "relationship"
	KindJoinPredicate   Kind = "join_predicate"
	KindJoinField       Kind = "join_field"
	KindLayout          Kind = "layout"
	KindLayoutTable     Kind = "layout_table"
	KindScript          Kind = "script"
	KindStep            Kind = "step"
	KindStepField       Kind = "step_field"
	KindStepLayout      Kind = "step_layout"
	KindStepLayoutTable Kind = "step_layout_table"
	KindStepScript      Kind = "step_script"
	KindValueList       Kind = "value_list"
	KindValueListSource Kind = "value_list_source"
	KindValueListField  Kind = "value_list_field"
)

// qualified is the rename set shared by every reference to a field that
// carries its table occurrence name.
var qualified = map[string]string{"id": "field_id", "name": "field_name", "table": "table_name"}

// renames maps each kind to its {source attribute → column} rules. Kinds
// without an entry keep their attribute names.
var renames = map[Kind]map[string]string{
	KindFile:            {"id": "file_id", "name": "file_name"},
	KindBaseTable:       {"id": "base_table_id", "name": "base_table_name"},
	KindField:           {"id": "field_id", "name": "field_name"},
	KindRefField:        {"id": "ref_field_id", "name": "ref_field_name", "table": "ref_table_name"},
	KindTable:           {"id": "table_id", "name": "table_name", "baseTableId": "base_table_id", "baseTable": "base_table_name"},
	KindExternalFile:    {"id": "external_file_id", "name": "external_file_name"},
	KindRelationship:    {"id": "relationship_id"},
	KindJoinField:       qualified,
	KindLayout:          {"id": "layout_id", "name": "layout_name"},
	KindLayoutTable:     {"id": "table_id", "name": "table_name"},
	KindScript:          {"id": "script_id", "name": "script_name"},
	KindStep:            {"id": "step_id", "name": "step_name"},
	KindStepField:       qualified,
	KindStepLayout:      {"id": "layout_id", "name": "layout_name"},
	KindStepLayoutTable: {"id": "table_id", "name": "table_name"},
	KindStepScript:      {"id": "subscript_id", "name": "subscript_name"},
	KindValueList:       {"id": "value_list_id", "name": "value_list_name"},
	KindValueListField:  qualified,
}

// Record is one flat row before assembly: column name → raw attribute text.
// Records are treated as immutable values; every combinator returns a copy.
type Record map[string]string

// Build turns an element's attributes into a Record of the given kind.
func Build(n xmltree.Node, kind Kind) Record {
	return BuildAttrs(n.Attrs(), kind)
}

// BuildAttrs applies kind's rename rules to attrs. attrs is not modified.
func BuildAttrs(attrs map[string]string, kind Kind) Record {
	rules := renames[kind]
	rec := make(Record, len(attrs))
	for k, v := range attrs {
		if to, ok := rules[k]; ok {
			k = to
		}
		rec[k] = v
	}
	return rec
}

// Inherit returns ctx overlaid with r: the ancestor context is the base and
// the more specific record wins every conflicting key.
func (r Record) Inherit(ctx Record) Record {
	out := make(Record, len(r)+len(ctx))
	maps.Copy(out, ctx)
	maps.Copy(out, r)
	return out
}

// With returns a copy of r with key set to val.
func (r Record) With(key, val string) Record {
	out := make(Record, len(r)+1)
	maps.Copy(out, r)
	out[key] = val
	return out
}
