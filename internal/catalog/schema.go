package catalog

// ColumnType is the storage type of a finished column.
type ColumnType int

const (
	// Text columns hold string values.
	Text ColumnType = iota
	// Int columns hold int64 values coerced from identifier or count attributes.
	Int
)

func (t ColumnType) String() string {
	if t == Int {
		return "int"
	}
	return "text"
}

// Column describes one column of a finished table.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool // value may be absent; stored as nil
}

// Schema is the canonical shape of one of the sixteen tables.
type Schema struct {
	Name        string
	Description string
	Columns     []Column
}

// Names of the sixteen tables, in canonical order.
const (
	TableFiles            = "files"
	TableBaseTables       = "base_tables"
	TableFields           = "fields"
	TableCalculatedFields = "calculated_fields"
	TableTables           = "tables"
	TableRelationships    = "relationships"
	TableFieldJoins       = "field_joins"
	TableLayouts          = "layouts"
	TableLayoutFields     = "layout_fields"
	TableScripts          = "scripts"
	TableScriptSteps      = "script_steps"
	TableScriptFields     = "script_fields"
	TableScriptLayouts    = "script_layouts"
	TableScriptScripts    = "script_scripts"
	TableValueLists       = "value_lists"
	TableValueListFields  = "value_list_fields"
)

func textCol(name string) Column    { return Column{Name: name, Type: Text} }
func optTextCol(name string) Column { return Column{Name: name, Type: Text, Nullable: true} }
func intCol(name string) Column     { return Column{Name: name, Type: Int} }
func optIntCol(name string) Column  { return Column{Name: name, Type: Int, Nullable: true} }

// stepContext is the leading column block of every script step reference table.
var stepContext = []Column{intCol("script_id"), textCol("script_name"), intCol("step_id"), textCol("step_name")}

func withStep(cols ...Column) []Column {
	return append(append([]Column{}, stepContext...), cols...)
}

// Schemas lists every table schema in canonical order.
var Schemas = []*Schema{
	{
		Name:        TableFiles,
		Description: "External files references",
		Columns:     []Column{intCol("file_id"), textCol("file_name"), optTextCol("pathList")},
	},
	{
		Name:        TableBaseTables,
		Description: "Base tables of the file",
		Columns:     []Column{intCol("base_table_id"), textCol("base_table_name"), intCol("records")},
	},
	{
		Name:        TableFields,
		Description: "Base tables fields",
		Columns: []Column{
			intCol("base_table_id"), textCol("base_table_name"), intCol("records"),
			intCol("field_id"), textCol("field_name"), optTextCol("dataType"), textCol("fieldType"),
		},
	},
	{
		Name:        TableCalculatedFields,
		Description: "Referenced fields used in Calculation or Summary fields",
		Columns: []Column{
			intCol("field_id"), textCol("field_name"), optTextCol("dataType"), textCol("fieldType"),
			intCol("base_table_id"), textCol("base_table_name"), intCol("records"),
			intCol("ref_field_id"), optTextCol("ref_field_name"), optTextCol("ref_table_name"),
		},
	},
	{
		Name:        TableTables,
		Description: "Tables defined in relationship graph",
		Columns: []Column{
			intCol("table_id"), textCol("table_name"), intCol("base_table_id"), optTextCol("base_table_name"),
			optTextCol("color"), optIntCol("external_file_id"), optTextCol("external_file_name"),
		},
	},
	{
		Name:        TableRelationships,
		Description: "Relationships between tables",
		Columns:     []Column{intCol("relationship_id"), textCol("left_table_name"), textCol("right_table_name")},
	},
	{
		Name:        TableFieldJoins,
		Description: "Fields used in relationships",
		Columns: []Column{
			intCol("relationship_id"), textCol("left_table_name"), textCol("right_table_name"),
			optTextCol("type"), textCol("join_side"), optTextCol("table_name"), intCol("field_id"), optTextCol("field_name"),
		},
	},
	{
		Name:        TableLayouts,
		Description: "File layouts",
		Columns: []Column{
			intCol("layout_id"), textCol("layout_name"), intCol("table_id"), textCol("table_name"),
			optIntCol("width"), optTextCol("quickFind"), optTextCol("includeInMenu"),
		},
	},
	{
		Name:        TableLayoutFields,
		Description: "Fields used in file layouts",
		Columns: []Column{
			intCol("layout_id"), textCol("layout_name"), intCol("table_id"), textCol("table_name"),
			textCol("field_table_name"), textCol("field_name"),
		},
	},
	{
		Name:        TableScripts,
		Description: "File scripts",
		Columns:     []Column{intCol("script_id"), textCol("script_name"), optTextCol("includeInMenu"), optTextCol("runFullAccess")},
	},
	{
		Name:        TableScriptSteps,
		Description: "Steps used in file scripts",
		Columns:     withStep(optTextCol("enable")),
	},
	{
		Name:        TableScriptFields,
		Description: "Fields used in file scripts/steps",
		Columns:     withStep(optTextCol("table_name"), intCol("field_id"), optTextCol("field_name")),
	},
	{
		Name:        TableScriptLayouts,
		Description: "Layouts used in file scripts/steps",
		Columns:     withStep(intCol("layout_id"), optTextCol("layout_name"), optIntCol("table_id"), optTextCol("table_name")),
	},
	{
		Name:        TableScriptScripts,
		Description: "Scripts used in file scripts/steps",
		Columns:     withStep(intCol("subscript_id"), optTextCol("subscript_name")),
	},
	{
		Name:        TableValueLists,
		Description: "File value lists",
		Columns:     []Column{intCol("value_list_id"), textCol("value_list_name"), optTextCol("value")},
	},
	{
		Name:        TableValueListFields,
		Description: "Fields used in value lists",
		Columns: []Column{
			intCol("value_list_id"), textCol("value_list_name"), textCol("type"),
			optTextCol("table_name"), intCol("field_id"), optTextCol("field_name"),
		},
	},
}

// SchemaFor returns the canonical schema of the named table.
func SchemaFor(name string) (*Schema, bool) {
	for _, s := range Schemas {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Index returns the position of column name, or -1.
func (s *Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// ColumnNames returns the column names in canonical order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}
