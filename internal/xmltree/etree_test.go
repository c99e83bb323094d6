package xmltree

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/ddrlens/internal/errs"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<FMPReport version="19">
  <File name="Orders.fmp12">
    <BaseTableCatalog>
      <BaseTable id="1" name="Orders" records="3">
        <FieldCatalog>
          <Field id="1" name="PK" dataType="Text" fieldType="Normal"/>
          <Field id="2" name="Total" dataType="Number" fieldType="Calculated">
            <DisplayCalculation><Chunk type="FieldRef"><Field id="1" name="PK" table="Orders"/></Chunk></DisplayCalculation>
          </Field>
        </FieldCatalog>
      </BaseTable>
    </BaseTableCatalog>
    <LayoutCatalog>
      <Layout id="4" name="Main"><Object type="Field"><FieldObj><Name>Orders::PK</Name></FieldObj></Object></Layout>
    </LayoutCatalog>
  </File>
</FMPReport>`

func TestLoad_FindsFileUnderWrapper(t *testing.T) {
	file, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "File", file.Tag())
	name, ok := file.Attr("name")
	assert.True(t, ok)
	assert.Equal(t, "Orders.fmp12", name)

	parent, ok := file.Parent()
	require.True(t, ok)
	assert.Equal(t, "FMPReport", parent.Tag())
}

func TestLoad_FileAsRoot(t *testing.T) {
	file, err := LoadBytes([]byte(`<File><BaseTableCatalog/></File>`))
	require.NoError(t, err)

	_, ok := file.Parent()
	assert.False(t, ok, "root element has no parent")

	_, ok = file.Child("BaseTableCatalog")
	assert.True(t, ok)
}

func TestLoad_Errors(t *testing.T) {
	_, err := LoadBytes([]byte(`<FMPReport><Other/></FMPReport>`))
	require.Error(t, err)
	assert.True(t, errs.IsStructural(err))

	_, err = LoadBytes([]byte(`<File><unclosed></File>`))
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestLoad_UTF16WithBOM(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-16"?><FMPReport><File name="Été"><ScriptCatalog/></File></FMPReport>`

	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE})
	for _, u := range utf16.Encode([]rune(doc)) {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, u))
	}

	file, err := Load(&buf)
	require.NoError(t, err)

	name, _ := file.Attr("name")
	assert.Equal(t, "Été", name)
	_, ok := file.Child("ScriptCatalog")
	assert.True(t, ok)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("/definitely/not/here.xml")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestNode_Navigation(t *testing.T) {
	file, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	catalog, ok := file.Child("BaseTableCatalog")
	require.True(t, ok)

	fields := catalog.Children("BaseTable/FieldCatalog/Field")
	require.Len(t, fields, 2)
	assert.Equal(t, map[string]string{
		"id": "1", "name": "PK", "dataType": "Text", "fieldType": "Normal",
	}, fields[0].Attrs())

	// Descendants excludes the node itself and walks in document order.
	all := catalog.Descendants("Field")
	require.Len(t, all, 3)
	table, _ := all[2].Attr("table")
	assert.Equal(t, "Orders", table)
	assert.Empty(t, all[2].Descendants("Field"))

	chunk, ok := fields[1].Child("DisplayCalculation/Chunk")
	require.True(t, ok)
	assert.Len(t, chunk.Elements(), 1)

	_, ok = fields[0].Child("SummaryInfo/SummaryField/Field")
	assert.False(t, ok)
	_, ok = fields[0].Attr("missing")
	assert.False(t, ok)
}

func TestNode_Text(t *testing.T) {
	file, err := LoadBytes([]byte(`<File><LayoutCatalog><Layout><Name>Orders::PK</Name><Empty/></Layout></LayoutCatalog></File>`))
	require.NoError(t, err)

	name, ok := file.Child("LayoutCatalog/Layout/Name")
	require.True(t, ok)
	text, ok := name.Text()
	assert.True(t, ok)
	assert.Equal(t, "Orders::PK", text)

	empty, ok := file.Child("LayoutCatalog/Layout/Empty")
	require.True(t, ok)
	_, ok = empty.Text()
	assert.False(t, ok)
}

func TestAttrs_ReturnsCopy(t *testing.T) {
	file, err := LoadBytes([]byte(`<File a="1"/>`))
	require.NoError(t, err)

	attrs := file.Attrs()
	attrs["a"] = "changed"
	v, _ := file.Attr("a")
	assert.Equal(t, "1", v)
}
