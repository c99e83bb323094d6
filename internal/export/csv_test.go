package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/ddrlens/internal/catalog"
	"github.com/koustreak/ddrlens/internal/errs"
	"github.com/koustreak/ddrlens/internal/filestore"
	"github.com/koustreak/ddrlens/internal/xmltree"
)

func fixture(t *testing.T) *catalog.Catalog {
	t.Helper()
	file, err := xmltree.LoadFile("../catalog/testdata/orders.xml")
	require.NoError(t, err)
	cat, err := catalog.New(file)
	require.NoError(t, err)
	return cat
}

func readCSV(t *testing.T, r io.Reader) [][]string {
	t.Helper()
	records, err := csv.NewReader(r).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteCSV_HeaderAndNulls(t *testing.T) {
	cat := fixture(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(csv.NewWriter(&buf), cat.ScriptLayouts()))

	records := readCSV(t, &buf)
	require.Len(t, records, 3)
	assert.Equal(t, cat.ScriptLayouts().Schema().ColumnNames(), records[0])
	assert.Equal(t, []string{"1", "Open Invoice", "6", "Go to Layout", "2", "Invoices List", "", ""}, records[1])
}

func TestWriteCSV_EmptyTableHasHeader(t *testing.T) {
	cat := fixture(t)
	empty := cat.ScriptScripts().Where(func(catalog.RowRef) bool { return false })

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(csv.NewWriter(&buf), empty))
	assert.Len(t, readCSV(t, &buf), 1)
}

func TestWriteCSVDir(t *testing.T) {
	cat := fixture(t)
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := WriteCSVDir(dir, cat.All())
	require.NoError(t, err)
	require.Len(t, paths, 16)

	for i, tbl := range cat.All() {
		assert.Equal(t, filepath.Join(dir, tbl.Name()+".csv"), paths[i])

		f, err := os.Open(paths[i])
		require.NoError(t, err)
		records := readCSV(t, f)
		f.Close()
		assert.Len(t, records, tbl.Len()+1, tbl.Name())
	}
}

// memStore is an in-memory filestore.Store.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]map[string]string
	fail    error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, meta: map[string]map[string]string{}}
}

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close() error               { return nil }

func (m *memStore) ListObjects(_ context.Context, bucket string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	return nil, nil
}

func (m *memStore) GetObject(_ context.Context, bucket, key string) (filestore.Object, error) {
	return nil, errs.New(errs.ErrKindNotFound, key)
}

func (m *memStore) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, opts filestore.PutOptions) (*filestore.ObjectInfo, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
	m.meta[bucket+"/"+key] = opts.Metadata
	return &filestore.ObjectInfo{Key: key, Size: int64(len(data)), ContentType: opts.ContentType}, nil
}

func TestPublish(t *testing.T) {
	cat := fixture(t)
	store := newMemStore()
	meta := map[string]string{"parse-id": cat.ParseID()}

	infos, err := Publish(context.Background(), store, "ddr", "exports/"+cat.ParseID(), cat.All(), meta)
	require.NoError(t, err)
	require.Len(t, infos, 16)

	assert.Equal(t, "exports/"+cat.ParseID()+"/files.csv", infos[0].Key)
	assert.Equal(t, contentType, infos[0].ContentType)

	data := store.objects["ddr/exports/"+cat.ParseID()+"/fields.csv"]
	assert.Equal(t, int64(len(data)), infos[2].Size)
	records := readCSV(t, bytes.NewReader(data))
	assert.Len(t, records, cat.Fields().Len()+1)
	assert.Equal(t, meta, store.meta["ddr/exports/"+cat.ParseID()+"/fields.csv"])
}

func TestPublish_Errors(t *testing.T) {
	cat := fixture(t)

	_, err := Publish(context.Background(), newMemStore(), "", "x", cat.All(), nil)
	assert.True(t, errs.IsInvalidInput(err))

	store := newMemStore()
	store.fail = errs.New(errs.ErrKindPermissionDenied, "denied")
	_, err = Publish(context.Background(), store, "ddr", "", cat.All(), nil)
	assert.True(t, errs.IsPermissionDenied(err))
}
