// Package export writes finished catalog tables as CSV, either into a
// local directory or to an object store bucket.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/koustreak/ddrlens/internal/catalog"
	"github.com/koustreak/ddrlens/internal/errs"
	"github.com/koustreak/ddrlens/internal/filestore"
)

const contentType = "text/csv"

// FileName is the CSV file (or object) name of a table.
func FileName(t *catalog.Table) string {
	return t.Name() + ".csv"
}

// WriteCSV encodes t with a header row. Null values are written as empty
// fields.
func WriteCSV(w *csv.Writer, t *catalog.Table) error {
	if err := w.Write(t.Schema().ColumnNames()); err != nil {
		return err
	}

	record := make([]string, len(t.Columns()))
	for _, row := range t.Rows() {
		for i, v := range row {
			record[i] = cell(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		return x
	default:
		return ""
	}
}

// WriteCSVDir writes one <table>.csv per table into dir, creating dir if
// needed, and returns the written paths in table order.
func WriteCSVDir(dir string, tables []*catalog.Table) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to create export directory", err)
	}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		p := filepath.Join(dir, FileName(t))
		if err := writeFile(p, t); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func writeFile(p string, t *catalog.Table) error {
	f, err := os.Create(p)
	if err != nil {
		return errs.Wrap(errs.ErrKindPermissionDenied, "failed to create "+p, err)
	}
	if err := WriteCSV(csv.NewWriter(f), t); err != nil {
		f.Close()
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to write "+p, err)
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to close "+p, err)
	}
	return nil
}

// Publish uploads one <prefix>/<table>.csv object per table to bucket and
// returns what was stored. Each table is encoded in memory first so the
// upload size is known.
func Publish(ctx context.Context, store filestore.Store, bucket, prefix string, tables []*catalog.Table, meta map[string]string) ([]filestore.ObjectInfo, error) {
	if bucket == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "bucket is required")
	}

	out := make([]filestore.ObjectInfo, 0, len(tables))
	for _, t := range tables {
		var buf bytes.Buffer
		if err := WriteCSV(csv.NewWriter(&buf), t); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to encode "+t.Name(), err)
		}

		key := path.Join(prefix, FileName(t))
		info, err := store.PutObject(ctx, bucket, key, &buf, int64(buf.Len()), filestore.PutOptions{
			ContentType: contentType,
			Metadata:    meta,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, *info)
	}
	return out, nil
}
