package main

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/koustreak/ddrlens/internal/catalog"
	"github.com/koustreak/ddrlens/internal/config"
	"github.com/koustreak/ddrlens/internal/database"
	"github.com/koustreak/ddrlens/internal/database/mysql"
	"github.com/koustreak/ddrlens/internal/database/postgres"
	"github.com/koustreak/ddrlens/internal/database/sqlite"
	"github.com/koustreak/ddrlens/internal/errs"
	"github.com/koustreak/ddrlens/internal/export"
	"github.com/koustreak/ddrlens/internal/filestore"
	"github.com/koustreak/ddrlens/internal/filestore/minio"
	"github.com/koustreak/ddrlens/internal/logger"
	"github.com/koustreak/ddrlens/internal/report"
	"github.com/koustreak/ddrlens/internal/server"
	"github.com/koustreak/ddrlens/internal/xmltree"
)

type app struct {
	cfg    *config.Config
	log    *logger.Logger
	stdout io.Writer
	limit  int

	// store is opened lazily; tests may preset it
	store filestore.Store
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "describe":
		return report.Describe(a.stdout, catalog.Describe())
	case "tables":
		return a.tables(ctx, args)
	case "report":
		return a.report(ctx, args)
	case "export":
		return a.export(ctx)
	case "serve":
		return a.serve(ctx)
	case "sources":
		return a.sources(ctx)
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unknown command %q", cmd)
	}
}

func (a *app) tables(ctx context.Context, args []string) error {
	cat, err := a.catalog(ctx)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return report.Counts(a.stdout, cat.All())
	}
	t, ok := cat.Table(args[0])
	if !ok {
		return errs.Newf(errs.ErrKindInvalidInput, "unknown table %q", args[0])
	}
	return report.Table(a.stdout, t, a.limit)
}

func (a *app) report(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errs.New(errs.ErrKindInvalidInput, "report needs exactly one external file name")
	}
	cat, err := a.catalog(ctx)
	if err != nil {
		return err
	}
	return report.Impact(a.stdout, cat.ImpactReport(args[0]))
}

func (a *app) export(ctx context.Context) error {
	cat, err := a.catalog(ctx)
	if err != nil {
		return err
	}
	tables := cat.All()
	fields := map[string]interface{}{"format": string(a.cfg.Export.Format), "parse_id": cat.ParseID()}

	switch a.cfg.Export.Format {
	case config.FormatCSV:
		if a.cfg.Export.Dir != "" {
			paths, err := export.WriteCSVDir(a.cfg.Export.Dir, tables)
			if err != nil {
				return err
			}
			fields["dir"] = a.cfg.Export.Dir
			fields["files"] = len(paths)
			a.log.InfoWith("export written", fields)
			return nil
		}

		store, err := a.objectStore(ctx)
		if err != nil {
			return err
		}
		prefix := path.Join(a.cfg.Export.Prefix, cat.ParseID())
		infos, err := export.Publish(ctx, store, a.cfg.MinIO.Bucket, prefix, tables, map[string]string{
			"parse-id": cat.ParseID(),
			"source":   a.sourceName(),
		})
		if err != nil {
			return err
		}
		fields["bucket"] = a.cfg.MinIO.Bucket
		fields["prefix"] = prefix
		fields["objects"] = len(infos)
		a.log.InfoWith("export published", fields)
		return nil

	default:
		sink, err := a.sink(ctx)
		if err != nil {
			return err
		}
		defer sink.Close()
		if err := sink.WriteTables(ctx, tables); err != nil {
			return err
		}
		fields["tables"] = len(tables)
		a.log.InfoWith("export loaded", fields)
		return nil
	}
}

func (a *app) serve(ctx context.Context) error {
	cat, err := a.catalog(ctx)
	if err != nil {
		return err
	}
	return server.New(cat, a.log).Run(ctx, server.Config{
		Addr:         a.cfg.Server.Addr,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	})
}

func (a *app) sources(ctx context.Context) error {
	store, err := a.objectStore(ctx)
	if err != nil {
		return err
	}
	bucket := a.cfg.SourceBucket()
	if bucket == "" {
		return errs.New(errs.ErrKindInvalidInput, "no bucket configured")
	}
	objs, err := store.ListObjects(ctx, bucket, filestore.ListOptions{Prefix: a.cfg.Source.Key, Recursive: true})
	if err != nil {
		return err
	}
	for _, o := range objs {
		if o.IsDir || !strings.HasSuffix(strings.ToLower(o.Key), ".xml") {
			continue
		}
		if _, err := io.WriteString(a.stdout, o.Key+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// catalog loads the configured export and builds its tables.
func (a *app) catalog(ctx context.Context) (*catalog.Catalog, error) {
	file, err := a.loadSource(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.New(file, catalog.WithLogger(a.log))
}

func (a *app) loadSource(ctx context.Context) (xmltree.Node, error) {
	switch a.cfg.Source.Type {
	case config.SourceMinIO:
		key := a.cfg.Source.Key
		if key == "" {
			key = a.cfg.Source.Path
		}
		if key == "" {
			return nil, errs.New(errs.ErrKindInvalidInput, "no source object key given (-source-key)")
		}
		store, err := a.objectStore(ctx)
		if err != nil {
			return nil, err
		}
		obj, err := store.GetObject(ctx, a.cfg.SourceBucket(), key)
		if err != nil {
			return nil, err
		}
		defer obj.Close()
		a.log.DebugWith("reading source object", map[string]interface{}{"key": key, "size": obj.Info().Size})
		return xmltree.Load(obj)

	default:
		if a.cfg.Source.Path == "" {
			return nil, errs.New(errs.ErrKindInvalidInput, "no source file given (-source)")
		}
		return xmltree.LoadFile(a.cfg.Source.Path)
	}
}

func (a *app) sourceName() string {
	if a.cfg.Source.Type == config.SourceMinIO && a.cfg.Source.Key != "" {
		return a.cfg.Source.Key
	}
	return path.Base(a.cfg.Source.Path)
}

func (a *app) objectStore(ctx context.Context) (filestore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if !a.cfg.MinIOConfigured() {
		return nil, errs.New(errs.ErrKindInvalidInput, "minio.endpoint is not configured")
	}
	m := a.cfg.MinIO
	fcfg := filestore.DefaultConfig(m.Endpoint, m.AccessKey, m.SecretKey)
	fcfg.UseSSL = m.UseSSL
	fcfg.Region = m.Region
	fcfg.Bucket = m.Bucket

	store, err := minio.New(ctx, fcfg)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// close releases the object store connection, if one was opened.
func (a *app) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.log.ErrorWith("closing object store", err, nil)
	}
}

func (a *app) sink(ctx context.Context) (database.Sink, error) {
	e := a.cfg.Export
	var driver database.Driver
	switch e.Format {
	case config.FormatPostgres:
		driver = database.DriverPostgres
	case config.FormatMySQL:
		driver = database.DriverMySQL
	case config.FormatSQLite:
		driver = database.DriverSQLite
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "format %q has no database driver", e.Format)
	}

	dcfg := database.DefaultConfig(driver, e.DSN)
	dcfg.Schema = e.Schema
	dcfg.BatchSize = e.BatchSize

	switch driver {
	case database.DriverPostgres:
		return postgres.New(ctx, dcfg)
	case database.DriverMySQL:
		return mysql.New(ctx, dcfg)
	default:
		return sqlite.New(ctx, dcfg)
	}
}
