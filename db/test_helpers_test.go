package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/stretchr/testify/require"

	"github.com/karstdb/karst/cfg"
	"github.com/karstdb/karst/query"
)

// newMockHandle wires a handle to a sqlmock connection with exact query
// matching so tests can assert the precise rewritten SQL.
func newMockHandle(t *testing.T, prefix string) (*Handle, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	handle := &Handle{
		conf: cfg.ConnectionConfig{
			Type:     "master",
			Engine:   cfg.EngineMySQL,
			Database: "app",
			Prefix:   prefix,
		},
		db:       mockDB,
		executed: xsync.NewCounter(),
		failed:   xsync.NewCounter(),
	}
	return handle, mock
}

// newTemplateRegistry builds a registry whose compiler returns desc for
// every template, with one template file present under ident
// "member.list".
func newTemplateRegistry(t *testing.T, desc query.Descriptor, compileErr error) (*Registry, *fakeCompiler) {
	t.Helper()

	queryDir := t.TempDir()
	templateDir := filepath.Join(queryDir, "modules", "member", "queries")
	require.NoError(t, os.MkdirAll(templateDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "list.xml"), []byte("<query/>"), 0644))

	conf := cfg.Default()
	conf.QueryDir = queryDir

	compiler := &fakeCompiler{desc: desc, err: compileErr}
	reg, err := NewRegistry(conf, compiler)
	require.NoError(t, err)
	return reg, compiler
}

type fakeCompiler struct {
	desc  query.Descriptor
	err   error
	calls int
}

func (c *fakeCompiler) Compile(path string) (query.Descriptor, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.desc, nil
}

type fakeDescriptor struct {
	sql            string
	params         []any
	countSQL       string
	countParams    []any
	paginated      bool
	nav            query.Navigation
	renderErr      error
	countRenderErr error
}

func (d *fakeDescriptor) Render(in query.RenderInput) (query.Rendered, error) {
	if in.CountOnly {
		if d.countRenderErr != nil {
			return query.Rendered{}, d.countRenderErr
		}
		return query.Rendered{SQL: d.countSQL, Params: d.countParams}, nil
	}
	if d.renderErr != nil {
		return query.Rendered{}, d.renderErr
	}
	return query.Rendered{SQL: d.sql, Params: d.params}, nil
}

func (d *fakeDescriptor) RequiresPagination() bool {
	return d.paginated
}

func (d *fakeDescriptor) Navigation() query.Navigation {
	return d.nav
}
