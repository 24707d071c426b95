package db

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/karstdb/karst/query"
)

// defaultModuleRoot is assumed when a query identifier carries only two
// segments ("module.name").
const defaultModuleRoot = "modules"

const zeroElapsed = "0.00000"

// Output is the result record of one template-driven execution. ExecuteQuery
// never returns an error to its caller; every failure mode lands in Err and
// callers check Succeeded instead of relying on panics or returned errors.
type Output struct {
	// Err is nil on success, or one of the layer's typed errors.
	Err error
	// Data holds a single Record, a *RowSet, or nil for DML.
	Data any
	// Query is the rendered SQL, attached for diagnostics.
	Query string
	// ElapsedTime is the end-to-end elapsed time as a 5-decimal string.
	ElapsedTime string

	// Pagination fields, populated only for paginated descriptors.
	TotalCount     int
	TotalPage      int
	Page           int
	PageNavigation *PageNavigation
}

// Succeeded reports whether the execution completed without error.
func (o *Output) Succeeded() bool {
	return o.Err == nil
}

// ErrorCode returns the reported error code, 0 on success.
func (o *Output) ErrorCode() int {
	if o.Err == nil {
		return 0
	}
	if c, ok := o.Err.(coder); ok {
		return c.Code()
	}
	return LayerErrorCode
}

// ErrorMessage returns the reported error message, empty on success.
func (o *Output) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

func failedOutput(err error) *Output {
	return &Output{Err: err, ElapsedTime: zeroElapsed}
}

func fmtElapsed(d time.Duration) string {
	return fmt.Sprintf("%.5f", d.Seconds())
}

// ExecuteQuery resolves a dot-separated query identifier to a compiled
// template, renders it with the caller's arguments and requested columns,
// and executes it. Paginated descriptors run a count pass first; a requested
// page beyond the last short-circuits with empty data and zero elapsed time,
// never executing the main query.
func (h *Handle) ExecuteQuery(ident string, args any, columns []string) *Output {
	start := time.Now()

	keyed, err := keyedArgs(args)
	if err != nil {
		return failedOutput(err)
	}

	path, err := resolveTemplatePath(h.reg.config.QueryDir, ident)
	if err != nil {
		return failedOutput(err)
	}

	info, statErr := os.Stat(path)
	if statErr != nil {
		return failedOutput(TemplateNotFoundError{Ident: ident, Path: path})
	}

	desc, err := h.reg.cache.Get(path, info.ModTime())
	if err != nil {
		return failedOutput(TemplateCompileError{Path: path, Err: err})
	}

	rendered, err := desc.Render(query.RenderInput{
		Prefix:  h.conf.Prefix,
		Args:    keyed,
		Columns: columns,
	})
	if err != nil {
		return failedOutput(QueryBuildError{Ident: ident, Err: err})
	}

	out := &Output{Query: rendered.SQL, ElapsedTime: zeroElapsed}

	lastIndex := 0
	if desc.RequiresPagination() {
		countOut, idx := h.executeCountQuery(ident, desc, keyed)
		if countOut.Err != nil {
			return countOut
		}
		out.TotalCount = countOut.TotalCount
		out.TotalPage = countOut.TotalPage
		out.Page = countOut.Page
		out.PageNavigation = countOut.PageNavigation

		// Out-of-range page: the main query never executes
		if out.Page > out.TotalPage {
			out.Data = NewRowSet()
			return out
		}
		lastIndex = idx
	}

	data, execErr := h.runRendered(ident, rendered, lastIndex)

	// Elapsed time covers the full execution, failed or not
	endToEnd := time.Since(start)
	h.elapsedTotal += endToEnd
	out.ElapsedTime = fmtElapsed(endToEnd)

	if execErr != nil {
		out.Err = execErr
		return out
	}
	out.Data = data
	return out
}

// executeCountQuery runs the COUNT(*) variant of the descriptor and derives
// the page navigation numbers from the result.
func (h *Handle) executeCountQuery(ident string, desc query.Descriptor, args map[string]any) (*Output, int) {
	rendered, err := desc.Render(query.RenderInput{
		Prefix:    h.conf.Prefix,
		Args:      args,
		CountOnly: true,
	})
	if err != nil {
		return failedOutput(QueryBuildError{Ident: ident, Err: err}), 0
	}

	out := &Output{Query: rendered.SQL, ElapsedTime: zeroElapsed}

	stmt := &Statement{h: h, sqlText: rendered.SQL, ident: ident}
	if len(rendered.Params) > 0 {
		prepared, err := h.prepare(rendered.SQL, ident)
		if err != nil {
			out.Err = err
			return out, 0
		}
		defer prepared.Close()
		stmt = prepared
	}

	rows, err := stmt.Query(rendered.Params...)
	if err != nil {
		out.Err = err
		return out, 0
	}

	totalCount := 0
	if rows.Next() {
		if err := rows.Scan(&totalCount); err != nil {
			rows.Finalize()
			out.Err = QueryExecutionError{Query: rendered.SQL, Err: err}
			return out, 0
		}
	}
	if err := rows.Err(); err != nil {
		rows.Finalize()
		out.Err = QueryExecutionError{Query: rendered.SQL, Err: err}
		return out, 0
	}
	rows.Finalize()

	nav := desc.Navigation()
	listCount := nav.ListCount.Eval(args)
	pageCount := nav.PageCount.Eval(args)
	page := nav.Page.Eval(args)

	pageNav, lastIndex := calcPageNavigation(totalCount, listCount, pageCount, page)
	out.TotalCount = pageNav.TotalCount
	out.TotalPage = pageNav.TotalPage
	out.Page = pageNav.Page
	out.PageNavigation = &pageNav
	return out, lastIndex
}

// runRendered executes the main rendered statement: prepared and bound when
// parameters exist, literal otherwise. Read statements are materialized with
// the given starting index; everything else runs as DML.
func (h *Handle) runRendered(ident string, rendered query.Rendered, lastIndex int) (any, error) {
	stmt := &Statement{h: h, sqlText: rendered.SQL, ident: ident}
	if len(rendered.Params) > 0 {
		prepared, err := h.prepare(rendered.SQL, ident)
		if err != nil {
			return nil, err
		}
		defer prepared.Close()
		stmt = prepared
	}

	if isReadStatement(rendered.SQL) {
		rows, err := stmt.Query(rendered.Params...)
		if err != nil {
			return nil, err
		}
		data, err := fetchRows(rows, lastIndex)
		if err != nil {
			return nil, QueryExecutionError{Query: rendered.SQL, Err: err}
		}
		return data, nil
	}

	if _, err := stmt.Exec(rendered.Params...); err != nil {
		return nil, err
	}
	return nil, nil
}

// resolveTemplatePath maps a dot-separated identifier to the template source
// file. Two segments assume the default module root.
func resolveTemplatePath(queryDir, ident string) (string, error) {
	segments := strings.Split(ident, ".")
	switch len(segments) {
	case 2:
		return filepath.Join(queryDir, defaultModuleRoot, segments[0], "queries", segments[1]+".xml"), nil
	case 3:
		return filepath.Join(queryDir, segments[0], segments[1], "queries", segments[2]+".xml"), nil
	default:
		return "", InvalidArgumentsError{Reason: fmt.Sprintf("malformed query identifier %q", ident)}
	}
}

// isReadStatement reports whether the rendered SQL produces a result set.
func isReadStatement(sqlText string) bool {
	trimmed := strings.TrimSpace(sqlText)
	space := strings.IndexAny(trimmed, " \t\r\n")
	verb := trimmed
	if space > 0 {
		verb = trimmed[:space]
	}
	switch strings.ToLower(verb) {
	case "select", "show", "describe", "desc", "explain":
		return true
	}
	return false
}

// keyedArgs normalizes the caller's argument input into a keyed record.
// Maps with string keys pass through; struct values are flattened using the
// db tag or field name; anything else is invalid.
func keyedArgs(args any) (map[string]any, error) {
	if args == nil {
		return map[string]any{}, nil
	}
	if keyed, ok := args.(map[string]any); ok {
		return keyed, nil
	}

	v := reflect.ValueOf(args)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return map[string]any{}, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, InvalidArgumentsError{Reason: "argument map must be keyed by string"}
		}
		keyed := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			keyed[iter.Key().String()] = iter.Value().Interface()
		}
		return keyed, nil
	case reflect.Struct:
		t := v.Type()
		keyed := make(map[string]any, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := field.Tag.Get("db")
			if name == "" {
				name = field.Name
			}
			keyed[name] = v.Field(i).Interface()
		}
		return keyed, nil
	default:
		return nil, InvalidArgumentsError{Reason: fmt.Sprintf("unsupported argument type %T", args)}
	}
}
