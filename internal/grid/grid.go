package grid

import (
	"context"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/shiftmatic/gridlink/internal/element"
	"github.com/shiftmatic/gridlink/internal/link"
)

// ErrRowNotFound indicates a row-scoped call addressed an identifier with no
// matching row node on the client. Detection is best-effort: a client that
// does not report missing targets degrades to a plain undefined result.
var ErrRowNotFound = link.ErrTargetMissing

// ErrInvalidTraversal indicates a Traversal value outside the closed set.
var ErrInvalidTraversal = fmt.Errorf("invalid traversal policy")

const rowDataKey = "rowData"

// Settings are the process-wide grid defaults, loaded once at startup and
// copied into every grid constructed afterwards.
type Settings struct {
	// LicenseKey is the AG Grid Enterprise license key.
	LicenseKey string
	// Theme is the default visual theme, applied as an ag-theme-<name> class.
	Theme string
	// CallTimeout is the default deadline for awaited calls.
	CallTimeout time.Duration
}

// DefaultSettings returns the defaults used when no configuration is given.
func DefaultSettings() Settings {
	return Settings{
		Theme:       "balham",
		CallTimeout: link.DefaultCallTimeout,
	}
}

// Factory constructs grids with shared process-wide settings.
type Factory struct {
	settings Settings
}

// NewFactory creates a grid factory. Zero-valued fields of settings fall
// back to DefaultSettings.
func NewFactory(settings Settings) *Factory {
	defaults := DefaultSettings()
	if settings.Theme == "" {
		settings.Theme = defaults.Theme
	}
	if settings.CallTimeout <= 0 {
		settings.CallTimeout = defaults.CallTimeout
	}
	return &Factory{settings: settings}
}

// Grid is the server-side proxy for one client grid widget.
type Grid struct {
	*element.Element

	htmlColumns []int
	autoSize    bool
	theme       string
	licenseKey  string
	timeout     time.Duration
	sanitizer   *bluemonday.Policy
}

// Option configures one grid instance at construction.
type Option func(*Grid)

// WithHTMLColumns marks column indexes whose cells render raw HTML. Their
// values are sanitized server-side before every push.
func WithHTMLColumns(indexes ...int) Option {
	return func(g *Grid) { g.htmlColumns = append([]int(nil), indexes...) }
}

// WithTheme overrides the visual theme for this instance.
func WithTheme(theme string) Option {
	return func(g *Grid) {
		if theme != "" {
			g.theme = theme
		}
	}
}

// WithAutoSizeColumns controls automatic column sizing (default true).
func WithAutoSizeColumns(enabled bool) Option {
	return func(g *Grid) { g.autoSize = enabled }
}

// WithLicenseKey overrides the process-wide license key for this instance.
func WithLicenseKey(key string) Option {
	return func(g *Grid) { g.licenseKey = key }
}

// WithSanitizer replaces the HTML sanitization policy for html columns.
// A nil policy disables sanitization entirely.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(g *Grid) { g.sanitizer = policy }
}

// New constructs a grid over the given client, renders it, and returns the
// proxy. The options mapping is stored by reference: the caller mutates it
// in place and calls Update to push the current state.
func (f *Factory) New(client *link.Client, options map[string]any, opts ...Option) (*Grid, error) {
	if options == nil {
		options = make(map[string]any)
	}

	g := &Grid{
		autoSize:   true,
		theme:      f.settings.Theme,
		licenseKey: f.settings.LicenseKey,
		timeout:    f.settings.CallTimeout,
		sanitizer:  bluemonday.UGCPolicy(),
	}
	for _, opt := range opts {
		opt(g)
	}

	props := map[string]any{
		"options":           options,
		"html_columns":      g.htmlColumns,
		"auto_size_columns": g.autoSize,
		"license_key":       g.licenseKey,
	}
	g.Element = element.New(client, "grid", props)
	g.AddClass("ag-theme-" + g.theme)
	g.SetPropFilter(g.sanitizedPayload)

	if err := g.Mount(); err != nil {
		return nil, fmt.Errorf("mount grid: %w", err)
	}
	return g, nil
}

// New constructs a grid with default settings. Production code goes through
// a Factory so the license key and timeouts are injected explicitly.
func New(client *link.Client, options map[string]any, opts ...Option) (*Grid, error) {
	return NewFactory(DefaultSettings()).New(client, options, opts...)
}

// Options returns the options mapping by reference.
func (g *Grid) Options() map[string]any {
	return g.Props()["options"].(map[string]any)
}

// Theme returns the instance theme name.
func (g *Grid) Theme() string { return g.theme }

// RunGridMethod forwards a named AG Grid API method with ordered arguments
// to the client widget. Await the response for the decoded result; drop it
// to fire and forget. See the AG Grid API reference for method names.
func (g *Grid) RunGridMethod(name string, args ...any) *link.Response {
	callArgs := append([]any{name}, args...)
	return g.RunMethod("run_grid_method", callArgs...)
}

// RunRowMethod forwards a named method to the row node matching rowID, as
// resolved by the grid's row-identity lookup (the getRowId option). Awaiting
// fails with ErrRowNotFound when no row matches.
func (g *Grid) RunRowMethod(rowID, name string, args ...any) *link.Response {
	callArgs := append([]any{rowID, name}, args...)
	return g.RunMethod("run_row_method", callArgs...)
}

// OnRowSelected registers a handler for row selection events from the
// client. The handler receives the selected row's data.
func (g *Grid) OnRowSelected(h func(row map[string]any)) {
	g.On("rowSelected", func(args []any) {
		if len(args) == 0 {
			return
		}
		if row, ok := args[0].(map[string]any); ok {
			h(row)
		}
	})
}

// OnCellValueChanged registers a handler for committed cell edits. The
// handler receives the client's change payload.
func (g *Grid) OnCellValueChanged(h func(change map[string]any)) {
	g.On("cellValueChanged", func(args []any) {
		if len(args) == 0 {
			return
		}
		if change, ok := args[0].(map[string]any); ok {
			h(change)
		}
	})
}

// SelectedRows returns the currently selected rows. Most useful with
// rowSelection "multiple". An empty selection yields an empty slice.
func (g *Grid) SelectedRows(ctx context.Context) ([]map[string]any, error) {
	var rows []map[string]any
	resp := g.RunGridMethod("getSelectedRows")
	if err := resp.AwaitIntoTimeout(ctx, g.timeout, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

// SelectedRow returns the single currently selected row, most useful with
// rowSelection "single". ok is false when nothing is selected; an empty
// selection is never an error.
func (g *Grid) SelectedRow(ctx context.Context) (row map[string]any, ok bool, err error) {
	rows, err := g.SelectedRows(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// ClientData reads row data from the client, including edits already
// committed to row nodes, under the given traversal policy. An empty grid
// yields an empty slice. Uses the instance default timeout.
func (g *Grid) ClientData(ctx context.Context, traversal Traversal) ([]map[string]any, error) {
	return g.ClientDataTimeout(ctx, traversal, g.timeout)
}

// ClientDataTimeout is ClientData with a per-call timeout override.
func (g *Grid) ClientDataTimeout(ctx context.Context, traversal Traversal, timeout time.Duration) ([]map[string]any, error) {
	if !traversal.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTraversal, traversal)
	}

	var rows []map[string]any
	resp := g.Client().RunScript(traversal.script(g.ID()))
	if err := resp.AwaitIntoTimeout(ctx, timeout, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

// LoadClientData reads the full client row data and overwrites the options'
// rowData with it, then pushes an update. This syncs edits made in editable
// cells back to the server. Sequential with no atomicity: if the read
// succeeds and the update push fails, the options are already mutated.
func (g *Grid) LoadClientData(ctx context.Context) error {
	rows, err := g.ClientData(ctx, AllUnsorted)
	if err != nil {
		return err
	}
	g.Options()[rowDataKey] = rows
	return g.Update()
}
