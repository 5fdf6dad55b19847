package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rhuss/vdbconsole/pkg/catalog"
	"github.com/rhuss/vdbconsole/pkg/debug"
	"github.com/rhuss/vdbconsole/pkg/grid"
)

// Property view actions.
const (
	ActionEdit  = "edit"
	ActionReset = "reset"
)

// Property targets.
const (
	TargetCollection = "collection"
	TargetDatabase   = "database"
)

// PropertySource is the backend a PropertiesView reads and edits.
type PropertySource interface {
	catalog.CollectionService
	catalog.DatabaseService
}

// PropertiesView lists the known properties of a collection or database
// with their current values.
type PropertiesView struct {
	gridView[catalog.Property]

	src      PropertySource
	database string
	typ      string
	target   string
	props    []catalog.Property
}

var _ View = (*PropertiesView)(nil)

// PropertyColumns returns the property grid columns.
func PropertyColumns() []grid.Column[catalog.Property] {
	return []grid.Column[catalog.Property]{
		{
			ID:       "key",
			Label:    "Property",
			Value:    func(p catalog.Property) any { return p.Key },
			Copyable: true,
		},
		{
			ID:       "value",
			Label:    "Value",
			Sortable: true,
			SortKind: grid.KindString,
			Value:    func(p catalog.Property) any { return p.Value },
			Kind:     grid.ValueCustom,
			Render:   renderPropertyValue,
		},
	}
}

func renderPropertyValue(p catalog.Property) string {
	if p.Value == "" {
		return "-"
	}
	if p.Type == catalog.PropertyNumber {
		if f, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 64); err == nil {
			return grid.FormatNumber(f)
		}
	}
	return p.Value
}

// PropertyKey identifies properties by key.
func PropertyKey(p catalog.Property) string { return p.Key }

// NewPropertiesView creates an empty view. typ is TargetCollection or
// TargetDatabase; target names the collection or database. An empty
// database target means the connection's database.
func NewPropertiesView(id string, src PropertySource, database, typ, target string, opts Options) (*PropertiesView, error) {
	switch typ {
	case TargetCollection:
		if target == "" {
			return nil, fmt.Errorf("%w: collection properties need a target", ErrInvalidParams)
		}
	case TargetDatabase:
		if target == "" {
			target = database
		}
		if target == "" {
			target = catalog.DefaultDatabase
		}
	default:
		return nil, fmt.Errorf("%w: property type %q", ErrUnknownViewKind, typ)
	}

	v := &PropertiesView{
		gridView: gridView[catalog.Property]{
			id:       id,
			kind:     "properties",
			inbox:    &Inbox{},
			loading:  true,
			singular: "property",
			plural:   "properties",
		},
		src:      src,
		database: database,
		typ:      typ,
		target:   target,
	}

	noSelection := func(sel []catalog.Property) bool { return len(sel) == 0 }
	cfg := gridConfig[catalog.Property](opts)
	cfg.Key = PropertyKey
	cfg.Columns = PropertyColumns()
	cfg.SelectMode = grid.SingleSelect
	cfg.RetainSelection = true
	cfg.Toolbar = []grid.ToolbarItem[catalog.Property]{
		{ID: ActionEdit, Label: "Edit", Icon: "edit", Disabled: noSelection},
		{ID: ActionReset, Label: "Reset", Icon: "reset", Disabled: noSelection},
	}

	ctrl, err := grid.NewController(cfg)
	if err != nil {
		return nil, fmt.Errorf("properties view: %w", err)
	}
	v.ctrl = ctrl
	return v, nil
}

// Inbox returns the view's notifier.
func (v *PropertiesView) Inbox() *Inbox { return v.inbox }

// Target returns the property type and the name of the target.
func (v *PropertiesView) Target() (typ, name string) { return v.typ, v.target }

// Refresh rereads the target and merges its custom values into the known
// properties. A collection without a schema is still loading.
func (v *PropertiesView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.refresh(ctx)
}

func (v *PropertiesView) refresh(ctx context.Context) error {
	ctx = scoped(ctx, v.database)

	var props []catalog.Property
	switch v.typ {
	case TargetCollection:
		col, err := v.src.GetCollection(ctx, v.target)
		if err != nil {
			return fmt.Errorf("describing collection %q: %w", v.target, err)
		}
		if col.Schema != nil {
			props = catalog.MergeProperties(catalog.CollectionDefaults(), col.Properties)
		}
	case TargetDatabase:
		db, err := v.src.DescribeDatabase(ctx, v.target)
		if err != nil {
			return fmt.Errorf("describing database %q: %w", v.target, err)
		}
		props = catalog.MergeProperties(catalog.DatabaseDefaults(), db.Properties)
	}

	v.props = props
	v.loading = len(props) == 0
	v.ctrl.SetRecords(props)
	debug.Log("console", "properties loaded", "view", v.id, "type", v.typ, "target", v.target, "count", len(props))
	return nil
}

// Search is not offered by property views.
func (v *PropertiesView) Search(context.Context, string) error {
	return fmt.Errorf("%w: %q", ErrUnknownAction, ActionSearch)
}

// Trigger runs a toolbar action on the selected property.
//
//	edit:  params {value}; the value must parse as the property's type
//	reset: params {confirm: true}
func (v *PropertiesView) Trigger(ctx context.Context, action string, params map[string]any) (err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	opened := len(params) == 0
	defer func() { v.record(action, opened, err) }()

	if err := v.check(action); err != nil {
		return err
	}
	prop := v.ctrl.Selected()[0]

	if opened {
		title := "Edit Property"
		if action == ActionReset {
			title = "Reset Property"
		}
		v.inbox.ShowDialog(Dialog{
			Kind:  action,
			Title: title,
			Params: map[string]any{
				"type":   v.typ,
				"target": v.target,
				"key":    prop.Key,
				"value":  prop.Value,
				"desc":   prop.Desc,
				"kind":   string(prop.Type),
			},
		})
		return nil
	}

	ctx = scoped(ctx, v.database)
	switch action {
	case ActionEdit:
		value, err := propertyValue(prop, params)
		if err != nil {
			return err
		}
		if err := v.alter(ctx, []catalog.KeyValue{{Key: prop.Key, Value: value}}); err != nil {
			return fmt.Errorf("updating %q: %w", prop.Key, err)
		}
		v.done(prop.Key + " updated")
	case ActionReset:
		if !confirmed(params) {
			return fmt.Errorf("%w: confirm is required", ErrInvalidParams)
		}
		if err := v.dropKeys(ctx, []string{prop.Key}); err != nil {
			return fmt.Errorf("resetting %q: %w", prop.Key, err)
		}
		v.done(prop.Key + " reset")
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return v.refresh(ctx)
}

func (v *PropertiesView) alter(ctx context.Context, props []catalog.KeyValue) error {
	if v.typ == TargetDatabase {
		return v.src.AlterDatabaseProperties(ctx, v.target, props)
	}
	return v.src.AlterCollectionProperties(ctx, v.target, props)
}

func (v *PropertiesView) dropKeys(ctx context.Context, keys []string) error {
	if v.typ == TargetDatabase {
		return v.src.DropDatabaseProperties(ctx, v.target, keys)
	}
	return v.src.DropCollectionProperties(ctx, v.target, keys)
}

func (v *PropertiesView) done(msg string) {
	v.inbox.CloseDialog()
	v.inbox.ShowMessage(msg)
}

// propertyValue reads params["value"] and checks it against the property type.
func propertyValue(p catalog.Property, params map[string]any) (string, error) {
	var s string
	switch raw := params["value"].(type) {
	case string:
		s = strings.TrimSpace(raw)
	case float64:
		s = strconv.FormatFloat(raw, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(raw)
	default:
		return "", fmt.Errorf("%w: value is required", ErrInvalidParams)
	}
	if s == "" {
		return "", fmt.Errorf("%w: value is required", ErrInvalidParams)
	}
	switch p.Type {
	case catalog.PropertyNumber:
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return "", fmt.Errorf("%w: %s must be a number", ErrInvalidParams, p.Key)
		}
	case catalog.PropertyBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return "", fmt.Errorf("%w: %s must be true or false", ErrInvalidParams, p.Key)
		}
		s = strconv.FormatBool(b)
	}
	return s, nil
}
