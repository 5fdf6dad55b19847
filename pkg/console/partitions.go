package console

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rhuss/vdbconsole/pkg/catalog"
	"github.com/rhuss/vdbconsole/pkg/debug"
	"github.com/rhuss/vdbconsole/pkg/grid"
)

// Partition view actions.
const (
	ActionCreate = "create"
	ActionImport = "import"
	ActionDrop   = "drop"
	ActionSearch = "search"
)

const (
	defaultPartitionLabel = "Default partition"
	dropDefaultTooltip    = "The default partition cannot be dropped"
)

// PartitionSource is the backend a PartitionsView reads and edits.
type PartitionSource interface {
	catalog.PartitionService
	GetCollection(ctx context.Context, name string) (*catalog.Collection, error)
	Insert(ctx context.Context, collection, partition string, rows []catalog.Row) (int64, error)
}

// PartitionsView lists the partitions of one collection.
type PartitionsView struct {
	gridView[catalog.Partition]

	src        PartitionSource
	database   string
	collection string
	all        []catalog.Partition
}

var _ View = (*PartitionsView)(nil)

// PartitionColumns returns the partition grid columns.
func PartitionColumns() []grid.Column[catalog.Partition] {
	return []grid.Column[catalog.Partition]{
		{
			ID:       "id",
			Label:    "ID",
			Value:    func(p catalog.Partition) any { return p.ID },
			Copyable: true,
		},
		{
			ID:       "name",
			Label:    "Name",
			Sortable: true,
			SortKind: grid.KindString,
			Value:    func(p catalog.Partition) any { return p.Name },
			Kind:     grid.ValueCustom,
			Render: func(p catalog.Partition) string {
				if p.IsDefault() {
					return defaultPartitionLabel
				}
				return p.Name
			},
		},
		{
			ID:       "rowCount",
			Label:    "Approx Entity Count",
			Sortable: true,
			SortKind: grid.KindNumber,
			Value:    func(p catalog.Partition) any { return p.RowCount },
			Kind:     grid.ValueNumber,
		},
		{
			ID:       "createdTime",
			Label:    "Created Time",
			Sortable: true,
			SortKind: grid.KindDate,
			Value:    func(p catalog.Partition) any { return p.CreatedTime },
			Kind:     grid.ValueDate,
		},
	}
}

// PartitionKey identifies partitions by name, which is unique per collection.
func PartitionKey(p catalog.Partition) string { return p.Name }

// NewPartitionsView creates an empty view over collection. Call Refresh to
// load it.
func NewPartitionsView(id string, src PartitionSource, database, collection string, opts Options) (*PartitionsView, error) {
	v := &PartitionsView{
		gridView: gridView[catalog.Partition]{
			id:       id,
			kind:     "partitions",
			inbox:    &Inbox{},
			loading:  true,
			singular: "partition",
			plural:   "partitions",
		},
		src:        src,
		database:   database,
		collection: collection,
	}

	cfg := gridConfig[catalog.Partition](opts)
	cfg.Key = PartitionKey
	cfg.Columns = PartitionColumns()
	cfg.SelectMode = grid.MultiSelect
	cfg.RetainSelection = opts.RetainSelection
	cfg.Toolbar = []grid.ToolbarItem[catalog.Partition]{
		{ID: ActionCreate, Label: "Create Partition", Icon: "add"},
		{
			ID:    ActionImport,
			Label: "Import File",
			Icon:  "uploadFile",
			// Needs a target partition and at most one chosen.
			Disabled: func(sel []catalog.Partition) bool {
				return len(v.all) == 0 || len(sel) > 1
			},
		},
		{
			ID:    ActionDrop,
			Label: "Drop",
			Icon:  "cross",
			Disabled: func(sel []catalog.Partition) bool {
				return len(sel) == 0 || hasDefault(sel)
			},
			Tooltip: func(sel []catalog.Partition) string {
				if hasDefault(sel) {
					return dropDefaultTooltip
				}
				return ""
			},
		},
		{ID: ActionSearch, Label: "Search", Icon: "search", Kind: grid.ToolbarSearch},
	}

	ctrl, err := grid.NewController(cfg)
	if err != nil {
		return nil, fmt.Errorf("partitions view: %w", err)
	}
	v.ctrl = ctrl
	return v, nil
}

// Inbox returns the view's notifier.
func (v *PartitionsView) Inbox() *Inbox { return v.inbox }

// Collection returns the collection the view lists.
func (v *PartitionsView) Collection() string { return v.collection }

// Refresh refetches the partitions. On failure the previous records stay.
func (v *PartitionsView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.refresh(ctx)
}

func (v *PartitionsView) refresh(ctx context.Context) error {
	parts, err := v.src.ListPartitions(scoped(ctx, v.database), v.collection)
	v.loading = false
	if err != nil {
		return fmt.Errorf("listing partitions of %q: %w", v.collection, err)
	}
	v.all = parts
	v.apply()
	debug.Log("console", "partitions loaded", "view", v.id, "collection", v.collection, "count", len(parts))
	return nil
}

// Search filters the partitions to names containing text. Matching is case
// sensitive and happens on the loaded list.
func (v *PartitionsView) Search(_ context.Context, text string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = text
	v.apply()
	return nil
}

// apply pushes the filtered partitions into the grid. Must be called with
// mu held.
func (v *PartitionsView) apply() {
	if v.search == "" {
		v.ctrl.SetRecords(v.all)
		return
	}
	var list []catalog.Partition
	for _, p := range v.all {
		if strings.Contains(p.Name, v.search) {
			list = append(list, p)
		}
	}
	v.ctrl.SetRecords(list)
}

// Trigger runs a toolbar action.
//
//	create: params {name}
//	import: params {rows: [{field: value}]} or {csv: "header\nvalues"},
//	        optional {partition}; defaults to the selected or default partition
//	drop:   params {confirm: true}; drops every selected partition
//	search: params {text}
func (v *PartitionsView) Trigger(ctx context.Context, action string, params map[string]any) (err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	opened := len(params) == 0 && action != ActionSearch
	defer func() { v.record(action, opened, err) }()

	if err := v.check(action); err != nil {
		return err
	}
	ctx = scoped(ctx, v.database)

	switch action {
	case ActionSearch:
		text, _ := params["text"].(string)
		v.search = text
		v.apply()
		return nil
	case ActionCreate:
		if opened {
			v.inbox.ShowDialog(Dialog{
				Kind:   ActionCreate,
				Title:  "Create Partition",
				Params: map[string]any{"collection": v.collection},
			})
			return nil
		}
		return v.create(ctx, params)
	case ActionImport:
		if opened {
			return v.openImport(ctx)
		}
		return v.importRows(ctx, params)
	case ActionDrop:
		if opened {
			v.inbox.ShowDialog(Dialog{
				Kind:   ActionDrop,
				Title:  "Drop Partition",
				Params: map[string]any{"collection": v.collection, "partitions": names(v.ctrl.Selected())},
			})
			return nil
		}
		return v.drop(ctx, params)
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, action)
}

func (v *PartitionsView) create(ctx context.Context, params map[string]any) error {
	name, err := stringParam(params, "name")
	if err != nil {
		return err
	}
	if err := catalog.ValidateName(name); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if err := v.src.CreatePartition(ctx, v.collection, name); err != nil {
		return fmt.Errorf("creating partition %q: %w", name, err)
	}
	v.done("Partition created")
	return v.reload(ctx)
}

func (v *PartitionsView) drop(ctx context.Context, params map[string]any) error {
	if !confirmed(params) {
		return fmt.Errorf("%w: confirm is required", ErrInvalidParams)
	}
	for _, p := range v.ctrl.Selected() {
		if err := v.src.DropPartition(ctx, v.collection, p.Name); err != nil {
			// Earlier partitions may be gone already; the grid must show it.
			return errors.Join(fmt.Errorf("dropping partition %q: %w", p.Name, err), v.reload(ctx))
		}
	}
	v.done("Partition deleted")
	return v.reload(ctx)
}

func (v *PartitionsView) openImport(ctx context.Context) error {
	col, err := v.src.GetCollection(ctx, v.collection)
	if err != nil {
		return fmt.Errorf("describing collection %q: %w", v.collection, err)
	}
	var fields []catalog.Field
	if col.Schema != nil {
		fields = col.Schema.Fields
	}
	v.inbox.ShowDialog(Dialog{
		Kind:  ActionImport,
		Title: "Import File",
		Params: map[string]any{
			"collection": v.collection,
			"partition":  v.importTarget(""),
			"partitions": names(v.all),
			"fields":     fields,
		},
	})
	return nil
}

func (v *PartitionsView) importRows(ctx context.Context, params map[string]any) error {
	partition, _ := params["partition"].(string)
	partition = v.importTarget(partition)
	if !slices.ContainsFunc(v.all, func(p catalog.Partition) bool { return p.Name == partition }) {
		return fmt.Errorf("%w: unknown partition %q", ErrInvalidParams, partition)
	}

	var rows []catalog.Row
	switch {
	case params["csv"] != nil:
		text, ok := params["csv"].(string)
		if !ok {
			return fmt.Errorf("%w: csv must be a string", ErrInvalidParams)
		}
		col, err := v.src.GetCollection(ctx, v.collection)
		if err != nil {
			return fmt.Errorf("describing collection %q: %w", v.collection, err)
		}
		if rows, err = ParseCSV(strings.NewReader(text), col.Schema); err != nil {
			return err
		}
	case params["rows"] != nil:
		var err error
		if rows, err = parseRows(params["rows"]); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: rows or csv is required", ErrInvalidParams)
	}

	n, err := v.src.Insert(ctx, v.collection, partition, rows)
	if err != nil {
		return fmt.Errorf("importing into %q: %w", partition, err)
	}
	v.done(fmt.Sprintf("%s entities imported into %s", grid.FormatNumber(float64(n)), partition))
	return v.reload(ctx)
}

// importTarget picks the partition an import writes to: the requested one,
// else the single selected partition, else the default partition.
func (v *PartitionsView) importTarget(requested string) string {
	if requested != "" {
		return requested
	}
	if sel := v.ctrl.Selected(); len(sel) == 1 {
		return sel[0].Name
	}
	return catalog.DefaultPartition
}

// done reports a successful action and closes its dialog.
func (v *PartitionsView) done(msg string) {
	v.inbox.CloseDialog()
	v.inbox.ShowMessage(msg)
}

// reload refetches after an action and clears the selection.
func (v *PartitionsView) reload(ctx context.Context) error {
	err := v.refresh(ctx)
	v.ctrl.ClearSelection()
	return err
}

func hasDefault(parts []catalog.Partition) bool {
	return slices.ContainsFunc(parts, catalog.Partition.IsDefault)
}

func names(parts []catalog.Partition) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.Name
	}
	return out
}
