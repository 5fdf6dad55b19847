package integration

import (
	"net/http"
	"slices"
	"testing"

	"github.com/rhuss/vdbconsole/pkg/api"
)

// openPartitions connects and opens a partitions view over "books".
func openPartitions(t *testing.T, env *TestEnvironment) (token, base string) {
	t.Helper()
	cr := connect(t, env)
	var snap snapshot
	decodeJSON(t, do(t, http.MethodPost, env.BaseURL()+"/v1/views", cr.Token,
		api.CreateViewRequest{Kind: api.ViewPartitions, Collection: "books"}), http.StatusCreated, &snap)
	return cr.Token, env.BaseURL() + "/v1/views/" + snap.ID
}

func TestPartitions_SortAndPage(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *TestEnvironment) {
		token, base := openPartitions(t, env)

		var snap snapshot
		decodeJSON(t, do(t, http.MethodPost, base+"/sort", token,
			api.SortRequest{Field: "rowCount", Order: "desc"}), http.StatusOK, &snap)
		if want := []string{"fiction", "poetry", "_default"}; !slices.Equal(snap.keys(), want) {
			t.Errorf("rows = %v, want %v", snap.keys(), want)
		}

		decodeJSON(t, do(t, http.MethodPost, base+"/page_size", token,
			api.PageSizeRequest{PageSize: 2}), http.StatusOK, &snap)
		if snap.Grid.PageCount != 2 {
			t.Errorf("page count = %d, want 2", snap.Grid.PageCount)
		}

		decodeJSON(t, do(t, http.MethodPost, base+"/page", token,
			api.PageRequest{Page: 7}), http.StatusOK, &snap)
		if snap.Grid.CurrentPage != 1 || !slices.Equal(snap.keys(), []string{"_default"}) {
			t.Errorf("page %d rows = %v, want last page [_default]", snap.Grid.CurrentPage, snap.keys())
		}
	})
}

func TestPartitions_Search(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *TestEnvironment) {
		token, base := openPartitions(t, env)

		var snap snapshot
		decodeJSON(t, do(t, http.MethodPost, base+"/search", token,
			api.SearchRequest{Text: "try"}), http.StatusOK, &snap)
		if !slices.Equal(snap.keys(), []string{"poetry"}) {
			t.Errorf("rows = %v, want [poetry]", snap.keys())
		}
	})
}

func TestPartitions_CreateImportDrop(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *TestEnvironment) {
		token, base := openPartitions(t, env)

		var snap snapshot
		decodeJSON(t, do(t, http.MethodPost, base+"/actions/create", token,
			api.ActionRequest{Params: map[string]any{"name": "drama"}}), http.StatusOK, &snap)
		if !slices.Contains(snap.keys(), "drama") {
			t.Fatalf("rows = %v, want drama", snap.keys())
		}

		decodeJSON(t, do(t, http.MethodPost, base+"/actions/import", token,
			api.ActionRequest{Params: map[string]any{
				"partition": "drama",
				"csv":       "title\nHamlet\nFaust\n",
			}}), http.StatusOK, &snap)
		if !slices.Equal(snap.Messages, []string{"2 entities imported into drama"}) {
			t.Errorf("messages = %v", snap.Messages)
		}

		decodeJSON(t, do(t, http.MethodPost, base+"/selection", token,
			api.SelectionRequest{Keys: []string{"drama"}}), http.StatusOK, &snap)
		decodeJSON(t, do(t, http.MethodPost, base+"/actions/drop", token,
			api.ActionRequest{Params: map[string]any{"confirm": true}}), http.StatusOK, &snap)
		if slices.Contains(snap.keys(), "drama") || len(snap.Grid.Selected) != 0 {
			t.Errorf("after drop: rows = %v, selected = %v", snap.keys(), snap.Grid.Selected)
		}
	})
}

func TestPartitions_DefaultIsProtected(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *TestEnvironment) {
		token, base := openPartitions(t, env)

		var snap snapshot
		decodeJSON(t, do(t, http.MethodPost, base+"/selection", token,
			api.SelectionRequest{Keys: []string{"_default"}}), http.StatusOK, &snap)

		resp := do(t, http.MethodPost, base+"/actions/drop", token,
			api.ActionRequest{Params: map[string]any{"confirm": true}})
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("drop _default status = %d, want 403: %s", resp.StatusCode, readBody(t, resp))
		} else {
			resp.Body.Close()
		}
	})
}

func TestPartitions_DisconnectClosesViews(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *TestEnvironment) {
		token, base := openPartitions(t, env)

		resp := do(t, http.MethodDelete, env.BaseURL()+"/v1/connect", token, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("disconnect status = %d", resp.StatusCode)
		}

		resp = do(t, http.MethodGet, base, token, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("view after disconnect = %d, want 401", resp.StatusCode)
		}
	})
}
