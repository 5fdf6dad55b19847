package api

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		req       any
		wantParam string
		wantOK    bool
	}{
		{"connect ok", &ConnectRequest{Address: "localhost:19530"}, "", true},
		{"connect missing address", &ConnectRequest{}, "address", false},
		{"connect username without password", &ConnectRequest{Address: "x", Username: "root"}, "password", false},
		{"view partitions ok", &CreateViewRequest{Kind: ViewPartitions, Collection: "books"}, "", true},
		{"view partitions missing collection", &CreateViewRequest{Kind: ViewPartitions}, "collection", false},
		{"view properties missing type", &CreateViewRequest{Kind: ViewProperties}, "type", false},
		{"view properties bad type", &CreateViewRequest{Kind: ViewProperties, Type: "index"}, "type", false},
		{"view properties database ok", &CreateViewRequest{Kind: ViewProperties, Type: TargetDatabase}, "", true},
		{"view unknown kind", &CreateViewRequest{Kind: "indexes"}, "kind", false},
		{"sort bad order", &SortRequest{Field: "name", Order: "up"}, "order", false},
		{"sort toggle ok", &SortRequest{Field: "name"}, "", true},
		{"page size zero", &PageSizeRequest{}, "page_size", false},
		{"page size too big", &PageSizeRequest{PageSize: 5000}, "page_size", false},
		{"page size ok", &PageSizeRequest{PageSize: 25}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if err.Type != ErrorTypeInvalidRequest {
				t.Errorf("Type = %q, want invalid_request", err.Type)
			}
			if err.Param != tt.wantParam {
				t.Errorf("Param = %q, want %q (%s)", err.Param, tt.wantParam, err.Message)
			}
		})
	}
}

func TestValidate_Message(t *testing.T) {
	err := Validate(&CreateViewRequest{Kind: "indexes"})
	if err == nil || err.Message != "kind must be one of [partitions, properties]" {
		t.Errorf("Message = %v", err)
	}
}
