package poly

import (
	"encoding/json"
	"testing"
)

func TestSchemaOfListsLayersAndMethods(t *testing.T) {
	schema := SchemaOf(adderIface)
	if schema.Name != "adder" || schema.BufferWords != DefaultBufferWords {
		t.Fatalf("unexpected header: %+v", schema)
	}
	if len(schema.Layers) != 5 {
		t.Fatalf("expected 5 layers, got %d", len(schema.Layers))
	}
	if schema.Layers[0].Name != "equality_comparable" || schema.Layers[4].Name != "adder" {
		t.Fatalf("layers should run innermost first, got %+v", schema.Layers)
	}
	if len(schema.Methods) != 2 {
		t.Fatalf("expected 2 combined methods, got %+v", schema.Methods)
	}
	if schema.Methods[0].Name != "Total" || schema.Methods[0].Owner != "totaler" {
		t.Fatalf("unexpected first method: %+v", schema.Methods[0])
	}
	if schema.Methods[1].Name != "Add" || schema.Methods[1].Owner != "adder" {
		t.Fatalf("unexpected second method: %+v", schema.Methods[1])
	}
}

func TestSchemaJSONRoundTrip(t *testing.T) {
	schema := SchemaOf(defLayerD)
	raw, err := schema.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !json.Valid(raw) {
		t.Fatalf("expected valid json, got %s", raw)
	}
	restore, err := InterfaceSchemaFromJSON(raw)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restore.Name != schema.Name || len(restore.Layers) != len(schema.Layers) {
		t.Fatalf("round trip mismatch: %+v vs %+v", restore, schema)
	}
}

func TestDescribeReportsContainerState(t *testing.T) {
	a := New[Adder](count{total: 1})
	r := Describe(a)
	if r.Chain != "adder" || r.Tier != "object" || r.Storage != "inline" || r.View || r.Empty {
		t.Fatalf("unexpected report: %+v", r)
	}
	if r.Payload != "poly.count" {
		t.Fatalf("unexpected payload name %q", r.Payload)
	}

	a.Emplace(overCount{totals: [4]int{1, 0, 0, 0}})
	if r := Describe(a); r.Storage != "heap" {
		t.Fatalf("expected heap placement, got %+v", r)
	}

	a.Reset()
	r = Describe(a)
	if !r.Empty || r.Tier != "abstract" || r.Storage != "" || r.Payload != "" {
		t.Fatalf("unexpected empty report: %+v", r)
	}
}

func TestDescribeReportsViewState(t *testing.T) {
	src := New[Adder](count{total: 1})
	v := PtrTo[Adder](src)
	r := Describe(v)
	if !r.View || r.Tier != "object" || r.Storage != "" {
		t.Fatalf("unexpected view report: %+v", r)
	}

	forwarded := ConstPtrTo[Totaler](v)
	if r := Describe(forwarded); r.Tier != "proxy" || !r.View {
		t.Fatalf("unexpected forwarded report: %+v", r)
	}

	if r := Describe(nil); !r.Empty || r.Tier != "abstract" {
		t.Fatalf("unexpected nil report: %+v", r)
	}

	raw, err := r.ToJSON()
	if err != nil || !json.Valid(raw) {
		t.Fatalf("report should serialize, got %s (%v)", raw, err)
	}
}
