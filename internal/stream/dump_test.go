package stream

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestDumpRoundTrip(t *testing.T) {
	t.Parallel()

	classes := []Class{
		{
			Name:        "com.shop.Goods",
			SimpleName:  "Goods",
			Annotations: []Annotation{{Name: "AggregateRoot"}},
			Fields:      []string{"name"},
			Methods: []Method{
				{Name: "getName", Descriptor: "(0)", Events: []Event{
					{Kind: FieldRead, Owner: "com.shop.Goods", Name: "name", Line: 7},
				}},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "events.json")
	if err := WriteDump(path, classes); err != nil {
		t.Fatalf("WriteDump: %v", err)
	}
	back, err := LoadDump(path)
	if err != nil {
		t.Fatalf("LoadDump: %v", err)
	}
	if !reflect.DeepEqual(back, classes) {
		t.Errorf("round trip changed the dump:\n got %+v\nwant %+v", back, classes)
	}
}

func TestLoadDumpMissing(t *testing.T) {
	t.Parallel()

	if _, err := LoadDump(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing dump")
	}
}

func TestClassSimple(t *testing.T) {
	t.Parallel()

	tests := []struct {
		class Class
		want  string
	}{
		{Class{Name: "com.shop.Goods", SimpleName: "Goods"}, "Goods"},
		{Class{Name: "com.shop.Goods"}, "Goods"},
		{Class{Name: "com/shop/Goods"}, "Goods"},
		{Class{Name: "Goods"}, "Goods"},
	}
	for _, tt := range tests {
		if got := tt.class.Simple(); got != tt.want {
			t.Errorf("Simple(%q) = %q, want %q", tt.class.Name, got, tt.want)
		}
	}
}

func TestClassAnnotationLookup(t *testing.T) {
	t.Parallel()

	c := Class{Annotations: []Annotation{
		{Name: "org.springframework.stereotype.Repository", Args: map[string]string{"value": "Goods.class"}},
	}}

	if !c.HasAnnotation("Repository") {
		t.Error("simple-name lookup failed")
	}
	ann, ok := c.Annotation("org.springframework.stereotype.Repository")
	if !ok || ann.Args["value"] != "Goods.class" {
		t.Errorf("qualified lookup: %+v, %v", ann, ok)
	}
	if c.HasAnnotation("Service") {
		t.Error("unexpected match")
	}
}
