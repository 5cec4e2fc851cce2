package classify

import (
	"reflect"
	"testing"

	"github.com/lenslabs/fieldlens/internal/model"
	"github.com/lenslabs/fieldlens/internal/report"
	"github.com/lenslabs/fieldlens/internal/stream"
)

const order = "com.shop.Order"

// Conditional body `if (status == PENDING && items.isNotEmpty()) { status = CONFIRMED }`
// flattens into two reads and one write, with the branch marker ignored.
func TestMethodConditionalFlattening(t *testing.T) {
	t.Parallel()

	m := stream.Method{
		Name:       "confirm",
		Descriptor: "(0)",
		Events: []stream.Event{
			{Kind: stream.Branch, Line: 10},
			{Kind: stream.FieldRead, Owner: order, Name: "status", Line: 10},
			{Kind: stream.FieldRead, Owner: order, Name: "items", Line: 10},
			{Kind: stream.Call, Owner: "java.util.List", Name: "isNotEmpty", Line: 10},
			{Kind: stream.FieldWrite, Owner: order, Name: "status", ValueType: "Status", Line: 11},
		},
	}

	got := Method(order, m, nil)
	want := []model.PropertyAccess{
		{Name: "status", Kind: model.Get, Owner: order},
		{Name: "items", Kind: model.Get, Owner: order},
		{Name: "status", Kind: model.Set, Owner: order},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Method() = %+v, want %+v", got, want)
	}
}

func TestMethodDedupKeepsFirstOccurrenceOrder(t *testing.T) {
	t.Parallel()

	m := stream.Method{
		Name: "touch",
		Events: []stream.Event{
			{Kind: stream.FieldRead, Owner: order, Name: "b"},
			{Kind: stream.FieldRead, Owner: order, Name: "a"},
			{Kind: stream.FieldRead, Owner: order, Name: "b"},
			{Kind: stream.FieldRead, Owner: order, Name: "a"},
			{Kind: stream.FieldRead, Owner: order, Name: "b"},
		},
	}

	got := Method(order, m, nil)
	want := []model.PropertyAccess{
		{Name: "b", Kind: model.Get, Owner: order},
		{Name: "a", Kind: model.Get, Owner: order},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Method() = %+v, want %+v", got, want)
	}
}

// A GET and a SET of the same property are distinct entries: a compound
// update keeps both.
func TestMethodCompoundUpdate(t *testing.T) {
	t.Parallel()

	m := stream.Method{
		Name: "increment",
		Events: []stream.Event{
			{Kind: stream.FieldRead, Owner: order, Name: "count"},
			{Kind: stream.FieldWrite, Owner: order, Name: "count"},
		},
	}

	got := Method(order, m, nil)
	if len(got) != 2 {
		t.Fatalf("expected GET and SET kept, got %+v", got)
	}
	if got[0].Kind != model.Get || got[1].Kind != model.Set {
		t.Errorf("expected GET then SET, got %+v", got)
	}
}

func TestMethodAccessorCalls(t *testing.T) {
	t.Parallel()

	goods := "com.shop.Goods"
	m := stream.Method{
		Name: "handle",
		Events: []stream.Event{
			{Kind: stream.Call, Owner: goods, Name: "getName", ArgCount: 0},
			{Kind: stream.Call, Owner: goods, Name: "setName", ArgCount: 1},
			{Kind: stream.Call, Owner: goods, Name: "<set-status>", ArgCount: 1},
			{Kind: stream.Call, Owner: goods, Name: "save", ArgCount: 1}, // plain call, no access
		},
	}

	got := Method(order, m, nil)
	want := []model.PropertyAccess{
		{Name: "name", Kind: model.Get, Owner: goods},
		{Name: "name", Kind: model.Set, Owner: goods},
		{Name: "status", Kind: model.Set, Owner: goods},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Method() = %+v, want %+v", got, want)
	}
}

// Field touches on classes other than the enclosing one are not property
// accesses; only accessor calls cross class boundaries.
func TestMethodForeignFieldIgnored(t *testing.T) {
	t.Parallel()

	m := stream.Method{
		Name: "peek",
		Events: []stream.Event{
			{Kind: stream.FieldRead, Owner: "com.shop.Other", Name: "x"},
			{Kind: stream.FieldRead, Owner: order, Name: "status"},
		},
	}

	got := Method(order, m, nil)
	if len(got) != 1 || got[0].Name != "status" {
		t.Errorf("expected only enclosing-class access, got %+v", got)
	}
}

func TestMethodMalformedEventSkippedWithWarning(t *testing.T) {
	t.Parallel()

	rep := report.New()
	m := stream.Method{
		Name: "broken",
		Events: []stream.Event{
			{Kind: stream.FieldRead, Owner: "", Name: "ghost"}, // malformed: no owner
			{Kind: stream.Call, Owner: order, Name: ""},        // malformed: no name
			{Kind: stream.FieldRead, Owner: order, Name: "status"},
		},
	}

	got := Method(order, m, rep)
	if len(got) != 1 || got[0].Name != "status" {
		t.Errorf("expected remaining stream analyzed, got %+v", got)
	}
	if rep.Len() != 2 {
		t.Errorf("expected 2 classification warnings, got %d: %+v", rep.Len(), rep.Warnings())
	}
	for _, w := range rep.Warnings() {
		if w.Kind != report.Classification {
			t.Errorf("unexpected warning kind %s", w.Kind)
		}
		if w.Subject == "" {
			t.Errorf("warning not tagged with method identity: %+v", w)
		}
	}
}

func TestMethodEmptyStream(t *testing.T) {
	t.Parallel()

	got := Method(order, stream.Method{Name: "empty"}, nil)
	if len(got) != 0 {
		t.Errorf("expected no accesses, got %+v", got)
	}
}
