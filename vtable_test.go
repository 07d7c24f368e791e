package poly

import (
	"reflect"
	"strings"
	"testing"
)

func TestCallDispatchesByName(t *testing.T) {
	a := New[Adder](count{total: 1})
	out, err := Call(a, "Add", 4)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(out) != 1 || out[0] != 5 {
		t.Fatalf("expected [5], got %v", out)
	}
	if got := Via[Totaler](a).Total(); got != 5 {
		t.Fatalf("dynamic dispatch should mutate in place, got %d", got)
	}
}

func TestCallConvertsCompatibleArguments(t *testing.T) {
	a := New[Adder](count{total: 1})
	out, err := Call(a, "Add", int32(2))
	if err != nil {
		t.Fatalf("call with convertible argument: %v", err)
	}
	if out[0] != 3 {
		t.Fatalf("expected 3, got %v", out[0])
	}
}

func TestCallReportsArgumentMismatches(t *testing.T) {
	a := New[Adder](count{total: 1})
	if _, err := Call(a, "Add"); err == nil || !strings.Contains(err.Error(), "expected 1 arguments") {
		t.Fatalf("expected an arity error, got %v", err)
	}
	if _, err := Call(a, "Add", "nope"); err == nil || !strings.Contains(err.Error(), "not assignable") {
		t.Fatalf("expected an assignability error, got %v", err)
	}
}

func TestCallOnUnknownMethodIsAProgrammerError(t *testing.T) {
	a := New[Adder](count{total: 1})
	msg := captureFailure(t, func() {
		Call(a, "Subtract", 1)
	})
	if !strings.Contains(msg, "Subtract") {
		t.Fatalf("expected the method name in the report, got %q", msg)
	}
}

func TestCallOnEmptyHandleHitsTheFailStub(t *testing.T) {
	msg := captureFailure(t, func() {
		Call(Empty[Adder](), "Add", 1)
	})
	if !strings.Contains(msg, "pure capability call") {
		t.Fatalf("expected a pure-call report, got %q", msg)
	}
}

func TestNonConformingPayloadIsRejected(t *testing.T) {
	msg := captureFailure(t, func() {
		New[Adder](struct{ X int }{X: 1})
	})
	if !strings.Contains(msg, "does not implement") {
		t.Fatalf("expected a conformance report, got %q", msg)
	}
}

func TestPointerShapedPayloadsKeepReferenceSemantics(t *testing.T) {
	shared := count{total: 1}
	a := New[Adder](&shared)
	if !a.Type().Equal(TypeOf[*count]()) {
		t.Fatalf("the payload is the pointer itself, got %s", a.Type())
	}
	if a.InSitu() {
		t.Fatalf("pointer payloads must stay off the inline buffer")
	}
	Via[Adder](a).Add(5)
	if shared.total != 6 {
		t.Fatalf("calls should reach the pointee, got %d", shared.total)
	}
}

func TestDispatchTablesAreInterned(t *testing.T) {
	c := chainFor[Adder]()
	first := tableFor(c, reflect.TypeFor[count]())
	second := tableFor(c, reflect.TypeFor[count]())
	if first != second {
		t.Fatalf("tables should be built once per chain and payload type")
	}
	other := tableFor(chainFor[Totaler](), reflect.TypeFor[count]())
	if first == other {
		t.Fatalf("distinct chains need distinct tables")
	}
}

func TestAbstractTableFailsEveryEntry(t *testing.T) {
	c := chainFor[Adder]()
	vt := c.abstract()
	if vt.kind != boxAbstract {
		t.Fatalf("expected the abstract tier, got %s", vt.kind)
	}
	entry, ok := vt.lookup("Total")
	if !ok {
		t.Fatalf("the abstract table should carry every chain method")
	}
	msg := captureFailure(t, func() {
		entry.invoke(nil, nil)
	})
	if !strings.Contains(msg, "pure capability call") {
		t.Fatalf("expected a pure-call report, got %q", msg)
	}
}

func TestInlineVerdictFollowsLayoutAndChain(t *testing.T) {
	adder := chainFor[Adder]()
	if !tableFor(adder, reflect.TypeFor[count]()).inline {
		t.Fatalf("a word-sized pointer-free payload should be inline eligible")
	}
	if tableFor(adder, reflect.TypeFor[taggedCount]()).inline {
		t.Fatalf("pointer-bearing payloads are never inline eligible")
	}
	if tableFor(adder, reflect.TypeFor[overCount]()).inline {
		t.Fatalf("payloads over the buffer are never inline eligible")
	}
}
