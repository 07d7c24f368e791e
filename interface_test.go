package poly

import (
	"reflect"
	"strings"
	"testing"
)

// The layer fixtures form a diamond: layerD extends layerB and layerC, both
// of which extend layerA.
type layerA interface{ A() string }

type layerB interface{ B() string }

type layerC interface{ C() string }

type layerD interface{ D() string }

var (
	defLayerA = Define[layerA]("layer_a", BufferWords(2))
	defLayerB = Define[layerB]("layer_b", Extends(defLayerA))
	defLayerC = Define[layerC]("layer_c", Extends(defLayerA), BufferWords(5))
	defLayerD = Define[layerD]("layer_d", Extends(defLayerB, defLayerC))
)

func chainNames(def *Interface) []string {
	members := def.Chain()
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name()
	}
	return names
}

func TestChainLinearizesBasesFirstAndDiamondOnce(t *testing.T) {
	got := chainNames(defLayerD)
	want := []string{"layer_a", "layer_b", "layer_c", "layer_d"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected chain %v, got %v", want, got)
	}
}

func TestImplementsWalksTheChain(t *testing.T) {
	for _, base := range []*Interface{defLayerA, defLayerB, defLayerC, defLayerD} {
		if !defLayerD.Implements(base) {
			t.Fatalf("layer_d should implement %s", base.Name())
		}
	}
	if defLayerA.Implements(defLayerD) {
		t.Fatalf("a base must not implement its extension")
	}
	if defLayerD.Implements(nil) {
		t.Fatalf("nil is not a base")
	}
}

func TestBufferRequirementIsChainMaximum(t *testing.T) {
	schema := SchemaOf(defLayerD)
	if schema.BufferWords != 5 {
		t.Fatalf("expected the chain to adopt layer_c's requirement, got %d", schema.BufferWords)
	}
	if defLayerD.BufferWords() != DefaultBufferWords {
		t.Fatalf("the interface's own requirement should stay %d, got %d", DefaultBufferWords, defLayerD.BufferWords())
	}
}

func TestMethodsCombineInLayerOrder(t *testing.T) {
	methods := defLayerD.Methods()
	if len(methods) != 4 {
		t.Fatalf("expected 4 combined methods, got %d", len(methods))
	}
	wantOwners := []string{"layer_a", "layer_b", "layer_c", "layer_d"}
	for i, m := range methods {
		if m.Owner.Name() != wantOwners[i] {
			t.Fatalf("method %d: expected owner %s, got %s", i, wantOwners[i], m.Owner.Name())
		}
	}
}

// diamondProbe counts every A call so tests can observe that both diamond
// paths dispatch into one payload.
type diamondProbe struct {
	hits int
}

func (p *diamondProbe) A() string { p.hits++; return "a" }
func (p *diamondProbe) B() string { return "b" }
func (p *diamondProbe) C() string { return "c" }
func (p *diamondProbe) D() string { return "d" }

func TestDiamondPathsShareOnePayload(t *testing.T) {
	d := New[layerD](diamondProbe{})
	left := PtrTo[layerB](d)
	right := PtrTo[layerC](d)

	if got := Via[layerA](left).A(); got != "a" {
		t.Fatalf("expected a through the left path, got %q", got)
	}
	if got := Via[layerA](right).A(); got != "a" {
		t.Fatalf("expected a through the right path, got %q", got)
	}
	probe, ok := As[diamondProbe](d)
	if !ok || probe.hits != 2 {
		t.Fatalf("both paths should mutate one payload, got %+v (%v)", probe, ok)
	}
}

type priceByNumber interface{ Value() int }

type priceByLabel interface{ Value() string }

type priceBoth interface{}

func TestConflictingMethodSignaturesAreRejected(t *testing.T) {
	byNumber := Define[priceByNumber]("price_by_number")
	byLabel := Define[priceByLabel]("price_by_label")
	msg := captureFailure(t, func() {
		Define[priceBoth]("price_both", Extends(byNumber, byLabel))
	})
	if !strings.Contains(msg, "conflicts") {
		t.Fatalf("expected a conflict report, got %q", msg)
	}
}

func TestRedefinitionMustMatch(t *testing.T) {
	again := Define[layerA]("layer_a", BufferWords(2))
	if again != defLayerA {
		t.Fatalf("matching redefinition should return the interned descriptor")
	}
	msg := captureFailure(t, func() {
		Define[layerA]("renamed")
	})
	if !strings.Contains(msg, "conflicting redefinition") {
		t.Fatalf("expected a redefinition report, got %q", msg)
	}
}

type plainProbe interface{ Probe() int }

func TestImplicitRegistrationUsesDefaults(t *testing.T) {
	def := interfaceFor(reflect.TypeFor[plainProbe]())
	if def.Name() != "poly.plainProbe" {
		t.Fatalf("implicit registration should use the reflected name, got %s", def.Name())
	}
	if def.BufferWords() != DefaultBufferWords {
		t.Fatalf("expected the default buffer, got %d", def.BufferWords())
	}
	if got := chainNames(def); len(got) != 1 {
		t.Fatalf("an implicit interface has a single-layer chain, got %v", got)
	}
	if again := interfaceFor(reflect.TypeFor[plainProbe]()); again != def {
		t.Fatalf("implicit registration should intern")
	}
}

func TestDefineRejectsNonInterfaceTypes(t *testing.T) {
	msg := captureFailure(t, func() {
		Define[int]("not_an_interface")
	})
	if !strings.Contains(msg, "requires an interface type") {
		t.Fatalf("expected a kind report, got %q", msg)
	}
}

type negativeBuffer interface{}

func TestDefineRejectsNegativeBuffer(t *testing.T) {
	msg := captureFailure(t, func() {
		Define[negativeBuffer]("negative_buffer", BufferWords(-1))
	})
	if !strings.Contains(msg, "must not be negative") {
		t.Fatalf("expected a buffer report, got %q", msg)
	}
}

func TestBuiltinCapabilityChains(t *testing.T) {
	if !Copyable.Implements(Movable) {
		t.Fatalf("copyable must imply movable")
	}
	if Movable.Implements(Copyable) {
		t.Fatalf("movable must not imply copyable")
	}
	for _, base := range []*Interface{Movable, Copyable, EqualityComparable} {
		if !Semiregular.Implements(base) {
			t.Fatalf("semiregular must imply %s", base.Name())
		}
	}
	got := chainNames(Semiregular)
	want := []string{"movable", "copyable", "equality_comparable", "semiregular"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected chain %v, got %v", want, got)
	}
}

func TestFixtureChainsLayerOverBuiltins(t *testing.T) {
	got := chainNames(adderIface)
	want := []string{"equality_comparable", "totaler", "movable", "copyable", "adder"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected chain %v, got %v", want, got)
	}
	if got := chainNames(moverIface); !reflect.DeepEqual(got, []string{"movable", "mover"}) {
		t.Fatalf("unexpected mover chain %v", got)
	}
	if got := chainNames(copierIface); !reflect.DeepEqual(got, []string{"movable", "copyable", "copier"}) {
		t.Fatalf("unexpected copier chain %v", got)
	}
	if wideTotalerIface.Chain()[len(wideTotalerIface.Chain())-1].BufferWords() != 4 {
		t.Fatalf("wide_totaler should require four words")
	}
}
