package poly

// The built-in capability bundles. They carry no methods of their own; each
// one is a marker whose presence in a chain unlocks a container operation.
// User interfaces opt in by extending them:
//
//	var IGreeter = poly.Define[Greeter]("greeter", poly.Extends(poly.Semiregular))
//
// Marker interfaces are distinct named types so each gets its own identity in
// the interface registry.
type (
	movableMarker            interface{}
	copyableMarker           interface{}
	equalityComparableMarker interface{}
	semiregularMarker        interface{}
)

// Movable marks a chain whose containers may relocate their payload. It gates
// Swap and the move of Upcast; payloads on a movable chain must tolerate
// being moved bytewise or rebuilt in a new location.
var Movable = Define[movableMarker]("movable")

// Copyable marks a chain whose containers can be duplicated with CopyOf.
// Copyable payloads are necessarily movable.
var Copyable = Define[copyableMarker]("copyable", Extends(Movable))

// EqualityComparable marks a chain whose containers support Equal. Payloads
// either expose an Equal method taking their own type or must be comparable
// with the == operator.
var EqualityComparable = Define[equalityComparableMarker]("equality_comparable")

// Semiregular bundles copyability and equality, the usual requirement set for
// payloads kept in collections.
var Semiregular = Define[semiregularMarker]("semiregular", Extends(Copyable, EqualityComparable))
