package loom

// ComponentID is the monotonic identifier assigned to a component type the
// first time it is registered with a World. See registry.go.
type ComponentID uint16

// MaxComponentTypes bounds the number of distinct component types a single
// World may register, mirroring the teacher's 256-bit mask budget.
const MaxComponentTypes = 256

// SecondaryKeyKind discriminates the four concrete forms a TypeExpression's
// secondary key may take, plus the four wildcard forms valid only in
// queries (§4.2).
type SecondaryKeyKind uint8

const (
	// KeyPlain is "no secondary key" — a plain component slot.
	KeyPlain SecondaryKeyKind = iota
	// KeyEntityRelation targets a specific entity (a relation, e.g. Likes(bob)).
	KeyEntityRelation
	// KeyObjectLink targets a specific external object via its hash.
	KeyObjectLink
	// KeyHash targets a specific strongly-typed hash key.
	KeyHash
	// KeyWildcardAny matches any key, plain included.
	KeyWildcardAny
	// KeyWildcardAnyTarget matches any non-plain key.
	KeyWildcardAnyTarget
	// KeyWildcardAnyEntityRelation matches any entity-relation key.
	KeyWildcardAnyEntityRelation
	// KeyWildcardAnyObjectLink matches any object-link key.
	KeyWildcardAnyObjectLink
)

func (k SecondaryKeyKind) isWildcard() bool {
	return k >= KeyWildcardAny
}

// SecondaryKey is the optional second dimension of a component slot: none
// (plain), an entity-relation target, an object-link hash, or a typed hash
// — or, in a query, one of four wildcard forms.
type SecondaryKey struct {
	Kind  SecondaryKeyKind
	Value Identity // meaningful for KeyEntityRelation/KeyObjectLink/KeyHash only
}

// PlainKey is the zero-value secondary key: no relation, no target.
var PlainKey = SecondaryKey{Kind: KeyPlain}

// EntityRelationKey builds a secondary key targeting a specific entity.
func EntityRelationKey(target Identity) SecondaryKey {
	return SecondaryKey{Kind: KeyEntityRelation, Value: target}
}

// ObjectLinkKey builds a secondary key targeting a specific external object
// via its hash-derived Identity.
func ObjectLinkKey(obj Identity) SecondaryKey {
	return SecondaryKey{Kind: KeyObjectLink, Value: obj}
}

// HashKeyOf builds a secondary key targeting a specific strongly-typed hash.
func HashKeyOf(h Identity) SecondaryKey {
	return SecondaryKey{Kind: KeyHash, Value: h}
}

// Wildcard secondary keys, valid only inside a query expression.
var (
	AnyKey                 = SecondaryKey{Kind: KeyWildcardAny}
	AnyTargetKey           = SecondaryKey{Kind: KeyWildcardAnyTarget}
	AnyEntityRelationKey   = SecondaryKey{Kind: KeyWildcardAnyEntityRelation}
	AnyObjectLinkKey       = SecondaryKey{Kind: KeyWildcardAnyObjectLink}
)

// Matches reports whether the secondary key q, used as a query key,
// matches the stored secondary key s. The relation is non-commutative:
// plain query keys match only plain stored keys, while wildcard query
// keys widen to match concrete stored keys that a plain query key would
// never match (§4.2).
func (q SecondaryKey) Matches(s SecondaryKey) bool {
	switch q.Kind {
	case KeyPlain:
		return s.Kind == KeyPlain
	case KeyEntityRelation:
		return s.Kind == KeyEntityRelation && s.Value == q.Value
	case KeyObjectLink:
		return s.Kind == KeyObjectLink && s.Value == q.Value
	case KeyHash:
		return s.Kind == KeyHash && s.Value == q.Value
	case KeyWildcardAny:
		return true
	case KeyWildcardAnyTarget:
		return s.Kind != KeyPlain
	case KeyWildcardAnyEntityRelation:
		return s.Kind == KeyEntityRelation
	case KeyWildcardAnyObjectLink:
		return s.Kind == KeyObjectLink
	default:
		return false
	}
}

// TypeExpression is a (ComponentID, SecondaryKey) pair. Stored
// TypeExpressions (those living in a Signature) always carry a concrete
// (non-wildcard) SecondaryKey; query TypeExpressions may carry a wildcard.
type TypeExpression struct {
	Component ComponentID
	Key       SecondaryKey
}

// Plain builds a plain TypeExpression for the given component.
func Plain(c ComponentID) TypeExpression {
	return TypeExpression{Component: c, Key: PlainKey}
}

// WithKey builds a keyed TypeExpression for the given component.
func WithKey(c ComponentID, key SecondaryKey) TypeExpression {
	return TypeExpression{Component: c, Key: key}
}

// Matches reports whether query expression q matches stored expression s:
// the component ids must match exactly, and q's key must match s's key per
// SecondaryKey.Matches.
func (q TypeExpression) Matches(s TypeExpression) bool {
	return q.Component == s.Component && q.Key.Matches(s.Key)
}

// less implements the total order over TypeExpressions used by Signature:
// primary by ComponentID, secondary by key-kind, tertiary by key payload.
func (e TypeExpression) less(o TypeExpression) bool {
	if e.Component != o.Component {
		return e.Component < o.Component
	}
	if e.Key.Kind != o.Key.Kind {
		return e.Key.Kind < o.Key.Kind
	}
	return e.Key.Value < o.Key.Value
}

func (e TypeExpression) equal(o TypeExpression) bool {
	return e.Component == o.Component && e.Key.Kind == o.Key.Kind && e.Key.Value == o.Key.Value
}
