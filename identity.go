// Package loom implements an archetype-based Entity-Component-System
// storage and query engine: a packed identity space, a type-expression
// algebra with wildcard matching, columnar archetype storage, and a
// query/stream engine with deferred-mutation discipline for safe
// structural changes during iteration.
package loom

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// Kind discriminates the logical variant carried by an Identity.
type Kind uint8

const (
	KindNone Kind = iota
	KindEntity
	KindObject
	KindHash
	KindWildcard
)

func (k Kind) String() string {
	switch k {
	case KindEntity:
		return "Entity"
	case KindObject:
		return "Object"
	case KindHash:
		return "Hash"
	case KindWildcard:
		return "Wildcard"
	default:
		return "None"
	}
}

// WildcardKind enumerates the wildcard variants a None-kind or
// Wildcard-kind Identity may represent when used as a query key.
type WildcardKind uint8

const (
	WildcardNone WildcardKind = iota
	WildcardAny
	WildcardAnyTarget
	WildcardAnyEntityRelation
	WildcardAnyObjectLink
	WildcardPlain
)

// Identity is a discriminated 64-bit handle. Bit layout (LSB first):
//
//	bits 0..31  index       entity slot, or object/hash code
//	bits 32..39 worldIndex  0..254, or 255 ("global") for object/hash/wildcard identities
//	bits 40..47 flags       reserved
//	bits 48..55 keyTag      secondary-key type tag (see the keyTag* constants)
//	bits 56..63 tail        generation (entities), language-type id (objects/hashes), or wildcard kind
//
// Identity is a value type: equality is bit-equality of the packed uint64.
type Identity uint64

const (
	identityIndexBits = 32
	identityIndexMask = (uint64(1) << identityIndexBits) - 1

	worldIndexShift = 32
	worldIndexBits  = 8
	worldIndexMask  = (uint64(1) << worldIndexBits) - 1

	flagsShift = 40
	flagsBits  = 8
	flagsMask  = (uint64(1) << flagsBits) - 1

	keyTagShift = 48
	keyTagBits  = 8
	keyTagMask  = (uint64(1) << keyTagBits) - 1

	tailShift = 56
	tailBits  = 8
	tailMask  = (uint64(1) << tailBits) - 1

	// GlobalWorldIndex is the sentinel world-index class used by
	// identities that are not scoped to a live entity slot.
	GlobalWorldIndex uint8 = 255

	// MaxGeneration is the largest value the 8-bit generation field can
	// hold. Successor cycles generations through 1..MaxGeneration-1 and
	// never produces zero.
	MaxGeneration uint8 = 255
)

// keyTag values mirror the secondary-key discriminant described in §3/§4.2
// of the specification. They classify the *kind* of Identity this packed
// value represents, independent of Kind (which is derived, not stored).
const (
	keyTagNone uint64 = iota
	keyTagEntityRelation
	keyTagObjectLink
	keyTagHashKey
	keyTagPlainTarget
	keyTagWildcard
)

func packIdentity(index uint32, worldIndex uint8, flags uint8, keyTag uint64, tail uint8) Identity {
	v := uint64(index) & identityIndexMask
	v |= (uint64(worldIndex) & worldIndexMask) << worldIndexShift
	v |= (uint64(flags) & flagsMask) << flagsShift
	v |= (keyTag & keyTagMask) << keyTagShift
	v |= (uint64(tail) & tailMask) << tailShift
	return Identity(v)
}

func (id Identity) index() uint32      { return uint32(uint64(id) & identityIndexMask) }
func (id Identity) worldIndex() uint8  { return uint8((uint64(id) >> worldIndexShift) & worldIndexMask) }
func (id Identity) keyTag() uint64     { return (uint64(id) >> keyTagShift) & keyTagMask }
func (id Identity) tail() uint8        { return uint8((uint64(id) >> tailShift) & tailMask) }

// Index returns the packed slot/hash portion of the identity.
func (id Identity) Index() uint32 { return id.index() }

// IsZero reports whether id is the None identity (the zero value).
func (id Identity) IsZero() bool { return id == 0 }

// Kind classifies the identity's logical variant.
func (id Identity) Kind() Kind {
	if id == 0 {
		return KindNone
	}
	switch id.keyTag() {
	case keyTagEntityRelation:
		return KindEntity
	case keyTagObjectLink:
		return KindObject
	case keyTagHashKey:
		return KindHash
	case keyTagWildcard:
		return KindWildcard
	default:
		// Plain entities also use keyTagNone as their own identity;
		// an Identity naming an entity (not a relation target) is
		// distinguished by construction, not by key tag, since an
		// entity's own Identity carries no secondary key at all.
		return KindEntity
	}
}

// Generation returns the entity generation counter. Only meaningful for
// entity identities.
func (id Identity) Generation() uint8 { return id.tail() }

// WildcardKind returns the wildcard variant carried by a wildcard
// identity. Only meaningful when Kind() == KindWildcard.
func (id Identity) WildcardKind() WildcardKind { return WildcardKind(id.tail()) }

// ConstructEntity builds the packed Identity for a live entity slot.
func ConstructEntity(worldIndex uint8, slot uint32, generation uint8) Identity {
	return packIdentity(slot, worldIndex, 0, keyTagNone, generation)
}

// Successor returns the next generation value for a recycled entity slot:
// (gen mod (MaxGeneration-1)) + 1, cycling through 1..MaxGeneration-1 and
// never landing on zero. Returns InvalidIdentityKind if id is not an
// entity identity.
func (id Identity) Successor() (Identity, error) {
	if id.Kind() != KindEntity {
		return 0, errors.Wrapf(ErrInvalidIdentityKind, "Successor: identity kind %s", id.Kind())
	}
	next := (id.tail() % (MaxGeneration - 1)) + 1
	return packIdentity(id.index(), id.worldIndex(), 0, keyTagNone, next), nil
}

// ConstructObjectLink builds the packed Identity for an object-link
// secondary key, given the stable language-type id for T and a hash of
// the linked object's identity. Object-link identities are never
// dereferenced by the core; only the hash-derived identity is stored.
func ConstructObjectLink(typeID uint8, objectHash uint32) Identity {
	return packIdentity(objectHash, GlobalWorldIndex, 0, keyTagObjectLink, typeID)
}

// ConstructHashKey builds the packed Identity for a strongly-typed hash
// secondary key, given the stable language-type id for K and a hash of k.
func ConstructHashKey(typeID uint8, hash uint32) Identity {
	return packIdentity(hash, GlobalWorldIndex, 0, keyTagHashKey, typeID)
}

// ConstructWildcard builds one of the five wildcard identities used only
// in queries; wildcards are never stored in archetypes.
func ConstructWildcard(kind WildcardKind) Identity {
	return packIdentity(0, GlobalWorldIndex, 0, keyTagWildcard, uint8(kind))
}

// HashObject hashes an arbitrary comparable payload for use as the slot of
// an object-link or hash-key Identity. Callers typically hash a stable
// byte encoding of the object or key; HashObject itself just wraps xxhash
// so all secondary-key hashing in the module goes through one algorithm.
func HashObject(data []byte) uint32 {
	return uint32(xxhash.Sum64(data))
}

// String renders the identity for debugging only; never parsed back.
func (id Identity) String() string {
	switch id.Kind() {
	case KindNone:
		return "Identity(none)"
	case KindEntity:
		return fmt.Sprintf("Entity(world=%d, slot=%d, gen=%d)", id.worldIndex(), id.index(), id.tail())
	case KindObject:
		return fmt.Sprintf("Object(type=%d, hash=%#x)", id.tail(), id.index())
	case KindHash:
		return fmt.Sprintf("Hash(type=%d, hash=%#x)", id.tail(), id.index())
	case KindWildcard:
		return fmt.Sprintf("Wildcard(%d)", id.tail())
	default:
		return "Identity(?)"
	}
}

// ParseIdentity recovers the packed fields of an Identity for debug
// tooling. It is not a general-purpose serialization format.
func ParseIdentity(id Identity) (kind Kind, worldIndex uint8, index uint32, tail uint8) {
	return id.Kind(), id.worldIndex(), id.index(), id.tail()
}
