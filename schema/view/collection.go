package view

import "fmt"

// CollectionKind describes the shape of a collection-valued field.
type CollectionKind uint8

// Collection kinds.
const (
	KindUnknown CollectionKind = iota
	KindList
	KindSet
	KindMap
	KindCollection
)

var kindNames = [...]string{
	KindUnknown:    "unknown",
	KindList:       "list",
	KindSet:        "set",
	KindMap:        "map",
	KindCollection: "collection",
}

// String returns the lower-case name of the kind.
func (k CollectionKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("invalid_kind_%d", k)
	}
	return kindNames[k]
}

// Valid reports if the kind is one of the declared kinds.
func (k CollectionKind) Valid() bool {
	return int(k) < len(kindNames)
}

// MarshalText implements encoding.TextMarshaler.
func (k CollectionKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("view: invalid collection kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *CollectionKind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseKind returns the collection kind named by s.
func ParseKind(s string) (CollectionKind, error) {
	for i, name := range kindNames {
		if name == s {
			return CollectionKind(i), nil
		}
	}
	return KindUnknown, fmt.Errorf("view: unknown collection kind %q", s)
}

// CollectionType classifies how a collection is backed.
type CollectionType uint8

// Collection types.
const (
	// Persistent collections are backed by the entity model and can be
	// traversed by query builders.
	Persistent CollectionType = iota
	// Transient collections exist only on the projection and are filled
	// in at runtime.
	Transient
)

var collectionTypeNames = [...]string{
	Persistent: "persistent",
	Transient:  "transient",
}

// String returns the lower-case name of the collection type.
func (t CollectionType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("invalid_type_%d", t)
	}
	return collectionTypeNames[t]
}

// Valid reports if the collection type is one of the declared types.
func (t CollectionType) Valid() bool {
	return int(t) < len(collectionTypeNames)
}

// MarshalText implements encoding.TextMarshaler.
func (t CollectionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("view: invalid collection type %d", t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *CollectionType) UnmarshalText(text []byte) error {
	ct, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = ct
	return nil
}

// ParseType returns the collection type named by s.
func ParseType(s string) (CollectionType, error) {
	for i, name := range collectionTypeNames {
		if name == s {
			return CollectionType(i), nil
		}
	}
	return Persistent, fmt.Errorf("view: unknown collection type %q", s)
}

// CollectionInfo is the minimal collection shape attached to a direct
// mapping. The richer persistence-side representation, including the
// mapped-by and order-by attributes, lives on the entity metadata.
type CollectionInfo struct {
	Kind CollectionKind `json:"kind"`
	Type CollectionType `json:"type"`
}

// String returns a "kind/type" rendering, e.g. "list/persistent".
func (c CollectionInfo) String() string {
	return c.Kind.String() + "/" + c.Type.String()
}
