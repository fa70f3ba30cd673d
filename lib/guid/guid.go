// Package guid provides the 16-byte identifier that names a device class,
// together with its canonical braced text form.
//
// The field structure (one 32-bit, two 16-bit and eight 8-bit fields) follows
// the external binary specification, so a GUID can be handed to modules that
// were built against that layout. The text form is
//
//	{xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx}
//
// and is accepted case-insensitively and always emitted in lowercase.
package guid

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Size is the length of a GUID in bytes.
const Size = 16

// textLen is the length of the canonical braced form.
const textLen = 38

// ErrInvalid is returned when text or binary input is not a GUID.
var ErrInvalid = errors.New("guid: invalid identity")

// GUID is a globally unique class identifier.
// Two GUIDs are equal when all their bytes are equal, so the type is
// comparable with ==.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// Nil is the zero GUID. Parse returns it on failure.
var Nil GUID

// Parse decodes the canonical braced form. Braces are mandatory and every
// group must have its full width. On failure Parse returns Nil and an error
// wrapping ErrInvalid.
func Parse(s string) (GUID, error) {
	if len(s) != textLen || s[0] != '{' || s[textLen-1] != '}' {
		return Nil, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	u, err := uuid.Parse(s[1 : textLen-1])
	if err != nil {
		return Nil, fmt.Errorf("%w: %q: %v", ErrInvalid, s, err)
	}
	return FromUUID(u), nil
}

// MustParse is like Parse but panics on malformed input. It is meant for
// instance tables compiled into a module.
func MustParse(s string) GUID {
	g, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return g
}

// New returns a fresh random GUID.
func New() (GUID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return Nil, fmt.Errorf("failed to generate identity: %w", err)
	}
	return FromUUID(u), nil
}

// FromUUID converts an RFC 4122 byte-ordered UUID into the field structure.
func FromUUID(u uuid.UUID) GUID {
	g := GUID{
		Data1: binary.BigEndian.Uint32(u[0:4]),
		Data2: binary.BigEndian.Uint16(u[4:6]),
		Data3: binary.BigEndian.Uint16(u[6:8]),
	}
	copy(g.Data4[:], u[8:16])
	return g
}

// UUID returns the GUID in RFC 4122 byte order.
func (g GUID) UUID() uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint32(u[0:4], g.Data1)
	binary.BigEndian.PutUint16(u[4:6], g.Data2)
	binary.BigEndian.PutUint16(u[6:8], g.Data3)
	copy(u[8:16], g.Data4[:])
	return u
}

// String returns the canonical lowercase braced form.
func (g GUID) String() string {
	return "{" + g.UUID().String() + "}"
}

// IsNil reports whether g is the zero GUID.
func (g GUID) IsNil() bool {
	return g == Nil
}

// Bytes returns the 16-byte in-memory layout used by the binary
// specification: Data1, Data2 and Data3 little-endian, followed by Data4.
func (g GUID) Bytes() [Size]byte {
	var b [Size]byte
	binary.LittleEndian.PutUint32(b[0:4], g.Data1)
	binary.LittleEndian.PutUint16(b[4:6], g.Data2)
	binary.LittleEndian.PutUint16(b[6:8], g.Data3)
	copy(b[8:16], g.Data4[:])
	return b
}

// FromBytes is the inverse of Bytes.
func FromBytes(b [Size]byte) GUID {
	g := GUID{
		Data1: binary.LittleEndian.Uint32(b[0:4]),
		Data2: binary.LittleEndian.Uint16(b[4:6]),
		Data3: binary.LittleEndian.Uint16(b[6:8]),
	}
	copy(g.Data4[:], b[8:16])
	return g
}

// MarshalBinary encodes g in the layout returned by Bytes.
func (g GUID) MarshalBinary() ([]byte, error) {
	b := g.Bytes()
	return b[:], nil
}

// UnmarshalBinary decodes the layout produced by MarshalBinary.
func (g *GUID) UnmarshalBinary(data []byte) error {
	if len(data) != Size {
		*g = Nil
		return fmt.Errorf("%w: need %d bytes, got %d", ErrInvalid, Size, len(data))
	}
	var b [Size]byte
	copy(b[:], data)
	*g = FromBytes(b)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (g GUID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. On failure g is set
// to Nil.
func (g *GUID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	*g = parsed
	return err
}

// Equal compares two possibly absent identities. Two absent identities are
// equal; an absent identity never equals a present one.
func Equal(a, b *GUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
