// Package location implements MemoryLocation, the bit-range addressing
// primitive the dataflow analyzer uses to name where a term reads or
// writes: a (domain, bit-offset, bit-size) triple.
package location

import (
	"fmt"

	"github.com/fatih/color"
)

// colorize mirrors the teacher's singleton-of-closures pretty-printing
// pattern, one color per memory domain.
var colorize = struct {
	Memory   func(...interface{}) string
	Stack    func(...interface{}) string
	Register func(...interface{}) string
	Other    func(...interface{}) string
}{
	Memory:   color.New(color.FgHiYellow).SprintFunc(),
	Stack:    color.New(color.FgHiGreen).SprintFunc(),
	Register: color.New(color.FgHiCyan).SprintFunc(),
	Other:    color.New(color.FgHiWhite, color.Faint).SprintFunc(),
}

// Domain names one of the small closed set of address spaces a
// MemoryLocation can live in. Architectures may extend it past Register
// with their own domain codes (e.g. distinct register banks); the
// analyzer itself only ever special-cases Memory and Stack.
type Domain uint8

const (
	// Memory is ordinary byte-addressed memory ("the heap", globals,
	// anything reached by a concrete address).
	Memory Domain = iota
	// Stack is the local stack frame, addressed relative to a
	// known-zero stack pointer.
	Stack
	// Register is the architectural register bank. Register addresses
	// are already bit offsets, unlike Memory addresses which are byte
	// offsets scaled to bits on resolution (see dflow's dereference
	// handling).
	Register
)

func (d Domain) String() string {
	switch d {
	case Memory:
		return colorize.Memory("mem")
	case Stack:
		return colorize.Stack("stack")
	case Register:
		return colorize.Register("reg")
	default:
		return colorize.Other(fmt.Sprintf("domain%d", uint8(d)))
	}
}

// ByteOrder is the endianness an Architecture reads/writes memory with.
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (b ByteOrder) String() string {
	if b == BigEndian {
		return "big-endian"
	}
	return "little-endian"
}

// MemoryLocation is a bit-range: domain, bit offset, bit size. The zero
// value is the empty location, returned when a dereference's address
// cannot be resolved; it compares unequal to every non-empty location.
type MemoryLocation struct {
	domain Domain
	addr   uint64
	size   uint64
	valid  bool
}

// New constructs a non-empty MemoryLocation.
func New(domain Domain, addr, size uint64) MemoryLocation {
	return MemoryLocation{domain: domain, addr: addr, size: size, valid: true}
}

// Empty is the null location.
func Empty() MemoryLocation { return MemoryLocation{} }

func (l MemoryLocation) IsEmpty() bool  { return !l.valid }
func (l MemoryLocation) Domain() Domain { return l.domain }
func (l MemoryLocation) Addr() uint64   { return l.addr }
func (l MemoryLocation) Size() uint64   { return l.size }
func (l MemoryLocation) EndAddr() uint64 { return l.addr + l.size }

// Covers reports whether l fully contains other: same domain, and
// other's bit range is a subset of l's.
func (l MemoryLocation) Covers(other MemoryLocation) bool {
	if l.IsEmpty() || other.IsEmpty() {
		return false
	}
	if l.domain != other.domain {
		return false
	}
	return other.addr >= l.addr && other.EndAddr() <= l.EndAddr()
}

// Overlaps reports whether l and other share any bit, in the same domain.
func (l MemoryLocation) Overlaps(other MemoryLocation) bool {
	if l.IsEmpty() || other.IsEmpty() || l.domain != other.domain {
		return false
	}
	return l.addr < other.EndAddr() && other.addr < l.EndAddr()
}

// Equal reports structural equality. Two empty locations are equal to
// each other; an empty location is never equal to a non-empty one.
func (l MemoryLocation) Equal(other MemoryLocation) bool {
	if l.valid != other.valid {
		return false
	}
	if !l.valid {
		return true
	}
	return l.domain == other.domain && l.addr == other.addr && l.size == other.size
}

func (l MemoryLocation) String() string {
	if l.IsEmpty() {
		return colorize.Other("<empty>")
	}
	return fmt.Sprintf("%s[%d:%d)", l.domain, l.addr, l.EndAddr())
}
