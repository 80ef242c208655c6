// Package vmerror defines the single tagged failure type every layer
// of the interpreter returns instead of panicking. A VmFailure is
// always fatal to the enclosing execute() invocation: the caller's
// loop exits and the failure is surfaced to the UI boundary.
package vmerror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	StackOverflow Kind = iota
	StackUnderflow
	BadLocal
	BadVariable
	BadObject
	BadAttribute
	BadProperty
	PropertyWrongSize
	HeaderViolation
	IllegalInstruction
	DivisionByZero
	ReturnFromTop
	MemoryOutOfRange
	WriteToStaticMemory
	SnapshotMismatch
	EncodingError
)

func (k Kind) String() string {
	switch k {
	case StackOverflow:
		return "StackOverflow"
	case StackUnderflow:
		return "StackUnderflow"
	case BadLocal:
		return "BadLocal"
	case BadVariable:
		return "BadVariable"
	case BadObject:
		return "BadObject"
	case BadAttribute:
		return "BadAttribute"
	case BadProperty:
		return "BadProperty"
	case PropertyWrongSize:
		return "PropertyWrongSize"
	case HeaderViolation:
		return "HeaderViolation"
	case IllegalInstruction:
		return "IllegalInstruction"
	case DivisionByZero:
		return "DivisionByZero"
	case ReturnFromTop:
		return "ReturnFromTop"
	case MemoryOutOfRange:
		return "MemoryOutOfRange"
	case WriteToStaticMemory:
		return "WriteToStaticMemory"
	case SnapshotMismatch:
		return "SnapshotMismatch"
	case EncodingError:
		return "EncodingError"
	default:
		return "Unknown"
	}
}

// VmFailure is the tagged failure every component returns. Most fields
// are only meaningful for some Kinds; see the constructors below.
type VmFailure struct {
	Kind     Kind
	Addr     uint32
	Index    int
	Count    int
	Number   int
	Object   int
	Opcode   uint8
	Extended bool
	detail   string
}

func (e *VmFailure) Error() string {
	switch e.Kind {
	case BadLocal:
		return fmt.Sprintf("bad local variable %d (routine has %d)", e.Index, e.Count)
	case BadVariable:
		return fmt.Sprintf("bad variable number %d", e.Number)
	case BadObject:
		return fmt.Sprintf("bad object number %d", e.Number)
	case BadAttribute:
		return fmt.Sprintf("bad attribute number %d", e.Number)
	case BadProperty:
		return fmt.Sprintf("object %d has no property %d", e.Object, e.Number)
	case IllegalInstruction:
		if e.Extended {
			return fmt.Sprintf("illegal extended opcode 0x%x", e.Opcode)
		}
		return fmt.Sprintf("illegal opcode 0x%x", e.Opcode)
	case MemoryOutOfRange:
		return fmt.Sprintf("memory access out of range at 0x%x", e.Addr)
	case WriteToStaticMemory:
		return fmt.Sprintf("write to static memory at 0x%x", e.Addr)
	case HeaderViolation, SnapshotMismatch, EncodingError:
		return fmt.Sprintf("%s: %s", e.Kind, e.detail)
	default:
		if e.detail != "" {
			return fmt.Sprintf("%s: %s", e.Kind, e.detail)
		}
		return e.Kind.String()
	}
}

// Is reports whether target is a *VmFailure with the same Kind,
// letting callers write errors.Is(err, vmerror.New(vmerror.StackOverflow)).
func (e *VmFailure) Is(target error) bool {
	var other *VmFailure
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

func New(kind Kind) *VmFailure { return &VmFailure{Kind: kind} }

func NewStackOverflow() *VmFailure  { return &VmFailure{Kind: StackOverflow} }
func NewStackUnderflow() *VmFailure { return &VmFailure{Kind: StackUnderflow} }

func NewBadLocal(index, count int) *VmFailure {
	return &VmFailure{Kind: BadLocal, Index: index, Count: count}
}

func NewBadVariable(number int) *VmFailure {
	return &VmFailure{Kind: BadVariable, Number: number}
}

func NewBadObject(number int) *VmFailure {
	return &VmFailure{Kind: BadObject, Number: number}
}

func NewBadAttribute(number int) *VmFailure {
	return &VmFailure{Kind: BadAttribute, Number: number}
}

func NewBadProperty(object, number int) *VmFailure {
	return &VmFailure{Kind: BadProperty, Object: object, Number: number}
}

func NewPropertyWrongSize(object, number int) *VmFailure {
	return &VmFailure{Kind: PropertyWrongSize, Object: object, Number: number}
}

func NewHeaderViolation(detail string) *VmFailure {
	return &VmFailure{Kind: HeaderViolation, detail: detail}
}

func NewIllegalInstruction(opcode uint8, extended bool) *VmFailure {
	return &VmFailure{Kind: IllegalInstruction, Opcode: opcode, Extended: extended}
}

func NewDivisionByZero() *VmFailure { return &VmFailure{Kind: DivisionByZero} }
func NewReturnFromTop() *VmFailure  { return &VmFailure{Kind: ReturnFromTop} }

func NewMemoryOutOfRange(addr uint32) *VmFailure {
	return &VmFailure{Kind: MemoryOutOfRange, Addr: addr}
}

func NewWriteToStaticMemory(addr uint32) *VmFailure {
	return &VmFailure{Kind: WriteToStaticMemory, Addr: addr}
}

func NewSnapshotMismatch(detail string) *VmFailure {
	return &VmFailure{Kind: SnapshotMismatch, detail: detail}
}

func NewEncodingError(detail string) *VmFailure {
	return &VmFailure{Kind: EncodingError, detail: detail}
}
