// Package zobject implements the version-aware object tree: parent,
// sibling and child pointers, attribute bitfields, and the
// variable-length property tables that hang off each object.
package zobject

import (
	"github.com/mossgarden/zmcore/vmerror"
	"github.com/mossgarden/zmcore/zcore"
	"github.com/mossgarden/zmcore/zstring"
)

// Tree is a version-aware view onto the object table embedded in a
// story's memory image.
type Tree struct {
	core            *zcore.Core
	alphabets       *zstring.Alphabets
	unicode         *zstring.UnicodeTables
	large           bool
	attributeCount  int
	maxObject       int
	defaultsBase    uint32
	objectTableBase uint32
	recordSize      uint32
}

// NewTree computes the object table base from the property defaults
// table address in the header (0x0A) and the version's defaults-table
// width, per the Z-machine's "defaults table precedes object records"
// layout.
func NewTree(core *zcore.Core, alphabets *zstring.Alphabets, unicode *zstring.UnicodeTables) (*Tree, error) {
	defaultsBase := uint32(core.ObjectTableBase)
	if defaultsBase < 64 {
		return nil, vmerror.NewHeaderViolation("object table base points inside the header")
	}

	large := core.Version >= 4
	defaultsCount := uint32(31)
	recordSize := uint32(9)
	attributeCount := 32
	maxObject := 255
	if large {
		defaultsCount = 63
		recordSize = 14
		attributeCount = 48
		maxObject = 65535
	}

	return &Tree{
		core:            core,
		alphabets:       alphabets,
		unicode:         unicode,
		large:           large,
		attributeCount:  attributeCount,
		maxObject:       maxObject,
		defaultsBase:    defaultsBase,
		objectTableBase: defaultsBase + defaultsCount*2,
		recordSize:      recordSize,
	}, nil
}

func (t *Tree) checkObject(obj int) error {
	if obj <= 0 || obj > t.maxObject {
		return vmerror.NewBadObject(obj)
	}
	return nil
}

func (t *Tree) objectAddr(obj int) uint32 {
	return t.objectTableBase + uint32(obj-1)*t.recordSize
}

// GetName decodes the object's short name from its property table.
func (t *Tree) GetName(obj int) (string, error) {
	propTable, err := t.propertyTableAddr(obj)
	if err != nil {
		return "", err
	}
	nameLen, err := t.core.GetByte(propTable)
	if err != nil {
		return "", err
	}
	if nameLen == 0 {
		return "", nil
	}
	text, _, err := zstring.Decode(t.core, t.alphabets, t.unicode, t.core.AbbreviationTableBase, true, propTable+1)
	return text, err
}

func (t *Tree) propertyTableAddr(obj int) (uint32, error) {
	if err := t.checkObject(obj); err != nil {
		return 0, err
	}
	addr := t.objectAddr(obj)
	offset := uint32(7)
	if t.large {
		offset = 12
	}
	v, err := t.core.GetU16(addr + offset)
	return uint32(v), err
}

func (t *Tree) getPointer(obj int, smallOffset, largeOffset uint32) (int, error) {
	if err := t.checkObject(obj); err != nil {
		return 0, err
	}
	addr := t.objectAddr(obj)
	if t.large {
		v, err := t.core.GetU16(addr + largeOffset)
		return int(v), err
	}
	v, err := t.core.GetByte(addr + smallOffset)
	return int(v), err
}

func (t *Tree) setPointer(obj int, smallOffset, largeOffset uint32, value int) error {
	if err := t.checkObject(obj); err != nil {
		return err
	}
	addr := t.objectAddr(obj)
	if t.large {
		return t.core.SetU16(addr+largeOffset, uint16(value))
	}
	return t.core.SetByte(addr+smallOffset, uint8(value))
}

func (t *Tree) GetParent(obj int) (int, error)  { return t.getPointer(obj, 4, 6) }
func (t *Tree) GetSibling(obj int) (int, error) { return t.getPointer(obj, 5, 8) }
func (t *Tree) GetChild(obj int) (int, error)   { return t.getPointer(obj, 6, 10) }

func (t *Tree) setParentRaw(obj, v int) error  { return t.setPointer(obj, 4, 6, v) }
func (t *Tree) setSiblingRaw(obj, v int) error { return t.setPointer(obj, 5, 8, v) }
func (t *Tree) setChildRaw(obj, v int) error   { return t.setPointer(obj, 6, 10, v) }

// SetParent detaches obj from its current parent's child chain, then
// prepends it to newParent's children (or simply clears its sibling
// pointer when newParent is 0). It is a no-op when obj is already a
// direct child of newParent with no preceding sibling removal needed.
func (t *Tree) SetParent(obj, newParent int) error {
	if err := t.checkObject(obj); err != nil {
		return err
	}
	if newParent != 0 {
		if err := t.checkObject(newParent); err != nil {
			return err
		}
	}

	oldParent, err := t.GetParent(obj)
	if err != nil {
		return err
	}

	if oldParent != 0 {
		firstChild, err := t.GetChild(oldParent)
		if err != nil {
			return err
		}
		objSibling, err := t.GetSibling(obj)
		if err != nil {
			return err
		}
		if firstChild == obj {
			if err := t.setChildRaw(oldParent, objSibling); err != nil {
				return err
			}
		} else {
			cur := firstChild
			for {
				if cur == 0 {
					return vmerror.NewBadObject(obj)
				}
				sib, err := t.GetSibling(cur)
				if err != nil {
					return err
				}
				if sib == obj {
					if err := t.setSiblingRaw(cur, objSibling); err != nil {
						return err
					}
					break
				}
				cur = sib
			}
		}
	}

	if newParent == 0 {
		if err := t.setSiblingRaw(obj, 0); err != nil {
			return err
		}
		return t.setParentRaw(obj, 0)
	}

	newParentFirstChild, err := t.GetChild(newParent)
	if err != nil {
		return err
	}
	if err := t.setSiblingRaw(obj, newParentFirstChild); err != nil {
		return err
	}
	if err := t.setChildRaw(newParent, obj); err != nil {
		return err
	}
	return t.setParentRaw(obj, newParent)
}

func (t *Tree) attributeAddr(obj, attribute int) (uint32, uint8, error) {
	if err := t.checkObject(obj); err != nil {
		return 0, 0, err
	}
	if attribute < 0 || attribute >= t.attributeCount {
		return 0, 0, vmerror.NewBadAttribute(attribute)
	}
	addr := t.objectAddr(obj) + uint32(attribute/8)
	mask := uint8(0x80) >> uint(attribute%8)
	return addr, mask, nil
}

func (t *Tree) TestAttribute(obj, attribute int) (bool, error) {
	addr, mask, err := t.attributeAddr(obj, attribute)
	if err != nil {
		return false, err
	}
	b, err := t.core.GetByte(addr)
	if err != nil {
		return false, err
	}
	return b&mask == mask, nil
}

func (t *Tree) SetAttribute(obj, attribute int) error {
	addr, mask, err := t.attributeAddr(obj, attribute)
	if err != nil {
		return err
	}
	b, err := t.core.GetByte(addr)
	if err != nil {
		return err
	}
	return t.core.SetByte(addr, b|mask)
}

func (t *Tree) ClearAttribute(obj, attribute int) error {
	addr, mask, err := t.attributeAddr(obj, attribute)
	if err != nil {
		return err
	}
	b, err := t.core.GetByte(addr)
	if err != nil {
		return err
	}
	return t.core.SetByte(addr, b&^mask)
}

func (t *Tree) maxProperty() int {
	if t.large {
		return 63
	}
	return 31
}

func (t *Tree) GetDefaultProperty(property int) (uint16, error) {
	if property < 1 || property > t.maxProperty() {
		return 0, vmerror.NewBadProperty(0, property)
	}
	return t.core.GetU16(t.defaultsBase + uint32(property-1)*2)
}
