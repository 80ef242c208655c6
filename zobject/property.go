package zobject

import "github.com/mossgarden/zmcore/vmerror"

// propertyEntry describes one decoded property-list entry: its number,
// the length of its data, how many size-prefix bytes preceded it, and
// the address of its first data byte.
type propertyEntry struct {
	number     int
	dataLen    int
	headerSize int
	dataAddr   uint32
}

func (t *Tree) firstPropertyAddr(obj int) (uint32, error) {
	propTable, err := t.propertyTableAddr(obj)
	if err != nil {
		return 0, err
	}
	nameLen, err := t.core.GetByte(propTable)
	if err != nil {
		return 0, err
	}
	return propTable + 1 + uint32(nameLen)*2, nil
}

func (t *Tree) readPropertyEntry(addr uint32) (propertyEntry, error) {
	sizeByte, err := t.core.GetByte(addr)
	if err != nil {
		return propertyEntry{}, err
	}

	if !t.large {
		return propertyEntry{
			number:     int(sizeByte & 0x1F),
			dataLen:    int(sizeByte>>5) + 1,
			headerSize: 1,
			dataAddr:   addr + 1,
		}, nil
	}

	if sizeByte&0x80 != 0 {
		lenByte, err := t.core.GetByte(addr + 1)
		if err != nil {
			return propertyEntry{}, err
		}
		length := int(lenByte & 0x3F)
		if length == 0 {
			length = 64
		}
		return propertyEntry{
			number:     int(sizeByte & 0x3F),
			dataLen:    length,
			headerSize: 2,
			dataAddr:   addr + 2,
		}, nil
	}

	length := 1
	if sizeByte&0x40 != 0 {
		length = 2
	}
	return propertyEntry{
		number:     int(sizeByte & 0x3F),
		dataLen:    length,
		headerSize: 1,
		dataAddr:   addr + 1,
	}, nil
}

// GetPropertyAddress returns the address of property's data, or 0 if
// the object has no such property.
func (t *Tree) GetPropertyAddress(obj, property int) (uint32, error) {
	addr, err := t.firstPropertyAddr(obj)
	if err != nil {
		return 0, err
	}
	for {
		sizeByte, err := t.core.GetByte(addr)
		if err != nil {
			return 0, err
		}
		if sizeByte == 0 {
			return 0, nil
		}
		entry, err := t.readPropertyEntry(addr)
		if err != nil {
			return 0, err
		}
		if entry.number == property {
			return entry.dataAddr, nil
		}
		if entry.number < property {
			return 0, nil // descending order: can't appear further on
		}
		addr = entry.dataAddr + uint32(entry.dataLen)
	}
}

// GetNextProperty returns the property number following property (0
// meaning "the first property"), or 0 if there is none.
func (t *Tree) GetNextProperty(obj, property int) (int, error) {
	addr, err := t.firstPropertyAddr(obj)
	if err != nil {
		return 0, err
	}

	if property == 0 {
		sizeByte, err := t.core.GetByte(addr)
		if err != nil {
			return 0, err
		}
		if sizeByte == 0 {
			return 0, nil
		}
		entry, err := t.readPropertyEntry(addr)
		return entry.number, err
	}

	for {
		sizeByte, err := t.core.GetByte(addr)
		if err != nil {
			return 0, err
		}
		if sizeByte == 0 {
			return 0, vmerror.NewBadProperty(obj, property)
		}
		entry, err := t.readPropertyEntry(addr)
		if err != nil {
			return 0, err
		}
		next := entry.dataAddr + uint32(entry.dataLen)
		if entry.number == property {
			nextSizeByte, err := t.core.GetByte(next)
			if err != nil {
				return 0, err
			}
			if nextSizeByte == 0 {
				return 0, nil
			}
			nextEntry, err := t.readPropertyEntry(next)
			return nextEntry.number, err
		}
		addr = next
	}
}

// GetPropertyLength returns the length of the property whose data
// begins at propertyDataAddr, read from the size byte(s) immediately
// preceding it. A data address of 0 yields length 0 (used by the
// get_prop_addr/get_prop_len idiom for "no such property").
func (t *Tree) GetPropertyLength(propertyDataAddr uint32) (int, error) {
	if propertyDataAddr == 0 {
		return 0, nil
	}
	prevByte, err := t.core.GetByte(propertyDataAddr - 1)
	if err != nil {
		return 0, err
	}
	if !t.large {
		return int(prevByte>>5) + 1, nil
	}
	if prevByte&0x80 != 0 {
		length := int(prevByte & 0x3F)
		if length == 0 {
			return 64, nil
		}
		return length, nil
	}
	return int((prevByte>>6)&1) + 1, nil
}

// GetProperty returns the property's value (1 or 2 bytes, big-endian),
// falling back to the defaults table when the object has no such
// property of its own.
func (t *Tree) GetProperty(obj, property int) (uint16, error) {
	addr, err := t.GetPropertyAddress(obj, property)
	if err != nil {
		return 0, err
	}
	if addr == 0 {
		return t.GetDefaultProperty(property)
	}
	length, err := t.GetPropertyLength(addr)
	if err != nil {
		return 0, err
	}
	switch length {
	case 1:
		b, err := t.core.GetByte(addr)
		return uint16(b), err
	case 2:
		return t.core.GetU16(addr)
	default:
		return 0, vmerror.NewPropertyWrongSize(obj, property)
	}
}

// PutProperty writes value into an existing property of length 1 or 2.
func (t *Tree) PutProperty(obj, property int, value uint16) error {
	addr, err := t.GetPropertyAddress(obj, property)
	if err != nil {
		return err
	}
	if addr == 0 {
		return vmerror.NewBadProperty(obj, property)
	}
	length, err := t.GetPropertyLength(addr)
	if err != nil {
		return err
	}
	switch length {
	case 1:
		return t.core.SetByte(addr, uint8(value))
	case 2:
		return t.core.SetU16(addr, value)
	default:
		return vmerror.NewPropertyWrongSize(obj, property)
	}
}
