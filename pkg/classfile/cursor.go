package classfile

import "fmt"

// cursor is a read position over an in-memory byte slice. All reads are
// big-endian, matching the class file format's wire order. Unlike the
// io.Reader based parsing the teacher used, a cursor lets the instruction
// decoder look back at the byte position it started an instruction from,
// which branch-offset remapping needs.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

func (c *cursor) need(n int) error {
	if c.remaining() < n {
		return fmt.Errorf("unexpected end of data at offset %d: need %d bytes, have %d", c.pos, n, c.remaining())
	}
	return nil
}

func (c *cursor) readU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) readI8() (int8, error) {
	v, err := c.readU8()
	return int8(v), err
}

func (c *cursor) readU16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := uint16(c.data[c.pos])<<8 | uint16(c.data[c.pos+1])
	c.pos += 2
	return v, nil
}

func (c *cursor) readI16() (int16, error) {
	v, err := c.readU16()
	return int16(v), err
}

func (c *cursor) readU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := uint32(c.data[c.pos])<<24 | uint32(c.data[c.pos+1])<<16 |
		uint32(c.data[c.pos+2])<<8 | uint32(c.data[c.pos+3])
	c.pos += 4
	return v, nil
}

func (c *cursor) readI32() (int32, error) {
	v, err := c.readU32()
	return int32(v), err
}

func (c *cursor) readU64() (uint64, error) {
	hi, err := c.readU32()
	if err != nil {
		return 0, err
	}
	lo, err := c.readU32()
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

func (c *cursor) readI64() (int64, error) {
	v, err := c.readU64()
	return int64(v), err
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, c.data[c.pos:c.pos+n])
	c.pos += n
	return b, nil
}

func (c *cursor) skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}
