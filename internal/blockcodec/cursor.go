package blockcodec

import (
	"encoding/binary"

	"github.com/timelinedb/timeline/pkg/vcserrors"
)

// byteOrderFunc is an alias of binary.ByteOrder: parser helpers take
// the file's byte order directly rather than threading FileHeader
// through every call.
type byteOrderFunc = binary.ByteOrder

// cursor is a minimal forward-only reader over an in-memory byte
// slice, used while parsing the SDNA catalog. It never copies the
// backing slice.
type cursor struct {
	b   []byte
	pos int
}

func (c *cursor) remaining() int { return len(c.b) - c.pos }

func (c *cursor) need(n int) error {
	if n < 0 || c.remaining() < n {
		return vcserrors.Newf(vcserrors.MalformedFile, "unexpected end of SDNA data at offset %d, need %d bytes", c.pos, n)
	}
	return nil
}

func (c *cursor) expectTag(tag string) error {
	if err := c.need(4); err != nil {
		return err
	}
	got := string(c.b[c.pos : c.pos+4])
	if got != tag {
		return vcserrors.Newf(vcserrors.MalformedFile, "expected SDNA tag %q, got %q at offset %d", tag, got, c.pos)
	}
	c.pos += 4
	return nil
}

func (c *cursor) int32(order byteOrderFunc) (int32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := int32(order.Uint32(c.b[c.pos : c.pos+4]))
	c.pos += 4
	return v, nil
}

func (c *cursor) uint16(order byteOrderFunc) (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := order.Uint16(c.b[c.pos : c.pos+2])
	c.pos += 2
	return v, nil
}

func (c *cursor) cString() (string, error) {
	start := c.pos
	for c.pos < len(c.b) {
		if c.b[c.pos] == 0 {
			s := string(c.b[start:c.pos])
			c.pos++
			return s, nil
		}
		c.pos++
	}
	return "", vcserrors.New(vcserrors.MalformedFile, "unterminated string in SDNA data")
}

// align4 advances pos to the next 4-byte boundary, matching the
// padding the host inserts between SDNA sections.
func (c *cursor) align4() {
	if rem := c.pos % 4; rem != 0 {
		c.pos += 4 - rem
	}
}
