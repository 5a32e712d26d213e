package boc

import (
	"encoding/base64"
	"fmt"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Encode serializes a cell tree into the standard bag-of-cells format with a CRC32C trailer.
func Encode(c *cell.Cell) []byte {
	return c.ToBOCWithFlags(true)
}

// Decode parses a bag of cells holding a single root.
func Decode(data []byte) (*cell.Cell, error) {
	if len(data) == 0 {
		return nil, malformed("decode boc", fmt.Errorf("empty input"))
	}
	c, err := cell.FromBOC(data)
	if err != nil {
		return nil, malformed("decode boc", err)
	}
	return c, nil
}

// EncodeBase64 returns the standard base64 form used in wallet payloads.
func EncodeBase64(c *cell.Cell) string {
	return base64.StdEncoding.EncodeToString(Encode(c))
}

// DecodeBase64 accepts standard or URL-safe base64, padded or not.
func DecodeBase64(s string) (*cell.Cell, error) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	} {
		data, err := enc.DecodeString(s)
		if err == nil {
			return Decode(data)
		}
	}
	return nil, malformed("decode base64", fmt.Errorf("invalid base64 payload"))
}

// OpCode returns the leading 32-bit operation code of a message body.
func OpCode(body *cell.Cell) (uint32, error) {
	s, err := Parse(body)
	if err != nil {
		return 0, err
	}
	op, err := s.LoadUint(32)
	if err != nil {
		return 0, err
	}
	return uint32(op), nil
}
