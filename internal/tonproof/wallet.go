package tonproof

import (
	"encoding/hex"
	"fmt"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"terminusdex/internal/boc"
)

// WalletVersion identifies a wallet contract by its code.
type WalletVersion int

const (
	WalletUnknown WalletVersion = iota
	WalletV2R1
	WalletV2R2
	WalletV3R1
	WalletV3R2
	WalletV4R1
	WalletV4R2
	WalletV5R1
	WalletHighloadV2
	WalletHighloadV3
)

func (v WalletVersion) String() string {
	switch v {
	case WalletV2R1:
		return "v2r1"
	case WalletV2R2:
		return "v2r2"
	case WalletV3R1:
		return "v3r1"
	case WalletV3R2:
		return "v3r2"
	case WalletV4R1:
		return "v4r1"
	case WalletV4R2:
		return "v4r2"
	case WalletV5R1:
		return "v5r1"
	case WalletHighloadV2:
		return "highload_v2"
	case WalletHighloadV3:
		return "highload_v3"
	default:
		return "unknown"
	}
}

// ParseWalletVersion is the inverse of WalletVersion.String.
func ParseWalletVersion(s string) (WalletVersion, error) {
	for v := WalletV2R1; v <= WalletHighloadV3; v++ {
		if v.String() == s {
			return v, nil
		}
	}
	return WalletUnknown, fmt.Errorf("unknown wallet version %q", s)
}

// keyOffset is the number of data bits stored before the public key.
func (v WalletVersion) keyOffset() (uint, bool) {
	switch v {
	case WalletV2R1, WalletV2R2, WalletHighloadV2:
		return 32, true
	case WalletV3R1, WalletV3R2, WalletV4R1, WalletV4R2:
		return 64, true
	case WalletV5R1:
		return 65, true
	case WalletHighloadV3:
		return 0, true
	default:
		return 0, false
	}
}

// DefaultWalletCodes maps hex code hashes of standard wallets to their version.
var DefaultWalletCodes = map[string]WalletVersion{
	"5c9a5e68c108e18721a07c42f9956bfb39ad77ec6d624b60c576ec88eee65329": WalletV2R1,
	"fe9530d3243853083ef2ef0b4c2908c0abf6fa1c31ea243aacaa5bf8c7d753f1": WalletV2R2,
	"b61041a58a7980b946e8fb9e198e3c904d24799ffa36574ea4251c41a566f581": WalletV3R1,
	"84dafa449f98a6987789ba232358072bc0f76dc4524002a5d0918b9a75d2d599": WalletV3R2,
	"64dd54805522c5be8a9db59cea0105ccf0d08786ca79beb8cb79e880a8d7322d": WalletV4R1,
	"feb5ff6820e2ff0d9483e7e0d62c817d846789fb4ae580c878866d959dabd5c0": WalletV4R2,
	"20834b7b72b112147e1b2fb457b84e74d1a30f04f737d4f62a668e9552d2b72f": WalletV5R1,
}

// publicKeyFromStateInit reads the wallet key out of a state init whose code
// is listed in codes. ok is false for unknown or malformed state inits.
func publicKeyFromStateInit(stateInit *cell.Cell, codes map[string]WalletVersion) ([]byte, WalletVersion, bool) {
	s, err := boc.Parse(stateInit)
	if err != nil {
		return nil, WalletUnknown, false
	}
	if err := s.SkipBits(2); err != nil {
		return nil, WalletUnknown, false
	}
	code, err := s.LoadMaybeRef()
	if err != nil || code == nil {
		return nil, WalletUnknown, false
	}
	data, err := s.LoadMaybeRef()
	if err != nil || data == nil {
		return nil, WalletUnknown, false
	}

	version := codes[hex.EncodeToString(code.Hash())]
	offset, ok := version.keyOffset()
	if !ok {
		return nil, version, false
	}
	ds, err := boc.Parse(data)
	if err != nil {
		return nil, version, false
	}
	if err := ds.SkipBits(offset); err != nil {
		return nil, version, false
	}
	key, err := ds.LoadBytes(32)
	if err != nil {
		return nil, version, false
	}
	return key, version, true
}
