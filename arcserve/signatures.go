package arcserve

// Packet signatures, read as a big-endian 32-bit word at a 512-byte root
// sector boundary (spec section 4.4). Defined here, not in arcserve/packets,
// so the framer's diagnostics can name a signature without importing the
// packet implementations.
const (
	SigSessionHeaderA       = 0xDDDDDDDD
	SigSessionHeaderB       = 0xDDDDD386
	SigSessionHeaderUnknown = 0x5555AAAA // Open Question (e): unknown variant, accepted syntactically.

	SigEmptySector       = 0x00000000
	SigFileTrailer       = 0xCCCCCCCC
	SigSessionTerminator = 0x7E7E7E7E

	SigFileHeaderUniversal       = 0xABBAABBA
	SigFileHeaderDOS             = 0xBBBBBBBB
	SigFileHeaderAFP             = 0xAAAAAAAA
	SigFileHeaderOS2             = 0x22222222
	SigFileHeaderUnix            = 0x33333333
	SigFileHeaderMac             = 0x44444444
	SigFileHeaderWindowsNT       = 0x55555555
	SigFileHeaderWindowsNTWorkst = 0x55555557
	SigFileHeaderWindows95       = 0x66666666
)

// IsSessionHeaderSignature reports whether sig is one of the three session
// header variants (spec section 4.4).
func IsSessionHeaderSignature(sig uint32) bool {
	switch sig {
	case SigSessionHeaderA, SigSessionHeaderB, SigSessionHeaderUnknown:
		return true
	default:
		return false
	}
}
