package hub75

// CodecVersion identifies the packed byte layout below. Frame files written
// by an authoring tool must use the same version.
//
// Layout, MSB first:
//
//	bit  7  6  5  4  3  2  1  0
//	    B1 G1  - R1 B2  - G2 R2
//
// R1/G1/B1 belong to the upper sub-row (row r), R2/G2/B2 to the lower
// sub-row (row r+rows). Bits 5 and 2 are reserved and ignored.
const CodecVersion = 1

const (
	upperRedBit   = 4
	upperGreenBit = 6
	upperBlueBit  = 7
	lowerRedBit   = 0
	lowerGreenBit = 1
	lowerBlueBit  = 3

	upperMask = 1<<upperRedBit | 1<<upperGreenBit | 1<<upperBlueBit
	lowerMask = 1<<lowerRedBit | 1<<lowerGreenBit | 1<<lowerBlueBit

	// ReservedMask covers the bits no channel uses.
	ReservedMask byte = ^byte(upperMask | lowerMask)
)

// Triplet is one pixel's on/off state in a single bitplane.
type Triplet struct {
	R, G, B bool
}

// Decode splits a packed byte into its upper and lower sub-row pixels.
func Decode(b byte) (upper, lower Triplet) {
	upper = Triplet{
		R: b&(1<<upperRedBit) != 0,
		G: b&(1<<upperGreenBit) != 0,
		B: b&(1<<upperBlueBit) != 0,
	}
	lower = Triplet{
		R: b&(1<<lowerRedBit) != 0,
		G: b&(1<<lowerGreenBit) != 0,
		B: b&(1<<lowerBlueBit) != 0,
	}
	return upper, lower
}

// Encode packs two sub-row pixels into one byte. Reserved bits are zero.
func Encode(upper, lower Triplet) byte {
	var b byte
	if upper.R {
		b |= 1 << upperRedBit
	}
	if upper.G {
		b |= 1 << upperGreenBit
	}
	if upper.B {
		b |= 1 << upperBlueBit
	}
	if lower.R {
		b |= 1 << lowerRedBit
	}
	if lower.G {
		b |= 1 << lowerGreenBit
	}
	if lower.B {
		b |= 1 << lowerBlueBit
	}
	return b
}
