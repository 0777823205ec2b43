package encoder

// condCodes maps a B{cond} suffix to its 4-bit ARM condition field, per
// the ARM ARM condition code table (the AL/NV codes are not reachable
// through the conditional branch mnemonics and are intentionally
// omitted, matching the original tool's coverage).
var condCodes = map[string]uint32{
	"EQ": 0x0,
	"NE": 0x1,
	"CS": 0x2, "HS": 0x2,
	"CC": 0x3, "LO": 0x3,
	"MI": 0x4,
	"PL": 0x5,
	"VS": 0x6,
	"VC": 0x7,
	"HI": 0x8,
	"LS": 0x9,
	"GE": 0xA,
	"LT": 0xB,
	"GT": 0xC,
	"LE": 0xD,
}

var condMnemonics = []string{
	"EQ", "NE", "CS", "HS", "CC", "LO", "MI", "PL", "VS", "VC", "HI", "LS", "GE", "LT", "GT", "LE",
}
