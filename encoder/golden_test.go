package encoder_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/lookbusy1344/thumbpatch/arg"
	"github.com/lookbusy1344/thumbpatch/asm"
	_ "github.com/lookbusy1344/thumbpatch/encoder"
	"github.com/lookbusy1344/thumbpatch/srcpos"
)

// fakeScope is a minimal asm.Resolver/asm.BindContext that resolves a
// fixed table of label->address, used to drive the §8 golden table
// without constructing a full patchfile.Patch.
type fakeScope struct {
	labels map[string]uint32
}

func (f *fakeScope) Resolver() asm.Resolver { return f }
func (f *fakeScope) Resolve(name string) (uint32, bool) {
	v, ok := f.labels[name]
	return v, ok
}
func (f *fakeScope) DefineLocal(name string, addr uint32, pos srcpos.Position) error {
	f.labels[name] = addr
	return nil
}
func (f *fakeScope) DefineGlobal(name string, val uint32, pos srcpos.Position) error {
	f.labels[name] = val
	return nil
}
func (f *fakeScope) ReadOriginal(addr uint32, n int) ([]byte, error) {
	return make([]byte, n), nil
}

func hexBytes(s string) []byte {
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		panic(err)
	}
	return b
}

func encodeAt(t *testing.T, mnemonic string, args []arg.Argument, addr uint32, labels map[string]uint32) []byte {
	t.Helper()
	pos := srcpos.Position{File: "golden.pat", Line: 1}
	def, err := asm.Find(mnemonic, args, pos)
	if err != nil {
		t.Fatalf("%s: %v", mnemonic, err)
	}
	inst := asm.NewInstance(def, mnemonic, args, pos)
	inst.SetAddr(addr)
	if err := inst.Bind(&fakeScope{labels: labels}); err != nil {
		t.Fatalf("%s: bind: %v", mnemonic, err)
	}
	code, err := inst.Encode()
	if err != nil {
		t.Fatalf("%s: encode: %v", mnemonic, err)
	}
	return code.Bytes()
}

// TestGoldenTable exercises every literal scenario from §8's golden
// table: source, address, expected hex bytes.
func TestGoldenTable(t *testing.T) {
	const self = 0x08004000

	t.Run("BL self", func(t *testing.T) {
		got := encodeAt(t, "BL", []arg.Argument{arg.NewLabelValue("self", 0)}, self,
			map[string]uint32{"self": self})
		want := hexBytes("FF F7 FE FF")
		if string(got) != string(want) {
			t.Errorf("got % X, want % X", got, want)
		}
	})

	t.Run("B.W self", func(t *testing.T) {
		got := encodeAt(t, "B.W", []arg.Argument{arg.NewLabelValue("self", 0)}, self,
			map[string]uint32{"self": self})
		want := hexBytes("FF F7 FE BF")
		if string(got) != string(want) {
			t.Errorf("got % X, want % X", got, want)
		}
	})

	t.Run("B.W next (next = self+4)", func(t *testing.T) {
		got := encodeAt(t, "B.W", []arg.Argument{arg.NewLabelValue("next", 0)}, self,
			map[string]uint32{"self": self, "next": self + 4})
		want := hexBytes("00 F0 00 B8")
		if string(got) != string(want) {
			t.Errorf("got % X, want % X", got, want)
		}
	})

	t.Run("DCW 0x1234", func(t *testing.T) {
		got := encodeAt(t, "DCW", []arg.Argument{arg.NewImmValue(0x1234, "0x1234")}, self, nil)
		want := hexBytes("34 12")
		if string(got) != string(want) {
			t.Errorf("got % X, want % X", got, want)
		}
	})

	t.Run("DCD 0xDEADBEEF", func(t *testing.T) {
		got := encodeAt(t, "DCD", []arg.Argument{arg.NewImmValue(0xDEADBEEF, "0xDEADBEEF")}, self, nil)
		want := hexBytes("EF BE AD DE")
		if string(got) != string(want) {
			t.Errorf("got % X, want % X", got, want)
		}
	})

	t.Run("NOP", func(t *testing.T) {
		got := encodeAt(t, "NOP", []arg.Argument{}, self, nil)
		want := hexBytes("00 BF")
		if string(got) != string(want) {
			t.Errorf("got % X, want % X", got, want)
		}
	})

	t.Run("BNE.W self", func(t *testing.T) {
		got := encodeAt(t, "BNE.W", []arg.Argument{arg.NewLabelValue("self", 0)}, self,
			map[string]uint32{"self": self})
		want := hexBytes("7F F4 FE AF")
		if string(got) != string(want) {
			t.Errorf("got % X, want % X", got, want)
		}
	})

	t.Run("CBZ R3, next", func(t *testing.T) {
		got := encodeAt(t, "CBZ", []arg.Argument{arg.NewRegValue(3), arg.NewLabelValue("next", 0)}, self,
			map[string]uint32{"self": self, "next": self + 4})
		want := hexBytes("03 B1")
		if string(got) != string(want) {
			t.Errorf("got % X, want % X", got, want)
		}
	})

	t.Run("MOV.W R1, 0xFF000", func(t *testing.T) {
		got := encodeAt(t, "MOV.W", []arg.Argument{arg.NewRegValue(1), arg.NewImmValue(0xFF000, "0xFF000")}, self, nil)
		want := hexBytes("4F F4 7F 21")
		if string(got) != string(want) {
			t.Errorf("got % X, want % X", got, want)
		}
	})

	t.Run("MOV R2, 50000", func(t *testing.T) {
		got := encodeAt(t, "MOV", []arg.Argument{arg.NewRegValue(2), arg.NewImmValue(50000, "50000")}, self, nil)
		want := hexBytes("4C F2 50 32")
		if string(got) != string(want) {
			t.Errorf("got % X, want % X", got, want)
		}
	})

	t.Run("LDR R12, [SP, 0x24]", func(t *testing.T) {
		mem := &arg.List{Items: []arg.Argument{arg.NewRegValue(13), arg.NewImmValue(0x24, "0x24")}}
		got := encodeAt(t, "LDR", []arg.Argument{arg.NewRegValue(12), mem}, self, nil)
		want := hexBytes("DD F8 24 C0")
		if string(got) != string(want) {
			t.Errorf("got % X, want % X", got, want)
		}
	})

	t.Run("PUSH {R4-R8, LR}", func(t *testing.T) {
		rl := arg.NewRegListValue([]uint8{4, 5, 6, 7, 8, 14})
		got := encodeAt(t, "PUSH", []arg.Argument{rl}, self, nil)
		want := hexBytes("2D E9 F0 41")
		if string(got) != string(want) {
			t.Errorf("got % X, want % X", got, want)
		}
	})

	t.Run("POP {R4-R8, PC}", func(t *testing.T) {
		rl := arg.NewRegListValue([]uint8{4, 5, 6, 7, 8, 15})
		got := encodeAt(t, "POP", []arg.Argument{rl}, self, nil)
		want := hexBytes("BD E8 F0 81")
		if string(got) != string(want) {
			t.Errorf("got % X, want % X", got, want)
		}
	})

	t.Run("SUB R2, R0, 8", func(t *testing.T) {
		got := encodeAt(t, "SUB", []arg.Argument{arg.NewRegValue(2), arg.NewRegValue(0), arg.NewImmValue(8, "8")}, self, nil)
		want := hexBytes("A0 F2 08 02")
		if string(got) != string(want) {
			t.Errorf("got % X, want % X", got, want)
		}
	})

	t.Run("TST R1, 0x100000", func(t *testing.T) {
		got := encodeAt(t, "TST", []arg.Argument{arg.NewRegValue(1), arg.NewImmValue(0x100000, "0x100000")}, self, nil)
		want := hexBytes("11 F4 80 1F")
		if string(got) != string(want) {
			t.Errorf("got % X, want % X", got, want)
		}
	})
}
