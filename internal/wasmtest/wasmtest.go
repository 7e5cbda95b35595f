// Package wasmtest assembles small core wasm binaries for tests.
package wasmtest

// Value types.
const (
	I32 byte = 0x7f
	I64 byte = 0x7e
)

// Opcodes used by test bodies.
const (
	OpDrop     byte = 0x1a
	OpLocalGet byte = 0x20
	OpI32Load  byte = 0x28
	OpI32Store byte = 0x36
	OpI32Const byte = 0x41
	OpI64Const byte = 0x42
	OpCall     byte = 0x10
	OpEnd      byte = 0x0b
)

// Import is an imported function.
type Import struct {
	Module  string
	Name    string
	Params  []byte
	Results []byte
}

// Func is a defined function. Body holds the instructions without the
// trailing end opcode and without locals.
type Func struct {
	Export  string
	Params  []byte
	Results []byte
	Body    []byte
}

// Segment is an active data segment at a constant offset.
type Segment struct {
	Offset uint32
	Bytes  []byte
}

// Module describes a binary with one memory exported as "memory".
type Module struct {
	Imports []Import
	Funcs   []Func
	Data    []Segment
	// Pages is the initial memory size. Zero means one page.
	Pages uint32
}

// FuncIndex returns the function index of the i-th defined function.
func (m *Module) FuncIndex(i int) uint32 {
	return uint32(len(m.Imports) + i)
}

// Encode returns the binary encoding of m.
func (m *Module) Encode() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	var types [][]byte
	for _, im := range m.Imports {
		types = append(types, funcType(im.Params, im.Results))
	}
	for _, f := range m.Funcs {
		types = append(types, funcType(f.Params, f.Results))
	}
	out = section(out, 1, vec(types))

	var imports [][]byte
	for i, im := range m.Imports {
		var e []byte
		e = appendName(e, im.Module)
		e = appendName(e, im.Name)
		e = append(e, 0x00)
		e = AppendU32(e, uint32(i))
		imports = append(imports, e)
	}
	out = section(out, 2, vec(imports))

	var funcs [][]byte
	for i := range m.Funcs {
		funcs = append(funcs, AppendU32(nil, uint32(len(m.Imports)+i)))
	}
	out = section(out, 3, vec(funcs))

	pages := m.Pages
	if pages == 0 {
		pages = 1
	}
	out = section(out, 5, vec([][]byte{AppendU32([]byte{0x00}, pages)}))

	exports := [][]byte{append(appendName(nil, "memory"), 0x02, 0x00)}
	for i, f := range m.Funcs {
		if f.Export == "" {
			continue
		}
		e := appendName(nil, f.Export)
		e = append(e, 0x00)
		e = AppendU32(e, m.FuncIndex(i))
		exports = append(exports, e)
	}
	out = section(out, 7, vec(exports))

	var code [][]byte
	for _, f := range m.Funcs {
		body := append([]byte{0x00}, f.Body...)
		body = append(body, OpEnd)
		code = append(code, AppendU32(nil, uint32(len(body)), body...))
	}
	out = section(out, 10, vec(code))

	if len(m.Data) == 0 {
		return out
	}
	var data [][]byte
	for _, seg := range m.Data {
		d := Const([]byte{0x00}, int32(seg.Offset))
		d = append(d, OpEnd)
		data = append(data, AppendU32(d, uint32(len(seg.Bytes)), seg.Bytes...))
	}
	return section(out, 11, vec(data))
}

// Forward returns a body that passes every parameter to function idx.
func Forward(idx uint32, params int) []byte {
	var b []byte
	for i := 0; i < params; i++ {
		b = append(b, OpLocalGet)
		b = AppendU32(b, uint32(i))
	}
	return Call(b, idx)
}

// Call appends a call to function idx.
func Call(b []byte, idx uint32) []byte {
	return AppendU32(append(b, OpCall), idx)
}

// Const appends i32.const v.
func Const(b []byte, v int32) []byte {
	return AppendS64(append(b, OpI32Const), int64(v))
}

// Const64 appends i64.const v.
func Const64(b []byte, v int64) []byte {
	return AppendS64(append(b, OpI64Const), v)
}

// Load appends i32.load of the word at addr.
func Load(b []byte, addr int32) []byte {
	b = Const(b, addr)
	return append(b, OpI32Load, 0x02, 0x00)
}

// AppendU32 appends v as unsigned LEB128 followed by extra.
func AppendU32(b []byte, v uint32, extra ...byte) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b = append(b, c|0x80)
			continue
		}
		b = append(b, c)
		break
	}
	return append(b, extra...)
}

// AppendS64 appends v as signed LEB128.
func AppendS64(b []byte, v int64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			return append(b, c)
		}
		b = append(b, c|0x80)
	}
}

func funcType(params, results []byte) []byte {
	b := []byte{0x60}
	b = AppendU32(b, uint32(len(params)), params...)
	return AppendU32(b, uint32(len(results)), results...)
}

func appendName(b []byte, s string) []byte {
	return append(AppendU32(b, uint32(len(s))), s...)
}

func vec(items [][]byte) []byte {
	b := AppendU32(nil, uint32(len(items)))
	for _, it := range items {
		b = append(b, it...)
	}
	return b
}

func section(b []byte, id byte, payload []byte) []byte {
	b = append(b, id)
	return AppendU32(b, uint32(len(payload)), payload...)
}
