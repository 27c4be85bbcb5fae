// Package mbf implements the Microsoft Binary Format floating point numbers
// used by GW-BASIC: 4-byte single and 8-byte double precision.
//
// A Float keeps its mantissa left aligned in a uint64 with one extra low
// carry byte below the stored precision. Values are immutable; every
// operation returns a new Float.
package mbf

import (
	"errors"
	"math/bits"
)

var (
	// ErrOverflow is reported when a result does not fit the exponent range.
	// The accompanying value is clamped to the type's Max constant.
	ErrOverflow = errors.New("mbf: overflow")
	// ErrDivisionByZero is reported by Div for a zero divisor.
	ErrDivisionByZero = errors.New("mbf: division by zero")
)

// Kind selects single or double precision.
type Kind uint8

const (
	Single Kind = iota
	Double
)

type format struct {
	byteSize     int
	mantissaBits int
	bias         int // exponent of a value whose mantissa is an integer, minus the carry byte
	digits       int // significant decimal digits when rendering
	typeSign     byte
	expLetter    byte
}

var formats = [...]format{
	Single: {byteSize: 4, mantissaBits: 24, bias: 152, digits: 7, typeSign: '!', expLetter: 'E'},
	Double: {byteSize: 8, mantissaBits: 56, bias: 184, digits: 16, typeSign: '#', expLetter: 'D'},
}

func (k Kind) format() *format { return &formats[k] }

// width is the number of mantissa bits including the carry byte.
func (k Kind) width() uint { return uint(formats[k].mantissaBits + 8) }

func (k Kind) topBit() uint64 { return 1 << (k.width() - 1) }

// ByteSize is the length of the encoded form: 4 or 8.
func (k Kind) ByteSize() int { return formats[k].byteSize }

// Digits is the number of significant digits shown when rendering.
func (k Kind) Digits() int { return formats[k].digits }

// TypeSign is the suffix character that forces this precision in source text.
func (k Kind) TypeSign() byte { return formats[k].typeSign }

func (k Kind) String() string {
	if k == Double {
		return "double"
	}
	return "single"
}

// Float is a single or double precision MBF number.
type Float struct {
	kind Kind
	neg  bool
	exp  int
	man  uint64
}

// Kind reports the precision of f.
func (f Float) Kind() Kind { return f.kind }

// Exponent returns the biased binary exponent; 0 means zero.
func (f Float) Exponent() int { return f.exp }

// Mantissa returns the left aligned mantissa including the carry byte.
func (f Float) Mantissa() uint64 { return f.man }

// Negative reports the sign bit.
func (f Float) Negative() bool { return f.neg }

// IsZero reports whether f is zero.
func (f Float) IsZero() bool { return f.exp == 0 }

// Sign returns -1, 0 or 1.
func (f Float) Sign() int {
	switch {
	case f.IsZero():
		return 0
	case f.neg:
		return -1
	}
	return 1
}

func zero(k Kind) Float {
	return Float{kind: k, man: k.topBit()}
}

func maxOf(k Kind, neg bool) Float {
	m := constantsFor(k).max
	m.neg = neg
	return m
}

// FromBytes decodes a 4-byte single or 8-byte double. Other lengths panic.
func FromBytes(b []byte) Float {
	var k Kind
	switch len(b) {
	case 4:
		k = Single
	case 8:
		k = Double
	default:
		panic("mbf: FromBytes needs 4 or 8 bytes")
	}
	n := len(b)
	if b[n-1] == 0 {
		return zero(k)
	}
	m := uint64(b[n-2]|0x80) << (8 * uint(n-2))
	for i := 0; i < n-2; i++ {
		m |= uint64(b[i]) << (8 * uint(i))
	}
	return Float{kind: k, neg: b[n-2] >= 0x80, exp: int(b[n-1]), man: m << 8}
}

// Bytes encodes f after rounding the carry byte into the mantissa.
func (f Float) Bytes() []byte {
	r, _ := f.applyCarry()
	n := r.kind.ByteSize()
	out := make([]byte, n)
	if r.IsZero() {
		return out
	}
	m := r.man >> 8
	for i := 0; i < n-1; i++ {
		out[i] = byte(m >> (8 * uint(i)))
	}
	out[n-2] &= 0x7f
	if r.neg {
		out[n-2] |= 0x80
	}
	out[n-1] = byte(r.exp)
	return out
}

// FromInt converts an integer exactly where the precision allows it.
func FromInt(k Kind, n int64) Float {
	if n < 0 {
		f, _ := fromUint(k, uint64(^n)+1).normalize()
		f.neg = true
		return f
	}
	f, _ := fromUint(k, uint64(n)).normalize()
	return f
}

// fromUint returns an unnormalized value equal to u.
func fromUint(k Kind, u uint64) Float {
	return Float{kind: k, exp: k.format().bias + 8, man: u}
}

// normalize shifts the mantissa until its top bit is set and clamps the exponent.
func (f Float) normalize() (Float, error) {
	if f.man == 0 || f.exp == 0 {
		return zero(f.kind), nil
	}
	top := f.kind.topBit()
	if f.kind == Single {
		for f.man >= top<<1 {
			f.man >>= 1
			f.exp++
		}
	}
	shift := bits.LeadingZeros64(f.man) - (64 - int(f.kind.width()))
	if shift > 0 {
		f.man <<= uint(shift)
		f.exp -= shift
	}
	if f.exp <= 0 {
		return zero(f.kind), nil
	}
	if f.exp > 255 {
		return maxOf(f.kind, f.neg), ErrOverflow
	}
	return f, nil
}

// applyCarry rounds the carry byte into the stored mantissa and clears it.
func (f Float) applyCarry() (Float, error) {
	if f.IsZero() {
		return f, nil
	}
	if f.man&0xff > 0x7f {
		sum, carry := bits.Add64(f.man, 0x100, 0)
		if carry != 0 || (f.kind == Single && sum >= f.kind.topBit()<<1) {
			sum = sum>>1 | f.kind.topBit()
			f.exp++
		}
		f.man = sum
	}
	f.man &^= 0xff
	if f.exp > 255 {
		return maxOf(f.kind, f.neg), ErrOverflow
	}
	return f, nil
}

// ToDouble widens f without loss.
func (f Float) ToDouble() Float {
	if f.kind == Double {
		return f
	}
	if f.IsZero() {
		return zero(Double)
	}
	return Float{kind: Double, neg: f.neg, exp: f.exp, man: f.man << 32}
}

// ToSingle narrows f, rounding to the nearest single.
func (f Float) ToSingle() (Float, error) {
	if f.kind == Single {
		return f, nil
	}
	if f.IsZero() {
		return zero(Single), nil
	}
	// keep the byte below single precision as the new carry byte
	r := Float{kind: Single, neg: f.neg, exp: f.exp, man: f.man >> 32}
	return r.applyCarry()
}

// same converts both operands to a common precision.
func same(l, r Float) (Float, Float) {
	if l.kind == r.kind {
		return l, r
	}
	return l.ToDouble(), r.ToDouble()
}

// Neg returns -f.
func (f Float) Neg() Float {
	if f.IsZero() {
		return f
	}
	f.neg = !f.neg
	return f
}

// Abs returns |f|.
func (f Float) Abs() Float {
	f.neg = false
	return f
}

// Add returns f+r. The result has the wider precision of the operands.
func (f Float) Add(r Float) (Float, error) {
	f, r = same(f, r)
	if r.IsZero() {
		return f, nil
	}
	if f.IsZero() {
		return r, nil
	}
	if f.exp < r.exp {
		f, r = r, f
	}
	shift := uint(f.exp - r.exp)
	if shift >= f.kind.width() {
		return f, nil
	}
	rm := r.man >> shift

	if f.neg == r.neg {
		sum, carry := bits.Add64(f.man, rm, 0)
		if carry != 0 {
			sum = sum>>1 | 1<<63
			f.exp++
		}
		f.man = sum
	} else if f.man >= rm {
		f.man -= rm
	} else {
		f.man = rm - f.man
		f.neg = r.neg
	}
	return f.normalize()
}

// Sub returns f-r.
func (f Float) Sub(r Float) (Float, error) {
	return f.Add(r.Neg())
}

// Mul returns f*r.
func (f Float) Mul(r Float) (Float, error) {
	f, r = same(f, r)
	if f.IsZero() || r.IsZero() {
		return zero(f.kind), nil
	}
	w := f.kind.width()
	hi, lo := bits.Mul64(f.man, r.man)

	// keep the top w bits of the 2w bit product
	var m, rest uint64
	if w == 64 {
		m, rest = hi, lo
	} else {
		m, rest = lo>>w, lo<<(64-w)
	}
	exp := f.exp + r.exp - 128
	if m < f.kind.topBit() {
		m = m<<1 | rest>>63
		exp--
	}
	return Float{kind: f.kind, neg: f.neg != r.neg, exp: exp, man: m}.normalize()
}

// Div returns f/r using bitwise long division of the mantissas.
func (f Float) Div(r Float) (Float, error) {
	f, r = same(f, r)
	if r.IsZero() {
		return maxOf(f.kind, f.neg), ErrDivisionByZero
	}
	if f.IsZero() {
		return f, nil
	}
	w := f.kind.width()
	exp := f.exp - r.exp + f.kind.format().bias + 8 + 1

	var q, over uint64
	rem := f.man
	for i := uint(0); i < w; i++ {
		q <<= 1
		exp--
		if over != 0 || rem >= r.man {
			rem -= r.man
			q |= 1
		}
		over = rem >> 63
		rem <<= 1
	}
	return Float{kind: f.kind, neg: f.neg != r.neg, exp: exp, man: q}.normalize()
}

// Mul10 multiplies by ten as x*2 + x*8, the way the interpreter does it.
func (f Float) Mul10() (Float, error) {
	if f.IsZero() {
		return f, nil
	}
	sum, carry := bits.Add64(f.man, f.man>>2, 0)
	f.exp += 3
	if carry != 0 {
		sum = sum>>1 | 1<<63
		f.exp++
	}
	f.man = sum
	return f.normalize()
}

// Div10 divides by ten.
func (f Float) Div10() (Float, error) {
	return f.Div(constantsFor(f.kind).ten)
}

// Cmp returns -1, 0 or 1 comparing f with r.
func (f Float) Cmp(r Float) int {
	f, r = same(f, r)
	ls, rs := f.Sign(), r.Sign()
	if ls != rs {
		if ls < rs {
			return -1
		}
		return 1
	}
	if ls == 0 {
		return 0
	}
	c := cmpAbs(f, r)
	if ls < 0 {
		return -c
	}
	return c
}

func cmpAbs(l, r Float) int {
	switch {
	case l.exp != r.exp:
		if l.exp < r.exp {
			return -1
		}
		return 1
	case l.man < r.man:
		return -1
	case l.man > r.man:
		return 1
	}
	return 0
}

// Trunc converts to an integer, discarding the fraction.
func (f Float) Trunc() (int64, error) {
	if f.IsZero() {
		return 0, nil
	}
	u, ok := f.shiftToInt()
	if !ok {
		return 0, ErrOverflow
	}
	return signed(u>>8, f.neg)
}

// Round converts to the nearest integer, halves away from zero.
func (f Float) Round() (int64, error) {
	if f.IsZero() {
		return 0, nil
	}
	u, ok := f.shiftToInt()
	if !ok {
		return 0, ErrOverflow
	}
	if u&0xff > 0x7f {
		u += 0x100
	}
	return signed(u>>8, f.neg)
}

// shiftToInt returns the magnitude scaled so the low byte is the fraction.
func (f Float) shiftToInt() (uint64, bool) {
	shift := f.exp - f.kind.format().bias
	switch {
	case shift <= -64:
		return 0, true
	case shift < 0:
		return f.man >> uint(-shift), true
	case shift == 0:
		return f.man, true
	case bits.LeadingZeros64(f.man) < shift:
		return 0, false
	}
	return f.man << uint(shift), true
}

func signed(u uint64, neg bool) (int64, error) {
	if neg {
		if u > 1<<63 {
			return 0, ErrOverflow
		}
		return -int64(u - 1) - 1, nil
	}
	if u > 1<<63-1 {
		return 0, ErrOverflow
	}
	return int64(u), nil
}
