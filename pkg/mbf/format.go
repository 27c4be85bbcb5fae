package mbf

import (
	"strconv"
	"strings"
)

// String renders f the way LIST shows a numeric constant: with a type
// suffix where the precision would otherwise be lost.
func (f Float) String() string {
	return f.Format(false)
}

// Format renders f as decimal text. In screen mode, as used by PRINT,
// non-negative values get a leading space and no type suffix.
func (f Float) Format(screen bool) string {
	fm := f.kind.format()
	if f.IsZero() {
		if screen {
			return " 0"
		}
		return "0" + string(fm.typeSign)
	}

	var sb strings.Builder
	if f.neg {
		sb.WriteByte('-')
	} else if screen {
		sb.WriteByte(' ')
	}

	num, exp10 := f.bringToRange()
	digits := strconv.FormatUint(num, 10)
	if len(digits) > fm.digits {
		// rounding carried into an extra digit
		digits = digits[:fm.digits]
		exp10++
	}
	digits = strings.TrimRight(digits, "0")
	if digits == "" {
		digits = "0"
	}

	exp10 += fm.digits - 1
	if exp10 > fm.digits-1 || len(digits)-exp10 > fm.digits+1 {
		scientificNotation(&sb, digits, exp10, fm.expLetter)
	} else {
		var typeSign byte
		if !screen {
			typeSign = fm.typeSign
		}
		decimalNotation(&sb, digits, exp10, typeSign)
	}
	return sb.String()
}

// bringToRange scales |f| by powers of ten into [MinValue, MaxValue] and
// returns it rounded to an integer together with the power of ten used.
func (f Float) bringToRange() (uint64, int) {
	c := constantsFor(f.kind)
	x := f.Abs()
	exp10 := 0

	for cmpAbs(x, c.maxValue) > 0 {
		x, _ = x.Div10()
		exp10++
	}
	x, _ = x.applyCarry()
	for cmpAbs(x, c.minValue) < 0 {
		x, _ = x.Mul10()
		exp10--
	}
	x, _ = x.applyCarry()

	x, _ = x.Add(c.half)
	u, _ := x.shiftToInt()
	return u >> 8, exp10
}

func decimalNotation(sb *strings.Builder, digits string, exp10 int, typeSign byte) {
	exp10++
	switch {
	case exp10 >= len(digits):
		sb.WriteString(digits)
		sb.WriteString(strings.Repeat("0", exp10-len(digits)))
		if typeSign != 0 {
			sb.WriteByte(typeSign)
		}
	case exp10 > 0:
		sb.WriteString(digits[:exp10])
		sb.WriteByte('.')
		sb.WriteString(digits[exp10:])
		if typeSign == '#' {
			sb.WriteByte(typeSign)
		}
	default:
		sb.WriteByte('.')
		sb.WriteString(strings.Repeat("0", -exp10))
		sb.WriteString(digits)
		if typeSign == '#' {
			sb.WriteByte(typeSign)
		}
	}
}

func scientificNotation(sb *strings.Builder, digits string, exp10 int, letter byte) {
	sb.WriteString(digits[:1])
	if len(digits) > 1 {
		sb.WriteByte('.')
		sb.WriteString(digits[1:])
	}
	sb.WriteByte(letter)
	if exp10 < 0 {
		sb.WriteByte('-')
		exp10 = -exp10
	} else {
		sb.WriteByte('+')
	}
	if exp10 < 10 {
		sb.WriteByte('0')
	}
	sb.WriteString(strconv.Itoa(exp10))
}
