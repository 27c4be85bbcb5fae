package mbf

import (
	"math"

	"github.com/antibyte/gwbasic/pkg/logger"
)

// maxExponent10 caps a decimal exponent read from text; anything larger
// overflows or underflows long before it is reached.
const maxExponent10 = 1000

// Parse reads a decimal number such as "1.5", "-.25E+3", "3.14159265#" or "1D10".
//
// The result is single precision unless it has more than seven significant
// digits, a D exponent or a '#' suffix; a '!' suffix forces single.
// Whitespace is ignored and parsing stops at the first character that
// cannot continue the number. Out of range values return the clamped
// result together with ErrOverflow.
func Parse(s string) (Float, error) {
	return parse(s, nil)
}

// ParseKind reads a number like Parse but always returns the given precision.
func ParseKind(s string, k Kind) (Float, error) {
	return parse(s, &k)
}

func parse(s string, force *Kind) (Float, error) {
	var (
		neg, foundSign, foundPoint, foundExp bool
		seenDigit                            bool
		foundExpSign, expNeg                 bool
		isSingle, isDouble                   bool
		mantissa                             uint64
		exp10, exponent                      int
		digits, zeros                        int
	)

	const mantissaLimit = (math.MaxUint64 - 9) / 10

scan:
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			continue
		case (c == '-' || c == '+') && !foundSign && !seenDigit && !foundPoint && !foundExp:
			foundSign = true
			neg = c == '-'
		case c == '.' && !foundPoint && !foundExp:
			foundPoint = true
		case (c == 'E' || c == 'e' || c == 'D' || c == 'd') && !foundExp:
			foundExp = true
			isDouble = c == 'D' || c == 'd'
		case (c == '-' || c == '+') && foundExp && !foundExpSign:
			foundExpSign = true
			expNeg = c == '-'
		case c == '!' && !foundExp:
			isSingle = true
			break scan
		case c == '#' && !foundExp:
			isDouble = true
			break scan
		case c >= '0' && c <= '9':
			d := uint64(c - '0')
			seenDigit = true
			if foundExp {
				if exponent < maxExponent10 {
					exponent = exponent*10 + int(d)
				}
				foundExpSign = true
				continue
			}
			if mantissa <= mantissaLimit {
				mantissa = mantissa*10 + d
				if foundPoint {
					exp10--
				}
			} else if !foundPoint {
				// digit does not fit; keep its magnitude
				exp10++
			}
			if mantissa != 0 {
				digits++
				if d == 0 {
					zeros++
				} else {
					zeros = 0
				}
			}
		default:
			break scan
		}
	}

	if expNeg {
		exp10 -= exponent
	} else {
		exp10 += exponent
	}

	kind := Single
	if isDouble || (digits-zeros > 7 && !isSingle) {
		kind = Double
	}
	if force != nil {
		kind = *force
	}

	f, err := fromUint(kind, mantissa).normalize()
	for ; exp10 < 0 && !f.IsZero(); exp10++ {
		f, err = f.Div10()
	}
	for ; exp10 > 0 && !f.IsZero() && err == nil; exp10-- {
		f, err = f.Mul10()
	}
	if neg {
		f = f.Neg()
	}
	if err != nil {
		logger.Debug(logger.AreaMBF, "[MBF] parse %q: %v", s, err)
	}
	return f, err
}
