package mbf

type constants struct {
	zero, half, one, two, ten Float
	max                       Float
	e, pi, log2               Float
	// largest value rendered without an exponent, and its tenth
	maxValue, minValue Float
}

var singleConstants = constants{
	zero:     FromBytes([]byte{0x00, 0x00, 0x00, 0x00}),
	half:     FromBytes([]byte{0x00, 0x00, 0x00, 0x80}),
	one:      FromBytes([]byte{0x00, 0x00, 0x00, 0x81}),
	two:      FromBytes([]byte{0x00, 0x00, 0x00, 0x82}),
	ten:      FromBytes([]byte{0x00, 0x00, 0x20, 0x84}),
	max:      FromBytes([]byte{0xff, 0xff, 0x7f, 0xff}),
	e:        FromBytes([]byte{0x54, 0xf8, 0x2d, 0x82}),
	pi:       FromBytes([]byte{0xdb, 0x0f, 0x49, 0x82}),
	log2:     FromBytes([]byte{0x16, 0x72, 0x31, 0x80}),
	maxValue: FromBytes([]byte{0x7f, 0x96, 0x18, 0x98}), // 9999999
	minValue: FromBytes([]byte{0xff, 0x23, 0x74, 0x94}), // 999999.9
}

var doubleConstants = constants{
	zero:     FromBytes([]byte{0, 0, 0, 0, 0, 0, 0x00, 0x00}),
	half:     FromBytes([]byte{0, 0, 0, 0, 0, 0, 0x00, 0x80}),
	one:      FromBytes([]byte{0, 0, 0, 0, 0, 0, 0x00, 0x81}),
	two:      FromBytes([]byte{0, 0, 0, 0, 0, 0, 0x00, 0x82}),
	ten:      FromBytes([]byte{0, 0, 0, 0, 0, 0, 0x20, 0x84}),
	max:      FromBytes([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f, 0xff}),
	e:        FromBytes([]byte{0x4b, 0xbb, 0xa2, 0x58, 0x54, 0xf8, 0x2d, 0x82}),
	pi:       FromBytes([]byte{0xc2, 0x68, 0x21, 0xa2, 0xda, 0x0f, 0x49, 0x82}),
	log2:     FromBytes([]byte{0x7a, 0xcf, 0xd1, 0xf7, 0x17, 0x72, 0x31, 0x80}),
	maxValue: FromBytes([]byte{0xff, 0xff, 0x03, 0xbf, 0xc9, 0x1b, 0x0e, 0xb6}), // 9999999999999999
	minValue: FromBytes([]byte{0xff, 0xff, 0x9f, 0x31, 0xa9, 0x5f, 0x63, 0xb2}), // 999999999999999.9
}

func constantsFor(k Kind) *constants {
	if k == Double {
		return &doubleConstants
	}
	return &singleConstants
}

// Zero returns the canonical zero.
func Zero(k Kind) Float { return constantsFor(k).zero }

// Half returns 0.5.
func Half(k Kind) Float { return constantsFor(k).half }

// One returns 1.
func One(k Kind) Float { return constantsFor(k).one }

// Two returns 2.
func Two(k Kind) Float { return constantsFor(k).two }

// Ten returns 10.
func Ten(k Kind) Float { return constantsFor(k).ten }

// Max returns the largest finite magnitude.
func Max(k Kind) Float { return constantsFor(k).max }

// E returns Euler's number.
func E(k Kind) Float { return constantsFor(k).e }

// Pi returns pi.
func Pi(k Kind) Float { return constantsFor(k).pi }

// Log2 returns the natural logarithm of 2.
func Log2(k Kind) Float { return constantsFor(k).log2 }

// MaxValue returns the largest integer printed without an exponent.
func MaxValue(k Kind) Float { return constantsFor(k).maxValue }

// MinValue returns MaxValue divided by ten.
func MinValue(k Kind) Float { return constantsFor(k).minValue }
