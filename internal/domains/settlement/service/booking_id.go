package service

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

const (
	DefaultBookingPrefix = "CRS"
	DefaultBookingDigits = 6

	// DefaultMaxAttempts bounds the insert/regenerate loop.
	DefaultMaxAttempts = 1000
)

// BookingIDGenerator produces candidate identifiers. Uniqueness is decided by
// the database, not here.
type BookingIDGenerator interface {
	Next() string
}

type RandomGenerator struct {
	prefix string
	digits int
	space  int64
}

func NewBookingIDGenerator(prefix string, digits int) *RandomGenerator {
	if prefix == "" {
		prefix = DefaultBookingPrefix
	}
	if digits <= 0 || digits > 18 {
		digits = DefaultBookingDigits
	}
	space := int64(1)
	for i := 0; i < digits; i++ {
		space *= 10
	}
	return &RandomGenerator{prefix: strings.ToUpper(prefix), digits: digits, space: space}
}

// Next returns prefix + zero-padded random number, e.g. CRS004217.
func (g *RandomGenerator) Next() string {
	return fmt.Sprintf("%s%0*d", g.prefix, g.digits, rand.Int64N(g.space))
}
