// Package dostime packs wall-clock times into the 32-bit MS-DOS date/time
// format used by FAT file systems and FlashAir's FTIME parameter.
package dostime

import (
	"errors"
	"fmt"
	"time"
)

// Supported year range of the format.
const (
	MinYear = 1980
	MaxYear = MinYear + 127
)

// ErrOutOfRange is returned for years the format cannot represent.
var ErrOutOfRange = errors.New("dostime: year out of range")

// Pack encodes t in its own location. Seconds are stored with 2s resolution.
//
//	bits 31-25 year-1980, 24-21 month, 20-16 day,
//	bits 15-11 hour, 10-5 minute, 4-0 second/2
func Pack(t time.Time) (uint32, error) {
	y := t.Year()
	if y < MinYear || y > MaxYear {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, y)
	}
	return uint32(y-MinYear)<<25 |
		uint32(t.Month())<<21 |
		uint32(t.Day())<<16 |
		uint32(t.Hour())<<11 |
		uint32(t.Minute())<<5 |
		uint32(t.Second())>>1, nil
}

// Hex formats a packed value the way upload.cgi expects it, e.g. 0x466A73C0.
func Hex(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}
