// ABOUTME: Sample format negotiation
// ABOUTME: Maps decoded stream formats to backend-native formats
package output

import (
	"errors"
	"fmt"

	"github.com/ericzyf/siren/internal/media"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Negotiate maps a decoded sample format to the closest backend-native one.
// Planar and interleaved variants of a format map identically; the repacker
// has already interleaved the queue by the time the stream opens. 64-bit
// float has no native equivalent on any supported backend.
func Negotiate(f media.SampleFormat) (Format, error) {
	switch f {
	case media.FormatU8:
		return FormatU8, nil
	case media.FormatS16:
		return FormatS16, nil
	case media.FormatS32:
		return FormatS32, nil
	case media.FormatF32:
		return FormatF32, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}
