//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import "fmt"

// NewPortAudio reports that PortAudio support was not compiled in.
func NewPortAudio() (Backend, error) {
	return nil, fmt.Errorf("portaudio support not enabled (build with -tags portaudio)")
}
