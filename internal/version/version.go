// ABOUTME: Version constants for the siren player
// ABOUTME: Single source of truth for product identification
package version

const (
	// Version is the current release version
	Version = "0.1.0"

	// Product is the product name
	Product = "siren"
)
