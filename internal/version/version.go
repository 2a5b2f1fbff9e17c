// ABOUTME: Version information for the imuse-go binaries
// ABOUTME: Reported in control handshakes and command-line banners
package version

const (
	// Version is the release version
	Version = "0.3.0"

	// Product is the product name sent in handshakes
	Product = "imuse-go"

	// Manufacturer identifies the software vendor
	Manufacturer = "imuse-go"
)
