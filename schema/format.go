package schema

// Format is a named string format usable in a JSON Schema "format" keyword.
type Format string

const (
	FormatURI      Format = "uri"
	FormatHostname Format = "hostname"
	FormatIPv4     Format = "ipv4"
	FormatIPv6     Format = "ipv6"
	FormatEmail    Format = "email"

	// FormatSemver validates a semantic version string, the form of the
	// FormatVersion field carried in CompiledConfig metadata (a leading "v"
	// is optional). The kernel does not itself check that field with it.
	FormatSemver Format = "semver"
)

// IsValidFormat reports whether f is one of the formats this package knows
// how to check.
func IsValidFormat(f Format) bool {
	switch f {
	case FormatURI, FormatHostname, FormatIPv4, FormatIPv6, FormatEmail, FormatSemver:
		return true
	default:
		return false
	}
}
