// Package parallelphpcs runs PHP_CodeSniffer across worker processes and
// reports fixable violations.
package parallelphpcs

// Version is the release version reported by the CLI and the MCP server.
const Version = "0.1.0"
