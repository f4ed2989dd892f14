// Package utils provides small helpers shared by the HTTP handlers and the CLI:
// lenient parsing of query string values and redaction of secrets for display.
package utils
