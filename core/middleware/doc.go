// Package middleware groups the HTTP middleware of the Fiber application.
//
//   - auth: API key validation (X-API-Key header or api_key query parameter).
//   - rayid: assigns each request a ray id, stored in locals and echoed in the
//     X-Ray-ID response header, for log correlation.
//
// Both are registered globally in cmd/start.go, rayid first.
package middleware
