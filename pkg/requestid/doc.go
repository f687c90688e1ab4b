// Package requestid assigns a correlation ID to every HTTP request.
//
// Middleware keeps a client-supplied X-Request-ID when it is short and made
// of [A-Za-z0-9_-]; otherwise it generates a UUID. The ID is stored in the
// request context and echoed in the response header. LoggerExtractor plugs
// it into the logger so webhook and gate logs can be correlated.
package requestid
