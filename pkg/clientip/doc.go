// Package clientip resolves the caller's IP address behind reverse proxies.
//
// The resolved address keys the per-client rate limits on the public API and
// is attached to request logs as client_ip. Forwarding headers are only
// honoured when listed in CLIENTIP_TRUSTED_HEADERS, because any client can
// set them when nothing in front of the service overwrites them.
//
//	res := clientip.New("CF-Connecting-IP", "X-Forwarded-For")
//	r.Use(res.Middleware)
package clientip
