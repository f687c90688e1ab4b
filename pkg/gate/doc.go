// Package gate decides whether a request may reach a route.
//
// Routes are classified by a static Policy into public, guest-only and
// entitlement-protected patterns. Gate.Decide returns one Verdict per
// request; Gate.Middleware applies it to net/http:
//
//	g := gate.New(cfg.Policy(), gate.NewCachedChecker(gate.NewStoreChecker(store)))
//	router.Use(g.Middleware(resolver))
//
// Entitlement answers come from a Checker. StoreChecker reads the profile
// store; CachedChecker and RedisChecker add a short-lived cache in front of
// it and never cache errors. The gate fails closed: when the answer cannot
// be obtained the request is redirected to the subscription offer.
package gate
