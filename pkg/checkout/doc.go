// Package checkout opens hosted checkout sessions for a plan.
//
// The user id and plan are written as correlation metadata on the session
// and on the subscription it creates; webhook reconciliation relies on them.
package checkout
