// Package dispatch fans a notification out to every registered subscription.
//
// Broadcast serializes the payload once, ranges over the registry and starts
// one delivery per record. Each delivery is classified and reconciled on its
// own: a slow or failing endpoint never affects another. Dead endpoints (404
// or 410 from the push service) are pruned from the registry during the run.
// The returned Summary accounts for every record seen.
package dispatch
