// Package delivery classifies the result of a single push attempt.
//
// A Sender returns nil on success, a *StatusError when the push service
// answered with a non-2xx status, or any other error for transport failures.
// Classify maps that result to an Outcome: 404 and 410 mean the subscription
// is permanently gone, everything else is transient.
package delivery
