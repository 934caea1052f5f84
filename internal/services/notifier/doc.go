// Package notifier is the use-case layer of the push service: subscribing
// with a confirmation push, unsubscribing, the daily devotional broadcast,
// operator broadcasts with an optional CEL audience, and the broadcast
// history.
package notifier
