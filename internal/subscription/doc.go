// Package subscription defines the validated push subscription record.
//
// A Record can only be built from client input through Parse or ParseJSON,
// which enforce that the endpoint is an absolute URL, keys.p256dh decodes to
// a 65-byte P-256 point and keys.auth decodes to a 16-byte secret. Every
// violation wraps ErrInvalidSubscription.
package subscription
