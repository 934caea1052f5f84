// Package client provides the operator commands of the `palabra` CLI.
//
// The commands talk to the HTTP API of a running server. The base URL is
// discovered by the application that embeds the commands via a BaseURLFunc;
// the standalone binary reads PALABRA_HTTP (default http://127.0.0.1:3000).
// Admin routes take the bearer token from --token or PALABRA_ADMIN_TOKEN.
//
// Usage
//
//	palabra subscribers count
//	palabra subscribers list
//	palabra subscribers remove --endpoint https://fcm.googleapis.com/fcm/send/abc
//
//	# push today's devotional to everyone
//	palabra broadcast
//	# only to Firefox subscribers
//	palabra broadcast --audience 'host == "updates.push.services.mozilla.com"'
//	# custom notification
//	palabra broadcast --title "Culto especial" --body "Este domingo a las 10"
//
//	palabra history --limit 5
//	palabra today
//
// Pass --json to any command to print the raw response.
package client
