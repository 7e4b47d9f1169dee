// Package api exposes the calendar feed over HTTP. Handlers parse and
// validate query parameters, delegate to the feed service and map its
// errors to status codes without leaking internal error text.
package api
