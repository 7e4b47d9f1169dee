// Package service contains the application use cases. It sits between the
// delivery mechanisms (HTTP handlers, the operator CLI) and the feed cache,
// and owns request-level rules such as de-duplicating requested users and
// bounding the size of a requested range.
//
// Services receive their dependencies through constructor injection and
// never depend on a concrete storage implementation.
package service
