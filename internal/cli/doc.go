// Package cli implements the feedctl commands: schema migrations, fixture
// seeding, feed rendering and feed cache maintenance.
package cli
