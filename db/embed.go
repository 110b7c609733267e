// Package db provides the embedded catalog schema migrations.
package db

import "embed"

// Migrations holds the versioned migration files under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
