// Package db bundles the SQL migrations so binaries and tests apply the same schema.
package db

import "embed"

// Migrations holds every file under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
