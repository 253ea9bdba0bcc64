// Package db holds the SQL migrations applied on server start.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
