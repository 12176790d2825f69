// Package db carries the PostgreSQL schema as goose migrations.
package db

import "embed"

// Migrations holds the goose SQL files under migrations/
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations
const MigrationsDir = "migrations"
