// Package manager checks for and creates the target database through a
// connection to the maintenance database. Identifiers are quoted with
// pgx.Identifier.Sanitize.
package manager
