// Package naming turns arbitrary file and directory names into filesystem-safe
// ASCII names and resolves destination collisions during relocation.
//
// Normalize transliterates the Ukrainian Cyrillic alphabet through a fixed
// table (uppercase letters map to capitalized replacements) and replaces every
// remaining character outside [A-Za-z0-9_.] with an underscore. It is pure,
// total and idempotent.
//
// CollisionResolver decides the final destination path when a normalized
// name is already taken, either by a file on disk or by an earlier file in
// the same run.
package naming
