// Package domain holds the core entities, repository interfaces, and
// sentinel errors shared across the application. It has no dependencies on
// transport or storage packages.
package domain
