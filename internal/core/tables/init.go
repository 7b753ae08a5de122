// Package tables registers the document profiles with the core registry.
// Import this package to ensure all profiles are registered.
package tables

// This file exists to provide a single import point.
// Each profile file uses init() to register its profile.
