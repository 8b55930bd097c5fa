// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the operations the CLI exposes (listing,
// checking and resolving rules, serving the inspection endpoint), decoupled
// from any specific entrypoint.
package app
