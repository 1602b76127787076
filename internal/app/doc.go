// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the build lifecycle: settings, environment,
// workspace discovery, scope selection and the dispatch to the scheduler.
// It is decoupled from any specific entrypoint like a CLI.
package app
