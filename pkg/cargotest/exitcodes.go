// Package cargotest provides public constants for external tools
// integrating with the cargotest CLI.
package cargotest

// Exit codes returned by the cargotest CLI.
// These constants allow editor integrations and CI scripts to check exit
// codes symbolically rather than using magic numbers.
const (
	// ExitSuccess indicates every requested test passed or was ignored.
	ExitSuccess = 0

	// ExitFailure indicates a failed or errored test, or a cargo failure.
	ExitFailure = 1

	// ExitConfigError indicates an invalid .cargotest.yaml.
	ExitConfigError = 2

	// ExitEnvError indicates an environment error (cargo not found, etc.).
	ExitEnvError = 3
)
