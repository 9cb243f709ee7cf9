// Package command defines the shapes every ag command shares: the descriptor a
// command module hands to the registry, the Handler capability that gets
// invoked at dispatch time, and the exit statuses and error types handlers use
// to report failures.
package command
