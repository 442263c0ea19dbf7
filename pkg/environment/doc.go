// Package environment names the deployment environments and normalizes the
// values read from configuration.
package environment
