// Package config loads catalogd configuration.
//
// Values come from, in increasing precedence: Default, an optional YAML file,
// then CATALOG_-prefixed environment variables. Secret-bearing fields (the
// store path and the proxy signing key) may hold ${VAR} references or
// secretref:<provider>:<ref> values; ResolveSecrets replaces them in place.
package config
