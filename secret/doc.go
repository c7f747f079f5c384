// Package secret resolves credentials referenced from catalog configuration.
//
// Only the trusted process ever resolves store credentials or the proxy
// signing key. Configuration values may carry:
//   - environment references, expanded strictly (see ExpandEnvStrict)
//   - secret references of the form secretref:<provider>:<ref>, resolved by
//     a registered Provider (see Resolver)
//
// Two providers are built in: "env" reads an environment variable and "file"
// reads a mounted secret file, e.g. secretref:file:/run/secrets/catalog_key.
package secret
