// Command catalogd serves and queries the marketplace catalog.
//
// In the trusted context it opens the store and can serve the proxy API;
// in the proxied context (CATALOG_PROXY_URL set) every command goes through
// the proxy.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
