// Package proxy carries catalog calls across the network boundary.
//
// A Server exposes a trusted catalog.Service over HTTP under /v1/items; a
// Client implements catalog.Service by calling that server, so a proxied
// process never holds store credentials.
//
// Every response uses the same envelope:
//
//	{"success": true, "data": ...}
//	{"success": false, "error": {"kind": "not_found", "message": "..."}}
//
// Error kinds are storeerr wire names, so the client rebuilds the same
// *storeerr.StoreError the server saw. Requests carry an HS256 service token
// (see package auth); reads need the catalog:read scope and writes
// catalog:write.
package proxy
