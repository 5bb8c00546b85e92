// Package resources resolves protocol://id references for GET /resources.
//
// Each protocol is served by a Provider. An empty id lists the collection.
package resources
