// Package uri parses the URLs a page can be loaded from.
//
// Only four schemes are understood: http, https, file and data.
// Each parses into its own variant of [URL] so that fields which only make
// sense for one scheme (host, port, payload) never exist on the others.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc3986
//
// - https://datatracker.ietf.org/doc/html/rfc2397
package uri
