// Package http implements the HTTP/1.1 message syntax used by the fetcher.
//
// Messages are framed by Content-Length only. Chunked and other transfer
// codings are not understood and are rejected one layer up, in package
// semantic.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
