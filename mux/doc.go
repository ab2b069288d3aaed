// Package mux is the path router underneath openroute.
//
// Routes match a path template and, optionally, a set of methods:
//
//	r := mux.NewRouter()
//	r.HandleFunc("/users/{id:int}", getUser).Methods(http.MethodGet)
//	r.PathPrefix("/admin").Handler(adminRouter)
//
// # Path Variables
//
// Variables are enclosed in braces and may carry a regular expression or
// one of the named macros after a colon:
//
//	uuid     - RFC 4122 UUID
//	int      - unsigned integer
//	float    - decimal number
//	slug     - URL-safe slug
//	alpha    - alphabetic characters
//	alphanum - alphanumeric characters
//	date     - ISO 8601 date
//	hex      - hexadecimal string
//	domain   - domain name per RFC 1123
//
// A name that is not a macro is used as a raw regular expression.
// Matched values are read with Vars.
//
// # Status Codes
//
// A path that matches with the wrong method is answered with 405 and an
// Allow header (RFC 9110 Section 15.5.6); an unmatched path with 404.
// Both handlers can be replaced.
package mux
