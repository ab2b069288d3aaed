// Package muxhandlers provides the HTTP middlewares served in front of the
// routers. Every failure they produce is answered with the JSON error
// envelope of the exceptions package, so clients see one error shape
// whether a request fails in a middleware or in an endpoint.
//
//	r := mux.NewRouter()
//	r.Use(
//	    muxhandlers.RequestIDMiddleware(muxhandlers.RequestIDConfig{}),
//	    muxhandlers.RecoveryMiddleware(muxhandlers.RecoveryConfig{Logger: logger}),
//	    muxhandlers.MetricsMiddleware(metrics),
//	)
package muxhandlers
