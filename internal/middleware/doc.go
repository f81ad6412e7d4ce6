// Geowatch - Live Telemetry Fusion and Geographic Visualization
// Copyright 2026 Geowatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geowatch/geowatch

/*
Package middleware provides HTTP middleware for the API router.

The stack, outermost first, is request ID tagging, Prometheus
instrumentation, and gzip compression. CORS and rate limiting come from
go-chi/cors and go-chi/httprate and are mounted directly on the router.
*/
package middleware
