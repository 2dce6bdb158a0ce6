// Package server is the sample HTTP service traced by the tracer package.
//
// It answers on /, /hello, /health, POST /users and /static/*. Every request
// gets a server span (tracer "http" instrumentation), the matched route on
// that span ("router"), an X-Request-Id, an access log entry and Prometheus
// request metrics. /hello and POST /users simulate asynchronous work inside
// a child span so that traces show some depth.
package server
