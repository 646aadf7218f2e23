// Package httpapi is the reference HTTP surface of the goguard server: form
// login and signup with redirect messages, JSON identity administration and
// second-factor endpoints, logout, metrics and health.
package httpapi
