// Package policy decides whether a verified identity may reach a route.
//
// It provides:
//   - The closed set of role tags used across the workflow
//   - The satisfies relation between roles, kept as an explicit table
//   - Guards: pure allow/deny decisions bound to a required role
//
// Guards never touch the network or the database. The HTTP adapters that
// turn a Decision into a 403 live in the middleware package.
package policy
