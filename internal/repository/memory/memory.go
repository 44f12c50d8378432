// Package memory provides process-local stores for single-instance
// deployments and tests. Every value handed out is a copy.
package memory
