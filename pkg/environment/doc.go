// Package environment carries the deployment stage through request contexts.
// Error responses use it to hide internal messages in production.
package environment
