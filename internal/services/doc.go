// Package services defines the shared error taxonomy and context annotation
// helpers used across the media pipeline and its collaborators.
//
// Errors are classified by wrapping them with one of the exported sentinel
// markers so callers can branch with errors.Is without string matching.
package services
