// Package media defines the upload model and extension-based classification
// shared by the ingestion pipeline and its callers.
package media
