// Package imaging implements the still-image compression stage: orientation
// correction, transparency flattening, bounding-box resizing, and the
// format/quality encode policy with its single more-aggressive fallback pass.
//
// Compression failures are never fatal here. Compress returns an explicit
// skipped result carrying the original bytes so the pipeline can upload the
// untouched payload instead of aborting.
package imaging
