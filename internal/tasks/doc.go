// Package tasks orchestrates track acquisitions with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] exposes the pipeline entry points:
//
//  1. [Engine.EnqueueTrack] / [Engine.RunTrack] : catalog-first acquisition
//     - Resolves track metadata from the catalog
//     - Auto-selects a media candidate (or fetches an explicit video id)
//     - Downloads, tags, and delivers to staging or the library tree
//
//  2. [Engine.EnqueueAlbum] : album fan-out
//     - Reads the album's track listing
//     - Dispatches one independent track pipeline per track
//     - Settles completed/failed counters atomically on the album job
//
//  3. [Engine.Lookup] / [Engine.EnqueueReverse] : URL-first acquisition
//     - Extracts metadata from an arbitrary media URL
//     - Tags from a chosen catalog track or validated manual metadata
//     - Rejoins the shared download/tag/deliver tail under a synthetic job id
//
// # Stage Machine
//
// Every pipeline walks an explicit checkpoint sequence (stage plus coarse
// progress value). Transitions replace the whole job record in the registry,
// so HTTP pollers always observe a consistent snapshot. Terminal states carry
// progress exactly 100 (completed) or 0 (error), never mid-range.
//
// # Progress Reporting
//
// The synchronous [Engine.RunTrack] and [Engine.RunReverse] forms accept an
// optional channel of [ProgressUpdate] mirroring the registry writes. Updates
// use select with default to prevent blocking.
//
// # Concurrency
//
// [Pool] feeds a bounded worker set from a buffered queue; submission never
// blocks the HTTP acceptor. [Cleaner] deletes served staging files after a
// grace interval. One job's fault never affects another: panics are caught at
// the pipeline boundary and recorded on that job alone.
package tasks
