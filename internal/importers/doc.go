// Package importers turns browser and Raindrop bookmark exports into folders
// and links.
//
// # Architecture
//
// An import flows through three stages:
//
//	upload → DetectFormat → Parse → []*ParsedBookmarkNode → Pipeline → Store
//
// DetectFormat inspects the file extension and content signatures and picks
// one ImportFormat with a confidence score. Parse dispatches on that format to
// ParseNetscapeHTML, ParseRaindropCSV or ParseGenericCSV, each of which
// returns the same forest of folders and bookmarks in document order.
//
// Pipeline.ProcessImportJob walks the forest depth-first. Folders are created
// only when the first bookmark beneath them is imported, and a path to id map
// that lives for one run avoids asking the store twice. Each bookmark is
// canonicalized, attached to the shared LinkCanonical for its key and stored
// as the user's LinkInstance. Re-importing the same file skips instances that
// already exist.
//
// # Failure handling
//
//   - A malformed entry or a per-bookmark storage error is recorded as an
//     entities.FailedBookmark and the walk goes on. The job completes.
//   - A document that cannot be parsed, a job bookkeeping failure or a
//     cancelled context fails the job.
//
// # Adding a New Format
//
//  1. Add an ImportFormat constant and list it in AllFormats.
//  2. Teach DetectFormat its signature.
//  3. Write a parser returning []*ParsedBookmarkNode and add it to Parse.
//
// # Example Usage
//
//	pipeline := importers.NewPipeline(store, jobs, canonical.Default(), log)
//
//	detection, err := importers.DetectFormat("bookmarks.html", content)
//	result, err := pipeline.ProcessImportJob(ctx, job.ID, userID, content, detection.Format, importers.Options{})
package importers
