// Package interfaces documents the extension points of the service and
// checks at compile time that the concrete types implement them.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - ImportJobStore, LinkStore, FolderStore, TagStore: persistence used by
//     the HTTP controllers (internal/http/stores.go)
//   - Store, JobTracker: what an import writes and how it reports progress
//     (internal/importers/pipeline.go)
//   - CanonicalCache: optional url_key lookup cache in front of Store
//     (internal/importers/pipeline.go, implemented in internal/cache)
//
// ## Background Work Interfaces
//
//   - Dispatcher: hands a queued import job to the backlite queue or to an
//     in-process worker pool (internal/tasks/dispatcher.go)
//   - AuditEventCleaner, OrphanTagsCleaner: retention jobs
//     (internal/tasks/cleanup_*.go)
//   - StaleJobFailer, TaskEnqueuer: cron driven maintenance
//     (internal/scheduler/maintenance.go)
//
// # Adding a New Import Format
//
//  1. Add the tag to ImportFormat and AllFormats in internal/importers/format.go.
//
//  2. Teach DetectFormat to recognise it, returning a confidence below the
//     formats it can be confused with.
//
//  3. Produce a []*ParsedBookmarkNode forest in a parser and route to it
//     from Parse in internal/importers/parse.go. Entries that cannot be read
//     carry Err instead of aborting the parse:
//
//     node := &importers.ParsedBookmarkNode{Kind: importers.NodeBookmark, URL: href}
//     if href == "" {
//         node.Err = &importers.ParseError{Message: "bookmark has no href"}
//     }
//
//  4. The pipeline, the HTTP upload and the CLI pick the format up from
//     AllFormats; no further wiring is needed.
package interfaces
