// Package dedupe groups resource records from different provider accounts
// into single logical entities.
//
// Two providers connected to the same organization frequently report the
// same underlying resource: a management panel and the compute vendor both
// list the same server, a registrar and a CDN both list the same domain.
// The deduplication engine collapses those records so the dashboard shows
// one entity with a badge per contributing provider.
//
// # Algorithm
//
// Both entry points share the same shape:
//
//  1. Compute each record's match key (pkg/identity).
//  2. Records with no usable key become singleton groups; they are never
//     merged with anything, including each other.
//  3. Keyed server records join the first existing group in which any
//     member matches them (transitive grouping); domain records group by
//     exact normalized hostname.
//  4. Each group's primary is its most recently updated member (ties keep
//     the first encountered; a missing timestamp orders as zero).
//  5. The output clones the primary and adds the contributing provider
//     names (ordered by category, see SortProviders), the group's original
//     record IDs, and the full member list.
//
// Every input record appears in exactly one output group's MergedData; an
// empty input short-circuits to an empty output.
//
// Deduplication is derived, read-only state: it is recomputed on every
// listing call, never persisted, and each call operates only on its input
// and local temporaries, so concurrent calls are safe.
package dedupe
