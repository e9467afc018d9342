// Package knowledge implements the Knowledge Exchange: an append-only,
// process-local store of shared knowledge items tagged by source, category,
// confidence and applicability.
//
// Sharing an item broadcasts a notification (via the hub) to every agent
// whose name or capability tags intersect the item's applicability. Query
// produces a lazy, restartable sequence ordered by descending confidence with
// ties broken by recency; RelatedTo walks the related-knowledge reference
// graph to a bounded depth with cycle protection.
//
// Items are never mutated after creation. Corrections are new items that
// reference the corrected one.
package knowledge
