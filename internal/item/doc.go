// Package item models one candidate file or URI moving through the
// acquisition pipeline.
//
// Classify decides, from the string alone, how an item is acquired:
//
//	item.Classify("-")                    // MethodStdin
//	item.Classify("HTTPS://host/a.png")   // MethodHTTP
//	item.Classify("ftp://host/a.png")     // MethodFTP
//	item.Classify("photos/a.png")         // MethodLocal
//
// An Item carries the original path, its method, the temporary copy once a
// remote item has been fetched, and memoized derived names (Name, Ext, URI,
// Dir). Path always prefers the temporary copy. The URI doubles as the
// deduplication key used while fetching.
//
// Ownership moves with the item: the walker or link extractor creates it,
// the work queue holds it while it is processed, and the viewer keeps it
// afterwards. Close removes the temporary copy and is called exactly once
// per item when the viewer session ends.
package item
