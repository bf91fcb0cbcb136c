// Command thumbcache inspects and prunes the thumbnail cache of the image
// viewer.
//
// Usage:
//
//	thumbcache <command> [args]
//
// Commands:
//
//	status         Print the index location and the number of cached
//	               thumbnails.
//
//	list           Print every cached thumbnail with its side, size, source
//	               modification time and URI.
//
//	purge <uri>... Drop the cached thumbnails of each URI, in both sizes.
//
//	clear [--yes]  Drop every cached thumbnail. Asks for confirmation on a
//	               terminal; elsewhere --yes is required.
//
// Environment:
//
//	CACHE_DIR - Thumbnail cache directory (default: user cache dir/image-viewer)
package main
