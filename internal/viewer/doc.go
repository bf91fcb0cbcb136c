// Package viewer holds the display state of a run without drawing it.
//
// A Session receives progress updates and completed items from the fetch
// coordinator, remembers the current image and the thumbnails in arrival
// order, and carries out the file operations offered on an image: rename
// and save. Closing a session removes the temporary copies of fetched items.
package viewer
