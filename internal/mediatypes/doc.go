// Package mediatypes decides, from a file extension alone, whether a fetched
// item can be displayed directly or has to be scanned for image links.
//
// It is a dependency-free leaf package so item, fetch and media can all
// import it without cycles.
//
//	if mediatypes.IsImage(it.Ext()) {
//	    // hand to the display sink
//	}
//
// The recognized image extensions are bmp, gif, jpg, jpeg, png, svg, tiff and
// xpm, compared case-insensitively.
package mediatypes
