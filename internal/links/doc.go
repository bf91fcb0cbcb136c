// Package links finds image references in fetched HTML documents.
//
// The scanner reads the document as a byte stream instead of parsing it, so
// it copes with whatever markup a web server returns: every case-insensitive
// "<img" opens a tag that runs to the next '>' or the end of input, and the
// first src= inside it is taken as the image reference. Matches are
// resolved against the document URI:
//
//	doc http://example.com/gallery/page.html
//	  src="pic.jpg"                      -> http://example.com/gallery/pic.jpg
//	  src="/abs/pic.jpg"                 -> http://example.com/abs/pic.jpg
//	  src="https://cdn.example.com/x.png" -> https://cdn.example.com/x.png
//
// Duplicates are kept; the fetch session decides what is new.
package links
