// Package media generates the thumbnails shown next to the current image.
//
// Sources are decoded with libvips when it has been initialized, which
// shrinks on load, and otherwise with imaging (honouring EXIF orientation)
// or the standard decoders with BMP, TIFF and WebP support from x/image.
// The result is fitted into a square with Lanczos resampling.
//
// Thumbnails of the two standard sides, 128 and 256 pixels, are cached as
// PNG files named after the MD5 of the item URI:
//
//	<cache>/thumbnails/normal/<md5>.png
//	<cache>/thumbnails/large/<md5>.png
//
// The database index records the source modification time of every cached
// file; a cached thumbnail is only used while the source is unchanged.
package media
