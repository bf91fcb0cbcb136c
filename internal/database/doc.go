// Package database keeps the thumbnail cache index in SQLite.
//
// Each row names a cached thumbnail file by source URI and bounding side and
// records the modification time of the source it was made from, so a
// changed source can be detected without opening the cached image.
//
// The database uses WAL mode so thumbnail workers can read while another
// one writes, and the schema is created on open.
package database
