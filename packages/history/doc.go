// Package history records the labeled exchanges of one script run and answers
// path queries against them, such as login.json.token or last.status.
//
// Entries are addressed by label, by integer index (negative values count
// from the end) or by the reserved alias "last". Colliding labels get a
// numeric suffix starting at 2.
package history
