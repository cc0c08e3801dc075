// Package manifest records what a run did with each input: where its
// thumbnail was stored, how large the source was and why it failed if it
// did. Entries are kept sorted by input index so that the order of the
// input file can be rebuilt regardless of which worker finished first.
//
// Thumbnails carry a BLAKE2b-256 checksum so a stored manifest can be
// verified against storage later. Sources carry an xxhash fingerprint that
// is cheap to compute and exposes the same image served under several URLs.
package manifest
