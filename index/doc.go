// Package index builds the persisted corpus used for evidence retrieval.
//
// Build walks a docs directory, chunks every accepted file, embeds the chunk
// texts in batches on a worker pool (retrying transient backend failures
// with exponential backoff), L2-normalizes the vectors and writes aligned
// chunk and vector rows to a BadgerDB corpus store together with a build
// summary.
//
// A build never modifies the live index in place. It writes into a sibling
// temp directory and swaps it in with AtomicSwap, holding an exclusive file
// lock on "<out>.lock" for the duration so that concurrent rebuilds of the
// same output cannot interleave.
//
// Layout of an index directory:
//
//	<out>/corpus/              BadgerDB corpus store
//	<out>/build_summary.json   copy of the build summary
package index
