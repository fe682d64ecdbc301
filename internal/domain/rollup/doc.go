// Package rollup turns flat award records into the directorate -> division ->
// program funding hierarchy and derives the views written by the pipeline:
// the aggregate-sorted full tree, the brief tree, and trees sorted by a single
// year. Every function here is pure and allocates its output, so views may be
// computed concurrently from the same source tree.
package rollup
