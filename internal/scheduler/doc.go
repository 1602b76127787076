// Package scheduler builds the packages of a workspace in dependency order.
//
// # How It Works
//
// The scheduler runs a layered topological traversal over a read-only
// workspace.Graph:
//  1. Every External package starts compiled; every in-scope Local package
//     starts pending.
//  2. The next batch is every pending package whose Local dependencies are
//     all satisfied.
//  3. An empty batch while packages are still pending means no further
//     progress is possible (a cycle, or a dependency missing from the graph).
//     The run fails with *UnresolvableDependencyError naming every stuck
//     package.
//  4. Otherwise each package of the batch is built in discovery order and
//     moved to compiled. The first non-zero exit aborts the run with
//     *BuildFailureError; nothing already built is reverted.
//  5. Repeat until nothing is pending.
//
// Every iteration either fails or removes at least one package from pending,
// so the loop always terminates.
//
// # Execution Model
//
// Batches describe which packages could run side by side, but the scheduler
// runs every command one after the other and blocks on each. There is no
// suspension point other than the blocking command and no internal locking.
//
// # Commands
//
// Each package is built with
//
//	<package manager> --workspace <package> run <script> [extra args]
//
// assembled by internal/template, so extra arguments without a value drop
// out of the command line. Packages that do not declare the script are
// marked compiled without running anything and reported as skipped.
package scheduler
