// Package schedule turns an expression DAG rooted at a set of outputs into a
// linear evaluation order.
//
// What:
//
//   - DepthFirstSort: stack-based DFS from every root. When the node on top
//     of the stack still has unscheduled dependencies, the one with the most
//     dependencies of its own is pushed next.
//   - BreadthFirstSort: level 0 for leaves, 1 + max dependency level
//     otherwise; nodes are regrouped by level and nodes of one level are
//     independent of each other.
//   - Postpone: moves every node to the latest level before its earliest
//     consumer, keeping level(dep) < level(node).
//   - Sort: one entry point selecting the algorithm by Mode.
//
// The algorithms are generic over the node type. Callers pass the roots and
// a DepsFunc; visited state lives in per-call maps, so a graph may be
// scheduled from many goroutines at once and no node carries scratch fields.
//
// Complexity:
//
//   - DepthFirstSort:   Time O(V + E·d), d the largest dependency count
//   - BreadthFirstSort: Time O(V + E), Memory O(V)
//   - Postpone:         Time O(V + E), Memory O(V)
//
// Errors:
//
//   - ErrInvalidOrder  an order or level assignment violates dependencies
//   - ErrUnknownMode   unknown scheduling mode
package schedule
