// Package linsol provides the linear solvers behind Solve nodes, registered
// as plugins of family "linsol":
//
//   - lu:     dense LU with partial pivoting (gonum mat.LU)
//   - qr:     dense QR (gonum mat.QR)
//   - refine: adaptor adding iterative refinement to an inner solver,
//     selected as "refine.<inner>" or through the refine_solver option;
//     refine_iterations sets the number of correction steps.
//
// Default returns a process-wide registry with the built-ins that falls back
// to plugin.LibraryLoader for other names.
package linsol
