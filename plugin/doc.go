// Package plugin is the process-wide registry of named implementations,
// such as linear solvers, that expression nodes refer to by name.
//
// What:
//
//   - Registry: Register, Get (get or load), Has, Names, Doc, Instantiate.
//   - Loader: the interface consulted for names that are not registered.
//   - LibraryLoader: loads Go plugins (libsymad_<infix>_<name>.so) from the
//     configured paths, SYMADPATH, the bare file name and the working
//     directory, and reports every path tried on failure.
//
// Adaptors: a name "adaptor.inner" instantiates the adaptor with the option
// "<adaptor>_solver" (or the adaptor's declared AdaptorOption) set to
// "inner". Adaptors may nest.
//
// Concurrency: the registry is guarded by a mutex held across loads, so
// concurrent first lookups of one name perform exactly one load. Creators
// run outside the lock and may instantiate other plugins.
//
// Errors:
//
//   - ErrAlreadyRegistered  duplicate Register (first registration kept)
//   - ErrNotFound           no loader could provide the name
//   - ErrInvalidPlugin      missing name or creator
//   - ErrVersion            plugin built for another APIVersion
//   - ErrBadSymbol          library exports a malformed registration symbol
package plugin
