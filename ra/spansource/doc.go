// Package spansource provides ready-made ra.SpanSource implementations.
//
//   - Parent: imports spans by allocating from another arena
//   - Bump: hands out monotonically increasing synthetic spans up to a limit
//   - Reserve: reserves real virtual address ranges with anonymous mappings (unix only)
package spansource
