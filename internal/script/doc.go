// Package script loads Lua scripts as fuzzy matching strategies.
//
// A script defines one global function:
//
//	function match(pattern, candidate)
//	  if not string.find(candidate, pattern, 1, true) then
//	    return nil
//	  end
//	  return 100
//	end
//
// Returning nil means no match. Otherwise the first return value is the
// integer score and the optional second value is an array of ascending rune
// offsets into the candidate, zero-based, for highlighting.
//
// Scripts run sandboxed: only the base, table, string, and math libraries
// are open, the io, os, debug, and package libraries are not, and the code
// loading primitives are removed. print writes to stderr so script output
// cannot corrupt results on stdout. Each call is bounded by the engine's
// call timeout.
package script
