package config

const SourceFileExt = ".lua"

// DefaultEnvName is the predefined environment loaded by `--# open` when a
// chunk asks for the standard library profile.
const DefaultEnvName = "lua51"

// MaxRecursionDepth bounds parser recursion so that pathological inputs fail
// with a diagnostic instead of a stack overflow.
const MaxRecursionDepth = 500

// MaxRequireDepth bounds the module resolution chain.
const MaxRequireDepth = 100

// IsTestMode indicates if the program is running in test mode.
// No code in this repository assigns it, so it stays false.
var IsTestMode = false
