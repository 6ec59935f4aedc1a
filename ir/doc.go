// Package ir is a small SSA module model that prints LLVM textual IR.
//
// It covers exactly what the Hugo lowering needs: integer and array types,
// opaque pointers, globals, function declarations and definitions, and a
// handful of instructions. A Module can check its own structural invariants
// with Verify before it is handed to an external LLVM toolchain.
//
// Pointers are always printed as the opaque ptr type, which LLVM 15 and later
// read by default. LLVM 14 tools need -opaque-pointers, and older releases
// cannot read the output at all.
package ir
