// Package bytecode compiles Brio modules to bytecode and executes them in a
// sandboxed stack machine. It is the core of the live-coding pipeline: the
// editor parses source into an AST, this package turns the AST into an
// immutable Program, and a fresh VM runs the Program on every render pass.
//
// The bytecode format is designed for:
//   - Determinism (compiling the same AST twice yields identical bytes)
//   - Fast decoding (one-byte opcodes, fixed-width 8-byte little-endian operands)
//   - Easy serialization (canonical CBOR, cacheable by content hash)
//
// # Architecture Overview
//
//   - Opcodes: 24 stack-based instructions covering literals, locals,
//     arithmetic, control flow, reactive state, and bridge dispatch
//
//   - Program: a compiled unit containing the code stream plus its pools:
//     deduplicated strings and symbols, declared record types, reactive
//     state defaults, and precompiled event-handler actions
//
//   - Compiler: converts the AST to a Program. View containers are flattened
//     by counting pushed children, forEach loops over literal arrays are
//     unrolled at compile time, and event-handler closures are reduced to
//     entries in the action pool
//
//   - VM: a stack interpreter gated by a capability descriptor. Every type
//     construction, method call, function call, and property access on a
//     native value passes through the allow-list; a refusal surfaces as
//     BridgeNotAllowed and aborts the run
//
// # Sandbox Model
//
// Programs have no ambient authority. The only way bytecode reaches native
// behavior is the bridge, and the bridge consults the embedder's capability
// descriptor before every dispatch. A program compiled against a permissive
// descriptor still cannot exceed the descriptor of the VM that runs it.
package bytecode
