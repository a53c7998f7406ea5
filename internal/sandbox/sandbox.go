// Package sandbox adapts the syscall dispatcher to a WASM sandbox
// engine. The engine itself is an external collaborator per spec
// (it is out of scope), but its contract — load a module, bind named
// host functions with typed signatures, invoke the guest's run entry
// — is exercised here. Modeled on the original host runtime's
// wasmtime Linker/Store/Instance sequence, re-expressed with
// tetratelabs/wazero, a pure-Go engine requiring no cgo.
package sandbox

import (
	"context"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// JSONHandler serves a syscall whose args/results are JSON-encoded
// byte blobs.
type JSONHandler func(args []byte) []byte

// HandleHandler serves a syscall whose argument and result are both a
// bare i64, no JSON involved at all (e.g. blob_close).
type HandleHandler func(arg int64) int64

// HandleJSONHandler serves one of the five integer-handle syscalls
// (dent_close, dent_read, dent_list, dent_ls_gate, dent_get_blob):
// the argument is a single fd passed as a raw i64, but the result is
// the same JSON-encoded Result every other dent operation returns.
type HandleJSONHandler func(fd uint64) []byte

// HostFunc describes one entry in the fixed syscall surface. Exactly
// one of JSON, Handle, or HandleJSON should be set.
type HostFunc struct {
	Name       string
	JSON       JSONHandler
	Handle     HandleHandler
	HandleJSON HandleJSONHandler
}

const hostModuleName = "env"

// Engine wraps a wazero runtime for one session. A fresh Engine is
// built per session; nothing is shared across sessions.
type Engine struct {
	runtime wazero.Runtime
}

// New constructs an engine bound to ctx's lifetime.
func New(ctx context.Context) *Engine {
	return &Engine{runtime: wazero.NewRuntime(ctx)}
}

// Close releases the runtime's resources.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Register binds every host function under the "env" module name the
// guest imports from. JSON calls use a (ptr,len uint32) -> packed
// (ptr<<32|len uint64) convention; handle calls pass a single i64 and
// return a single i64.
func (e *Engine) Register(ctx context.Context, funcs []HostFunc) error {
	builder := e.runtime.NewHostModuleBuilder(hostModuleName)
	for _, f := range funcs {
		f := f
		switch {
		case f.Handle != nil:
			builder = builder.NewFunctionBuilder().
				WithFunc(func(_ context.Context, _ api.Module, arg int64) int64 {
					return f.Handle(arg)
				}).
				Export(f.Name)
		case f.HandleJSON != nil:
			builder = builder.NewFunctionBuilder().
				WithFunc(func(_ context.Context, mod api.Module, fd uint64) uint64 {
					result := f.HandleJSON(fd)
					return writeResult(mod, result)
				}).
				Export(f.Name)
		case f.JSON != nil:
			builder = builder.NewFunctionBuilder().
				WithFunc(func(_ context.Context, mod api.Module, ptr, length uint32) uint64 {
					mem := mod.Memory()
					args, ok := mem.Read(ptr, length)
					if !ok {
						args = nil
					}
					result := f.JSON(args)
					return writeResult(mod, result)
				}).
				Export(f.Name)
		default:
			return fmt.Errorf("sandbox: host function %q has no JSON, Handle, or HandleJSON handler", f.Name)
		}
	}
	_, err := builder.Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("sandbox: register host module: %w", err)
	}
	return nil
}

// writeResult allocates space in the guest's memory via its exported
// "alloc" function and writes result there, returning a packed
// (ptr<<32 | len) value the guest-side shim unpacks.
func writeResult(mod api.Module, result []byte) uint64 {
	alloc := mod.ExportedFunction("alloc")
	if alloc == nil {
		return 0
	}
	res, err := alloc.Call(context.Background(), uint64(len(result)))
	if err != nil || len(res) == 0 {
		return 0
	}
	ptr := uint32(res[0])
	mod.Memory().Write(ptr, result)
	return (uint64(ptr) << 32) | uint64(len(result))
}

// LoadAndRun compiles the module at wasmPath, instantiates it, and
// invokes its exported "run" entry point.
func (e *Engine) LoadAndRun(ctx context.Context, wasmPath string) error {
	wasmBytes, err := os.ReadFile(wasmPath)
	if err != nil {
		return fmt.Errorf("sandbox: read module: %w", err)
	}
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return fmt.Errorf("sandbox: compile module: %w", err)
	}
	mod, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		return fmt.Errorf("sandbox: instantiate module: %w", err)
	}
	run := mod.ExportedFunction("run")
	if run == nil {
		return fmt.Errorf("sandbox: module has no exported %q function", "run")
	}
	if _, err := run.Call(ctx); err != nil {
		return fmt.Errorf("sandbox: run: %w", err)
	}
	return nil
}
