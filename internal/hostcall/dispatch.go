// Package hostcall registers the fixed syscall surface a guest module
// imports from against a session's dent.Processor and monitor.Monitor,
// translating the sandbox's JSON/handle calling convention into typed
// Go calls. Modeled on the original host runtime's
// linker.func_wrap("runtime", name, closure) registration loop, reborn
// here as a name->handler table handed to internal/sandbox.
package hostcall

import (
	"encoding/json"

	"github.com/ddaud1/faasten-host/internal/buckle"
	"github.com/ddaud1/faasten-host/internal/dent"
	"github.com/ddaud1/faasten-host/internal/sandbox"
)

// Build constructs the full syscall surface for one session's
// processor. Every entry here corresponds to a named import the guest
// module expects from the "env" host module.
func Build(p *dent.Processor) []sandbox.HostFunc {
	return []sandbox.HostFunc{
		{Name: "get_current_label", JSON: jsonCall(func(_ []byte) interface{} {
			return map[string]string{"label": p.GetCurrentLabel().String()}
		})},
		{Name: "buckle_parse", JSON: jsonCall(handleBuckleParse(p))},
		{Name: "taint_with_label", JSON: jsonCall(handleTaintWithLabel(p))},
		{Name: "declassify", JSON: jsonCall(handleDeclassify(p))},
		{Name: "root", JSON: jsonCall(func(_ []byte) interface{} { return p.Root() })},

		{Name: "dent_open", JSON: jsonCall(handleDentOpen(p))},
		{Name: "dent_create", JSON: jsonCall(handleDentCreate(p))},
		{Name: "dent_update", JSON: jsonCall(handleDentUpdate(p))},
		{Name: "dent_link", JSON: jsonCall(handleDentLink(p))},
		{Name: "dent_unlink", JSON: jsonCall(handleDentUnlink(p))},
		{Name: "dent_ls_faceted", JSON: jsonCall(handleDentLsFaceted(p))},
		{Name: "dent_invoke", JSON: jsonCall(handleDentInvoke(p))},

		{Name: "dent_close", HandleJSON: handleJSONResult(func(fd uint64) dent.Result { return p.DentClose(fd) })},
		{Name: "dent_read", HandleJSON: handleJSONResult(func(fd uint64) dent.Result { return p.DentRead(fd) })},
		{Name: "dent_list", HandleJSON: handleJSONResult(func(fd uint64) dent.Result { return p.DentList(fd) })},
		{Name: "dent_ls_gate", HandleJSON: handleJSONResult(func(fd uint64) dent.Result { return p.DentLsGate(fd) })},
		{Name: "dent_get_blob", HandleJSON: handleJSONResult(func(fd uint64) dent.Result { return p.DentGetBlob(fd) })},

		{Name: "blob_create", JSON: jsonCall(func(_ []byte) interface{} { return p.BlobCreate() })},
		{Name: "blob_write", JSON: jsonCall(handleBlobWrite(p))},
		{Name: "blob_finalize", JSON: jsonCall(func(raw []byte) interface{} {
			var args struct {
				Fd uint64 `json:"fd"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return dent.Result{Success: false, Err: dent.BadInput}
			}
			return p.BlobFinalize(args.Fd)
		})},
		{Name: "blob_read", JSON: jsonCall(handleBlobRead(p))},
		{Name: "blob_close", Handle: func(fd int64) int64 {
			if p.BlobClose(uint64(fd)).Success {
				return 1
			}
			return 0
		}},
	}
}

// jsonCall wraps a handler that decodes its own args and returns a
// value to be JSON-encoded as the syscall's result.
func jsonCall(fn func(args []byte) interface{}) sandbox.JSONHandler {
	return func(args []byte) []byte {
		out, err := json.Marshal(fn(args))
		if err != nil {
			out, _ = json.Marshal(dent.Result{Success: false, Err: dent.BadInput})
		}
		return out
	}
}

// handleJSONResult adapts a single-fd dent.Processor method to the
// HandleJSON convention.
func handleJSONResult(fn func(fd uint64) dent.Result) sandbox.HandleJSONHandler {
	return func(fd uint64) []byte {
		out, err := json.Marshal(fn(fd))
		if err != nil {
			out, _ = json.Marshal(dent.Result{Success: false, Err: dent.BadInput})
		}
		return out
	}
}

type parseArgs struct {
	Input string `json:"input"`
}

type parseResult struct {
	Ok    bool   `json:"ok"`
	Label string `json:"label,omitempty"`
}

func handleBuckleParse(p *dent.Processor) func([]byte) interface{} {
	return func(raw []byte) interface{} {
		var args parseArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return parseResult{Ok: false}
		}
		l, ok := p.BuckleParse(args.Input)
		if !ok {
			return parseResult{Ok: false}
		}
		return parseResult{Ok: true, Label: l.String()}
	}
}

type labelArgs struct {
	Label string `json:"label"`
}

type labelResult struct {
	Ok    bool   `json:"ok"`
	Label string `json:"label"`
}

func handleTaintWithLabel(p *dent.Processor) func([]byte) interface{} {
	return func(raw []byte) interface{} {
		var args labelArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return labelResult{Ok: false, Label: p.GetCurrentLabel().String()}
		}
		l, ok := buckle.Parse(args.Label)
		if !ok {
			return labelResult{Ok: false, Label: p.GetCurrentLabel().String()}
		}
		return labelResult{Ok: true, Label: p.TaintWithLabel(l).String()}
	}
}

type declassifyArgs struct {
	Target string `json:"target"`
}

func handleDeclassify(p *dent.Processor) func([]byte) interface{} {
	return func(raw []byte) interface{} {
		var args declassifyArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return labelResult{Ok: false, Label: p.GetCurrentLabel().String()}
		}
		target, ok := buckle.ParseComponent(args.Target)
		if !ok {
			return labelResult{Ok: false, Label: p.GetCurrentLabel().String()}
		}
		after := p.Declassify(target)
		return labelResult{Ok: after.Secrecy.Equal(target), Label: after.String()}
	}
}

type openArgs struct {
	DirFd uint64          `json:"dir_fd"`
	Entry dent.OpenEntry  `json:"entry"`
}

func handleDentOpen(p *dent.Processor) func([]byte) interface{} {
	return func(raw []byte) interface{} {
		var args openArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return dent.Result{Success: false, Err: dent.BadInput}
		}
		return p.DentOpen(args.DirFd, args.Entry)
	}
}

func handleDentCreate(p *dent.Processor) func([]byte) interface{} {
	return func(raw []byte) interface{} {
		var req dent.CreateRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return dent.Result{Success: false, Err: dent.BadInput}
		}
		return p.DentCreate(req)
	}
}

func handleDentUpdate(p *dent.Processor) func([]byte) interface{} {
	return func(raw []byte) interface{} {
		var req dent.UpdateRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return dent.Result{Success: false, Err: dent.BadInput}
		}
		return p.DentUpdate(req)
	}
}

type linkArgs struct {
	DirFd    uint64 `json:"dir_fd"`
	Name     string `json:"name"`
	TargetFd uint64 `json:"target_fd"`
}

func handleDentLink(p *dent.Processor) func([]byte) interface{} {
	return func(raw []byte) interface{} {
		var args linkArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return dent.Result{Success: false, Err: dent.BadInput}
		}
		return p.DentLink(args.DirFd, args.Name, args.TargetFd)
	}
}

type unlinkArgs struct {
	DirFd uint64 `json:"dir_fd"`
	Name  string `json:"name"`
}

func handleDentUnlink(p *dent.Processor) func([]byte) interface{} {
	return func(raw []byte) interface{} {
		var args unlinkArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return dent.Result{Success: false, Err: dent.BadInput}
		}
		return p.DentUnlink(args.DirFd, args.Name)
	}
}

type lsFacetedArgs struct {
	FacetedFd uint64        `json:"faceted_fd"`
	Clearance *string       `json:"clearance,omitempty"`
}

func handleDentLsFaceted(p *dent.Processor) func([]byte) interface{} {
	return func(raw []byte) interface{} {
		var args lsFacetedArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return dent.Result{Success: false, Err: dent.BadInput}
		}
		var clearance *buckle.Label
		if args.Clearance != nil {
			l, ok := buckle.Parse(*args.Clearance)
			if !ok {
				return dent.Result{Success: false, Err: dent.BadInput}
			}
			clearance = &l
		}
		return p.DentLsFaceted(args.FacetedFd, clearance)
	}
}

func handleDentInvoke(p *dent.Processor) func([]byte) interface{} {
	return func(raw []byte) interface{} {
		var req dent.InvokeRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return dent.Result{Success: false, Err: dent.BadInput}
		}
		return p.DentInvoke(req)
	}
}

type blobWriteArgs struct {
	Fd   uint64 `json:"fd"`
	Data []byte `json:"data"`
}

func handleBlobWrite(p *dent.Processor) func([]byte) interface{} {
	return func(raw []byte) interface{} {
		var args blobWriteArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return dent.Result{Success: false, Err: dent.BadInput}
		}
		return p.BlobWrite(args.Fd, args.Data)
	}
}

type blobReadArgs struct {
	Fd     uint64 `json:"fd"`
	Offset *int64 `json:"offset,omitempty"`
	Length *int64 `json:"length,omitempty"`
}

func handleBlobRead(p *dent.Processor) func([]byte) interface{} {
	return func(raw []byte) interface{} {
		var args blobReadArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return dent.Result{Success: false, Err: dent.BadInput}
		}
		return p.BlobRead(args.Fd, args.Offset, args.Length)
	}
}
