//go:build cgo

// This file is the C-ABI surface built with -buildmode=c-shared. It is a
// thin adapter over the pure-Go Model/Handle types in handle.go: every
// exported function here does argument marshaling and status-code mapping
// only, never evaluation logic.
package ffi

/*
#include <pthread.h>
*/
import "C"

import (
	"sync"
	"unsafe"
)

// Status codes returned by the exported calculate_* functions: 0 ok, -1
// batch input-count mismatch, -2 runtime evaluation failure, -3 unknown
// node id.
const (
	StatusOK                 = 0
	StatusInputCountMismatch = -1
	StatusMappingNotFound    = -2
	StatusUnknownNode        = -3

	// StatusNotInstalled is returned when no model has been installed yet
	// via installModel. It sits outside the wire contract's four codes.
	// Nothing generated by nodegen calls installModel, so the embedding Go
	// code must call it before these exports return anything else.
	StatusNotInstalled = -4
)

var (
	activeModel   *Model
	activeModelMu sync.RWMutex

	// threadHandles gives each calling OS thread its own Handle so
	// concurrent callers on distinct threads never see each other's
	// in-flight input values. Keyed by pthread_self(), the only
	// thread-identity primitive available to a cgo shared library; no
	// third-party package can provide this without cgo itself.
	threadHandles sync.Map // map[C.pthread_t]*Handle
)

// installModel installs m (already validated Go-side by NewModel) as the
// process-wide active graph and drops every per-thread handle. Not part
// of the public C ABI; embedding Go code calls it so the exported
// functions below have a model to evaluate.
func installModel(m *Model) {
	activeModelMu.Lock()
	activeModel = m
	activeModelMu.Unlock()
	threadHandles.Range(func(k, _ any) bool {
		threadHandles.Delete(k)
		return true
	})
}

func currentHandle() (*Handle, bool) {
	activeModelMu.RLock()
	m := activeModel
	activeModelMu.RUnlock()
	if m == nil {
		return nil, false
	}

	tid := C.pthread_self()
	if h, ok := threadHandles.Load(tid); ok {
		return h.(*Handle), true
	}
	h := NewHandle(m)
	threadHandles.Store(tid, h)
	return h, true
}

//export set_input_node_value_num
func set_input_node_value_num(id *C.char, value C.double) C.int {
	h, ok := currentHandle()
	if !ok {
		return StatusNotInstalled
	}
	if err := h.SetNum(C.GoString(id), float64(value)); err != nil {
		return StatusUnknownNode
	}
	return StatusOK
}

//export set_input_node_value_str
func set_input_node_value_str(id *C.char, value *C.char) C.int {
	h, ok := currentHandle()
	if !ok {
		return StatusNotInstalled
	}
	if err := h.SetStr(C.GoString(id), C.GoString(value)); err != nil {
		return StatusUnknownNode
	}
	return StatusOK
}

//export calculate_final_node_price
func calculate_final_node_price(out *C.double) C.int {
	h, ok := currentHandle()
	if !ok {
		return StatusNotInstalled
	}
	v, err := h.Eval()
	if err != nil {
		return statusFor(err)
	}
	*out = C.double(v)
	return StatusOK
}

//export calculate_node_price
func calculate_node_price(id *C.char, out *C.double) C.int {
	h, ok := currentHandle()
	if !ok {
		return StatusNotInstalled
	}
	v, err := h.EvalNode(C.GoString(id))
	if err != nil {
		return statusFor(err)
	}
	*out = C.double(v)
	return StatusOK
}

//export get_node_count
func get_node_count() C.int {
	activeModelMu.RLock()
	defer activeModelMu.RUnlock()
	if activeModel == nil {
		return 0
	}
	return C.int(activeModel.NodeCount())
}

//export get_node_id
func get_node_id(index C.int) *C.char {
	activeModelMu.RLock()
	m := activeModel
	activeModelMu.RUnlock()
	if m == nil {
		return nil
	}
	id, err := m.NodeID(int(index))
	if err != nil {
		return nil
	}
	return C.CString(id)
}

//export is_dynamic_input
func is_dynamic_input(id *C.char) C.int {
	activeModelMu.RLock()
	m := activeModel
	activeModelMu.RUnlock()
	if m == nil {
		return -1
	}
	isDyn, ok := m.IsDynamicInput(C.GoString(id))
	if !ok {
		return -1
	}
	if isDyn {
		return 1
	}
	return 0
}

//export get_dynamic_inputs
func get_dynamic_inputs(count *C.int) **C.char {
	activeModelMu.RLock()
	m := activeModel
	activeModelMu.RUnlock()
	if m == nil {
		*count = 0
		return nil
	}

	ids := m.DynamicInputIDs()
	*count = C.int(len(ids))
	if len(ids) == 0 {
		return nil
	}

	arr := C.malloc(C.size_t(len(ids)) * C.size_t(unsafe.Sizeof(uintptr(0))))
	cArr := (*[1 << 20]*C.char)(arr)[:len(ids):len(ids)]
	for i, id := range ids {
		cArr[i] = C.CString(id)
	}
	return (**C.char)(arr)
}

//export get_input_count
func get_input_count() C.int {
	activeModelMu.RLock()
	defer activeModelMu.RUnlock()
	if activeModel == nil {
		return 0
	}
	return C.int(len(activeModel.Inputs))
}

// InputMetaC mirrors the C ABI's packed InputMeta layout (id, type tag,
// within-type-class index).
type InputMetaC struct {
	ID    *C.char
	Type  C.int32_t
	Index C.int32_t
}

//export get_input_meta
func get_input_meta(position C.int, out *InputMetaC) C.int {
	activeModelMu.RLock()
	m := activeModel
	activeModelMu.RUnlock()
	if m == nil {
		return StatusNotInstalled
	}
	if int(position) < 0 || int(position) >= len(m.Inputs) {
		return StatusUnknownNode
	}
	meta := m.Inputs[position]
	out.ID = C.CString(meta.ID)
	out.Type = C.int32_t(meta.Kind)
	out.Index = C.int32_t(meta.Index)
	return StatusOK
}

//export calculate_final_node_price_batch
func calculate_final_node_price_batch(numericValues *C.double, numericCount C.int, stringValues **C.char, stringCount C.int, rowCount C.int, out *C.double) C.int {
	activeModelMu.RLock()
	m := activeModel
	activeModelMu.RUnlock()
	if m == nil {
		return StatusNotInstalled
	}

	numWidth := int(numericCount)
	strWidth := int(stringCount)
	rows := int(rowCount)

	numFlat := (*[1 << 28]C.double)(unsafe.Pointer(numericValues))[: rows*numWidth : rows*numWidth]
	var strFlat []*C.char
	if strWidth > 0 {
		strFlat = (*[1 << 24]*C.char)(unsafe.Pointer(stringValues))[: rows*strWidth : rows*strWidth]
	}
	outSlice := (*[1 << 28]C.double)(unsafe.Pointer(out))[:rows:rows]

	batchRows := make([]BatchInputs, rows)
	for r := 0; r < rows; r++ {
		row := BatchInputs{
			Numeric: make([]float64, numWidth),
			String:  make([]string, strWidth),
		}
		for c := 0; c < numWidth; c++ {
			row.Numeric[c] = float64(numFlat[r*numWidth+c])
		}
		for c := 0; c < strWidth; c++ {
			row.String[c] = C.GoString(strFlat[r*strWidth+c])
		}
		batchRows[r] = row
	}

	results, err := EvalBatch(m, batchRows)
	if err != nil {
		return statusFor(err)
	}
	for r, v := range results {
		outSlice[r] = C.double(v)
	}
	return StatusOK
}

// statusFor maps a Go error from the Handle/EvalBatch layer onto the C
// ABI's status codes: a row-width mismatch is the only source of -1, a
// conditional mapping miss is -2, and an unresolvable node id is -3.
func statusFor(err error) C.int {
	switch {
	case err == nil:
		return StatusOK
	case isMappingNotFound(err):
		return StatusMappingNotFound
	case isRowWidthMismatch(err):
		return StatusInputCountMismatch
	case isUnknownNode(err):
		return StatusUnknownNode
	default:
		return StatusUnknownNode
	}
}
