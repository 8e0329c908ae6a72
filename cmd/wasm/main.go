//go:build js && wasm

package main

import (
	"bytes"
	"encoding/json"
	"syscall/js"

	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/editor"
	"github.com/mydraft/mydraft/backend-go/internal/geom"
	"github.com/mydraft/mydraft/backend-go/internal/persist"
	"github.com/mydraft/mydraft/backend-go/internal/renderer"
	"github.com/mydraft/mydraft/backend-go/internal/typeid"
)

var store *editor.Store

func main() {
	store = editor.New(document.New(), editor.Options{})

	// Create the engine API object
	mydraftEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	mydraftEngine.Set("dispatch", js.FuncOf(dispatch))
	mydraftEngine.Set("begin", js.FuncOf(begin))
	mydraftEngine.Set("commit", js.FuncOf(commit))
	mydraftEngine.Set("cancel", js.FuncOf(cancel))
	mydraftEngine.Set("flush", js.FuncOf(flush))
	mydraftEngine.Set("loadDocument", js.FuncOf(loadDocument))
	mydraftEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))

	// --- Queries (frontend ← engine) ---
	mydraftEngine.Set("getState", js.FuncOf(getState))
	mydraftEngine.Set("getDocument", js.FuncOf(getDocument))
	mydraftEngine.Set("render", js.FuncOf(render))
	mydraftEngine.Set("renderSVG", js.FuncOf(renderSVG))
	mydraftEngine.Set("hitTest", js.FuncOf(hitTest))
	mydraftEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	mydraftEngine.Set("getShapeTypes", js.FuncOf(getShapeTypes))
	mydraftEngine.Set("getShapeSchema", js.FuncOf(getShapeSchema))

	// Register on global scope
	js.Global().Set("mydraftEngine", mydraftEngine)

	// Signal that WASM is ready
	js.Global().Set("mydraftWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

// --- Command Handlers ---

// dispatch takes one intent as JSON, e.g. {"type":"addShape","shapeType":"button"}.
func dispatch(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("intent JSON")
	}
	in, err := editor.DecodeIntent([]byte(args[0].String()))
	if err != nil {
		return result(err)
	}
	return result(store.Dispatch(in))
}

func begin(this js.Value, args []js.Value) interface{} {
	return result(store.Begin())
}

func commit(this js.Value, args []js.Value) interface{} {
	label := ""
	if len(args) > 0 && args[0].Type() == js.TypeString {
		label = args[0].String()
	}
	return result(store.Commit(label))
}

func cancel(this js.Value, args []js.Value) interface{} {
	return result(store.Cancel())
}

func flush(this js.Value, args []js.Value) interface{} {
	store.Flush()
	return nil
}

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("document JSON")
	}
	return result(store.Load([]byte(args[0].String())))
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	store.Reset(persist.NewSampleDiagram(typeid.Random{}))
	return result(nil)
}

// --- Query Handlers ---

type state struct {
	Revision  uint64           `json:"revision"`
	Selection []document.ID    `json:"selection"`
	CanUndo   bool             `json:"canUndo"`
	CanRedo   bool             `json:"canRedo"`
	UndoLabel string           `json:"undoLabel,omitempty"`
	RedoLabel string           `json:"redoLabel,omitempty"`
	Mode      editor.Mode      `json:"mode"`
	UI        interface{}      `json:"ui"`
	Caps      interface{}      `json:"capabilities"`
	Diagram   persist.Document `json:"diagram"`
}

func toJSON(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

func getState(this js.Value, args []js.Value) interface{} {
	st := store.State()
	return toJSON(state{
		Revision:  st.Revision,
		Selection: st.Selection.IDs(),
		CanUndo:   st.CanUndo,
		CanRedo:   st.CanRedo,
		UndoLabel: st.UndoLabel,
		RedoLabel: st.RedoLabel,
		Mode:      st.Mode,
		UI:        st.UI,
		Caps:      st.Capabilities,
		Diagram:   persist.Encode(st.Diagram),
	})
}

func getDocument(this js.Value, args []js.Value) interface{} {
	data, err := persist.Marshal(store.CurrentDiagram())
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

func render(this js.Value, args []js.Value) interface{} {
	out, _ := renderer.VisualsToJSON(renderer.Compile(store.Registry(), store.CurrentDiagram()))
	return js.ValueOf(out)
}

func renderSVG(this js.Value, args []js.Value) interface{} {
	var buf bytes.Buffer
	if err := renderer.WriteSVG(&buf, store.Registry(), store.CurrentDiagram()); err != nil {
		return js.ValueOf("")
	}
	return js.ValueOf(buf.String())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	p := geom.Point{X: args[0].Float(), Y: args[1].Float()}
	return js.ValueOf(string(renderer.HitTest(store.CurrentDiagram(), p)))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	ids := store.CurrentSelection().IDs()
	if len(ids) == 0 {
		return js.ValueOf("null")
	}
	return toJSON(store.CurrentDiagram().BoundingBoxOf(ids))
}

func getShapeTypes(this js.Value, args []js.Value) interface{} {
	return toJSON(store.Registry().Types())
}

func getShapeSchema(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("[]")
	}
	schema, err := store.ShapeSchema(args[0].String())
	if err != nil {
		return js.ValueOf("[]")
	}
	return toJSON(schema)
}
