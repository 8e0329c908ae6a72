package persist

import (
	"github.com/mydraft/mydraft/backend-go/internal/document"
	"github.com/mydraft/mydraft/backend-go/internal/typeid"
)

// NewSampleDiagram builds a small login form: a grouped frame with labels,
// inputs and a button, plus a sticky comment beside it.
func NewSampleDiagram(gen typeid.Generator) document.Diagram {
	id := func(prefix string) document.ID { return document.ID(gen.Next(prefix)) }
	text := func(s string) document.Property { return document.Property{Key: "text", Value: document.Text(s)} }

	frameID := id(typeid.PrefixShape)
	titleID := id(typeid.PrefixShape)
	userLabelID := id(typeid.PrefixShape)
	userBoxID := id(typeid.PrefixShape)
	passLabelID := id(typeid.PrefixShape)
	passBoxID := id(typeid.PrefixShape)
	rememberID := id(typeid.PrefixShape)
	buttonID := id(typeid.PrefixShape)
	formID := id(typeid.PrefixGroup)
	noteID := id(typeid.PrefixShape)

	shape := func(id document.ID, typ string, x, y, w, h float64, props ...document.Property) *document.Shape {
		return document.NewShape(id, typ, document.Transform{X: x, Y: y, Width: w, Height: h}, document.NewProperties(props...))
	}

	members := []*document.Shape{
		shape(frameID, "rectangle", 100, 100, 300, 260,
			document.Property{Key: "backgroundColor", Value: document.Color("#fafafa")},
			document.Property{Key: "strokeColor", Value: document.Color("#333333")},
			document.Property{Key: "strokeThickness", Value: document.Number(1)},
		),
		shape(titleID, "label", 120, 110, 260, 30, text("Sign in"),
			document.Property{Key: "fontSize", Value: document.Number(20)},
		),
		shape(userLabelID, "label", 120, 150, 260, 20, text("Username")),
		shape(userBoxID, "textbox", 120, 175, 260, 30, text("")),
		shape(passLabelID, "label", 120, 215, 260, 20, text("Password")),
		shape(passBoxID, "textbox", 120, 240, 260, 30, text("••••••••")),
		shape(rememberID, "checkbox", 120, 280, 150, 20, text("Remember me"),
			document.Property{Key: "state", Value: document.Choice("checked")},
		),
		shape(buttonID, "button", 280, 315, 100, 30, text("Login")),
	}

	d := document.New()
	for _, s := range members {
		d, _ = d.Add(s, "", -1)
	}
	ids := make([]document.ID, len(members))
	for i, s := range members {
		ids[i] = s.ID()
	}
	d, _ = d.Wrap(formID, ids)
	d, _ = d.Add(shape(noteID, "comment", 440, 100, 170, 120, text("Forgot-password link goes below the button.")), "", -1)
	return d
}
