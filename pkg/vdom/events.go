package vdom

// On creates an event handler fact.
func On(name string, h Handler) Fact {
	return Fact{Kind: FactEvent, Key: name, Value: h}
}

// on creates a Normal handler that always produces msg.
func on(name string, msg any) Fact {
	return On(name, Handler{Kind: Normal, Decoder: Succeed(msg)})
}

// onValue creates a Normal handler that maps the value at path through t.
func onValue(name string, t *Tagger, path ...string) Fact {
	return On(name, Handler{Kind: Normal, Decoder: MapDecoder(t, At(path...))})
}

// Mouse events

// OnClick produces msg on click.
func OnClick(msg any) Fact { return on("click", msg) }

// OnDblClick produces msg on double-click.
func OnDblClick(msg any) Fact { return on("dblclick", msg) }

// OnMouseDown produces msg on mousedown.
func OnMouseDown(msg any) Fact { return on("mousedown", msg) }

// OnMouseUp produces msg on mouseup.
func OnMouseUp(msg any) Fact { return on("mouseup", msg) }

// OnMouseEnter produces msg on mouseenter.
func OnMouseEnter(msg any) Fact { return on("mouseenter", msg) }

// OnMouseLeave produces msg on mouseleave.
func OnMouseLeave(msg any) Fact { return on("mouseleave", msg) }

// Focus events

// OnFocus produces msg on focus.
func OnFocus(msg any) Fact { return on("focus", msg) }

// OnBlur produces msg on blur.
func OnBlur(msg any) Fact { return on("blur", msg) }

// Form events

// OnInput maps the input's target.value through t.
// The event is stopped so ancestors do not see intermediate input.
func OnInput(t *Tagger) Fact {
	return On("input", Handler{
		Kind:    MayStopPropagation,
		Decoder: WithFlags(MapDecoder(t, At("target", "value")), true, false),
	})
}

// OnChange maps the control's target.value through t.
func OnChange(t *Tagger) Fact { return onValue("change", t, "target", "value") }

// OnCheck maps a checkbox's target.checked through t.
func OnCheck(t *Tagger) Fact { return onValue("change", t, "target", "checked") }

// OnSubmit produces msg on form submission and prevents the default action.
func OnSubmit(msg any) Fact {
	return On("submit", Handler{
		Kind:    MayPreventDefault,
		Decoder: WithFlags(Succeed(msg), false, true),
	})
}

// Keyboard events

// OnKeyDown maps the pressed key through t.
func OnKeyDown(t *Tagger) Fact { return onValue("keydown", t, "key") }

// OnKeyUp maps the released key through t.
func OnKeyUp(t *Tagger) Fact { return onValue("keyup", t, "key") }
