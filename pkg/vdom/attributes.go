package vdom

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Attribute creates a plain attribute fact.
func Attribute(key string, value any) Fact {
	return Fact{Kind: FactAttr, Key: key, Value: value}
}

// AttributeNS creates a namespaced attribute fact.
func AttributeNS(namespace, key string, value any) Fact {
	return Fact{Kind: FactAttrNS, Key: key, Value: value, Namespace: namespace}
}

// Property creates a live property assignment fact.
func Property(key string, value any) Fact {
	return Fact{Kind: FactProp, Key: key, Value: value}
}

// Style creates an inline style fact.
func Style(key, value string) Fact {
	return Fact{Kind: FactStyle, Key: key, Value: value}
}

// Identity attributes

// ID sets the id attribute.
func ID(id string) Fact { return Attribute("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
// Repeated Class facts on one node accumulate.
func Class(classes ...string) Fact { return Attribute(classAttr, strings.Join(classes, " ")) }

// ClassList adds the classes whose flag is true.
func ClassList(classes map[string]bool) Fact {
	names := make([]string, 0, len(classes))
	for name, on := range classes {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return Class(names...)
}

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Fact { return Attribute("data-"+key, value) }

// Accessibility attributes

// Role sets the role attribute.
func Role(role string) Fact { return Attribute("role", role) }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Fact { return Attribute("aria-label", label) }

// AriaHidden sets the aria-hidden attribute.
func AriaHidden(hidden bool) Fact { return Attribute("aria-hidden", hidden) }

// Visibility attributes

// Hidden sets the hidden property.
func Hidden(hidden bool) Fact { return Property("hidden", hidden) }

// TitleAttr sets the title attribute.
func TitleAttr(title string) Fact { return Attribute("title", title) }

// Link attributes

// Href sets the href attribute.
func Href(url string) Fact { return Attribute("href", url) }

// Target sets the target attribute.
func Target(target string) Fact { return Attribute("target", target) }

// Form attributes

// Name sets the name attribute.
func Name(name string) Fact { return Attribute("name", name) }

// Type sets the type attribute.
func Type(typ string) Fact { return Attribute("type", typ) }

// For sets the for attribute.
func For(id string) Fact { return Attribute("for", id) }

// Placeholder sets the placeholder attribute.
func Placeholder(text string) Fact { return Attribute("placeholder", text) }

// Value sets the value property of a form control.
func Value(v string) Fact { return Property("value", v) }

// Checked sets the checked property of a checkbox or radio.
func Checked(checked bool) Fact { return Property("checked", checked) }

// Disabled sets the disabled property.
func Disabled(disabled bool) Fact { return Property("disabled", disabled) }

// Autofocus sets the autofocus property.
func Autofocus(on bool) Fact { return Property("autofocus", on) }

// SVG attributes

// NamespaceSVG is the SVG element namespace.
const NamespaceSVG = "http://www.w3.org/2000/svg"

// NamespaceXLink is the XLink attribute namespace.
const NamespaceXLink = "http://www.w3.org/1999/xlink"

// XLinkHref sets xlink:href.
func XLinkHref(url string) Fact { return AttributeNS(NamespaceXLink, "xlink:href", url) }

// valueString converts a fact value to its attribute string form.
func valueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
