package schemas

import (
	"fmt"
	"sort"
	"strings"
)

// -- Browser State Schemas --

// TabID is an opaque identifier for a single browser tab. The action layer
// only ever compares TabIDs for equality and set membership; it must never
// interpret their internal structure.
type TabID string

// TabInfo describes one open tab at the moment it was observed.
type TabInfo struct {
	ID    TabID  `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// DOMElement is one entry of the selector map: an interactive page element
// that has been assigned a stable integer index for the current page state.
// The index is the handle the planning model uses to reference the element.
type DOMElement struct {
	Index      int               `json:"index"`
	Tag        string            `json:"tag"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
	XPath      string            `json:"xpath"`
}

// Describe renders a short, model-facing description of the element.
func (e *DOMElement) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] <%s", e.Index, e.Tag)
	for _, attr := range []string{"id", "name", "type", "placeholder", "aria-label"} {
		if v, ok := e.Attributes[attr]; ok && v != "" {
			fmt.Fprintf(&b, " %s=%q", attr, v)
		}
	}
	b.WriteString(">")
	if e.Text != "" {
		b.WriteString(truncate(e.Text, 80))
	}
	fmt.Fprintf(&b, "</%s>", e.Tag)
	return b.String()
}

// SelectorMap maps the integer element index to its descriptor. It is produced
// by the page snapshot and consumed by index-bearing actions.
type SelectorMap map[int]*DOMElement

// Indexes returns the element indexes in ascending order.
func (m SelectorMap) Indexes() []int {
	out := make([]int, 0, len(m))
	for i := range m {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// PageState is a snapshot of the current page as seen by the action layer.
type PageState struct {
	URL         string      `json:"url"`
	Title       string      `json:"title"`
	SelectorMap SelectorMap `json:"-"`
}

// DropdownOption is one enumerated option of a <select> element. Index is the
// option's position within the select, Text its exact visible label.
type DropdownOption struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Value string `json:"value"`
}

// ReadabilityContent is the readability-processed snapshot of a page, used as
// input to the extraction model.
type ReadabilityContent struct {
	Title       string `json:"title"`
	Byline      string `json:"byline,omitempty"`
	TextContent string `json:"text_content"`
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
