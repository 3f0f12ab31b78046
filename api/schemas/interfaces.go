package schemas

import (
	"context"
)

// -- Browser Control Interfaces --

// BrowserContext is the browser-control collaborator the action layer depends
// on but does not implement. All tab mutating operations accept a background
// flag: the tab-isolation policy requires agent work to happen in tabs that
// are not the user's focused one, and handlers always request background mode.
//
// Implementations are used strictly sequentially by a single agent run; the
// interface defines no concurrency guarantees beyond that.
type BrowserContext interface {
	// NavigateTo navigates the current tab to url.
	NavigateTo(ctx context.Context, url string, background bool) error
	// GetCurrentPage returns the page handle of the current tab. The result
	// must be read fresh on every call; tab switches invalidate prior handles.
	GetCurrentPage(ctx context.Context, background bool) (PageContext, error)
	// OpenTab opens a new tab at url and makes it current.
	OpenTab(ctx context.Context, url string, background bool) (TabID, error)
	// CloseTab closes the identified tab.
	CloseTab(ctx context.Context, id TabID) error
	// SwitchTab makes the identified tab current.
	SwitchTab(ctx context.Context, id TabID, background bool) error
	// GetAllTabIDs lists every open tab.
	GetAllTabIDs(ctx context.Context) ([]TabID, error)
	// ListTabs returns metadata for every open tab.
	ListTabs(ctx context.Context) ([]TabInfo, error)
	// Close shuts the browser down, closing every tab it owns.
	Close(ctx context.Context) error
}

// PageContext controls a single tab. Obtained from BrowserContext and valid
// until the tab is closed or the current tab changes.
type PageContext interface {
	// TabID identifies the tab this page handle belongs to.
	TabID() TabID
	// GetState snapshots the page and rebuilds the selector map.
	GetState(ctx context.Context) (*PageState, error)
	// ClickElementNode dispatches a click on the element.
	ClickElementNode(ctx context.Context, el *DOMElement) error
	// InputTextElementNode clears the element and types text into it.
	InputTextElementNode(ctx context.Context, el *DOMElement, text string) error
	// ScrollDown scrolls by amount pixels, or one viewport page when amount <= 0.
	ScrollDown(ctx context.Context, amount int) error
	// ScrollUp scrolls by amount pixels, or one viewport page when amount <= 0.
	ScrollUp(ctx context.Context, amount int) error
	// SendKeys dispatches keyboard events for the given key sequence.
	SendKeys(ctx context.Context, keys string) error
	// ScrollToText scrolls until text is visible. The found result is
	// informative, not an error.
	ScrollToText(ctx context.Context, text string) (found bool, err error)
	// GetDropdownOptions enumerates the options of a select element.
	GetDropdownOptions(ctx context.Context, el *DOMElement) ([]DropdownOption, error)
	// SelectDropdownOption selects the option whose visible text matches
	// exactly, returning a human-readable confirmation.
	SelectDropdownOption(ctx context.Context, el *DOMElement, text string) (string, error)
	// IsFileUploader reports whether the element is (or contains) a file input.
	IsFileUploader(ctx context.Context, el *DOMElement) (bool, error)
	// GetReadabilityContent returns a readability-processed page snapshot.
	GetReadabilityContent(ctx context.Context) (*ReadabilityContent, error)
	// GoBack navigates one step back in the tab's history.
	GoBack(ctx context.Context) error
}

// -- LLM Client Schemas & Interface --

// GenerationOptions controls the text generation process of the LLM.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`       // Controls randomness. Lower is more deterministic.
	ForceJSONFormat bool    `json:"force_json_format"` // If true, forces the model to output valid JSON.
	MaxOutputTokens int     `json:"max_output_tokens"` // Caps the response length. Zero means provider default.
}

// GenerationRequest encapsulates a complete request to the LLM.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"` // Instructions for the model's persona and task.
	UserPrompt   string            `json:"user_prompt"`   // The specific query or input.
	Options      GenerationOptions `json:"options"`       // Generation parameters.
}

// LLMClient defines a standard interface for interacting with a Large Language
// Model, abstracting the specifics of the underlying provider (e.g., Gemini).
// The action layer uses it purely for content summarization.
type LLMClient interface {
	// Generate produces a text completion based on the provided request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close cleans up any resources held by the client.
	Close() error
}
