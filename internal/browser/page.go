package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
)

const (
	interactionTimeout = 30 * time.Second
	snapshotTimeout    = 20 * time.Second
)

// Page controls a single tab. It is valid until the tab closes; every method
// re-resolves elements by xpath, so stale indexes fail at the CDP level rather
// than acting on the wrong node.
type Page struct {
	id     schemas.TabID
	ctx    context.Context
	logger *zap.Logger
}

var _ schemas.PageContext = (*Page)(nil)

// TabID identifies the tab this page handle belongs to.
func (p *Page) TabID() schemas.TabID {
	return p.id
}

// run executes chromedp actions against the tab, honoring both the tab
// lifetime and the caller's context, bounded by timeout.
func (p *Page) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, opCancel := combineContext(p.ctx, ctx)
	defer opCancel()

	runCtx, cancel := context.WithTimeout(opCtx, timeout)
	defer cancel()

	return chromedp.Run(runCtx, actions...)
}

// GetState snapshots the page and rebuilds the selector map.
func (p *Page) GetState(ctx context.Context) (*schemas.PageState, error) {
	var url, title string
	var elements []schemas.DOMElement

	err := p.run(ctx, snapshotTimeout,
		chromedp.Location(&url),
		chromedp.Title(&title),
		chromedp.Evaluate(snapshotScript, &elements),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot page state: %w", err)
	}

	selectorMap := make(schemas.SelectorMap, len(elements))
	for i := range elements {
		el := elements[i]
		selectorMap[el.Index] = &el
	}

	p.logger.Debug("Page state captured",
		zap.String("url", url),
		zap.Int("interactive_elements", len(selectorMap)),
	)
	return &schemas.PageState{URL: url, Title: title, SelectorMap: selectorMap}, nil
}

// ClickElementNode dispatches a click on the element.
func (p *Page) ClickElementNode(ctx context.Context, el *schemas.DOMElement) error {
	err := p.run(ctx, interactionTimeout,
		chromedp.ScrollIntoView(el.XPath, chromedp.BySearch),
		chromedp.WaitVisible(el.XPath, chromedp.BySearch),
		chromedp.Click(el.XPath, chromedp.BySearch),
	)
	if err != nil {
		return fmt.Errorf("click failed for element %d (%s): %w", el.Index, el.Tag, err)
	}
	return nil
}

// InputTextElementNode clears the element and types text into it.
func (p *Page) InputTextElementNode(ctx context.Context, el *schemas.DOMElement, text string) error {
	timeout := interactionTimeout + time.Duration(len(text)/20)*time.Second
	err := p.run(ctx, timeout,
		chromedp.ScrollIntoView(el.XPath, chromedp.BySearch),
		chromedp.WaitVisible(el.XPath, chromedp.BySearch),
		chromedp.Clear(el.XPath, chromedp.BySearch),
		chromedp.SendKeys(el.XPath, text, chromedp.BySearch),
	)
	if err != nil {
		return fmt.Errorf("text input failed for element %d (%s): %w", el.Index, el.Tag, err)
	}
	return nil
}

// ScrollDown scrolls by amount pixels, or one viewport page when amount <= 0.
func (p *Page) ScrollDown(ctx context.Context, amount int) error {
	return p.scrollBy(ctx, amount, 1)
}

// ScrollUp scrolls by amount pixels, or one viewport page when amount <= 0.
func (p *Page) ScrollUp(ctx context.Context, amount int) error {
	return p.scrollBy(ctx, amount, -1)
}

func (p *Page) scrollBy(ctx context.Context, amount, direction int) error {
	var script string
	if amount > 0 {
		script = fmt.Sprintf(`window.scrollBy({top: %d, behavior: 'instant'});`, direction*amount)
	} else {
		script = fmt.Sprintf(`window.scrollBy({top: %d * window.innerHeight, behavior: 'instant'});`, direction)
	}
	if err := p.run(ctx, interactionTimeout, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

// specialKeys maps model-facing key names to CDP key codes.
var specialKeys = map[string]string{
	"Enter":      kb.Enter,
	"Tab":        kb.Tab,
	"Escape":     kb.Escape,
	"Backspace":  kb.Backspace,
	"Delete":     kb.Delete,
	"ArrowUp":    kb.ArrowUp,
	"ArrowDown":  kb.ArrowDown,
	"ArrowLeft":  kb.ArrowLeft,
	"ArrowRight": kb.ArrowRight,
	"PageUp":     kb.PageUp,
	"PageDown":   kb.PageDown,
	"Home":       kb.Home,
	"End":        kb.End,
}

// SendKeys dispatches keyboard events for the given key sequence. Named keys
// ("Enter", "ArrowDown") become their CDP code; anything else is typed
// literally.
func (p *Page) SendKeys(ctx context.Context, keys string) error {
	seq := keys
	if code, ok := specialKeys[strings.TrimSpace(keys)]; ok {
		seq = code
	}
	if err := p.run(ctx, interactionTimeout, chromedp.KeyEvent(seq)); err != nil {
		return fmt.Errorf("send keys %q failed: %w", keys, err)
	}
	return nil
}

// ScrollToText scrolls until text is visible. Not finding the text is a
// result, not an error.
func (p *Page) ScrollToText(ctx context.Context, text string) (bool, error) {
	var found bool
	script := fmt.Sprintf(scrollToTextScriptFmt, text)
	if err := p.run(ctx, interactionTimeout, chromedp.Evaluate(script, &found)); err != nil {
		return false, fmt.Errorf("scroll to text failed: %w", err)
	}
	return found, nil
}

// dropdownEvalResult is the shape the dropdown scripts evaluate to.
type dropdownEvalResult struct {
	Error    string                   `json:"error"`
	Options  []schemas.DropdownOption `json:"options"`
	Selected string                   `json:"selected"`
}

// GetDropdownOptions enumerates the options of a select element.
func (p *Page) GetDropdownOptions(ctx context.Context, el *schemas.DOMElement) ([]schemas.DropdownOption, error) {
	var res dropdownEvalResult
	script := fmt.Sprintf(dropdownOptionsScriptFmt, el.XPath)
	if err := p.run(ctx, interactionTimeout, chromedp.Evaluate(script, &res)); err != nil {
		return nil, fmt.Errorf("dropdown enumeration failed for element %d: %w", el.Index, err)
	}
	if res.Error != "" {
		return nil, fmt.Errorf("dropdown enumeration failed for element %d: %s", el.Index, res.Error)
	}
	return res.Options, nil
}

// SelectDropdownOption selects the option whose visible text matches exactly.
func (p *Page) SelectDropdownOption(ctx context.Context, el *schemas.DOMElement, text string) (string, error) {
	var res dropdownEvalResult
	script := fmt.Sprintf(selectOptionScriptFmt, el.XPath, text)
	if err := p.run(ctx, interactionTimeout, chromedp.Evaluate(script, &res)); err != nil {
		return "", fmt.Errorf("dropdown selection failed for element %d: %w", el.Index, err)
	}
	if res.Error != "" {
		return "", fmt.Errorf("dropdown selection failed for element %d: %s", el.Index, res.Error)
	}
	return fmt.Sprintf("Selected option %q (value %q) in dropdown %d", text, res.Selected, el.Index), nil
}

// IsFileUploader reports whether the element is (or contains) a file input.
func (p *Page) IsFileUploader(ctx context.Context, el *schemas.DOMElement) (bool, error) {
	var isUploader bool
	script := fmt.Sprintf(fileUploaderScriptFmt, el.XPath)
	if err := p.run(ctx, interactionTimeout, chromedp.Evaluate(script, &isUploader)); err != nil {
		return false, fmt.Errorf("file uploader check failed for element %d: %w", el.Index, err)
	}
	return isUploader, nil
}

// GoBack navigates one step back in the tab's history.
func (p *Page) GoBack(ctx context.Context) error {
	err := p.run(ctx, interactionTimeout,
		chromedp.NavigateBack(),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("history navigation failed: %w", err)
	}
	return nil
}
