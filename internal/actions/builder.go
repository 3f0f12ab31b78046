package actions

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/events"
)

// extractionInputLimit caps how much readability text is handed to the
// extraction model in one request.
const extractionInputLimit = 20000

// Options is the per-run option bag threaded into every handler.
type Options struct {
	// UseVision indicates that planning prompts include screenshots. The
	// action layer only records it; handlers do not branch on it today.
	UseVision bool
}

// Context bundles the per-run dependencies every handler closes over: the
// browser-control collaborator, the option bag and the event sink. Passing it
// explicitly keeps the action set free of hidden global state and testable
// with a substitutable fake.
type Context struct {
	Browser schemas.BrowserContext
	Options Options
	Emitter events.Emitter
}

// Builder constructs the canonical action set bound to a live agent context
// and, for content extraction, a secondary language model used purely for
// summarization.
type Builder struct {
	logger    *zap.Logger
	actx      *Context
	extractor schemas.LLMClient
}

// NewBuilder wires the registry/factory for one agent run.
func NewBuilder(logger *zap.Logger, actx *Context, extractor schemas.LLMClient) *Builder {
	return &Builder{
		logger:    logger.Named("action_builder"),
		actx:      actx,
		extractor: extractor,
	}
}

// BuildDefaultActions constructs and returns the canonical action set in its
// registration order.
func (b *Builder) BuildDefaultActions() []*Action {
	return []*Action{
		b.makeAction(descDone, b.handleDone),
		b.makeAction(descSearchGoogle, b.handleSearchGoogle),
		b.makeAction(descGoToURL, b.handleGoToURL),
		b.makeAction(descGoBack, b.handleGoBack),
		b.makeAction(descClickElement, b.handleClickElement),
		b.makeAction(descInputText, b.handleInputText),
		b.makeAction(descSwitchTab, b.handleSwitchTab),
		b.makeAction(descOpenTab, b.handleOpenTab),
		b.makeAction(descCloseTab, b.handleCloseTab),
		b.makeAction(descExtractContent, b.handleExtractContent),
		b.makeAction(descCacheContent, b.handleCacheContent),
		b.makeAction(descScrollDown, b.handleScrollDown),
		b.makeAction(descScrollUp, b.handleScrollUp),
		b.makeAction(descSendKeys, b.handleSendKeys),
		b.makeAction(descScrollToText, b.handleScrollToText),
		b.makeAction(descGetDropdownOptions, b.handleGetDropdownOptions),
		b.makeAction(descSelectDropdownOption, b.handleSelectDropdownOption),
	}
}

// makeAction wraps a handler with the mandatory event instrumentation: one
// ACT_START before work, exactly one terminal ACT_OK/ACT_FAIL after, on every
// path including propagated errors. A later validation stage infers
// tab-isolation compliance from this stream, so the pairing must hold even
// when the handler fails.
func (b *Builder) makeAction(desc ActionDescriptor, h Handler) *Action {
	instrumented := func(ctx context.Context, args Args) (*ActionResult, error) {
		b.actx.Emitter.Emit(ctx, events.ActorNavigator, events.PhaseActStart, desc.Name)

		res, err := h(ctx, args)
		switch {
		case err != nil:
			b.actx.Emitter.Emit(ctx, events.ActorNavigator, events.PhaseActFail,
				fmt.Sprintf("%s: %s", desc.Name, err))
			return nil, err
		case res.Failed():
			b.actx.Emitter.Emit(ctx, events.ActorNavigator, events.PhaseActFail, res.Error)
		default:
			msg := res.ExtractedContent
			if msg == "" {
				msg = desc.Name
			}
			b.actx.Emitter.Emit(ctx, events.ActorNavigator, events.PhaseActOK, msg)
		}
		return res, nil
	}
	return New(desc, instrumented)
}

// currentPage resolves the current background tab's page handle. Resolved
// fresh on every handler invocation so that the most recent switch/open is
// always reflected; never cached across calls.
func (b *Builder) currentPage(ctx context.Context) (schemas.PageContext, error) {
	return b.actx.Browser.GetCurrentPage(ctx, true)
}

// -- Handlers --

func (b *Builder) handleDone(_ context.Context, args Args) (*ActionResult, error) {
	return Done(args.String("text")), nil
}

func (b *Builder) handleSearchGoogle(ctx context.Context, args Args) (*ActionResult, error) {
	query := args.String("query")
	searchURL := "https://www.google.com/search?q=" + url.QueryEscape(query)
	if err := b.actx.Browser.NavigateTo(ctx, searchURL, true); err != nil {
		return nil, err
	}
	return Success(fmt.Sprintf("Searched for %q in Google", query), true), nil
}

func (b *Builder) handleGoToURL(ctx context.Context, args Args) (*ActionResult, error) {
	target := args.String("url")
	if err := b.actx.Browser.NavigateTo(ctx, target, true); err != nil {
		return nil, err
	}
	return Success(fmt.Sprintf("Navigated to %s", target), true), nil
}

func (b *Builder) handleGoBack(ctx context.Context, _ Args) (*ActionResult, error) {
	page, err := b.currentPage(ctx)
	if err != nil {
		return nil, err
	}
	if err := page.GoBack(ctx); err != nil {
		return nil, err
	}
	return Success("Navigated back", true), nil
}

func (b *Builder) handleClickElement(ctx context.Context, args Args) (*ActionResult, error) {
	index, _ := args.Int("index")

	page, err := b.currentPage(ctx)
	if err != nil {
		return nil, err
	}
	state, err := page.GetState(ctx)
	if err != nil {
		return nil, err
	}

	// Elements routinely go stale between planning and execution, so a missing
	// index is a reportable outcome the model should re-plan around, not a fault.
	el, ok := state.SelectorMap[index]
	if !ok {
		return Failure(fmt.Sprintf("Element with index %d does not exist - retry or use alternative actions", index)), nil
	}

	if isUploader, upErr := page.IsFileUploader(ctx, el); upErr == nil && isUploader {
		return Failure(fmt.Sprintf("Element %d opens a file upload dialog, which cannot be driven by clicking - use a dedicated upload flow", index)), nil
	}

	before, err := b.actx.Browser.GetAllTabIDs(ctx)
	if err != nil {
		return nil, err
	}

	if err := page.ClickElementNode(ctx, el); err != nil {
		return Failure(fmt.Sprintf("Failed to click element %d (%s): %s", index, el.Tag, err)), nil
	}

	after, err := b.actx.Browser.GetAllTabIDs(ctx)
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Clicked element %d: %s", index, el.Describe())

	// If the click opened a new tab, follow it: the tab-isolation policy says
	// agent work always continues in a background tab of our own.
	if newID, opened := newTabID(before, after); opened {
		if err := b.actx.Browser.SwitchTab(ctx, newID, true); err != nil {
			return nil, err
		}
		msg += fmt.Sprintf(" - which opened new tab %s, switched to it in background mode", newID)
	}
	return Success(msg, true), nil
}

// newTabID diffs two tab-id snapshots and returns the id that appeared in
// after but not in before. Only correct under sequential execution; concurrent
// clicks from multiple contexts would race this diff.
func newTabID(before, after []schemas.TabID) (schemas.TabID, bool) {
	known := make(map[schemas.TabID]struct{}, len(before))
	for _, id := range before {
		known[id] = struct{}{}
	}
	for _, id := range after {
		if _, ok := known[id]; !ok {
			return id, true
		}
	}
	return "", false
}

func (b *Builder) handleInputText(ctx context.Context, args Args) (*ActionResult, error) {
	index, _ := args.Int("index")
	text := args.String("text")

	page, err := b.currentPage(ctx)
	if err != nil {
		return nil, err
	}
	state, err := page.GetState(ctx)
	if err != nil {
		return nil, err
	}

	// Unlike click, typing into a vanished element means the planner's view of
	// the page is wrong; surface it as a fault so the caller re-plans.
	el, ok := state.SelectorMap[index]
	if !ok {
		return nil, fmt.Errorf("element with index %d does not exist in the current page state", index)
	}

	if err := page.InputTextElementNode(ctx, el, text); err != nil {
		return nil, err
	}
	return Success(fmt.Sprintf("Input %q into element %d", text, index), true), nil
}

func (b *Builder) handleSwitchTab(ctx context.Context, args Args) (*ActionResult, error) {
	id := schemas.TabID(args.String("tab_id"))
	if err := b.actx.Browser.SwitchTab(ctx, id, true); err != nil {
		return nil, err
	}
	return Success(fmt.Sprintf("Switched to tab %s in background mode", id), true), nil
}

func (b *Builder) handleOpenTab(ctx context.Context, args Args) (*ActionResult, error) {
	target := args.String("url")
	id, err := b.actx.Browser.OpenTab(ctx, target, true)
	if err != nil {
		return nil, err
	}
	return Success(fmt.Sprintf("Opened new tab %s with url %s in background mode", id, target), true), nil
}

func (b *Builder) handleCloseTab(ctx context.Context, args Args) (*ActionResult, error) {
	var id schemas.TabID
	if args.Has("tab_id") {
		id = schemas.TabID(args.String("tab_id"))
	} else {
		// Default to the current tab, resolved now, not from any cached handle.
		page, err := b.currentPage(ctx)
		if err != nil {
			return nil, err
		}
		id = page.TabID()
	}
	if err := b.actx.Browser.CloseTab(ctx, id); err != nil {
		return nil, err
	}
	return Success(fmt.Sprintf("Closed tab %s", id), true), nil
}

func (b *Builder) handleExtractContent(ctx context.Context, args Args) (*ActionResult, error) {
	goal := args.String("goal")

	// Every failure here is recoverable: the model is told to fall back to
	// manual extraction from the already-visible page state.
	const fallback = " - extract the information from the currently visible page state instead"

	page, err := b.currentPage(ctx)
	if err != nil {
		return Failure(fmt.Sprintf("Failed to access the current page for extraction: %s%s", err, fallback)), nil
	}
	content, err := page.GetReadabilityContent(ctx)
	if err != nil {
		return Failure(fmt.Sprintf("Failed to extract page content: %s%s", err, fallback)), nil
	}
	if b.extractor == nil {
		return Failure("No extraction model is configured" + fallback), nil
	}

	text := content.TextContent
	if len(text) > extractionInputLimit {
		text = text[:extractionInputLimit]
	}

	req := schemas.GenerationRequest{
		SystemPrompt: "You extract the information relevant to a stated goal from the text of a web page. Respond with the extracted information only.",
		UserPrompt: fmt.Sprintf("Goal: %s\n\nPage title: %s\n\nPage content:\n%s",
			goal, content.Title, text),
		Options: schemas.GenerationOptions{Temperature: 0.1},
	}
	summary, err := b.extractor.Generate(ctx, req)
	if err != nil {
		b.logger.Warn("Extraction model call failed", zap.Error(err))
		return Failure(fmt.Sprintf("Extraction model unavailable: %s%s", err, fallback)), nil
	}
	return Success(strings.TrimSpace(summary), true), nil
}

func (b *Builder) handleCacheContent(_ context.Context, args Args) (*ActionResult, error) {
	return Success(fmt.Sprintf("Cached content: %s", args.String("content")), true), nil
}

func (b *Builder) handleScrollDown(ctx context.Context, args Args) (*ActionResult, error) {
	return b.scroll(ctx, args, false)
}

func (b *Builder) handleScrollUp(ctx context.Context, args Args) (*ActionResult, error) {
	return b.scroll(ctx, args, true)
}

func (b *Builder) scroll(ctx context.Context, args Args, up bool) (*ActionResult, error) {
	amount := args.IntOr("amount", 0)
	page, err := b.currentPage(ctx)
	if err != nil {
		return nil, err
	}

	direction := "down"
	scrollFn := page.ScrollDown
	if up {
		direction = "up"
		scrollFn = page.ScrollUp
	}
	if err := scrollFn(ctx, amount); err != nil {
		return nil, err
	}

	if amount > 0 {
		return Success(fmt.Sprintf("Scrolled %s the page by %d pixels", direction, amount), true), nil
	}
	return Success(fmt.Sprintf("Scrolled %s the page by one page", direction), true), nil
}

func (b *Builder) handleSendKeys(ctx context.Context, args Args) (*ActionResult, error) {
	keys := args.String("keys")
	page, err := b.currentPage(ctx)
	if err != nil {
		return nil, err
	}
	if err := page.SendKeys(ctx, keys); err != nil {
		return nil, err
	}
	return Success(fmt.Sprintf("Sent keys: %s", keys), true), nil
}

func (b *Builder) handleScrollToText(ctx context.Context, args Args) (*ActionResult, error) {
	text := args.String("text")
	page, err := b.currentPage(ctx)
	if err != nil {
		return Failure(fmt.Sprintf("Failed to access the current page: %s", err)), nil
	}

	found, err := page.ScrollToText(ctx, text)
	if err != nil {
		return Failure(fmt.Sprintf("Failed to scroll to text %q: %s", text, err)), nil
	}
	// "Not found" is informative, not erroneous: the planner reasons about it.
	if !found {
		return Success(fmt.Sprintf("Text %q not found or not visible on the page", text), true), nil
	}
	return Success(fmt.Sprintf("Scrolled to text: %s", text), true), nil
}

func (b *Builder) handleGetDropdownOptions(ctx context.Context, args Args) (*ActionResult, error) {
	index, _ := args.Int("index")

	page, err := b.currentPage(ctx)
	if err != nil {
		return Failure(fmt.Sprintf("Failed to access the current page: %s", err)), nil
	}
	state, err := page.GetState(ctx)
	if err != nil {
		return Failure(fmt.Sprintf("Failed to read the current page state: %s", err)), nil
	}
	el, ok := state.SelectorMap[index]
	if !ok {
		return Failure(fmt.Sprintf("Element with index %d does not exist in the current page state", index)), nil
	}

	options, err := page.GetDropdownOptions(ctx, el)
	if err != nil {
		return Failure(fmt.Sprintf("Failed to read options of element %d: %s", index, err)), nil
	}
	if len(options) == 0 {
		return Failure(fmt.Sprintf("No options found in dropdown %d", index)), nil
	}

	var b2 strings.Builder
	for _, opt := range options {
		// The text is quoted verbatim so the model can pass it back unchanged.
		fmt.Fprintf(&b2, "%d: text=%q\n", opt.Index, opt.Text)
	}
	b2.WriteString("Use the exact text string in select_dropdown_option")
	return Success(b2.String(), true), nil
}

func (b *Builder) handleSelectDropdownOption(ctx context.Context, args Args) (*ActionResult, error) {
	index, _ := args.Int("index")
	text := args.String("text")

	page, err := b.currentPage(ctx)
	if err != nil {
		return Failure(fmt.Sprintf("Failed to access the current page: %s", err)), nil
	}
	state, err := page.GetState(ctx)
	if err != nil {
		return Failure(fmt.Sprintf("Failed to read the current page state: %s", err)), nil
	}
	el, ok := state.SelectorMap[index]
	if !ok {
		return Failure(fmt.Sprintf("Element with index %d does not exist in the current page state", index)), nil
	}
	if !strings.EqualFold(el.Tag, "select") {
		return Failure(fmt.Sprintf("Cannot select option: element %d is a <%s>, not a <select>", index, el.Tag)), nil
	}

	confirmation, err := page.SelectDropdownOption(ctx, el, text)
	if err != nil {
		return Failure(fmt.Sprintf("Failed to select option %q in dropdown %d: %s", text, index, err)), nil
	}
	return Success(confirmation, true), nil
}
