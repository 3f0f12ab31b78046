package actions

// The action schema catalog: one static descriptor per action kind, produced
// once at startup and consumed by both the Action wrapper and the dynamic
// schema builder.

var (
	descDone = ActionDescriptor{
		Name:        "done",
		Description: "Complete the task and return the final answer",
		Params: []ParamSpec{
			{Name: "text", Kind: KindString, Required: true, Description: "Final answer or completion summary"},
		},
	}

	descSearchGoogle = ActionDescriptor{
		Name:        "search_google",
		Description: "Search the query in Google in the current tab",
		Params: []ParamSpec{
			{Name: "query", Kind: KindString, Required: true, Description: "Search query"},
		},
	}

	descGoToURL = ActionDescriptor{
		Name:        "go_to_url",
		Description: "Navigate to a URL in the current tab",
		Params: []ParamSpec{
			{Name: "url", Kind: KindString, Required: true, Description: "Destination URL"},
		},
	}

	descGoBack = ActionDescriptor{
		Name:        "go_back",
		Description: "Go back to the previous page in the current tab",
	}

	descClickElement = ActionDescriptor{
		Name:        "click_element",
		Description: "Click the element with the given index",
		HasIndex:    true,
		Params: []ParamSpec{
			{Name: "index", Kind: KindInteger, Required: true, Description: "Element index from the current page state"},
		},
	}

	descInputText = ActionDescriptor{
		Name:        "input_text",
		Description: "Input text into the element with the given index",
		HasIndex:    true,
		Params: []ParamSpec{
			{Name: "index", Kind: KindInteger, Required: true, Description: "Element index from the current page state"},
			{Name: "text", Kind: KindString, Required: true, Description: "Text to type"},
		},
	}

	descSwitchTab = ActionDescriptor{
		Name:        "switch_tab",
		Description: "Switch to the tab with the given id",
		Params: []ParamSpec{
			{Name: "tab_id", Kind: KindString, Required: true, Description: "Id of the tab to focus"},
		},
	}

	descOpenTab = ActionDescriptor{
		Name:        "open_tab",
		Description: "Open a URL in a new tab",
		Params: []ParamSpec{
			{Name: "url", Kind: KindString, Required: true, Description: "URL to open"},
		},
	}

	descCloseTab = ActionDescriptor{
		Name:        "close_tab",
		Description: "Close the tab with the given id, or the current tab when omitted",
		Params: []ParamSpec{
			{Name: "tab_id", Kind: KindString, Required: false, Description: "Id of the tab to close; defaults to the current tab"},
		},
	}

	descExtractContent = ActionDescriptor{
		Name:        "extract_content",
		Description: "Extract the page content to retrieve specific information towards a goal, e.g. all company names or links with companies in structured format",
		Params: []ParamSpec{
			{Name: "goal", Kind: KindString, Required: true, Description: "What information to extract"},
		},
	}

	descCacheContent = ActionDescriptor{
		Name:        "cache_content",
		Description: "Cache what you have found so far from the current page for future use",
		Params: []ParamSpec{
			{Name: "content", Kind: KindString, Required: true, Description: "Content to remember"},
		},
	}

	descScrollDown = ActionDescriptor{
		Name:        "scroll_down",
		Description: "Scroll down the page by pixel amount - if no amount is specified, scroll down one page",
		Params: []ParamSpec{
			{Name: "amount", Kind: KindInteger, Required: false, Description: "Pixels to scroll; one viewport page when omitted"},
		},
	}

	descScrollUp = ActionDescriptor{
		Name:        "scroll_up",
		Description: "Scroll up the page by pixel amount - if no amount is specified, scroll up one page",
		Params: []ParamSpec{
			{Name: "amount", Kind: KindInteger, Required: false, Description: "Pixels to scroll; one viewport page when omitted"},
		},
	}

	descSendKeys = ActionDescriptor{
		Name:        "send_keys",
		Description: "Send strings of special keys like Escape, Backspace, Insert, PageDown, Delete, Enter; also supports shortcuts like Control+o",
		Params: []ParamSpec{
			{Name: "keys", Kind: KindString, Required: true, Description: "Key sequence to send"},
		},
	}

	descScrollToText = ActionDescriptor{
		Name:        "scroll_to_text",
		Description: "Scroll to a text in the current page if the text exists",
		Params: []ParamSpec{
			{Name: "text", Kind: KindString, Required: true, Description: "Text to scroll to"},
		},
	}

	descGetDropdownOptions = ActionDescriptor{
		Name:        "get_dropdown_options",
		Description: "Get all options from a native dropdown",
		HasIndex:    true,
		Params: []ParamSpec{
			{Name: "index", Kind: KindInteger, Required: true, Description: "Element index of the select element"},
		},
	}

	descSelectDropdownOption = ActionDescriptor{
		Name:        "select_dropdown_option",
		Description: "Select a dropdown option for an interactive element index by the exact text of the option you want to select",
		HasIndex:    true,
		Params: []ParamSpec{
			{Name: "index", Kind: KindInteger, Required: true, Description: "Element index of the select element"},
			{Name: "text", Kind: KindString, Required: true, Description: "Exact visible text of the option"},
		},
	}
)

// Catalog returns the canonical descriptor set in registration order.
func Catalog() []ActionDescriptor {
	return []ActionDescriptor{
		descDone,
		descSearchGoogle,
		descGoToURL,
		descGoBack,
		descClickElement,
		descInputText,
		descSwitchTab,
		descOpenTab,
		descCloseTab,
		descExtractContent,
		descCacheContent,
		descScrollDown,
		descScrollUp,
		descSendKeys,
		descScrollToText,
		descGetDropdownOptions,
		descSelectDropdownOption,
	}
}
