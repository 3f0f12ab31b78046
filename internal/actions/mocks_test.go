package actions

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/webpilot-ai/webpilot/api/schemas"
)

// -- Browser Context Mock --

// MockBrowserContext mocks the schemas.BrowserContext interface.
type MockBrowserContext struct {
	mock.Mock
}

func (m *MockBrowserContext) NavigateTo(ctx context.Context, url string, background bool) error {
	args := m.Called(ctx, url, background)
	return args.Error(0)
}

func (m *MockBrowserContext) GetCurrentPage(ctx context.Context, background bool) (schemas.PageContext, error) {
	args := m.Called(ctx, background)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(schemas.PageContext), args.Error(1)
}

func (m *MockBrowserContext) OpenTab(ctx context.Context, url string, background bool) (schemas.TabID, error) {
	args := m.Called(ctx, url, background)
	return args.Get(0).(schemas.TabID), args.Error(1)
}

func (m *MockBrowserContext) CloseTab(ctx context.Context, id schemas.TabID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBrowserContext) SwitchTab(ctx context.Context, id schemas.TabID, background bool) error {
	args := m.Called(ctx, id, background)
	return args.Error(0)
}

func (m *MockBrowserContext) GetAllTabIDs(ctx context.Context) ([]schemas.TabID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schemas.TabID), args.Error(1)
}

func (m *MockBrowserContext) ListTabs(ctx context.Context) ([]schemas.TabInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schemas.TabInfo), args.Error(1)
}

func (m *MockBrowserContext) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// -- Page Context Mock --

// MockPageContext mocks the schemas.PageContext interface.
type MockPageContext struct {
	mock.Mock
}

func (m *MockPageContext) TabID() schemas.TabID {
	args := m.Called()
	return args.Get(0).(schemas.TabID)
}

func (m *MockPageContext) GetState(ctx context.Context) (*schemas.PageState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemas.PageState), args.Error(1)
}

func (m *MockPageContext) ClickElementNode(ctx context.Context, el *schemas.DOMElement) error {
	args := m.Called(ctx, el)
	return args.Error(0)
}

func (m *MockPageContext) InputTextElementNode(ctx context.Context, el *schemas.DOMElement, text string) error {
	args := m.Called(ctx, el, text)
	return args.Error(0)
}

func (m *MockPageContext) ScrollDown(ctx context.Context, amount int) error {
	args := m.Called(ctx, amount)
	return args.Error(0)
}

func (m *MockPageContext) ScrollUp(ctx context.Context, amount int) error {
	args := m.Called(ctx, amount)
	return args.Error(0)
}

func (m *MockPageContext) SendKeys(ctx context.Context, keys string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockPageContext) ScrollToText(ctx context.Context, text string) (bool, error) {
	args := m.Called(ctx, text)
	return args.Bool(0), args.Error(1)
}

func (m *MockPageContext) GetDropdownOptions(ctx context.Context, el *schemas.DOMElement) ([]schemas.DropdownOption, error) {
	args := m.Called(ctx, el)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schemas.DropdownOption), args.Error(1)
}

func (m *MockPageContext) SelectDropdownOption(ctx context.Context, el *schemas.DOMElement, text string) (string, error) {
	args := m.Called(ctx, el, text)
	return args.String(0), args.Error(1)
}

func (m *MockPageContext) IsFileUploader(ctx context.Context, el *schemas.DOMElement) (bool, error) {
	args := m.Called(ctx, el)
	return args.Bool(0), args.Error(1)
}

func (m *MockPageContext) GetReadabilityContent(ctx context.Context) (*schemas.ReadabilityContent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemas.ReadabilityContent), args.Error(1)
}

func (m *MockPageContext) GoBack(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// -- LLM Client Mock --

// MockLLMClient mocks the schemas.LLMClient interface used for extraction.
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockLLMClient) Close() error {
	args := m.Called()
	return args.Error(0)
}
