// Package routertest provides a go-router Context double for handler tests.
package routertest

import (
	"context"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
)

// MockContext serves params, queries, headers, cookies and locals from maps.
// Writes (JSON, Bind, Locals with a value, ...) go through testify so tests can
// assert on them. Context and SetContext are recorded when a test sets an
// expectation for them, otherwise they are plain state.
type MockContext struct {
	mock.Mock

	ParamsM    map[string]string
	QueriesM   map[string]string
	HeadersM   map[string]string
	CookiesM   map[string]string
	LocalsMock map[any]any

	store map[string]any
	ctx   context.Context
}

var _ router.Context = (*MockContext)(nil)

func NewMockContext() *MockContext {
	return &MockContext{
		ParamsM:    map[string]string{},
		QueriesM:   map[string]string{},
		HeadersM:   map[string]string{},
		CookiesM:   map[string]string{},
		LocalsMock: map[any]any{},
		store:      map[string]any{},
		ctx:        context.Background(),
	}
}

func (m *MockContext) expects(method string) bool {
	for _, call := range m.ExpectedCalls {
		if call.Method == method {
			return true
		}
	}
	return false
}

func (m *MockContext) Method() string {
	return m.Called().String(0)
}

func (m *MockContext) Path() string {
	return m.Called().String(0)
}

func (m *MockContext) Param(name string, defaultValue ...string) string {
	if v, ok := m.ParamsM[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *MockContext) ParamsInt(name string, defaultValue int) int {
	return defaultValue
}

func (m *MockContext) Query(name, defaultValue string) string {
	if v, ok := m.QueriesM[name]; ok {
		return v
	}
	return defaultValue
}

func (m *MockContext) QueryInt(name string, defaultValue int) int {
	return defaultValue
}

func (m *MockContext) Queries() map[string]string {
	out := make(map[string]string, len(m.QueriesM))
	for k, v := range m.QueriesM {
		out[k] = v
	}
	return out
}

func (m *MockContext) Body() []byte { return nil }

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.LocalsMock[key] = value[0]
		if m.expects("Locals") {
			return m.Called(key, value[0]).Get(0)
		}
		return value[0]
	}
	return m.LocalsMock[key]
}

func (m *MockContext) Render(name string, bind any, layouts ...string) error {
	return m.Called(name, bind).Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	if cookie != nil {
		m.CookiesM[cookie.Name] = cookie.Value
	}
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if v, ok := m.CookiesM[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *MockContext) CookieParser(out any) error { return nil }

func (m *MockContext) Redirect(location string, status ...int) error {
	return m.Called(location).Error(0)
}

func (m *MockContext) RedirectToRoute(routeName string, params router.ViewContext, status ...int) error {
	return m.Called(routeName, params).Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	return m.Called(fallback).Error(0)
}

func (m *MockContext) Header(key string) string {
	return m.HeadersM[key]
}

func (m *MockContext) Referer() string { return m.HeadersM["Referer"] }

func (m *MockContext) OriginalURL() string { return "" }

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) Send(body []byte) error {
	return m.Called(body).Error(0)
}

func (m *MockContext) SendString(body string) error {
	return m.Called(body).Error(0)
}

func (m *MockContext) JSON(code int, v any) error {
	return m.Called(code, v).Error(0)
}

func (m *MockContext) NoContent(code int) error {
	return m.Called(code).Error(0)
}

func (m *MockContext) SetHeader(key, value string) router.Context {
	m.HeadersM[key] = value
	return m
}

func (m *MockContext) Set(key string, value any) { m.store[key] = value }

func (m *MockContext) Get(key string, def any) any {
	if v, ok := m.store[key]; ok {
		return v
	}
	return def
}

func (m *MockContext) GetString(key string, def string) string {
	if s, ok := m.Get(key, def).(string); ok {
		return s
	}
	return def
}

func (m *MockContext) GetInt(key string, def int) int {
	if i, ok := m.Get(key, def).(int); ok {
		return i
	}
	return def
}

func (m *MockContext) GetBool(key string, def bool) bool {
	if b, ok := m.Get(key, def).(bool); ok {
		return b
	}
	return def
}

func (m *MockContext) Bind(v any) error {
	return m.Called(v).Error(0)
}

func (m *MockContext) Context() context.Context {
	if m.expects("Context") {
		return m.Called().Get(0).(context.Context)
	}
	return m.ctx
}

func (m *MockContext) SetContext(ctx context.Context) {
	if m.expects("SetContext") {
		m.Called(ctx)
	}
	m.ctx = ctx
}

func (m *MockContext) Next() error {
	return m.Called().Error(0)
}
