package binder

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type params struct {
	Title string `json:"title" form:"title" mod:"trim" validate:"required,max=9"`
	Omit  string `json:"-" form:"-"`
}

type queryParams struct {
	Platform *string `query:"platform"`
	Limit    int     `query:"limit" default:"24"`
}

var (
	goodJSON             = `{"title":" world "}`
	unknownFieldsErrJSON = `{"title":"world","foo":"bar"}`
	typeErrJSON          = `{"title":123}`
	validationErrJSON    = `{"title":"0123456789"}`
	malformedJSON        = `{"title":`
)

func TestBind(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	t.Run("only allows application/json and application/x-www-form-urlencoded", func(tt *testing.T) {
		c := newContext(http.MethodPost, goodJSON, echo.MIMEApplicationXML)
		p := params{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "Unsupported Media Type")
	})

	t.Run("disallows unknown fields", func(tt *testing.T) {
		c := newContext(http.MethodPost, unknownFieldsErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `Unknown Parameter "foo"`)
	})

	t.Run("allows unknown fields when the route opts out", func(tt *testing.T) {
		c := newContext(http.MethodPost, unknownFieldsErrJSON, echo.MIMEApplicationJSON)
		c.Set(DisallowUnknownFieldsKey, false)
		p := params{}
		err := b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "world", p.Title)
	})

	t.Run("returns a good message for type errors", func(tt *testing.T) {
		c := newContext(http.MethodPost, typeErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"title" should be of type string`)
	})

	t.Run("returns malformed payload for broken json", func(tt *testing.T) {
		c := newContext(http.MethodPost, malformedJSON, echo.MIMEApplicationJSON)
		p := params{}
		err := b.Bind(&p, c)
		assert.EqualError(tt, err, "Malformed Payload")
	})

	t.Run("use mod tag to modify params", func(tt *testing.T) {
		c := newContext(http.MethodPost, goodJSON, echo.MIMEApplicationJSON)
		p := params{}
		err := b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "world", p.Title)
	})

	t.Run("use validate tag to validate params", func(tt *testing.T) {
		c := newContext(http.MethodPost, validationErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "length must be less than or equal to 9 characters")
	})

	t.Run("binds url encoded forms", func(tt *testing.T) {
		c := newContext(http.MethodPost, "title=+form+", echo.MIMEApplicationForm)
		p := params{}
		err := b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "form", p.Title)
	})

	t.Run("rejects empty bodies by default", func(tt *testing.T) {
		c := newContext(http.MethodPost, "", echo.MIMEApplicationJSON)
		p := params{}
		err := b.Bind(&p, c)
		assert.EqualError(tt, err, "Request body can't be empty.")
	})

	t.Run("allows empty bodies when the route opts out", func(tt *testing.T) {
		c := newContext(http.MethodPost, "", echo.MIMEApplicationJSON)
		c.Set(DisallowEmptyBodyKey, false)
		p := struct {
			Name *string `json:"name"`
		}{}
		err := b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Nil(tt, p.Name)
	})

	t.Run("decodes bodies without a content length", func(tt *testing.T) {
		c := newChunkedContext(http.MethodPost, goodJSON, echo.MIMEApplicationJSON)
		p := params{}
		err := b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "world", p.Title)
	})

	t.Run("treats an empty body without a content length as empty", func(tt *testing.T) {
		c := newChunkedContext(http.MethodPost, "", echo.MIMEApplicationJSON)
		p := params{}
		err := b.Bind(&p, c)
		assert.EqualError(tt, err, "Request body can't be empty.")
	})
}

func TestBind_Query(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	t.Run("decodes query params and applies defaults", func(tt *testing.T) {
		c := newContext(http.MethodGet, "", "")
		c.Request().URL.RawQuery = "platform=ios"
		p := queryParams{}
		err := b.Bind(&p, c)
		require.NoError(tt, err)
		require.NotNil(tt, p.Platform)
		assert.Equal(tt, "ios", *p.Platform)
		assert.Equal(tt, 24, p.Limit)
	})

	t.Run("rejects unknown query params", func(tt *testing.T) {
		c := newContext(http.MethodGet, "", "")
		c.Request().URL.RawQuery = "foo=bar"
		p := queryParams{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `Unknown Parameter "foo"`)
	})

	t.Run("skips unknown query params when the route opts out", func(tt *testing.T) {
		c := newContext(http.MethodGet, "", "")
		c.Set(DisallowUnknownFieldsKey, false)
		c.Request().URL.RawQuery = "_=123&platform=ios"
		p := queryParams{}
		err := b.Bind(&p, c)
		require.NoError(tt, err)
		require.NotNil(tt, p.Platform)
		assert.Equal(tt, "ios", *p.Platform)
	})

	t.Run("returns a good message for conversion errors", func(tt *testing.T) {
		c := newContext(http.MethodGet, "", "")
		c.Request().URL.RawQuery = "limit=abc"
		p := queryParams{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"limit" should be of type int`)
	})
}

func newContext(method, payload, mime string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(payload))
	if mime != "" {
		req.Header.Set(echo.HeaderContentType, mime)
	}
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}

// newChunkedContext builds a request the way a chunked or HTTP/2 client sends
// it, with no Content-Length.
func newChunkedContext(method, payload, mime string) echo.Context {
	c := newContext(method, payload, mime)
	req := c.Request()
	req.Body = io.NopCloser(strings.NewReader(payload))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	return c
}
