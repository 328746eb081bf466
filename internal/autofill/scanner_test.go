// internal/autofill/scanner_test.go
package autofill

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/autoentry/internal/browser"
	"github.com/xkilldash9x/autoentry/internal/browser/htmlpage"
)

const scannerMarkup = `<html><body><form>
  <label for="fn">First Name</label>
  <input id="fn" name="first" type="text">
  <input type="hidden" name="csrf" value="t0k">
  <input name="ghost" hidden>
  <div style="display: none"><input name="nested"></div>
  <input name="flat" style="height: 0">
  <input aria-label="E-mail" placeholder="you@example.test" type="EMAIL">
  <textarea name="message"></textarea>
  <select name="country"><option>UK</option></select>
  <input type="submit" value="Go">
</form></body></html>`

func TestScanner_Scan(t *testing.T) {
	page, err := htmlpage.New(scannerMarkup)
	require.NoError(t, err)

	fields, err := NewScanner(zaptest.NewLogger(t), 0).Scan(context.Background(), page)
	require.NoError(t, err)

	type summary struct{ tag, inputType, label string }
	var got []summary
	for _, f := range fields {
		got = append(got, summary{f.Tag, f.InputType, f.Label})
	}

	assert.Equal(t, []summary{
		{"input", "text", "first name first fn"},
		{"input", "email", "e-mail you@example.test"},
		{"textarea", "textarea", "message"},
		{"select", "", "country"},
		{"input", "submit", ""},
	}, got)
}

func TestScanner_WindowLost(t *testing.T) {
	page, err := htmlpage.New(scannerMarkup)
	require.NoError(t, err)
	session := &faultySession{Page: page, windowErr: browser.ErrNoLiveWindow}

	fields, err := NewScanner(zaptest.NewLogger(t), 0).Scan(context.Background(), session)
	assert.ErrorIs(t, err, ErrWindowState)
	assert.Contains(t, err.Error(), browser.ErrNoLiveWindow.Error())
	assert.Nil(t, fields)
}

func TestScanner_ClosedPage(t *testing.T) {
	page, err := htmlpage.New(scannerMarkup)
	require.NoError(t, err)
	require.NoError(t, page.Close(context.Background()))

	_, err = NewScanner(zaptest.NewLogger(t), 0).Scan(context.Background(), page)
	assert.True(t, errors.Is(err, ErrWindowState))
}

func TestLabelText_MissingLabelElement(t *testing.T) {
	page, err := htmlpage.New(`<body><input id="zip" placeholder=" Post Code "></body>`)
	require.NoError(t, err)
	el, err := page.Query(context.Background(), "#zip")
	require.NoError(t, err)

	assert.Equal(t, "post code    zip", LabelText(context.Background(), page, el))
}
