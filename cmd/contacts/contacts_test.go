package contacts_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/roster/cmd/contacts"
	"github.com/jonesrussell/roster/internal/domain"
)

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	contacts.RenderTable(&buf, []domain.ContactRecord{
		{ID: 1, Name: "jane doe", Position: "Partner", Location: "columbus", Email: domain.StringPtr("jdoe@example.com")},
		{ID: 2, Name: "john roe", Position: "Associate", Location: "cleveland"},
	})

	out := buf.String()
	assert.Contains(t, out, "jane doe")
	assert.Contains(t, out, "jdoe@example.com")
	assert.Contains(t, out, "john roe")
	assert.Contains(t, out, "Associate")
}
