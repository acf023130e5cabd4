package core

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	require.NoError(t, RegisterEmailTemplate(
		"test_greeting",
		"Hello {{.Data.Name}}, see {{.FrontendBaseURL}}",
		"<p>Hello {{.Data.Name}}</p>",
	))

	tests := []struct {
		name     string
		msg      EmailMessage
		wantText string
		wantHTML string
		wantErr  bool
	}{
		{name: "plain body", msg: EmailMessage{BodyStr: "hi"}, wantText: "hi"},
		{name: "no content"},
		{name: "unknown template", msg: EmailMessage{TemplateName: "nope"}},
		{
			name: "template",
			msg: EmailMessage{
				TemplateName:    "test_greeting",
				TemplateData:    map[string]string{"Name": "Hero"},
				FrontendBaseURL: "http://portal",
			},
			wantText: "Hello Hero, see http://portal",
			wantHTML: "<p>Hello Hero</p>",
		},
		{
			name:    "missing key",
			msg:     EmailMessage{TemplateName: "test_greeting", TemplateData: map[string]string{}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Render()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, tt.msg.TextContent)
			assert.Equal(t, tt.wantHTML, tt.msg.HTMLContent)
		})
	}
}

func TestEmailMessage_Has(t *testing.T) {
	msg := EmailMessage{}
	assert.False(t, msg.HasRecipients())
	assert.False(t, msg.HasContent())

	msg.To = []mail.Address{{Name: "Hero", Address: "hero@test.cd"}}
	msg.TextContent = "x"
	assert.True(t, msg.HasRecipients())
	assert.True(t, msg.HasContent())
	assert.False(t, msg.HasAttachments())
}
