package enrollment

import (
	"net/mail"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/formation"
	"github.com/trezcool/masomo/core/user"
)

const requestedTemplate = "enrollment_requested"

const requestedText = `Hello {{ .Data.Name }},

Your request to join "{{ .Data.Formation }}" has been sent.
Follow its progress at {{ .FrontendBaseURL }}/formations/{{ .Data.FormationID }}
`

const requestedHTML = `<p>Hello {{ .Data.Name }},</p>
<p>Your request to join <strong>{{ .Data.Formation }}</strong> has been sent.</p>
<p><a href="{{ .FrontendBaseURL }}/formations/{{ .Data.FormationID }}">Follow its progress</a></p>
`

func init() {
	if err := core.RegisterEmailTemplate(requestedTemplate, requestedText, requestedHTML); err != nil {
		panic(err)
	}
}

type requestedData struct {
	Name        string
	Formation   string
	FormationID int
}

// EmailMailer confirms a request to the user by email. Users without an email are skipped.
type EmailMailer struct {
	svc             core.EmailService
	frontendBaseURL string
}

var _ Mailer = (*EmailMailer)(nil)

func NewEmailMailer(svc core.EmailService, conf *core.Config) *EmailMailer {
	return &EmailMailer{svc: svc, frontendBaseURL: conf.FrontendBaseURL}
}

func (m *EmailMailer) RequestConfirmed(usr user.User, f formation.Formation) {
	if usr.Email == "" {
		return
	}
	name := usr.Name
	if name == "" {
		name = usr.Username
	}
	m.svc.SendMessages(&core.EmailMessage{
		To:              []mail.Address{{Name: name, Address: usr.Email}},
		Subject:         "Enrollment request sent",
		TemplateName:    requestedTemplate,
		TemplateData:    requestedData{Name: name, Formation: f.Name, FormationID: f.ID},
		FrontendBaseURL: m.frontendBaseURL,
	})
}
