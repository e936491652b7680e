package mail

import (
	"bytes"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"

	"github.com/symphonyguild/guildsite/internal/pkg/membership"
)

const confirmationTemplate = "mail/confirmation"

// Templates renders email bodies from html templates named by their path
// without extension, e.g. "mail/confirmation".
type Templates struct {
	engine *html.Engine
}

func NewTemplates(fsys fs.FS) *Templates {
	return &Templates{engine: html.NewFileSystem(http.FS(fsys), ".html")}
}

func (t *Templates) Render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.engine.Render(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

type confirmationData struct {
	FirstName    string
	SubmissionID string
	TierName     string
	Price        string
	Benefits     []string
	Year         string
	StartDate    string
	EndDate      string
	MockMode     bool
}

// Confirmation builds the welcome email of an accepted submission.
func (t *Templates) Confirmation(sub membership.Submission, tier membership.MembershipTier, year membership.MembershipYear, mockMode bool) (Message, error) {
	body, err := t.Render(confirmationTemplate, confirmationData{
		FirstName:    sub.FirstName,
		SubmissionID: sub.ID,
		TierName:     tier.Name,
		Price:        tier.Price.StringFixed(2),
		Benefits:     tier.Benefits,
		Year:         year.Current,
		StartDate:    year.StartDate,
		EndDate:      year.EndDate,
		MockMode:     mockMode,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      sub.Email,
		Subject: fmt.Sprintf("Welcome to the Odessa Symphony Guild (%s)", sub.ID),
		Body:    body,
	}, nil
}
