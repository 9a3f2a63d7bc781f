package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"jobboard/internal/database"
)

const brand = "JobBoard"

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto;">
    <h1>{{.Heading}}</h1>
    <p>Hi {{.Name}},</p>
    {{range .Paragraphs}}<p>{{.}}</p>
    {{end}}{{if .Code}}<p style="font-size: 32px; letter-spacing: 8px;"><strong>{{.Code}}</strong></p>
    {{end}}{{if .Card}}<div style="border: 1px solid #eee; padding: 16px;">{{range .Card}}<p>{{.}}</p>{{end}}</div>
    {{end}}<p style="color: #888; font-size: 12px;">{{.Brand}} Team</p>
  </div>
</body>
</html>`))

type layoutData struct {
	Heading    string
	Name       string
	Paragraphs []string
	Code       string
	Card       []string
	Brand      string
}

func render(kind Kind, to, subject string, data layoutData) (Message, error) {
	if strings.TrimSpace(data.Name) == "" {
		data.Name = defaultRecipientName
	}
	data.Brand = brand

	var buf bytes.Buffer
	if err := layout.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render %s email: %w", kind, err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s!\n\n", data.Name)
	for _, p := range data.Paragraphs {
		text.WriteString(p)
		text.WriteString("\n\n")
	}
	if data.Code != "" {
		fmt.Fprintf(&text, "Code: %s\n\n", data.Code)
	}
	for _, line := range data.Card {
		text.WriteString(line)
		text.WriteString("\n")
	}
	if len(data.Card) > 0 {
		text.WriteString("\n")
	}
	fmt.Fprintf(&text, "%s Team", brand)

	return Message{
		Kind:    kind,
		To:      to,
		Subject: subject,
		HTML:    buf.String(),
		Text:    text.String(),
	}, nil
}

// OTPEmail carries the verification code sent after registration.
func OTPEmail(to, name string, code int) (Message, error) {
	return render(KindOTP, to, "Your OTP Verification Code - "+brand, layoutData{
		Heading:    "Email Verification",
		Name:       name,
		Paragraphs: []string{"Use the following code to verify your email address. Do not share it with anyone."},
		Code:       fmt.Sprintf("%d", code),
	})
}

// PasswordResetEmail carries the code for the password reset flow.
func PasswordResetEmail(to, name string, code int) (Message, error) {
	return render(KindPasswordReset, to, "Password Reset Request - "+brand, layoutData{
		Heading: "Password Reset",
		Name:    name,
		Paragraphs: []string{
			"Use the following code to reset your password.",
			"If you didn't request this, please ignore this email.",
		},
		Code: fmt.Sprintf("%d", code),
	})
}

// WelcomeEmail is sent once an account is verified.
func WelcomeEmail(to, name string, role database.Role) (Message, error) {
	next := "start applying for your dream jobs"
	if role == database.RoleCompany {
		next = "post jobs and find talented candidates"
	}
	return render(KindWelcome, to, "Welcome to "+brand+"!", layoutData{
		Heading:    "Welcome to " + brand,
		Name:       name,
		Paragraphs: []string{"Your account is now verified.", "You can now " + next + "."},
	})
}

// ApplicationReceivedEmail confirms a submission to the candidate.
func ApplicationReceivedEmail(to, candidateName, jobTitle, companyName string) (Message, error) {
	return render(KindApplicationSent, to, "Application Submitted - "+jobTitle, layoutData{
		Heading:    "Application Submitted",
		Name:       candidateName,
		Paragraphs: []string{fmt.Sprintf("Your application for %q at %s has been submitted. Good luck!", jobTitle, companyName)},
		Card:       []string{jobTitle, companyName},
	})
}

// NewApplicationEmail tells the employer someone applied.
func NewApplicationEmail(to, employerName, candidateName, jobTitle string, applicationID uint) (Message, error) {
	return render(KindNewApplication, to, "New Application - "+jobTitle, layoutData{
		Heading:    "New Application",
		Name:       employerName,
		Paragraphs: []string{fmt.Sprintf("New application received for %q from %s.", jobTitle, candidateName)},
		Card:       []string{jobTitle, "Candidate: " + candidateName, fmt.Sprintf("Application #%d", applicationID)},
	})
}

var statusCopy = map[database.Status]string{
	database.StatusReviewed:    "Your application is being reviewed",
	database.StatusShortlisted: "Congratulations! You have been shortlisted",
	database.StatusInterview:   "You have been selected for an interview",
	database.StatusRejected:    "Unfortunately, your application was not selected",
	database.StatusHired:       "Congratulations! You have been hired",
}

// StatusMessage returns the candidate-facing sentence for a status.
func StatusMessage(status database.Status) string {
	if msg, ok := statusCopy[status]; ok {
		return msg
	}
	return "Your application status has been updated"
}

func hasNextSteps(status database.Status) bool {
	switch status {
	case database.StatusShortlisted, database.StatusInterview, database.StatusHired:
		return true
	}
	return false
}

// StatusChangedEmail tells the candidate their application moved.
func StatusChangedEmail(to, candidateName, jobTitle, companyName string, status database.Status) (Message, error) {
	paragraphs := []string{fmt.Sprintf("%s for %q at %s.", StatusMessage(status), jobTitle, companyName)}
	if hasNextSteps(status) {
		paragraphs = append(paragraphs, "Next steps: the employer will contact you soon with more details.")
	}
	return render(KindStatusChanged, to, "Application Update - "+jobTitle, layoutData{
		Heading:    "Application Update",
		Name:       candidateName,
		Paragraphs: paragraphs,
		Card:       []string{jobTitle, companyName, "Status: " + status.Label()},
	})
}

// AlertMatchEmail announces a new listing matching a saved alert.
func AlertMatchEmail(to, candidateName string, alert *database.Alert, listing *database.Listing) (Message, error) {
	criteria := alert.Keywords
	if criteria == "" {
		criteria = "your saved criteria"
	}
	return render(KindAlertMatch, to, "New job matching your alert - "+listing.Title, layoutData{
		Heading:    "New Job Alert",
		Name:       candidateName,
		Paragraphs: []string{fmt.Sprintf("A new job matching %q was just posted.", criteria)},
		Card:       []string{listing.Title, listing.CompanyName, listing.Location, string(listing.JobType)},
	})
}
