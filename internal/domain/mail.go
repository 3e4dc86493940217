package domain

const (
	MailTypeWelcome           = "welcome"
	MailTypeNewApplication    = "new_application"
	MailTypeApplicationStatus = "application_status"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type WelcomeMailData struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

type NewApplicationMailData struct {
	EmployerName  string `json:"employerName"`
	ApplicantName string `json:"applicantName"`
	JobTitle      string `json:"jobTitle"`
	ApplicationID int64  `json:"applicationID"`
	JobID         int64  `json:"jobID"`
}

type ApplicationStatusMailData struct {
	ApplicantName string            `json:"applicantName"`
	JobTitle      string            `json:"jobTitle"`
	Company       string            `json:"company"`
	Status        ApplicationStatus `json:"status"`
	Notes         string            `json:"notes"`
}
