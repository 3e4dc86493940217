package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
)

// errUnsupportedType 表示队列中出现了无法处理的邮件类型
var errUnsupportedType = errors.New("unsupported mail type")

type mailKind struct {
	subject string
	newData func() any
}

var mailKinds = map[string]mailKind{
	domain.MailTypeWelcome: {
		subject: "Job Board - Welcome",
		newData: func() any { return &domain.WelcomeMailData{} },
	},
	domain.MailTypeNewApplication: {
		subject: "Job Board - New application received",
		newData: func() any { return &domain.NewApplicationMailData{} },
	},
	domain.MailTypeApplicationStatus: {
		subject: "Job Board - Application status updated",
		newData: func() any { return &domain.ApplicationStatusMailData{} },
	},
}

type templateData struct {
	FrontendURL string
	Data        any
}

type composer struct {
	from        string
	frontendURL string
	templates   *template.Template
}

// compose 根据队列中的消息构建邮件，返回的错误都意味着消息本身有问题，不需要重新入队
func (c *composer) compose(body []byte) (*mail.Msg, error) {
	var raw struct {
		Type string          `json:"type"`
		To   string          `json:"to"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	kind, ok := mailKinds[raw.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnsupportedType, raw.Type)
	}

	data := kind.newData()
	if len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", raw.Type, err)
		}
	}

	tmpl := c.templates.Lookup(raw.Type + ".html")
	if tmpl == nil {
		return nil, fmt.Errorf("template for %s not found", raw.Type)
	}

	m := mail.NewMsg()
	if err := m.From(c.from); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(raw.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	m.Subject(kind.subject)
	if err := m.SetBodyHTMLTemplate(tmpl, templateData{FrontendURL: c.frontendURL, Data: data}); err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	return m, nil
}
