package mailer

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

type mailTemplate struct {
	file    string
	subject string
}

var mailTemplates = map[string]mailTemplate{
	domain.MailTypeCreateUser:             {"new_account_email.html", "排班系统 - 账户信息"},
	domain.MailTypeResetPassword:          {"reset_password_otp_email.html", "排班系统 - 重置密码"},
	domain.MailTypeSwapRequestCreated:     {"swap_request_created_email.html", "排班系统 - 新的换班申请"},
	domain.MailTypeSwapRequestDecided:     {"swap_request_decided_email.html", "排班系统 - 换班申请审批结果"},
	domain.MailTypeOvertimeRequestDecided: {"overtime_request_decided_email.html", "排班系统 - 加班申请审批结果"},
}

// UnknownTypeError 表示邮件类型没有对应的模板，这类消息重试也不会成功
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("不支持的邮件类型: %s", e.Type)
}

type Builder struct {
	from      string
	templates map[string]*template.Template
}

// NewBuilder 解析所有内置模板，from 为发件人地址
func NewBuilder(from string) (*Builder, error) {
	b := &Builder{
		from:      from,
		templates: make(map[string]*template.Template, len(mailTemplates)),
	}
	for typ, mt := range mailTemplates {
		tmpl, err := template.ParseFS(templateFS, "templates/"+mt.file)
		if err != nil {
			return nil, fmt.Errorf("无法解析邮件模板 %s: %w", mt.file, err)
		}
		b.templates[typ] = tmpl
	}
	return b, nil
}

// Decode 解析队列中的消息体
func Decode(body []byte) (domain.MailMessage, error) {
	msg := domain.MailMessage{}
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}
	if msg.To == "" {
		return msg, fmt.Errorf("邮件缺少收件人")
	}
	return msg, nil
}

// Build 根据邮件类型渲染模板并构建邮件
func (b *Builder) Build(msg domain.MailMessage) (*mail.Msg, error) {
	tmpl, ok := b.templates[msg.Type]
	if !ok {
		return nil, &UnknownTypeError{Type: msg.Type}
	}

	m := mail.NewMsg()
	if err := m.From(b.from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	if err := m.SetBodyHTMLTemplate(tmpl, msg.Data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}
	m.Subject(mailTemplates[msg.Type].subject)

	return m, nil
}
