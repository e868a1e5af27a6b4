package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"net/mail"
	texttemplate "text/template"
)

// School identifies the sender side of account emails.
type School struct {
	Name         string
	Website      string
	SupportEmail string
	SupportPhone string
}

// AccountCreated carries the one-time credentials for a freshly provisioned account.
type AccountCreated struct {
	Email    string
	FullName string
	Username string
	Password string
	UserType string
}

type accountView struct {
	AccountCreated
	School
}

const accountSubject = "Thông tin tài khoản đăng nhập"

var accountHTML = htmltemplate.Must(htmltemplate.New("account_html").Parse(`<!doctype html>
<html lang="vi">
<head><meta charset="utf-8" /><title>Thông tin tài khoản đăng nhập</title></head>
<body style="margin:0;padding:24px;background:#f5f7fb;font-family:Arial,Helvetica,sans-serif;color:#111827;">
  <table role="presentation" width="600" cellspacing="0" cellpadding="0" style="background:#ffffff;border-radius:14px;margin:0 auto;">
    <tr><td style="padding:22px 24px;background:#0b5fff;color:#ffffff;">
      <div style="font-size:18px;font-weight:700;">{{if .School.Name}}{{.School.Name}}{{else}}Nhà trường{{end}}</div>
      <div style="font-size:13px;margin-top:6px;">Thông tin tài khoản đăng nhập hệ thống học sinh</div>
    </td></tr>
    <tr><td style="padding:24px;font-size:15px;line-height:1.6;">
      Chào em <b>{{if .FullName}}{{.FullName}}{{else}}học sinh{{end}}</b>,<br/>
      Nhà trường đã tạo tài khoản để em đăng nhập vào hệ thống học sinh.
      <table role="presentation" width="100%" style="margin-top:16px;background:#f3f6ff;border:1px solid #dbe6ff;border-radius:12px;font-size:14px;">
        {{if .School.Website}}<tr><td style="padding:4px 16px;width:160px;">Website</td><td><a href="{{.School.Website}}">{{.School.Website}}</a></td></tr>{{end}}
        <tr><td style="padding:4px 16px;">Tên đăng nhập</td><td><b>{{.Username}}</b></td></tr>
        <tr><td style="padding:4px 16px;">Mật khẩu tạm thời</td><td><b>{{.Password}}</b></td></tr>
      </table>
      <p>Vui lòng đổi mật khẩu sau lần đăng nhập đầu tiên.</p>
      {{if or .School.SupportEmail .School.SupportPhone}}<p style="font-size:13px;color:#6b7280;">Hỗ trợ: {{.School.SupportEmail}} {{.School.SupportPhone}}</p>{{end}}
    </td></tr>
  </table>
</body>
</html>`))

var accountText = texttemplate.Must(texttemplate.New("account_text").Parse(`Chào em {{if .FullName}}{{.FullName}}{{else}}học sinh{{end}},
Nhà trường {{.School.Name}} đã tạo tài khoản để em đăng nhập vào hệ thống học sinh.
{{if .School.Website}}Website: {{.School.Website}}
{{end}}Tên đăng nhập: {{.Username}}
Mật khẩu tạm thời: {{.Password}}
{{if or .School.SupportEmail .School.SupportPhone}}Hỗ trợ: {{.School.SupportEmail}} {{.School.SupportPhone}}
{{end}}`))

// RenderAccountCreated builds the account email; every interpolated value is HTML-escaped.
func RenderAccountCreated(school School, account AccountCreated) (Message, error) {
	view := accountView{AccountCreated: account, School: school}

	var html, text bytes.Buffer
	if err := accountHTML.Execute(&html, view); err != nil {
		return Message{}, fmt.Errorf("render account html: %w", err)
	}
	if err := accountText.Execute(&text, view); err != nil {
		return Message{}, fmt.Errorf("render account text: %w", err)
	}

	return Message{
		To:      mail.Address{Name: account.FullName, Address: account.Email},
		Subject: accountSubject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
