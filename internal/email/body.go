package email

import (
	"bytes"
	"fmt"
	"html/template"
)

var leadBodyTemplate = template.Must(template.New("lead").Parse(`
<strong>{{.Title}}</strong><br/><br/>
👤 <b>Имя:</b> {{or .Name "—"}}<br/>
📞 <b>Телефон:</b> {{or .Phone "—"}}<br/>
{{if .Source}}🌐 <b>Источник:</b> {{.Source}}<br/>{{end}}
{{if .CompanyName}}🏢 <b>Компания:</b> {{.CompanyName}}<br/>{{end}}
{{if .Activity}}💼 <b>Сфера деятельности:</b> {{.Activity}}<br/>{{end}}
{{if .Comment}}💬 <b>Комментарий:</b> {{.Comment}}<br/>{{end}}
{{if .Date}}📅 <b>Дата для связи:</b> {{.Date}}<br/>{{end}}
{{if .Time}}⏰ <b>Время для связи:</b> {{.Time}}<br/>{{end}}
`))

func renderLeadBody(n Notification) (string, error) {
	var buf bytes.Buffer
	if err := leadBodyTemplate.Execute(&buf, n); err != nil {
		return "", fmt.Errorf("render lead email body: %w", err)
	}
	return buf.String(), nil
}
