package intake

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LeadTemplate describes how a form maps onto a CRM lead: the lead title
// and, for some forms, a fixed responsible manager.
type LeadTemplate struct {
	Title        string `yaml:"title"`
	AssignedByID int64  `yaml:"assignedById"`
}

// Templates resolves a form name to its lead template. Lookup is
// case-insensitive.
type Templates struct {
	entries map[string]LeadTemplate
}

func defaultEntries() map[string]LeadTemplate {
	return map[string]LeadTemplate{
		"ai chat":     {Title: "Новая заявка с бота Enterio AI"},
		"callback":    {Title: "Заявка на обратный звонок"},
		"appointment": {Title: "Заявка на просмотр объектов"},
		"design":      {Title: "Новая заявка на дизайн - проект"},
		"renovation":  {Title: "Новая заявка на ремонт"},
		"furnishing":  {Title: "Новая заявка на комплектацию"},
		"supervision": {Title: "Новая заявка на авторское сопровождение"},
		"partnership": {Title: "Новая заявка на партнерство", AssignedByID: 664},
		"catalog":     {Title: "Заявка на скачивание каталога"},
	}
}

// DefaultTemplates returns the built-in form table.
func DefaultTemplates() *Templates {
	return &Templates{entries: defaultEntries()}
}

// LoadTemplates merges a YAML override file over the built-in table. The
// file maps form names to {title, assignedById}; entries replace the
// defaults for matching names and add new forms otherwise.
func LoadTemplates(path string) (*Templates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form templates: %w", err)
	}

	var overrides map[string]LeadTemplate
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse form templates: %w", err)
	}

	entries := defaultEntries()
	for name, tpl := range overrides {
		if tpl.Title == "" {
			return nil, fmt.Errorf("form template %q has no title", name)
		}
		entries[strings.ToLower(name)] = tpl
	}
	return &Templates{entries: entries}, nil
}

// Resolve returns the template for the form, or a generated title for
// forms the table does not know.
func (t *Templates) Resolve(formName string) LeadTemplate {
	if tpl, ok := t.entries[strings.ToLower(formName)]; ok {
		return tpl
	}
	return LeadTemplate{Title: fmt.Sprintf("Новая заявка с сайта %s", formName)}
}
