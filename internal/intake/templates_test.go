package intake

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve_KnownFormsCaseInsensitive(t *testing.T) {
	templates := DefaultTemplates()

	cases := []struct {
		form  string
		title string
		owner int64
	}{
		{"callback", "Заявка на обратный звонок", 0},
		{"Callback", "Заявка на обратный звонок", 0},
		{"AI Chat", "Новая заявка с бота Enterio AI", 0},
		{"partnership", "Новая заявка на партнерство", 664},
		{"catalog", "Заявка на скачивание каталога", 0},
	}
	for _, tc := range cases {
		tpl := templates.Resolve(tc.form)
		if tpl.Title != tc.title {
			t.Errorf("Resolve(%q).Title = %q, want %q", tc.form, tpl.Title, tc.title)
		}
		if tpl.AssignedByID != tc.owner {
			t.Errorf("Resolve(%q).AssignedByID = %d, want %d", tc.form, tpl.AssignedByID, tc.owner)
		}
	}
}

func TestResolve_UnknownFormGetsGeneratedTitle(t *testing.T) {
	tpl := DefaultTemplates().Resolve("landing-x")
	if tpl.Title != "Новая заявка с сайта landing-x" {
		t.Fatalf("title = %q", tpl.Title)
	}
	if tpl.AssignedByID != 0 {
		t.Fatalf("owner = %d, want none", tpl.AssignedByID)
	}
}

func TestLoadTemplates_OverridesAndExtendsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forms.yaml")
	contents := `
callback:
  title: "Срочный обратный звонок"
  assignedById: 42
vip:
  title: "VIP заявка"
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write templates file: %v", err)
	}

	templates, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}

	if tpl := templates.Resolve("callback"); tpl.Title != "Срочный обратный звонок" || tpl.AssignedByID != 42 {
		t.Fatalf("override not applied: %+v", tpl)
	}
	if tpl := templates.Resolve("vip"); tpl.Title != "VIP заявка" {
		t.Fatalf("new form not added: %+v", tpl)
	}
	if tpl := templates.Resolve("design"); tpl.Title != "Новая заявка на дизайн - проект" {
		t.Fatalf("untouched default lost: %+v", tpl)
	}
}

func TestLoadTemplates_RejectsEntryWithoutTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forms.yaml")
	if err := os.WriteFile(path, []byte("broken:\n  assignedById: 5\n"), 0o600); err != nil {
		t.Fatalf("write templates file: %v", err)
	}
	if _, err := LoadTemplates(path); err == nil {
		t.Fatal("expected error for entry without title")
	}
}
