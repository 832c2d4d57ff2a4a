package collection

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/reusee/minion/tool"
)

type fakeCollection struct {
	setupErr error
	tools    []tool.Descriptor
	closed   bool
}

func (f *fakeCollection) Setup(ctx context.Context) error { return f.setupErr }
func (f *fakeCollection) Close() error                    { f.closed = true; return nil }
func (f *fakeCollection) Tools() []tool.Descriptor         { return f.tools }

func TestGuardedPropagatesErrorByDefault(t *testing.T) {
	fake := &fakeCollection{setupErr: errors.New("boom")}
	g := NewGuarded(fake, false)
	if err := g.Setup(context.Background()); err == nil {
		t.Fatal("expected error to propagate")
	}
	if g.Health() != HealthUnhealthy {
		t.Fatalf("got %v", g.Health())
	}
}

func TestGuardedSwallowsErrorWhenIgnored(t *testing.T) {
	fake := &fakeCollection{setupErr: errors.New("boom"), tools: []tool.Descriptor{{}}}
	g := NewGuarded(fake, true)
	if err := g.Setup(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if g.Health() != HealthUnhealthy {
		t.Fatalf("got %v", g.Health())
	}
	if g.SetupError() == nil {
		t.Fatal("expected SetupError to be recorded")
	}
	if len(g.Tools()) != 0 {
		t.Fatalf("expected no tools from an unhealthy collection, got %+v", g.Tools())
	}
}

func TestGuardedHealthyPassesThroughTools(t *testing.T) {
	fake := &fakeCollection{tools: []tool.Descriptor{{}, {}}}
	g := NewGuarded(fake, false)
	if err := g.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	if g.Health() != HealthOK {
		t.Fatalf("got %v", g.Health())
	}
	if len(g.Tools()) != 2 {
		t.Fatalf("got %+v", g.Tools())
	}
}

func writeSkill(t *testing.T, root, name, description, instructions string, scripts map[string]string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	md := "---\nname: " + name + "\ndescription: " + description + "\n---\n" + instructions
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(md), 0o644); err != nil {
		t.Fatal(err)
	}
	if len(scripts) == 0 {
		return
	}
	scriptsDir := filepath.Join(dir, "scripts")
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, src := range scripts {
		if err := os.WriteFile(filepath.Join(scriptsDir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSkillsSetupDiscoversSkills(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "pdf-fill", "fills PDF forms", "Use scripts/fill.py to fill forms.",
		map[string]string{"fill.py": "def fill():\n    pass\n"})
	writeSkill(t, root, "no-skill-md", "", "", nil)
	if err := os.RemoveAll(filepath.Join(root, "no-skill-md", "SKILL.md")); err != nil {
		t.Fatal(err)
	}

	s := NewSkills(root)
	if err := s.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}

	tools := s.Tools()
	if len(tools) != 1 {
		t.Fatalf("got %+v", tools)
	}
	if tools[0].Name != "skill_pdf-fill" {
		t.Fatalf("got %q", tools[0].Name)
	}

	result, err := tools[0].Invoke(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	scripts, ok := result["scripts"].(map[string]string)
	if !ok || scripts["fill.py"] == "" {
		t.Fatalf("got %+v", result)
	}
}

func TestSkillsSetupMissingRootIsNotAnError(t *testing.T) {
	s := NewSkills(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := s.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(s.Tools()) != 0 {
		t.Fatalf("got %+v", s.Tools())
	}
}
