package collection

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/reusee/minion/message"
	"github.com/reusee/minion/tool"
)

// Skill is one loaded skill directory: a SKILL.md with YAML frontmatter
// (name, description) plus an optional scripts/ folder of *.py files whose
// sources are returned in the tool result when the skill is invoked; they
// are not executed into the interpreter's namespace.
//
// Grounded on original_source/minion/skills/skill.py's SKILL.md frontmatter
// convention, generalized from that package's global SkillRegistry singleton
// to a Collection so it composes with Guarded and any other tool source.
type Skill struct {
	Name        string
	Description string
	Instruction string
	Dir         string
	Scripts     map[string]string // script file name -> source text
}

var frontmatterPattern = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---\s*\n(.*)$`)

type skillFrontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

func parseSkillMD(path string) (Skill, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Skill{}, err
	}

	m := frontmatterPattern.FindStringSubmatch(string(raw))
	if m == nil {
		return Skill{}, fmt.Errorf("collection: %s has no YAML frontmatter", path)
	}

	var fm skillFrontmatter
	if err := yaml.Unmarshal([]byte(m[1]), &fm); err != nil {
		return Skill{}, fmt.Errorf("collection: %s: %w", path, err)
	}
	if fm.Name == "" || fm.Description == "" {
		return Skill{}, fmt.Errorf("collection: %s missing name or description", path)
	}

	return Skill{
		Name:        fm.Name,
		Description: fm.Description,
		Instruction: strings.TrimSpace(m[2]),
		Dir:         filepath.Dir(path),
	}, nil
}

// Skills is a Collection backed by a filesystem directory: each immediate
// subdirectory containing a SKILL.md is loaded as one Skill, and each is
// exposed as a single tool that, when invoked, returns the skill's
// instructions plus its scripts/*.py sources so the interpreter can load
// them into its namespace.
type Skills struct {
	Root  string
	tools []tool.Descriptor
}

func NewSkills(root string) *Skills {
	return &Skills{Root: root}
}

var _ Collection = (*Skills)(nil)

func (s *Skills) Setup(ctx context.Context) error {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			s.tools = nil
			return nil
		}
		return err
	}

	s.tools = nil
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skillDir := filepath.Join(s.Root, entry.Name())
		skillMD := filepath.Join(skillDir, "SKILL.md")
		if _, err := os.Stat(skillMD); err != nil {
			continue
		}

		skill, err := parseSkillMD(skillMD)
		if err != nil {
			return err
		}
		skill.Scripts, err = loadScripts(filepath.Join(skillDir, "scripts"))
		if err != nil {
			return err
		}

		s.tools = append(s.tools, skillTool(skill))
	}

	return nil
}

func loadScripts(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	scripts := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".py") {
			continue
		}
		src, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		scripts[entry.Name()] = string(src)
	}
	return scripts, nil
}

func skillTool(skill Skill) tool.Descriptor {
	return tool.Descriptor{
		ToolDescriptor: message.ToolDescriptor{
			Name:        "skill_" + skill.Name,
			Description: skill.Description,
			OutputType:  "object",
		},
		Category: "skill",
		Call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{
				"instructions": skill.Instruction,
				"base_dir":     skill.Dir,
				"scripts":      skill.Scripts,
			}, nil
		},
	}
}

func (s *Skills) Close() error {
	return nil
}

func (s *Skills) Tools() []tool.Descriptor {
	return s.tools
}
