// Package site holds the portfolio content and renders the landing page.
package site

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultContent []byte

//go:embed templates/index.html
var indexTemplateText string

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(indexTemplateText))

type Profile struct {
	Name     string `yaml:"name" json:"name"`
	Title    string `yaml:"title" json:"title"`
	Tagline  string `yaml:"tagline" json:"tagline"`
	Summary  string `yaml:"summary" json:"summary"`
	Email    string `yaml:"email" json:"email"`
	Location string `yaml:"location" json:"location"`
}

// Role is one entry on the career timeline.
type Role struct {
	Period       string   `yaml:"period" json:"period"`
	Position     string   `yaml:"position" json:"position"`
	Company      string   `yaml:"company" json:"company"`
	Description  string   `yaml:"description" json:"description"`
	Technologies []string `yaml:"technologies" json:"technologies"`
	Achievements []string `yaml:"achievements" json:"achievements"`
}

type Project struct {
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description" json:"description"`
	Technologies []string `yaml:"technologies" json:"technologies"`
}

type Skill struct {
	Name  string `yaml:"name" json:"name"`
	Level int    `yaml:"level" json:"level"` // percent
}

type SkillCategory struct {
	Title  string  `yaml:"title" json:"title"`
	Skills []Skill `yaml:"skills" json:"skills"`
}

type Degree struct {
	Degree      string `yaml:"degree" json:"degree"`
	Institution string `yaml:"institution" json:"institution"`
	Year        string `yaml:"year" json:"year"`
}

// Content is everything the portfolio page shows.
type Content struct {
	Profile   Profile         `yaml:"profile" json:"profile"`
	Timeline  []Role          `yaml:"timeline" json:"timeline"`
	Projects  []Project       `yaml:"projects" json:"projects"`
	Skills    []SkillCategory `yaml:"skills" json:"skills"`
	Education []Degree        `yaml:"education" json:"education"`
	// Resume is the plain text resume served when no PDF is available.
	Resume string `yaml:"resume" json:"-"`
}

// Load reads content from path, or the built-in content when path is empty.
func Load(path string) (*Content, error) {
	data := defaultContent
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading site content: %w", err)
		}
	}

	return Parse(data)
}

// Parse decodes YAML content. Unknown keys are rejected.
func Parse(data []byte) (*Content, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Content
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("error parsing site content: %w", err)
	}
	if c.Profile.Name == "" {
		return nil, fmt.Errorf("error parsing site content: profile.name is required")
	}

	return &c, nil
}

// ResumeFilename is the attachment name for the plain text resume.
func (c *Content) ResumeFilename() string {
	name := strings.Join(strings.Fields(c.Profile.Name), "_")
	if name == "" {
		name = "resume"
	}

	return name + "_Resume.txt"
}

// RenderIndex renders the landing page.
func (c *Content) RenderIndex() ([]byte, error) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, c); err != nil {
		return nil, fmt.Errorf("error rendering index: %w", err)
	}

	return buf.Bytes(), nil
}
