package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-renderpanel/panels/templates"
	"github.com/goliatone/go-renderpanel/pkg/render/pongo"
	"github.com/goliatone/go-renderpanel/pkg/toolbar"
)

func main() {
	dir := flag.String("dir", "templates", "template directory")
	name := flag.String("template", "", "template to render (prompts when empty)")
	data := flag.String("data", "", "JSON object rendered as template data")
	ext := flag.String("ext", ".html", "template extension")
	showContext := flag.Bool("show-context", true, "include formatted context in the report")
	flag.Parse()

	engine, err := pongo.New(pongo.WithBaseDir(*dir), pongo.WithExtension(*ext))
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	target := strings.TrimSpace(*name)
	if target == "" {
		target, err = pickTemplate(*dir, *ext)
		if err != nil {
			log.Fatalf("Failed to pick template: %v", err)
		}
	}

	var payload map[string]any
	if strings.TrimSpace(*data) != "" {
		if err := json.Unmarshal([]byte(*data), &payload); err != nil {
			log.Fatalf("Failed to parse -data: %v", err)
		}
	}

	tb := toolbar.New(toolbar.WithShowTemplateContext(*showContext))
	panel := templates.New(tb, templates.WithSource(engine))
	panel.EnableInstrumentation()
	defer panel.DisableInstrumentation()

	if _, err := engine.Render(target, payload); err != nil {
		log.Fatalf("Failed to render %q: %v", target, err)
	}

	panel.GenerateStats(nil)
	report, ok := tb.Stats(templates.PanelName).(templates.Stats)
	if !ok {
		log.Fatalf("No stats recorded")
	}

	out, err := yaml.Marshal(report)
	if err != nil {
		log.Fatalf("Failed to format report: %v", err)
	}
	fmt.Printf("%s\n%s", panel.Title(), out)
}

func pickTemplate(dir, ext string) (string, error) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	var names []string
	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(path, ext) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no %s templates under %s", ext, dir)
	}
	sort.Strings(names)

	var picked string
	prompt := &survey.Select{
		Message: "Template to render:",
		Options: names,
	}
	if err := survey.AskOne(prompt, &picked); err != nil {
		return "", err
	}
	return picked, nil
}
