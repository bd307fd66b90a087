package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/omny/internal/models"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after message are moved first",
			args:     []string{"how much protein", "-output", "json"},
			expected: []string{"-output", "json", "how much protein"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-output", "json", "how much protein"},
			expected: []string{"-output", "json", "how much protein"},
		},
		{
			name:     "message only returns unchanged",
			args:     []string{"how much protein"},
			expected: []string{"how much protein"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"sleep", "and", "recovery", "-k", "5"},
			expected: []string{"-k", "5", "sleep", "and", "recovery"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := argsReorder(tt.args); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestJoinArgs(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"creatine"}, "creatine"},
		{[]string{"how", "much", "protein"}, "how much protein"},
		{[]string{"how much protein"}, "how much protein"},
		{[]string{}, ""},
		{[]string{"  ", " "}, ""},
	}
	for _, tt := range tests {
		if got := joinArgs(tt.args); got != tt.want {
			t.Errorf("joinArgs(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestMimeType(t *testing.T) {
	tests := []struct {
		path string
		data []byte
		want string
	}{
		{"menu.PDF", nil, "application/pdf"},
		{"meal.jpg", nil, "image/jpeg"},
		{"meal.png", nil, "image/png"},
		{"upload", []byte("%PDF-1.4"), "application/pdf"},
	}
	for _, tt := range tests {
		if got := mimeType(tt.path, tt.data); got != tt.want {
			t.Errorf("mimeType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRun_VersionAndUnknown(t *testing.T) {
	var out bytes.Buffer
	if err := run("version", nil, nil, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "omny version ") {
		t.Errorf("version output = %q", out.String())
	}

	out.Reset()
	if err := run("lift", nil, nil, &out); !errors.Is(err, errUsage) {
		t.Errorf("unknown command error = %v", err)
	}
	if !strings.Contains(out.String(), "Unknown command: lift") {
		t.Errorf("unknown command output = %q", out.String())
	}
}

func TestLoadConfig_ExplicitMissingPath(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for explicit missing config")
	}
}

// writeConfig creates a config using the hash embedder so no network is needed.
func writeConfig(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "config.yaml")
	cfg := "embedding:\n  provider: hash\n  dimensions: 32\nknowledge:\n  workers: 2\n"
	if err := os.WriteFile(path, []byte(cfg), 0600); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	var out bytes.Buffer
	if err := runInit([]string{"-config", path}, &out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "chat_model: gemini-2.5-pro") {
		t.Errorf("config missing defaults:\n%s", data)
	}
	if strings.Contains(string(data), "api_key") {
		t.Error("api key must not be written to the config file")
	}
	if err := runInit([]string{"-config", path}, &out); err == nil {
		t.Error("expected error when config exists")
	}
	if err := runInit([]string{"-config", path, "-force"}, &out); err != nil {
		t.Errorf("-force: %v", err)
	}
}

func TestRunProfileAndMetrics(t *testing.T) {
	dir, cfgPath := writeConfig(t)

	var out bytes.Buffer
	err := runProfile([]string{"-config", cfgPath, "-age", "30", "-weight", "80", "-height", "180", "-gender", "male", "-goal", "build_muscle"}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "BMR:      1780 kcal/day") {
		t.Errorf("profile output:\n%s", out.String())
	}

	var saved models.Profile
	data, err := os.ReadFile(filepath.Join(dir, "user_profile.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatal(err)
	}
	if saved.Goal != models.GoalBuildMuscle || saved.Gender != models.GenderMale {
		t.Errorf("saved profile = %+v", saved)
	}

	out.Reset()
	if err := runMetrics([]string{"-config", cfgPath, "-output", "json"}, &out); err != nil {
		t.Fatal(err)
	}
	var m struct {
		Metrics struct {
			Macros struct {
				Protein int `json:"protein_g"`
				Carbs   int `json:"carb_g"`
			} `json:"macros"`
		} `json:"metrics"`
	}
	if err := json.Unmarshal(out.Bytes(), &m); err != nil {
		t.Fatalf("metrics json: %v\n%s", err, out.String())
	}
	if m.Metrics.Macros.Protein != 160 || m.Metrics.Macros.Carbs != 320 {
		t.Errorf("macros = %+v", m.Metrics.Macros)
	}

	if err := runProfile([]string{"-config", cfgPath, "-age", "12"}, &out); err == nil {
		t.Error("expected validation error for age 12")
	}
}

func TestRunExportHistoryReset(t *testing.T) {
	dir, cfgPath := writeConfig(t)
	var out bytes.Buffer

	if err := runExport([]string{"-config", cfgPath, "-out", filepath.Join(dir, "plan.pdf")}, &out); err == nil {
		t.Error("expected error without a plan")
	}

	src := filepath.Join(dir, "plan.md")
	if err := os.WriteFile(src, []byte("### PLAN\n**Week 1**: squats"), 0600); err != nil {
		t.Fatal(err)
	}
	pdfPath := filepath.Join(dir, "plan.pdf")
	if err := runExport([]string{"-config", cfgPath, "-from", src, "-out", pdfPath}, &out); err != nil {
		t.Fatal(err)
	}
	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Error("export did not write a PDF")
	}

	out.Reset()
	if err := runHistory([]string{"-config", cfgPath, "-mode", "general"}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), models.GeneralGreeting) {
		t.Errorf("history = %q", out.String())
	}
	if err := runHistory([]string{"-config", cfgPath, "-mode", "gym"}, &out); err == nil {
		t.Error("expected error for unknown mode")
	}

	out.Reset()
	if err := runReset([]string{"-config", cfgPath}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Chat history cleared.") {
		t.Errorf("reset output = %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "chat_history.json")); !os.IsNotExist(err) {
		t.Errorf("reset should remove the chat history file, stat err = %v", err)
	}
}

func TestRunIngestSearchStatus(t *testing.T) {
	dir, cfgPath := writeConfig(t)
	kb := filepath.Join(dir, "knowledge_base")
	if err := os.MkdirAll(kb, 0755); err != nil {
		t.Fatal(err)
	}
	docs := map[string]string{
		"protein.md": "Protein intake of 1.6 to 2.2 grams per kilogram supports muscle growth.",
		"sleep.txt":  "Seven to nine hours of sleep improves recovery and performance.",
	}
	for name, content := range docs {
		if err := os.WriteFile(filepath.Join(kb, name), []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	if err := runIngest([]string{"-config", cfgPath, "-output", "json"}, &out); err != nil {
		t.Fatal(err)
	}
	var stats struct {
		Indexed int `json:"indexed"`
		Chunks  int `json:"chunks"`
	}
	if err := json.Unmarshal(out.Bytes(), &stats); err != nil {
		t.Fatalf("ingest json: %v\n%s", err, out.String())
	}
	if stats.Indexed != 2 || stats.Chunks < 2 {
		t.Errorf("ingest stats = %+v", stats)
	}
	if _, err := os.Stat(filepath.Join(dir, "data", "vectors.bin")); err != nil {
		t.Errorf("vector index not saved: %v", err)
	}

	out.Reset()
	if err := runSearch([]string{"-config", cfgPath, "-output", "json", "protein", "per", "kilogram"}, &out); err != nil {
		t.Fatal(err)
	}
	var resp models.SearchResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("search json: %v\n%s", err, out.String())
	}
	if resp.Total == 0 || resp.Query != "protein per kilogram" {
		t.Errorf("search response = %+v", resp)
	}

	out.Reset()
	if err := runStatus([]string{"-config", cfgPath, "-output", "json"}, &out); err != nil {
		t.Fatal(err)
	}
	var status map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status["knowledge_loaded"] != true || status["documents"] != float64(2) || status["embedding_dimensions"] != float64(32) {
		t.Errorf("status = %v", status)
	}

	out.Reset()
	if err := runIngest([]string{"-config", cfgPath}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "0 indexed, 2 unchanged") {
		t.Errorf("second ingest = %q", out.String())
	}
}
