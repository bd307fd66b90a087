package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/omny/internal/models"
)

func TestProfileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "user_profile.json")
	s := NewProfileStore(path)

	_, found, err := s.Load()
	if err != nil || found {
		t.Fatalf("Load on missing file = found %v, err %v", found, err)
	}

	want := models.Profile{Age: 31, Weight: 82.5, Height: 180, Gender: "Male", Goal: "Build Muscle"}
	if err := s.Save(want); err != nil {
		t.Fatal(err)
	}
	got, found, err := s.Load()
	if err != nil || !found {
		t.Fatalf("Load = found %v, err %v", found, err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"goal": "Build Muscle"`) {
		t.Errorf("unexpected file contents: %s", raw)
	}
}

func TestProfileStore_ReadsExistingFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_profile.json")
	content := `{"age": 25, "weight": 75.0, "height": 175, "gender": "Female", "goal": "Maintain"}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	got, found, err := NewProfileStore(path).Load()
	if err != nil || !found {
		t.Fatalf("Load = found %v, err %v", found, err)
	}
	if got.Gender != "Female" || got.Height != 175 {
		t.Errorf("got %+v", got)
	}
}

func TestProfileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_profile.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewProfileStore(path).Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestTranscriptStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat_history.json")
	s := NewTranscriptStore(path)

	tr := models.NewTranscripts()
	tr.Append(models.ModeGeneral, models.RoleUser, "is creatine safe?")
	if err := s.Save(tr); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"coach_messages"`, `"general_messages"`} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("file missing %s: %s", key, raw)
		}
	}

	got, found, err := s.Load()
	if err != nil || !found {
		t.Fatalf("Load = found %v, err %v", found, err)
	}
	if len(got.General) != 2 || got.General[1].Content != "is creatine safe?" {
		t.Errorf("General = %+v", got.General)
	}

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should be removed")
	}
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %v", entries)
	}
}
