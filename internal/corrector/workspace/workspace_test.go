package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"labjudge/internal/corrector/model"
	"labjudge/internal/corrector/workspace"
)

func newWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	return &workspace.Workspace{
		LabNumber:  4,
		Root:       t.TempDir(),
		OutputGlob: "Lab*.txt",
		InputGlobs: []string{"entrada*.txt", "Entrada*.txt"},
		KeepFiles:  []string{"correction.log", "outputs", ".cpp"},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestNormalizeIntakeMovesLooseSource(t *testing.T) {
	ws := newWorkspace(t)
	writeFile(t, filepath.Join(ws.Root, "Lab4_Maria.cpp"), "int main(){}")

	if err := ws.NormalizeIntake(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ws.Root, "Maria", "Lab4_Maria.cpp")); err != nil {
		t.Fatalf("expected moved source: %v", err)
	}
}

func TestNormalizeIntakeFixesCasing(t *testing.T) {
	ws := newWorkspace(t)
	writeFile(t, filepath.Join(ws.Root, "Joao", "lab4_Joao.CPP"), "int main(){}")

	if err := ws.NormalizeIntake(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ws.Root, "Joao", "Lab4_Joao.cpp")); err != nil {
		t.Fatalf("expected canonical casing: %v", err)
	}
}

func TestNormalizeIntakeKeepsMisnamedSource(t *testing.T) {
	ws := newWorkspace(t)
	writeFile(t, filepath.Join(ws.Root, "Ana", "trabalho.cpp"), "int main(){}")

	if err := ws.NormalizeIntake(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ws.Root, "Ana", "trabalho.cpp")); err != nil {
		t.Fatalf("misnamed source must stay misnamed: %v", err)
	}
}

func TestListSubmissionsSorted(t *testing.T) {
	ws := newWorkspace(t)
	for _, name := range []string{"zeca", "ana", "maria"} {
		writeFile(t, filepath.Join(ws.Root, name, "x.cpp"), "")
	}

	subs, err := ws.ListSubmissions()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("got %d submissions", len(subs))
	}
	if subs[0].Name != "ana" || subs[2].Name != "zeca" {
		t.Fatalf("order = %v", subs)
	}
}

func TestFindSourceMissing(t *testing.T) {
	ws := newWorkspace(t)
	sub := model.Submission{Name: "Ana", Dir: filepath.Join(ws.Root, "Ana")}
	writeFile(t, filepath.Join(sub.Dir, "trabalho.cpp"), "")

	_, _, found, err := ws.FindSource(sub)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found {
		t.Fatal("misnamed source must not be found")
	}
}

func TestFindSourcePicksFirstSorted(t *testing.T) {
	ws := newWorkspace(t)
	sub := model.Submission{Name: "Ana", Dir: filepath.Join(ws.Root, "Ana")}
	writeFile(t, filepath.Join(sub.Dir, "Lab4_Ana_v2.cpp"), "")
	writeFile(t, filepath.Join(sub.Dir, "Lab4_Ana.cpp"), "")

	src, extra, found, err := ws.FindSource(sub)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !found {
		t.Fatal("expected a source")
	}
	if filepath.Base(src) != "Lab4_Ana.cpp" {
		t.Fatalf("src = %s", src)
	}
	if len(extra) != 1 || extra[0] != "Lab4_Ana_v2.cpp" {
		t.Fatalf("extra = %v", extra)
	}
}

func TestMissingSourceFilenamesToleratesExtras(t *testing.T) {
	ws := newWorkspace(t)
	source := `
		FILE *in = fopen("entrada4.txt", "r");
		FILE *out = fopen("Lab4_Maria.txt", "w");
		FILE *scratch = fopen("debug.txt", "w");
	`
	if missing := ws.MissingSourceFilenames(source, "Maria"); len(missing) != 0 {
		t.Fatalf("missing = %v, want none", missing)
	}
}

func TestMissingSourceFilenamesNoFopen(t *testing.T) {
	ws := newWorkspace(t)
	missing := ws.MissingSourceFilenames("int main() { return 0; }", "Maria")
	if len(missing) != 2 {
		t.Fatalf("missing = %v, want both required names", missing)
	}
	if missing[0] != "entrada4.txt" || missing[1] != "Lab4_Maria.txt" {
		t.Fatalf("missing = %v", missing)
	}
}

func TestMissingSourceFilenamesInputOnly(t *testing.T) {
	ws := newWorkspace(t)
	source := `FILE *in = fopen("Entrada4.txt", "r");`
	missing := ws.MissingSourceFilenames(source, "Maria")
	if len(missing) != 1 || missing[0] != "Lab4_Maria.txt" {
		t.Fatalf("missing = %v, want only the report name", missing)
	}
}

func TestStageInputsKeepsBothCasings(t *testing.T) {
	ws := newWorkspace(t)
	tc := model.TestCase{Name: "caso1", Dir: filepath.Join(ws.Root, "casos", "caso1")}
	sub := model.Submission{Name: "Ana", Dir: filepath.Join(ws.Root, "Ana")}
	writeFile(t, filepath.Join(tc.Dir, "entrada4.txt"), "minusculo\n")
	writeFile(t, filepath.Join(tc.Dir, "Entrada4.txt"), "maiusculo\n")
	writeFile(t, filepath.Join(sub.Dir, "Lab4_Ana.cpp"), "")

	if err := ws.StageInputs(tc, sub); err != nil {
		t.Fatalf("stage: %v", err)
	}
	for name, want := range map[string]string{
		"entrada4.txt": "minusculo\n",
		"Entrada4.txt": "maiusculo\n",
	} {
		data, err := os.ReadFile(filepath.Join(sub.Dir, name))
		if err != nil {
			t.Fatalf("%s must be staged: %v", name, err)
		}
		if string(data) != want {
			t.Fatalf("%s = %q, want %q", name, data, want)
		}
	}
}

func TestPurgeStaleReports(t *testing.T) {
	ws := newWorkspace(t)
	sub := model.Submission{Name: "Ana", Dir: filepath.Join(ws.Root, "Ana")}
	writeFile(t, filepath.Join(sub.Dir, "Lab4_Ana.txt"), "velho\n")
	writeFile(t, filepath.Join(sub.Dir, "Lab4_Ana.cpp"), "")

	if err := ws.PurgeStaleReports(sub); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, err := os.Stat(filepath.Join(sub.Dir, "Lab4_Ana.txt")); !os.IsNotExist(err) {
		t.Fatal("leftover report must be removed")
	}
	if _, err := os.Stat(filepath.Join(sub.Dir, "Lab4_Ana.cpp")); err != nil {
		t.Fatalf("source must survive: %v", err)
	}
}

func TestCollectOutputArchivesReport(t *testing.T) {
	ws := newWorkspace(t)
	sub := model.Submission{Name: "Ana", Dir: filepath.Join(ws.Root, "Ana")}
	writeFile(t, filepath.Join(sub.Dir, "Lab4_Ana.txt"), "relatorio\n")

	path, produced, err := ws.CollectOutput(sub, "caso1")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if !produced {
		t.Fatal("expected output")
	}
	if filepath.Base(path) != "caso1.txt" {
		t.Fatalf("archived as %s", path)
	}
	if _, err := os.Stat(filepath.Join(sub.Dir, "Lab4_Ana.txt")); !os.IsNotExist(err) {
		t.Fatal("original report must be moved away")
	}
}

func TestCollectOutputMissingReport(t *testing.T) {
	ws := newWorkspace(t)
	sub := model.Submission{Name: "Ana", Dir: filepath.Join(ws.Root, "Ana")}
	writeFile(t, filepath.Join(sub.Dir, "Lab4_Ana.cpp"), "")

	_, produced, err := ws.CollectOutput(sub, "caso1")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if produced {
		t.Fatal("source file must not count as a report")
	}
}

func TestReadOutputLinesLatin1(t *testing.T) {
	ws := newWorkspace(t)
	path := filepath.Join(ws.Root, "out.txt")
	// "aviões" in Latin-1, with a CRLF line ending.
	data := []byte{'a', 'v', 'i', 0xF5, 'e', 's', '\r', '\n', 'o', 'k'}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines, err := ws.ReadOutputLines(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if lines[0] != "avioes" {
		t.Fatalf("line 0 = %q, want folded ASCII", lines[0])
	}
	if lines[1] != "ok" {
		t.Fatalf("line 1 = %q", lines[1])
	}
}

func TestReadOutputLinesDropsTrailingNewline(t *testing.T) {
	ws := newWorkspace(t)
	path := filepath.Join(ws.Root, "out.txt")
	if err := os.WriteFile(path, []byte("unica linha\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines, err := ws.ReadOutputLines(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %v", len(lines), lines)
	}
}

func TestCleanupKeepsRetainedFiles(t *testing.T) {
	ws := newWorkspace(t)
	sub := model.Submission{Name: "Ana", Dir: filepath.Join(ws.Root, "Ana")}
	writeFile(t, filepath.Join(sub.Dir, "Lab4_Ana.cpp"), "")
	writeFile(t, filepath.Join(sub.Dir, "correction.log"), "NO-ERRORS\n")
	writeFile(t, filepath.Join(sub.Dir, "outputs", "caso1.txt"), "")
	writeFile(t, filepath.Join(sub.Dir, "a.out"), "")
	writeFile(t, filepath.Join(sub.Dir, "entrada4.txt"), "")

	if err := ws.Cleanup(sub); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	for _, keep := range []string{"Lab4_Ana.cpp", "correction.log", "outputs"} {
		if _, err := os.Stat(filepath.Join(sub.Dir, keep)); err != nil {
			t.Fatalf("%s must survive cleanup: %v", keep, err)
		}
	}
	for _, gone := range []string{"a.out", "entrada4.txt"} {
		if _, err := os.Stat(filepath.Join(sub.Dir, gone)); !os.IsNotExist(err) {
			t.Fatalf("%s must be removed", gone)
		}
	}
}

func TestCleanupMatchesKeepNamesExactly(t *testing.T) {
	ws := newWorkspace(t)
	sub := model.Submission{Name: "Ana", Dir: filepath.Join(ws.Root, "Ana")}
	writeFile(t, filepath.Join(sub.Dir, "outputs", "caso1.txt"), "")
	writeFile(t, filepath.Join(sub.Dir, "my_outputs", "rascunho.txt"), "")
	writeFile(t, filepath.Join(sub.Dir, "notas_correction.log"), "")

	if err := ws.Cleanup(sub); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(filepath.Join(sub.Dir, "outputs")); err != nil {
		t.Fatalf("outputs must survive: %v", err)
	}
	for _, gone := range []string{"my_outputs", "notas_correction.log"} {
		if _, err := os.Stat(filepath.Join(sub.Dir, gone)); !os.IsNotExist(err) {
			t.Fatalf("%s must be removed", gone)
		}
	}
}
