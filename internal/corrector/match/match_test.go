package match_test

import (
	"regexp"
	"testing"

	"labjudge/internal/corrector/match"
	pkgerrors "labjudge/pkg/errors"
)

func TestNormalizeFoldsAccents(t *testing.T) {
	got := match.Normalize("NÚMERO de aviões autorizados: São Paulo")
	want := "NUMERO de avioes autorizados: Sao Paulo"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestCompileSelectorsInvalidPattern(t *testing.T) {
	_, err := match.CompileSelectors([]string{"total", "("})
	if err == nil {
		t.Fatal("expected error for unbalanced pattern")
	}
	if !pkgerrors.Is(err, pkgerrors.SelectorInvalid) {
		t.Fatalf("expected SelectorInvalid, got %v", err)
	}
}

func TestCompileLineSelectorsWordBounded(t *testing.T) {
	sels, err := match.CompileLineSelectors([]string{"total"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if sels[0].MatchString("totalmente errado") {
		t.Fatal("bare word selector must not match inside a longer word")
	}
	if !sels[0].MatchString("Total de voos: 2") {
		t.Fatal("selector must still match the whole word")
	}
}

func TestCompileLineSelectorsKeepsRegexPatterns(t *testing.T) {
	sels, err := match.CompileLineSelectors([]string{`^Total:`})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !sels[0].MatchString("Total: 5") {
		t.Fatal("anchored pattern must compile unchanged")
	}
}

func TestFindValueFirstEligibleLineWins(t *testing.T) {
	lines := []string{
		"Relatorio de voos",
		"Total de voos autorizados: 17",
		"Total de voos autorizados: 99",
	}
	lineSel := mustCompile(t, []string{"total", "autorizados"})
	valueSel := mustCompile(t, []string{`(\d+)`})

	got, ok := match.FindValue(lines, lineSel, valueSel)
	if !ok {
		t.Fatal("expected a match")
	}
	if got != "17" {
		t.Fatalf("got %q, want %q", got, "17")
	}
}

func TestFindValueEligibleLineWithoutValue(t *testing.T) {
	lines := []string{
		"Total de voos autorizados: nenhum",
		"Total de voos autorizados: 4",
	}
	lineSel := mustCompile(t, []string{"total", "autorizados"})
	valueSel := mustCompile(t, []string{`(\d+)`})

	// The first eligible line settles the search even when no value
	// selector matches it.
	if _, ok := match.FindValue(lines, lineSel, valueSel); ok {
		t.Fatal("expected no match")
	}
}

func TestFindIntRejectsNonNumeric(t *testing.T) {
	lines := []string{"resultado: abc"}
	lineSel := mustCompile(t, []string{"resultado"})
	valueSel := mustCompile(t, []string{`:\s*(\S+)`})

	if _, ok := match.FindInt(lines, lineSel, valueSel); ok {
		t.Fatal("expected parse failure to report not-found")
	}
}

func TestDeriveSelectorsWordBoundaries(t *testing.T) {
	sels := match.DeriveSelectors([]string{"TAM"})
	if len(sels) != 1 {
		t.Fatalf("got %d selectors, want 1", len(sels))
	}
	if !sels[0].MatchString("voo TAM 123") {
		t.Fatal("expected exact word to match")
	}
	if sels[0].MatchString("voo TAMANHO 123") {
		t.Fatal("expected larger word not to match")
	}
}

func TestFindOrderedMatchesKeepsFileOrder(t *testing.T) {
	lines := []string{
		"Ordem de decolagem:",
		"",
		"3. GOL1234",
		"1. TAM5678",
		"",
		"2. AZU9012",
	}
	recordSel := match.DeriveSelectors([]string{"TAM5678", "GOL1234", "AZU9012"})
	valueSel := mustCompile(t, []string{`\d+\.\s*(\S+)`})

	got := match.FindOrderedMatches(lines, recordSel, valueSel)
	want := []string{"GOL1234", "TAM5678", "AZU9012"}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func mustCompile(t *testing.T, patterns []string) []*regexp.Regexp {
	t.Helper()
	sels, err := match.CompileSelectors(patterns)
	if err != nil {
		t.Fatalf("compile selectors: %v", err)
	}
	return sels
}
