package textclean

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalize_CleansNoise(t *testing.T) {
	input := "Penelitian ini mem-\nbahas sistem informasi (Sutanto, 2019).\r\n" +
		"Lihat https://example.com/a untuk detail■.\n\n\n\n" +
		"Gambar 2.1 Diagram alir\n" +
		"Hasil   akhir — baik."

	got := Normalize(input)
	want := "Penelitian ini membahas sistem informasi.\nLihat untuk detail.\n\nHasil akhir - baik."
	if got != want {
		t.Errorf("Normalize mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"algo- (Smith, 2020)\nritma genetika dipakai.",
		"BAB I\nPENDAHULUAN\n\n\n\n1.1 Latar Belakang\nTeks  panjang\t\tdi sini (Putra dkk., 2021).",
		"(Smi-\nth, 2020) menyatakan hal ini.",
		"UNIVERSITAS X\nHalaman satu.\nUNIVERSITAS X\nHalaman dua.\nwww.kampus.ac.id",
		"Tabel 4.2 Hasil uji\nNilai 3.14 dan 2.71 . . . selesai ( 2019 ) .",
		"□□ ▯ � teks​ rusak — diperbaiki – lagi",
		strings.Repeat("ab-\n", 3000) + "cd",
		"a-\nb-\nc-\nd",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %.80q\n once: %.80q\ntwice: %.80q", in, once, twice)
		}
	}
}

func TestNormalize_RepeatedInstitutionHeaders(t *testing.T) {
	input := "UNIVERSITAS GADJAH MADA\nIsi halaman satu.\nUNIVERSITAS GADJAH MADA\nIsi halaman dua."
	got := Normalize(input)
	want := "Isi halaman satu.\nIsi halaman dua."
	if got != want {
		t.Errorf("expected repeated headers removed\n got: %q\nwant: %q", got, want)
	}

	single := "Universitas Gadjah Mada\nIsi halaman."
	if got := Normalize(single); !strings.Contains(got, "Universitas Gadjah Mada") {
		t.Errorf("expected single header kept, got %q", got)
	}
}

func TestNormalize_KeepsDecimalsAndPlainParens(t *testing.T) {
	got := Normalize("Nilai rata-rata 3.75 (skala lima) cukup tinggi.")
	if got != "Nilai rata-rata 3.75 (skala lima) cukup tinggi." {
		t.Errorf("unexpected change: %q", got)
	}
}

func TestApply_OutputStage(t *testing.T) {
	input := "## Ringkasan\nBerikut adalah ringkasan bab ini: Penelitian ini menguji model [3, 4] pada data......... 12\n42\nHasilnya baik ."
	got := Default().Apply(StageOutput, input)
	want := "Penelitian ini menguji model pada data\n\nHasilnya baik."
	if got != want {
		t.Errorf("output stage mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestStripReferences(t *testing.T) {
	input := "Metode ini efektif [12] menurut Wijaya, 2018 dan (Lee et al., 2020).\n17\nTabel 3.1 Hasil uji"
	got := StripReferences(input)
	want := "Metode ini efektif menurut dan."
	if got != want {
		t.Errorf("StripReferences mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRules_StageSubsets(t *testing.T) {
	rs := Default()
	norm := strings.Join(rs.Rules(StageNormalize), ",")
	if !strings.Contains(norm, "hyphen_wrap") {
		t.Errorf("expected hyphen_wrap in normalize stage, got %s", norm)
	}
	if strings.Contains(norm, "dot_leaders") {
		t.Errorf("dot leaders must survive normalization for TOC detection, got %s", norm)
	}
	out := strings.Join(rs.Rules(StageOutput), ",")
	if !strings.Contains(out, "banned_phrases") || !strings.Contains(out, "boilerplate_headings") {
		t.Errorf("expected output-only rules, got %s", out)
	}
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := "stopwords:\n  - Skripsi\nbanned_phrases:\n  - \"ringkasan singkat:\"\nboilerplate_headings:\n  - intisari\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rs, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if !rs.IsStopWord("skripsi") {
		t.Error("expected custom stop-word to be lowercased and added")
	}
	if !rs.IsStopWord("yang") {
		t.Error("expected default stop-words to remain")
	}
	got := rs.Apply(StageOutput, "Intisari\nRingkasan singkat: Model bekerja dengan baik.")
	if got != "Model bekerja dengan baik." {
		t.Errorf("expected custom phrase and heading removed, got %q", got)
	}
}

func TestLoadRules_EmptyPathUsesDefault(t *testing.T) {
	rs, err := LoadRules("")
	if err != nil {
		t.Fatal(err)
	}
	if rs != Default() {
		t.Error("expected default ruleset for empty path")
	}
}

func TestLoadRules_Errors(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("stopwords: [unclosed"), 0o644)
	if _, err := LoadRules(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestNormalize_JoinsChainedHyphenWraps(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{strings.Repeat("ab-\n", 3) + "cd", "abababcd"},
		{"a-\nb-\nc-\nd", "abcd"},
		{strings.Repeat("ab-\n", 3000) + "cd", strings.Repeat("ab", 3000) + "cd"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%.40q) = %.40q, want %.40q", tt.in, got, tt.want)
		}
	}
}
