package segment

import (
	"strings"
	"testing"
)

func titles(text string) []string {
	var out []string
	for _, ch := range Split(text) {
		out = append(out, ch.Title)
	}
	return out
}

func TestSplit_ThesisWithTOCAndBackMatter(t *testing.T) {
	text := strings.Join([]string{
		"HALAMAN JUDUL",
		"Skripsi oleh Budi",
		"DAFTAR ISI",
		"BAB I PENDAHULUAN .......... 1",
		"BAB II TINJAUAN PUSTAKA ......... 5",
		"DAFTAR PUSTAKA ........ 40",
		"BAB I",
		"PENDAHULUAN",
		"1.1 Latar Belakang",
		"Paragraf latar belakang yang cukup panjang untuk dihitung sebagai paragraf.",
		"BAB II TINJAUAN PUSTAKA",
		"Isi tinjauan pustaka yang membahas teori dasar penelitian ini.",
		"DAFTAR PUSTAKA",
		"Smith, J. 2020. Buku Referensi.",
		"LAMPIRAN 1",
		"Kuesioner",
	}, "\n")

	chapters := Split(text)
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d: %v", len(chapters), titles(text))
	}
	if chapters[0].Title != "BAB I PENDAHULUAN" {
		t.Errorf("expected folded title, got %q", chapters[0].Title)
	}
	if chapters[0].RawBody != "1.1 Latar Belakang\nParagraf latar belakang yang cukup panjang untuk dihitung sebagai paragraf." {
		t.Errorf("unexpected chapter 1 body: %q", chapters[0].RawBody)
	}
	if chapters[1].Title != "BAB II TINJAUAN PUSTAKA" {
		t.Errorf("unexpected chapter 2 title: %q", chapters[1].Title)
	}
	if strings.Contains(chapters[1].RawBody, "Smith") || strings.Contains(chapters[1].RawBody, "Kuesioner") {
		t.Errorf("expected back matter removed, got %q", chapters[1].RawBody)
	}
	for i, ch := range chapters {
		if ch.Index != i {
			t.Errorf("chapter %d has index %d", i, ch.Index)
		}
	}
}

func TestSplit_NoHeadingsFallsBackToSingleChapter(t *testing.T) {
	text := "Dokumen tanpa struktur bab.\nHanya paragraf biasa."
	chapters := Split(text)
	if len(chapters) != 1 {
		t.Fatalf("expected 1 chapter, got %d", len(chapters))
	}
	if chapters[0].Title != FallbackTitle {
		t.Errorf("expected title %q, got %q", FallbackTitle, chapters[0].Title)
	}
	if chapters[0].RawBody != text {
		t.Errorf("expected whole text as body, got %q", chapters[0].RawBody)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	chapters := Split("")
	if len(chapters) != 1 || chapters[0].Title != FallbackTitle {
		t.Fatalf("expected single fallback chapter, got %v", titles(""))
	}
}

func TestSplit_TOCWithoutLeadersDoesNotDuplicate(t *testing.T) {
	text := strings.Join([]string{
		"DAFTAR ISI",
		"BAB I PENDAHULUAN",
		"BAB II METODE",
		"DAFTAR PUSTAKA",
		"BAB I PENDAHULUAN",
		"Isi bab satu.",
		"BAB II METODE",
		"Isi bab dua.",
		"DAFTAR PUSTAKA",
		"Referensi.",
	}, "\n")

	chapters := Split(text)
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d: %v", len(chapters), titles(text))
	}
	if chapters[0].RawBody != "Isi bab satu." || chapters[1].RawBody != "Isi bab dua." {
		t.Errorf("expected real chapter bodies, got %q and %q", chapters[0].RawBody, chapters[1].RawBody)
	}
}

func TestSplit_ArabicChapters(t *testing.T) {
	text := "Preface text.\nChapter 1: Introduction\nIntro text.\nchapter 2 - Method\nMethod text."
	got := titles(text)
	want := []string{"Chapter 1: Introduction", "chapter 2 - Method"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSplit_RunningTextIsNotAHeading(t *testing.T) {
	text := "BAB I\nIsi bab.\nBAB II telah dijelaskan bahwa metode ini baik.\nLanjut."
	chapters := Split(text)
	if len(chapters) != 1 {
		t.Fatalf("expected 1 chapter, got %v", titles(text))
	}
	if !strings.Contains(chapters[0].RawBody, "BAB II telah dijelaskan") {
		t.Errorf("expected running text kept in body, got %q", chapters[0].RawBody)
	}
}

func TestSplit_PreservesOrder(t *testing.T) {
	text := "BAB I SATU\na\nBAB II DUA\nb\nBAB III TIGA\nc\nBAB IV EMPAT\nd\nBAB V LIMA\ne"
	got := titles(text)
	want := []string{"BAB I SATU", "BAB II DUA", "BAB III TIGA", "BAB IV EMPAT", "BAB V LIMA"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseNumeral(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"I", 1, true},
		{"iv", 4, true},
		{"IX", 9, true},
		{"XII", 12, true},
		{"XL", 40, true},
		{"2", 2, true},
		{"0", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumeral(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseNumeral(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestChapterNumber(t *testing.T) {
	if n, ok := ChapterNumber("BAB IV HASIL DAN PEMBAHASAN"); !ok || n != 4 {
		t.Errorf("expected 4, got %d %v", n, ok)
	}
	if n, ok := ChapterNumber("Chapter 2: Method"); !ok || n != 2 {
		t.Errorf("expected 2, got %d %v", n, ok)
	}
	if _, ok := ChapterNumber(FallbackTitle); !ok {
		t.Error("expected fallback title to parse as chapter one")
	}
	if _, ok := ChapterNumber("Pendahuluan"); ok {
		t.Error("expected no number for plain title")
	}
}

func TestSplit_WrappedCrossReferenceStaysInBody(t *testing.T) {
	text := strings.Join([]string{
		"BAB I PENDAHULUAN",
		"Latar belakang penelitian tentang layanan akademik.",
		"BAB II TINJAUAN PUSTAKA",
		"Teori sistem informasi dan penelitian terdahulu.",
		"BAB III METODOLOGI",
		"Metode studi kasus dengan wawancara mendalam.",
		"BAB IV HASIL",
		"Hasil ini sejalan dengan teori yang dibahas pada",
		"Bab 2 Tinjauan Pustaka yang menjadi dasar analisis",
		"dan memperkuat temuan sebelumnya.",
	}, "\n")

	chapters := Split(text)
	got := titles(text)
	want := []string{"BAB I PENDAHULUAN", "BAB II TINJAUAN PUSTAKA", "BAB III METODOLOGI", "BAB IV HASIL"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if chapters[1].RawBody != "Teori sistem informasi dan penelitian terdahulu." {
		t.Errorf("expected chapter 2 body kept, got %q", chapters[1].RawBody)
	}
	if !strings.Contains(chapters[3].RawBody, "Bab 2 Tinjauan Pustaka yang menjadi dasar analisis\ndan memperkuat temuan sebelumnya.") {
		t.Errorf("expected cross-reference kept in chapter 4 body, got %q", chapters[3].RawBody)
	}
}

func TestSplit_LaterRepeatDoesNotReplaceFilledChapter(t *testing.T) {
	text := strings.Join([]string{
		"BAB I PENDAHULUAN",
		"Isi bab satu.",
		"BAB II METODE",
		"Isi bab dua.",
		"BAB II METODE",
		"Kutipan ulang judul di halaman lain.",
	}, "\n")

	chapters := Split(text)
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %v", titles(text))
	}
	if !strings.HasPrefix(chapters[1].RawBody, "Isi bab dua.") {
		t.Errorf("expected first chapter 2 body kept, got %q", chapters[1].RawBody)
	}
}
