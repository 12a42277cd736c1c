package textclean

import (
	"regexp"
	"strings"
)

// Stage selects the pipeline points a Rule applies to.
type Stage uint8

const (
	// StageNormalize runs on extracted text before segmentation.
	StageNormalize Stage = 1 << iota
	// StageSegment strips reference noise from a chapter body before compression.
	StageSegment
	// StageOutput cleans remote summaries.
	StageOutput
)

// Rule is one regexp substitution in the noise ruleset.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Replace string
	Stages  Stage
}

// Ruleset is the single ordered list of noise-removal rules shared by the
// normalizer, the pre-compression reference strip and the output cleanup.
// Rules run in list order; each stage uses the subset tagged for it.
type Ruleset struct {
	rules     []Rule
	stopWords map[string]bool
	banned    []string
	headings  []string
}

var (
	glyphRe       = regexp.MustCompile(`[■□▯█�\x{200B}\x{200C}\x{200D}\x{FEFF}]`)
	crlfRe        = regexp.MustCompile(`\r\n?`)
	dashRe        = regexp.MustCompile(`[–—]`)
	captionRe     = regexp.MustCompile(`(?mi)^[ \t]*(?:gambar|figure|fig\.|tabel|table|grafik)[ \t]+\d+(?:\.\d+)*\b[^\n]{0,150}$`)
	dotLeaderRe   = regexp.MustCompile(`(?:[ \t]?\.){5,}[ \t]*\d*`)
	pageNumLineRe = regexp.MustCompile(`(?m)^[ \t]*(?:-[ \t]*)?(?:\d{1,4}|[ivxlc]{1,7})(?:[ \t]*-)?[ \t]*$`)
	parenCiteRe   = regexp.MustCompile(`\([A-Z][^()\n]{0,80}?,?[ \t](?:19|20)\d{2}[a-z]?(?:[;,][^()\n]{0,80}?(?:19|20)\d{2}[a-z]?)*\)`)
	nameYearRe    = regexp.MustCompile(`\b[A-Z][\p{L}'\-]+(?:[ \t]+et[ \t]+al\.?|[ \t]+dkk\.?)?,[ \t](?:19|20)\d{2}[a-z]?\b`)
	yearParenRe   = regexp.MustCompile(`[ \t]?\((?:19|20)\d{2}[a-z]?\)`)
	bracketCiteRe = regexp.MustCompile(`[ \t]?\[\d+(?:[ \t]*[,\-–][ \t]*\d+)*\]`)
	urlRe         = regexp.MustCompile(`(?:https?://|www\.)[^\s)\]]+`)
	hyphenWrapRe  = regexp.MustCompile(`([\p{L}\p{N}])-[ \t]*\n[ \t]*([\p{L}\p{N}])`)
	hspaceRe      = regexp.MustCompile(`[ \t\x{00a0}]+`)
	spacePunctRe  = regexp.MustCompile(`[ \t]+([.,;:!?])`)
	newlineSpRe   = regexp.MustCompile(` *\n *`)
	manyNewlineRe = regexp.MustCompile(`\n{3,}`)
)

const (
	normSegOut = StageNormalize | StageSegment | StageOutput
	segOut     = StageSegment | StageOutput
)

// DefaultBannedPhrases are model preambles removed from summaries.
var DefaultBannedPhrases = []string{
	"berikut adalah ringkasan bab ini:",
	"berikut adalah ringkasan",
	"berikut ringkasannya:",
	"berikut ringkasan",
	"here is a summary of the chapter:",
	"here is the summary:",
	"here is a summary",
	"sebagai model bahasa",
	"as an ai language model",
}

// DefaultBoilerplateHeadings are heading lines dropped from summaries.
var DefaultBoilerplateHeadings = []string{
	"ringkasan",
	"rangkuman",
	"summary",
	"daftar isi",
	"table of contents",
	"kata pengantar",
	"abstrak",
	"abstract",
	"kesimpulan",
	"conclusion",
}

// DefaultStopWords holds Indonesian and English function words ignored by the
// extractive scorer. Tokens of two runes or fewer are dropped separately.
var DefaultStopWords = []string{
	"yang", "dan", "di", "ke", "dari", "untuk", "pada", "adalah", "dengan", "dalam",
	"ini", "itu", "serta", "juga", "tidak", "dapat", "atau", "oleh", "bagi", "agar",
	"sudah", "akan", "para", "sebagai", "tersebut", "karena", "maka", "sehingga",
	"terhadap", "olehnya", "bahwa", "secara", "antara", "lebih", "telah", "yaitu",
	"the", "and", "for", "that", "with", "this", "from", "are", "was", "were",
	"which", "have", "has", "been", "into", "their", "these", "those", "such",
	"also", "not", "can", "will", "its", "our", "they", "than", "then", "there",
	"where", "when", "while", "each", "other", "more", "most", "some",
}

// Extensions adds to the default ruleset; see LoadRules.
type Extensions struct {
	StopWords           []string `yaml:"stopwords"`
	BannedPhrases       []string `yaml:"banned_phrases"`
	BoilerplateHeadings []string `yaml:"boilerplate_headings"`
}

// NewRuleset builds the default ruleset plus any extensions.
func NewRuleset(ext Extensions) *Ruleset {
	rs := &Ruleset{stopWords: make(map[string]bool)}
	for _, w := range DefaultStopWords {
		rs.stopWords[w] = true
	}
	for _, w := range ext.StopWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			rs.stopWords[w] = true
		}
	}
	rs.banned = appendNonEmpty(append([]string(nil), DefaultBannedPhrases...), ext.BannedPhrases)
	rs.headings = appendNonEmpty(append([]string(nil), DefaultBoilerplateHeadings...), ext.BoilerplateHeadings)

	rs.rules = []Rule{
		{"glyphs", glyphRe, "", StageNormalize | StageOutput},
		{"crlf", crlfRe, "\n", normSegOut},
		{"dashes", dashRe, "-", StageNormalize | StageOutput},
		{"boilerplate_headings", headingLineRe(rs.headings), "", StageOutput},
		{"captions", captionRe, "", StageNormalize | StageSegment},
		{"dot_leaders", dotLeaderRe, "", segOut},
		{"page_numbers", pageNumLineRe, "", segOut},
		{"paren_citations", parenCiteRe, "", normSegOut},
		{"name_year_citations", nameYearRe, "", normSegOut},
		{"year_parens", yearParenRe, "", StageNormalize | StageSegment},
		{"bracket_citations", bracketCiteRe, "", segOut},
		{"urls", urlRe, "", normSegOut},
		{"banned_phrases", phraseRe(rs.banned), "", StageOutput},
		{"hyphen_wrap", hyphenWrapRe, "$1$2", StageNormalize},
		{"hspace", hspaceRe, " ", normSegOut},
		{"space_before_punct", spacePunctRe, "$1", normSegOut},
		{"newline_spaces", newlineSpRe, "\n", normSegOut},
		{"blank_runs", manyNewlineRe, "\n\n", normSegOut},
	}
	return rs
}

// Apply runs every rule tagged for stage, in order, and trims the result.
func (rs *Ruleset) Apply(stage Stage, text string) string {
	for _, r := range rs.rules {
		if r.Stages&stage == 0 || r.Pattern == nil {
			continue
		}
		text = r.Pattern.ReplaceAllString(text, r.Replace)
	}
	return strings.TrimSpace(text)
}

// Rules returns the rule names for a stage in application order.
func (rs *Ruleset) Rules(stage Stage) []string {
	var names []string
	for _, r := range rs.rules {
		if r.Stages&stage != 0 && r.Pattern != nil {
			names = append(names, r.Name)
		}
	}
	return names
}

// IsStopWord reports whether a lowercased token is a stop-word.
func (rs *Ruleset) IsStopWord(w string) bool {
	return rs.stopWords[w]
}

// headingLineRe matches whole lines that only carry a boilerplate heading or a
// chapter-heading echo such as "BAB II TINJAUAN PUSTAKA".
func headingLineRe(headings []string) *regexp.Regexp {
	alts := make([]string, 0, len(headings))
	for _, h := range headings {
		alts = append(alts, regexp.QuoteMeta(strings.ToLower(h)))
	}
	pattern := `(?mi)^[ \t]*(?:#+[ \t]*)?(?:\*\*)?(?:` + strings.Join(alts, "|") +
		`|(?:bab|chapter)[ \t]+(?:[ivxlc]+|\d+)\b[^\n.]{0,80})(?:\*\*)?[ \t]*:?[ \t]*$`
	return regexp.MustCompile(pattern)
}

func phraseRe(phrases []string) *regexp.Regexp {
	if len(phrases) == 0 {
		return nil
	}
	alts := make([]string, 0, len(phrases))
	for _, p := range phrases {
		alts = append(alts, regexp.QuoteMeta(p))
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
}

func appendNonEmpty(dst, src []string) []string {
	for _, s := range src {
		if s = strings.TrimSpace(s); s != "" {
			dst = append(dst, s)
		}
	}
	return dst
}
