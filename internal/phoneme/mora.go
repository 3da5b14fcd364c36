package phoneme

// Mora is the consonant/vowel phoneme pair a single kana syllable maps to.
// Consonant is empty for bare-vowel moras ("ア" → "a").
type Mora struct {
	Consonant string
	Vowel     string
}

// moraKanaTable maps katakana moras to phoneme pairs. Lookup keys are
// katakana; use FoldKana to normalize hiragana input first.
var moraKanaTable = map[string]Mora{
	"ア": {"", "a"}, "イ": {"", "i"}, "ウ": {"", "u"}, "エ": {"", "e"}, "オ": {"", "o"},
	"カ": {"k", "a"}, "キ": {"k", "i"}, "ク": {"k", "u"}, "ケ": {"k", "e"}, "コ": {"k", "o"},
	"ガ": {"g", "a"}, "ギ": {"g", "i"}, "グ": {"g", "u"}, "ゲ": {"g", "e"}, "ゴ": {"g", "o"},
	"サ": {"s", "a"}, "シ": {"sh", "i"}, "ス": {"s", "u"}, "セ": {"s", "e"}, "ソ": {"s", "o"},
	"ザ": {"z", "a"}, "ジ": {"j", "i"}, "ズ": {"z", "u"}, "ゼ": {"z", "e"}, "ゾ": {"z", "o"},
	"タ": {"t", "a"}, "チ": {"ch", "i"}, "ツ": {"ts", "u"}, "テ": {"t", "e"}, "ト": {"t", "o"},
	"ダ": {"d", "a"}, "ヂ": {"j", "i"}, "ヅ": {"z", "u"}, "デ": {"d", "e"}, "ド": {"d", "o"},
	"ナ": {"n", "a"}, "ニ": {"n", "i"}, "ヌ": {"n", "u"}, "ネ": {"n", "e"}, "ノ": {"n", "o"},
	"ハ": {"h", "a"}, "ヒ": {"h", "i"}, "フ": {"f", "u"}, "ヘ": {"h", "e"}, "ホ": {"h", "o"},
	"バ": {"b", "a"}, "ビ": {"b", "i"}, "ブ": {"b", "u"}, "ベ": {"b", "e"}, "ボ": {"b", "o"},
	"パ": {"p", "a"}, "ピ": {"p", "i"}, "プ": {"p", "u"}, "ペ": {"p", "e"}, "ポ": {"p", "o"},
	"マ": {"m", "a"}, "ミ": {"m", "i"}, "ム": {"m", "u"}, "メ": {"m", "e"}, "モ": {"m", "o"},
	"ヤ": {"y", "a"}, "ユ": {"y", "u"}, "ヨ": {"y", "o"},
	"ラ": {"r", "a"}, "リ": {"r", "i"}, "ル": {"r", "u"}, "レ": {"r", "e"}, "ロ": {"r", "o"},
	"ワ": {"w", "a"}, "ヲ": {"", "o"}, "ン": {"", "N"},
	"ッ": {"", "cl"},

	"キャ": {"ky", "a"}, "キュ": {"ky", "u"}, "キェ": {"ky", "e"}, "キョ": {"ky", "o"},
	"ギャ": {"gy", "a"}, "ギュ": {"gy", "u"}, "ギェ": {"gy", "e"}, "ギョ": {"gy", "o"},
	"シャ": {"sh", "a"}, "シュ": {"sh", "u"}, "シェ": {"sh", "e"}, "ショ": {"sh", "o"},
	"ジャ": {"j", "a"}, "ジュ": {"j", "u"}, "ジェ": {"j", "e"}, "ジョ": {"j", "o"},
	"チャ": {"ch", "a"}, "チュ": {"ch", "u"}, "チェ": {"ch", "e"}, "チョ": {"ch", "o"},
	"ニャ": {"ny", "a"}, "ニュ": {"ny", "u"}, "ニェ": {"ny", "e"}, "ニョ": {"ny", "o"},
	"ヒャ": {"hy", "a"}, "ヒュ": {"hy", "u"}, "ヒェ": {"hy", "e"}, "ヒョ": {"hy", "o"},
	"ビャ": {"by", "a"}, "ビュ": {"by", "u"}, "ビェ": {"by", "e"}, "ビョ": {"by", "o"},
	"ピャ": {"py", "a"}, "ピュ": {"py", "u"}, "ピェ": {"py", "e"}, "ピョ": {"py", "o"},
	"ミャ": {"my", "a"}, "ミュ": {"my", "u"}, "ミェ": {"my", "e"}, "ミョ": {"my", "o"},
	"リャ": {"ry", "a"}, "リュ": {"ry", "u"}, "リェ": {"ry", "e"}, "リョ": {"ry", "o"},

	"ファ": {"f", "a"}, "フィ": {"f", "i"}, "フェ": {"f", "e"}, "フォ": {"f", "o"},
	"ツァ": {"ts", "a"}, "ツィ": {"ts", "i"}, "ツェ": {"ts", "e"}, "ツォ": {"ts", "o"},
	"ティ": {"t", "i"}, "トゥ": {"t", "u"}, "テュ": {"ty", "u"},
	"ディ": {"d", "i"}, "ドゥ": {"d", "u"}, "デュ": {"dy", "u"},
	"ウィ": {"w", "i"}, "ウェ": {"w", "e"}, "ウォ": {"w", "o"},
	"ヴァ": {"v", "a"}, "ヴィ": {"v", "i"}, "ヴ": {"v", "u"}, "ヴェ": {"v", "e"}, "ヴォ": {"v", "o"},
	"スィ": {"s", "i"}, "ズィ": {"z", "i"},
	"イェ": {"y", "e"},
	"クヮ": {"kw", "a"}, "グヮ": {"gw", "a"},
}

// FoldKana converts hiragana runes (U+3041..U+3096) to their katakana
// counterparts and leaves everything else untouched.
func FoldKana(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 0x3041 && r <= 0x3096 {
			r += 0x60
		}
		out = append(out, r)
	}
	return string(out)
}

// LookupMora resolves a kana syllable (hiragana or katakana) to its phoneme
// pair. The second return value is false when the syllable is not in the
// mapping.
func LookupMora(kana string) (Mora, bool) {
	m, ok := moraKanaTable[FoldKana(kana)]
	return m, ok
}
