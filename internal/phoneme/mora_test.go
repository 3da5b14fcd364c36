package phoneme

import "testing"

func TestFoldKana(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"hiragana to katakana", "かきくけこ", "カキクケコ"},
		{"katakana unchanged", "カナ", "カナ"},
		{"small kana folded", "きゃ", "キャ"},
		{"non-kana untouched", "abc123", "abc123"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FoldKana(tt.input); got != tt.want {
				t.Errorf("FoldKana(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLookupMora(t *testing.T) {
	tests := []struct {
		name      string
		kana      string
		consonant string
		vowel     string
	}{
		{"plain consonant+vowel", "か", "k", "a"},
		{"bare vowel", "あ", "", "a"},
		{"youon", "きょ", "ky", "o"},
		{"moraic nasal", "ん", "", "N"},
		{"sokuon", "っ", "", "cl"},
		{"katakana input", "シャ", "sh", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := LookupMora(tt.kana)
			if !ok {
				t.Fatalf("LookupMora(%q) not found", tt.kana)
			}
			if m.Consonant != tt.consonant || m.Vowel != tt.vowel {
				t.Errorf("LookupMora(%q) = (%q, %q), want (%q, %q)",
					tt.kana, m.Consonant, m.Vowel, tt.consonant, tt.vowel)
			}
		})
	}
}

func TestLookupMoraUnknown(t *testing.T) {
	if _, ok := LookupMora("xyz"); ok {
		t.Fatal("LookupMora(xyz) unexpectedly found")
	}
}

func TestMoraPhonemesAreInTable(t *testing.T) {
	tbl := NewTable()

	for kana, m := range moraKanaTable {
		if m.Consonant != "" {
			if _, err := tbl.Index(m.Consonant); err != nil {
				t.Errorf("mora %q consonant %q not in table: %v", kana, m.Consonant, err)
			}
		}
		if _, err := tbl.Index(m.Vowel); err != nil {
			t.Errorf("mora %q vowel %q not in table: %v", kana, m.Vowel, err)
		}
	}
}
