package content

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"category year and quality tokens", "فيلم الأكشن (2023) مترجم HD", "الأكشن"},
		{"bracketed annotation", "مسلسل الحياة [الموسم الاول]", "الحياة"},
		{"latin title with punctuation", "The Batman!! (2022) WEB-DL", "The Batman"},
		{"collapses whitespace", "  مشاهدة   فيلم    البحر   اون لاين  ", "البحر"},
		{"latin token inside a word survives", "Shahd Hunters HD", "Shahd Hunters"},
		{"full form before short form", "حلقة كاملة", "حلقة"},
		{"all noise", "فيلم مترجم HD", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeTitle(tt.input)
			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

func TestNormalizeTitle_Idempotent(t *testing.T) {
	once := NormalizeTitle("فيلم الأكشن (2023) مترجم HD")
	twice := NormalizeTitle(once)
	if once != twice {
		t.Errorf("Expected normalization to be idempotent, got '%s' then '%s'", once, twice)
	}
}

func TestTitleOrPlaceholder(t *testing.T) {
	if result := TitleOrPlaceholder("فيلم مترجم"); result != UntitledPlaceholder {
		t.Errorf("Expected placeholder, got '%s'", result)
	}
	if result := TitleOrPlaceholder("فيلم البحر"); result != "البحر" {
		t.Errorf("Expected 'البحر', got '%s'", result)
	}
}
