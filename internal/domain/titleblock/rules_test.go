package titleblock

import (
	"strings"
	"testing"
)

func TestExtractByRulesEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n  \n"} {
		out := ExtractByRules(text)
		if out.HasAny() {
			t.Fatalf("ExtractByRules(%q) = %+v, want empty", text, out)
		}
	}
}

func TestExtractByRulesAdjacentValue(t *testing.T) {
	text := strings.Join([]string{"材質", "SCM440"}, "\n")
	out := ExtractByRules(text)
	if out.Material != "SCM440" {
		t.Fatalf("Material = %q, want SCM440", out.Material)
	}
}

func TestExtractByRulesConsecutiveLabels(t *testing.T) {
	// Two labels back to back: 材質 skips over 熱処理 to reach its value.
	lines := []string{"名称", "ベースプレート", "材質", "熱処理", "SS400", "表面処理", "黒染め", "図番", "2509-0017", "品名", "ベースプレート"}
	out := ExtractByRules(strings.Join(lines, "\n"))

	if out.PartName != "ベースプレート" {
		t.Fatalf("PartName = %q, want ベースプレート", out.PartName)
	}
	if out.Material != "SS400" {
		t.Fatalf("Material = %q, want SS400", out.Material)
	}
	if out.SurfaceTreatment != "黒染め" {
		t.Fatalf("SurfaceTreatment = %q, want 黒染め", out.SurfaceTreatment)
	}
	if out.DrawingNo != "2509-0017" {
		t.Fatalf("DrawingNo = %q, want 2509-0017", out.DrawingNo)
	}
	if out.ProcessNote != "" {
		t.Fatalf("ProcessNote = %q, want empty", out.ProcessNote)
	}
}

func TestExtractByRulesNameFallsBackToPreviousLine(t *testing.T) {
	// Value printed above its label (ハウジングカバー → 名称).
	lines := []string{"ハウジングカバー", "名称", "材質"}
	out := ExtractByRules(strings.Join(lines, "\n"))
	if out.PartName != "ハウジングカバー" {
		t.Fatalf("PartName = %q, want ハウジングカバー", out.PartName)
	}
}

func TestExtractByRulesNameRejectsSurfaceTerm(t *testing.T) {
	// Next line is a surface-treatment term: the row order crossed columns,
	// so the previous line wins.
	lines := []string{"ロックプレート", "品名", "黒染め"}
	out := ExtractByRules(strings.Join(lines, "\n"))
	if out.PartName != "ロックプレート" {
		t.Fatalf("PartName = %q, want ロックプレート", out.PartName)
	}
}

func TestExtractByRulesNameNeverDrawingNumber(t *testing.T) {
	lines := []string{"名称", "2509-0099"}
	out := ExtractByRules(strings.Join(lines, "\n"))
	if out.PartName != "" {
		t.Fatalf("PartName = %q, want empty", out.PartName)
	}
	// The whole-text regex still claims it for drawing_no.
	if out.DrawingNo != "2509-0099" {
		t.Fatalf("DrawingNo = %q, want 2509-0099", out.DrawingNo)
	}
}

func TestExtractByRulesPageMarkerNeverAValue(t *testing.T) {
	lines := []string{"材質", "[ページ 1]", "図番", "[ページ 2]"}
	out := ExtractByRules(strings.Join(lines, "\n"))
	if out.Material != "" {
		t.Fatalf("Material = %q, want empty", out.Material)
	}
	if out.DrawingNo != "" {
		t.Fatalf("DrawingNo = %q, want empty", out.DrawingNo)
	}
}

func TestExtractByRulesDrawingNoRejectsDatumSymbols(t *testing.T) {
	for _, symbol := range []string{"IC", "IA", "A3", "1/1"} {
		out := ExtractByRules(strings.Join([]string{"図番", symbol}, "\n"))
		if out.DrawingNo != "" {
			t.Fatalf("DrawingNo = %q for symbol %q, want empty", out.DrawingNo, symbol)
		}
	}
}

func TestExtractByRulesRegexOverridesNonPatternValue(t *testing.T) {
	lines := []string{"図番", "メモ書き", "2509-0042"}
	out := ExtractByRules(strings.Join(lines, "\n"))
	if out.DrawingNo != "2509-0042" {
		t.Fatalf("DrawingNo = %q, want 2509-0042", out.DrawingNo)
	}
}

func TestExtractByRulesLeadingSeparatorStripped(t *testing.T) {
	lines := []string{"材質", "|SS400"}
	out := ExtractByRules(strings.Join(lines, "\n"))
	if out.Material != "SS400" {
		t.Fatalf("Material = %q, want SS400", out.Material)
	}
}

func TestExtractByRulesProcessNoteNotMaterialEcho(t *testing.T) {
	// 熱処理 adjacent to the material value must not duplicate it.
	lines := []string{"材質", "SS400", "熱処理", "SS400"}
	out := ExtractByRules(strings.Join(lines, "\n"))
	if out.Material != "SS400" {
		t.Fatalf("Material = %q, want SS400", out.Material)
	}
	if out.ProcessNote != "" {
		t.Fatalf("ProcessNote = %q, want empty", out.ProcessNote)
	}
}

func TestExtractByRulesNoLabelsNoPattern(t *testing.T) {
	out := ExtractByRules("ただのメモ\n別の行\n12-34")
	if out.HasAny() {
		t.Fatalf("ExtractByRules() = %+v, want empty", out)
	}
}

func TestFirstPageText(t *testing.T) {
	text := "[ページ 1]\n名称\nプレート\n\n[ページ 2]\n別ページ"
	got := FirstPageText(text)
	if strings.Contains(got, "別ページ") {
		t.Fatalf("FirstPageText() = %q, want first page only", got)
	}
	if !strings.Contains(got, "プレート") {
		t.Fatalf("FirstPageText() = %q, lost first-page content", got)
	}

	single := "名称\nプレート"
	if FirstPageText(single) != single {
		t.Fatalf("FirstPageText() changed single-page text")
	}
}
