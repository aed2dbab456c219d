package titleblock

import (
	"strings"
	"testing"
)

func TestPreprocessForModelPairsLabels(t *testing.T) {
	lines := []string{"名称", "ベースプレート", "材質", "熱処理", "SS400"}
	got := PreprocessForModel(strings.Join(lines, "\n"))

	want := "名称: ベースプレート\n材質: SS400\n熱処理: SS400"
	if got != want {
		t.Fatalf("PreprocessForModel() = %q, want %q", got, want)
	}
}

func TestPreprocessForModelDropsNoiseLabels(t *testing.T) {
	lines := []string{"作成者", "IC", "材質", "SCM440"}
	got := PreprocessForModel(strings.Join(lines, "\n"))

	if strings.Contains(got, "作成者") {
		t.Fatalf("PreprocessForModel() kept noise label: %q", got)
	}
	if !strings.Contains(got, "材質: SCM440") {
		t.Fatalf("PreprocessForModel() = %q, want 材質: SCM440", got)
	}
}

func TestPreprocessForModelFallsBackToOriginal(t *testing.T) {
	// No labels at all: the original text goes to the model unmodified.
	text := "ラベルのないテキスト\n続き"
	if got := PreprocessForModel(text); got != text {
		t.Fatalf("PreprocessForModel() = %q, want original", got)
	}

	// Labels exist but only noise ones pair up: also fall back.
	noise := "作成者\nIC"
	if got := PreprocessForModel(noise); got != noise {
		t.Fatalf("PreprocessForModel() = %q, want original", got)
	}
}
