package genai

import (
	"strings"
	"testing"
)

func TestDecodeFieldsPlainJSON(t *testing.T) {
	fields := DecodeFields(`{"drawing_no": "2509-0017", "material": "SS400"}`)
	if fields["drawing_no"] != "2509-0017" {
		t.Fatalf("drawing_no = %v", fields["drawing_no"])
	}
	if fields["material"] != "SS400" {
		t.Fatalf("material = %v", fields["material"])
	}
}

func TestDecodeFieldsFencedJSON(t *testing.T) {
	response := "説明文\n```json\n{\"part_name\": \"ベースプレート\"}\n```\n以上です。"
	fields := DecodeFields(response)
	if fields["part_name"] != "ベースプレート" {
		t.Fatalf("part_name = %v", fields["part_name"])
	}
}

func TestDecodeFieldsBareFence(t *testing.T) {
	response := "```\n{\"surface_treatment\": \"黒染め\"}\n```"
	fields := DecodeFields(response)
	if fields["surface_treatment"] != "黒染め" {
		t.Fatalf("surface_treatment = %v", fields["surface_treatment"])
	}
}

func TestDecodeFieldsGarbageYieldsEmptyMap(t *testing.T) {
	for _, response := range []string{"", "   ", "not json at all", "```json\nbroken\n```", "null"} {
		fields := DecodeFields(response)
		if fields == nil {
			t.Fatalf("DecodeFields(%q) returned nil map", response)
		}
		if len(fields) != 0 {
			t.Fatalf("DecodeFields(%q) = %v, want empty", response, fields)
		}
	}
}

func TestTextPromptTruncatesInput(t *testing.T) {
	long := strings.Repeat("図", promptInputLimit+100)
	prompt := TextPrompt(long)
	if strings.Count(prompt, "図") > promptInputLimit+10 {
		t.Fatal("prompt input was not truncated")
	}
	if !strings.Contains(prompt, "=== 入力テキスト ===") {
		t.Fatal("prompt missing input delimiter")
	}
}

func TestMultimodalPromptEmbedsOCRText(t *testing.T) {
	prompt := MultimodalPrompt("名称\nベースプレート")
	if !strings.Contains(prompt, "ベースプレート") {
		t.Fatal("prompt missing OCR text")
	}
	if !strings.Contains(prompt, "=== OCRテキスト ===") {
		t.Fatal("prompt missing OCR delimiter")
	}
}
