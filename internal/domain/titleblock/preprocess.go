package titleblock

import "strings"

// FirstPageText restricts multi-page OCR output to the first page. Pages are
// joined with "[ページ N]" separators; a single-page text comes back as-is.
func FirstPageText(ocrText string) string {
	if ocrText == "" {
		return ocrText
	}
	for _, sep := range []string{"[ページ 2]", "[ページ 3]", "[ページ 4]", "[ページ 5]"} {
		if idx := strings.Index(ocrText, sep); idx >= 0 {
			return strings.TrimSpace(ocrText[:idx])
		}
	}
	return ocrText
}

// PreprocessForModel rewrites raw OCR text into compact "label: 値" lines for
// the generative fallback. Each known label is paired with the nearest
// following non-label line, skipping runs of consecutive labels, and only
// extraction-relevant labels are kept (approver rows and the like are
// dropped). When nothing pairs up, the original text is returned unmodified.
func PreprocessForModel(ocrText string) string {
	if strings.TrimSpace(ocrText) == "" {
		return ocrText
	}

	lines := splitLines(ocrText)
	if len(lines) == 0 {
		return ocrText
	}

	type pair struct {
		label string
		value string
	}
	var pairs []pair
	for i, line := range lines {
		if !isLabel(line) {
			continue
		}
		// Advancing one line at a time lets back-to-back labels
		// (用紙→表面処理→黒染め) each claim the same following value line.
		for j := i + 1; j < len(lines); j++ {
			if !isLabel(lines[j]) {
				pairs = append(pairs, pair{label: line, value: lines[j]})
				break
			}
		}
	}
	if len(pairs) == 0 {
		return ocrText
	}

	var b strings.Builder
	kept := 0
	for _, p := range pairs {
		if _, ok := extractionLabels[p.label]; !ok {
			continue
		}
		if kept > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.label)
		b.WriteString(": ")
		b.WriteString(p.value)
		kept++
	}
	if kept == 0 {
		return ocrText
	}
	return b.String()
}
