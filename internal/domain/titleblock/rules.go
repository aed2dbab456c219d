package titleblock

import "strings"

// ExtractByRules extracts title-block fields from raw OCR text by pairing
// known label lines with adjacent value lines. It never fails; text with no
// recognizable labels yields an empty record.
//
// The disambiguation rules are ordered and short-circuiting; their precedence
// is part of the contract:
//
//   - name-like fields prefer the next line, unless that line looks like a
//     surface-treatment/material term (the OCR line order crossed into a
//     neighboring column), in which case the previous line wins;
//   - the other fields prefer the next line, then the first non-label line
//     after a run of consecutive labels (材質→熱処理→SS400 pairs 材質 with
//     SS400), then the previous line.
func ExtractByRules(ocrText string) Fields {
	var out Fields
	if strings.TrimSpace(ocrText) == "" {
		return out
	}

	lines := splitLines(ocrText)
	if len(lines) == 0 {
		return out
	}

	for i, line := range lines {
		if !isLabel(line) {
			continue
		}
		field, ok := labelToField[line]
		if !ok {
			continue
		}

		var valueNext string
		if i+1 < len(lines) && !isLabel(lines[i+1]) {
			valueNext = lines[i+1]
		}

		var valuePrev string
		if i-1 >= 0 && !isLabel(lines[i-1]) {
			valuePrev = lines[i-1]
		}

		var valueFirstNonLabel string
		for j := i + 1; j < len(lines); j++ {
			if !isLabel(lines[j]) {
				valueFirstNonLabel = lines[j]
				break
			}
		}

		var value string
		if field == FieldPartName || field == FieldTitle {
			if _, crossed := surfaceOrMaterialTerms[valueNext]; valueNext != "" && crossed {
				value = firstNonEmpty(valuePrev, valueNext)
			} else {
				value = firstNonEmpty(valueNext, valuePrev)
			}
		} else {
			value = firstNonEmpty(valueNext, valueFirstNonLabel, valuePrev)
		}

		if value != "" {
			value = strings.TrimSpace(strings.TrimLeft(value, "|"))
			if pageMarkerPattern.MatchString(value) {
				value = ""
			}
		}

		if value != "" && (field == FieldPartName || field == FieldTitle) {
			if _, term := surfaceOrMaterialTerms[value]; term || drawingNoPrefixPattern.MatchString(value) {
				value = ""
			}
		}

		if value != "" && field == FieldDrawingNo {
			if _, excluded := nonDrawingNoTerms[value]; excluded {
				value = ""
			}
		}

		// 熱処理 often sits directly above the material value; a process note
		// identical to the resolved material is that misread, not data.
		if value != "" && field == FieldProcessNote && value == out.Material {
			value = ""
		}

		if value == "" {
			continue
		}
		switch field {
		case FieldIssueDate:
			if issueDateISOPattern.MatchString(value) || issueDateSlashPattern.MatchString(value) {
				out.IssueDate = value
			}
		case FieldTitle:
			out.Title = value
		case FieldDrawingNo:
			out.DrawingNo = value
		case FieldPartName:
			out.PartName = value
		case FieldMaterial:
			out.Material = value
		case FieldSurfaceTreatment:
			out.SurfaceTreatment = value
		case FieldProcessNote:
			out.ProcessNote = value
		}
	}

	// Whole-text regex detection is higher confidence than label adjacency
	// for drawing numbers; it overrides anything not already in that shape.
	if m := drawingNoPattern.FindString(ocrText); m != "" {
		if out.DrawingNo == "" || !drawingNoPrefixPattern.MatchString(out.DrawingNo) {
			out.DrawingNo = m
		}
	}

	return out
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
