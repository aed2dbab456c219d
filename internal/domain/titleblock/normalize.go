package titleblock

import "time"

// aliasToField maps the localized keys a generative model may answer with to
// the canonical field names.
var aliasToField = map[string]string{
	"品名":    FieldPartName,
	"材質":    FieldMaterial,
	"図番":    FieldDrawingNo,
	"表面処理":  FieldSurfaceTreatment,
	"処理指示":  FieldProcessNote,
	"熱処理":   FieldProcessNote,
	"出図日":   FieldIssueDate,
	"タイトル":  FieldTitle,
	"タグ":    FieldTags,
}

// HasAnyValue reports whether a raw model result contains anything usable.
// Every key counts, aliased or not; tags count only as a non-empty list.
func HasAnyValue(result map[string]any) bool {
	for key, v := range result {
		if key == FieldTags || aliasToField[key] == FieldTags {
			if list, ok := v.([]any); ok && len(list) > 0 {
				return true
			}
			continue
		}
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			if s != "" {
				return true
			}
			continue
		}
		return true
	}
	return false
}

// NormalizeResult resolves a raw model result into Fields. The canonical
// key's value wins when present and non-empty; otherwise any alias mapping to
// the same field is consulted. Tags are accepted only as a list of strings.
func NormalizeResult(result map[string]any) Fields {
	var out Fields
	out.Title = resolveScalar(result, FieldTitle)
	out.DrawingNo = resolveScalar(result, FieldDrawingNo)
	out.PartName = resolveScalar(result, FieldPartName)
	out.Material = resolveScalar(result, FieldMaterial)
	out.SurfaceTreatment = resolveScalar(result, FieldSurfaceTreatment)
	out.ProcessNote = resolveScalar(result, FieldProcessNote)
	out.IssueDate = resolveScalar(result, FieldIssueDate)
	out.Tags = resolveTags(result)
	return out
}

func resolveScalar(result map[string]any, field string) string {
	if s, ok := result[field].(string); ok && s != "" {
		return s
	}
	for alias, mapped := range aliasToField {
		if mapped != field {
			continue
		}
		if s, ok := result[alias].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func resolveTags(result map[string]any) []string {
	for _, key := range []string{FieldTags, "タグ"} {
		list, ok := result[key].([]any)
		if !ok || len(list) == 0 {
			continue
		}
		tags := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
		if len(tags) > 0 {
			return tags
		}
	}
	return nil
}

// ValidDate reports whether a value is an exact YYYY-MM-DD date. Anything
// else is nulled by the caller rather than failing the extraction.
func ValidDate(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}
