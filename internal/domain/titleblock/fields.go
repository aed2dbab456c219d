// Package titleblock extracts structured metadata from the labeled
// title-block region of an engineering drawing, working over noisy OCR text.
// Everything here is pure: no storage, no model calls.
package titleblock

// Fields is one extraction attempt's result. An empty string means the field
// was not found; results are accepted or rejected whole, never merged
// field-by-field across attempts.
type Fields struct {
	Title            string   `json:"title"`
	DrawingNo        string   `json:"drawing_no"`
	PartName         string   `json:"part_name"`
	Material         string   `json:"material"`
	SurfaceTreatment string   `json:"surface_treatment"`
	ProcessNote      string   `json:"process_note"`
	IssueDate        string   `json:"issue_date"`
	Tags             []string `json:"tags"`
}

// HasAny reports whether the attempt found anything at all. This gates the
// fallback cascade: a non-empty rule result means the generative model is
// never invoked.
func (f Fields) HasAny() bool {
	return f.Title != "" ||
		f.DrawingNo != "" ||
		f.PartName != "" ||
		f.Material != "" ||
		f.SurfaceTreatment != "" ||
		f.ProcessNote != "" ||
		f.IssueDate != "" ||
		len(f.Tags) > 0
}

// ToDocument renders the record the way it is persisted under the drawing's
// "ai" key: every scalar key present, null when absent.
func (f Fields) ToDocument() map[string]any {
	doc := map[string]any{
		"title":             nullable(f.Title),
		"drawing_no":        nullable(f.DrawingNo),
		"part_name":         nullable(f.PartName),
		"material":          nullable(f.Material),
		"surface_treatment": nullable(f.SurfaceTreatment),
		"process_note":      nullable(f.ProcessNote),
		"issue_date":        nullable(f.IssueDate),
	}
	tags := f.Tags
	if tags == nil {
		tags = []string{}
	}
	doc["tags"] = tags
	return doc
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
