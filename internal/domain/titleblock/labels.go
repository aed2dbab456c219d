package titleblock

import "regexp"

// Field names shared by the rule engine, the cascade and persistence.
const (
	FieldTitle            = "title"
	FieldDrawingNo        = "drawing_no"
	FieldPartName         = "part_name"
	FieldMaterial         = "material"
	FieldSurfaceTreatment = "surface_treatment"
	FieldProcessNote      = "process_note"
	FieldIssueDate        = "issue_date"
	FieldTags             = "tags"
)

// knownLabels is the title-block vocabulary: any of these lines is a label,
// never a value. Includes noise labels (用紙, 尺度, approver rows) so the
// engine can skip over them.
var knownLabels = map[string]struct{}{
	"名称": {}, "品名": {}, "材質": {}, "表面処理": {}, "図番": {},
	"熱処理": {}, "処理指示": {}, "用紙": {}, "尺度": {}, "作成者": {},
	"確認者": {}, "承認者": {}, "部品図": {}, "組立図": {},
}

// extractionLabels is the subset worth sending to the generative model; the
// preprocessor drops pairs outside this set to shrink the prompt.
var extractionLabels = map[string]struct{}{
	"名称": {}, "品名": {}, "材質": {}, "表面処理": {}, "図番": {},
	"熱処理": {}, "処理指示": {}, "出図日": {},
}

// labelToField maps a label line to the output field it fills.
var labelToField = map[string]string{
	"名称":   FieldPartName,
	"品名":   FieldPartName,
	"材質":   FieldMaterial,
	"表面処理": FieldSurfaceTreatment,
	"図番":   FieldDrawingNo,
	"熱処理":  FieldProcessNote,
	"処理指示": FieldProcessNote,
	"出図日":  FieldIssueDate,
	"部品図":  FieldTitle,
	"組立図":  FieldTitle,
}

// surfaceOrMaterialTerms are values typical of the surface-treatment and
// material columns. A name-like field whose adjacent line is one of these has
// almost certainly crossed into a neighboring column.
var surfaceOrMaterialTerms = map[string]struct{}{
	"酸洗い": {}, "電着塗装": {}, "黒染め": {}, "バフ研磨": {}, "無処理": {},
	"めっき": {}, "研磨": {}, "塗装": {}, "クロメート": {}, "アルマイト": {},
	"リン酸塩処理": {},
}

// nonDrawingNoTerms are datum symbols and paper sizes that OCR places near
// the 図番 label but are never drawing numbers.
var nonDrawingNoTerms = map[string]struct{}{
	"IC": {}, "IA": {}, "IB": {}, "A": {}, "B": {}, "A3": {}, "A4": {}, "1/1": {},
}

var (
	// drawingNoPattern: 2509-0012 style numbers. The prefix variant mirrors
	// an anchored match on a candidate value; the bare variant searches the
	// whole text.
	drawingNoPattern       = regexp.MustCompile(`\d{4}-\d{4}`)
	drawingNoPrefixPattern = regexp.MustCompile(`^\d{4}-\d{4}`)

	// pageMarkerPattern rejects page separators ("[ページ 3]") as values.
	pageMarkerPattern = regexp.MustCompile(`^\[ページ\s*\d+\]$`)

	issueDateISOPattern   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	issueDateSlashPattern = regexp.MustCompile(`\d{4}/\d{2}/\d{2}`)
)

func isLabel(line string) bool {
	_, ok := knownLabels[line]
	return ok
}
