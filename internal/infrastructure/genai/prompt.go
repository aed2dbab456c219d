package genai

import "fmt"

// promptInputLimit caps the OCR text embedded into a prompt. Counted in
// runes so Japanese text is not cut mid-character.
const promptInputLimit = 8000

const textPromptHeader = `あなたは図面から情報を抽出する専門家です。
OCRで抽出されたテキストから、以下の項目を抽出してください。

【最重要ルール - 絶対に守ること】
- OCRテキストに**一字一句、実際に書かれている文字だけ**を根拠に抽出すること。
- 図面に書かれていない項目は**推測・類推・創作を一切せず**、必ず null または空文字列にすること。
- 「たぶんこれだろう」「一般的にはこう」などの推測で埋めない。不明な項目は必ず null にする。
- OCRテキストに書かれている情報は漏れなく抽出すること。

【OCRテキストの構造】
入力が「ラベル: 値」形式（例: 名称: ロックプレート、材質: SCM440）の場合は、**その値をそのまま**各フィールドに出力すること。
改行区切りの生OCRの場合は、ラベル行の**次行または数行先**に値がある。同じ段落・ブロック内を探すこと。
- 例：名称→ベースプレート、材質→SS400、表面処理→黒染め、図番→2509-0017
- 「材質」の直後に「熱処理」とある場合：「熱処理」は別のラベルなので材質の値ではない。その次の行の「SS400」が材質の値。
- ラベル（名称・材質・表面処理・図番・品名・熱処理など）を**値として出力してはいけない**。値は材料名・品名・処理名・図番などの実データのみ。

抽出項目とマッピング:
- title: 図面のタイトル（OCRに「部品図」「組立図」と明記されている場合のみ）
- drawing_no: 図番（「図番」ラベルの下・近くにある値。例: "2509-0017"）
- part_name: 品名（「名称」または「品名」ラベルの下・近くにある値）
- material: 材質（「材質」ラベルの下・近くにある値。SS400, SCM440 等。「熱処理」は材質の値ではない）
- surface_treatment: 表面処理（「表面処理」ラベルの下・近くにある値。黒染め、酸洗い、めっき等）
- process_note: 処理指示（「熱処理」「加工指示」ラベルの下・近くにある値）
- issue_date: 出図日（日付が記載されている場合のみ。YYYY-MM-DD形式。無ければnull）
- tags: タグ配列（図面種類・用途が明らかな場合のみ。無ければ空配列[]）

出力は必ずJSON形式。書かれていない項目は必ず null または空配列[]にすること。

【正解例1】改行区切りの場合:
入力:
名称
ベースプレート
材質
熱処理
SS400
表面処理
黒染め
図番
2509-0017
品名
ベースプレート
正しい出力:
{"title": null, "drawing_no": "2509-0017", "part_name": "ベースプレート", "material": "SS400", "surface_treatment": "黒染め", "process_note": null, "issue_date": null, "tags": []}

【正解例2】同一行の場合:
入力: 名称 ロックプレート 材質 SCM440 表面処理 酸洗い 図番 2509-0016
正しい出力:
{"title": null, "drawing_no": "2509-0016", "part_name": "ロックプレート", "material": "SCM440", "surface_treatment": "酸洗い", "process_note": null, "issue_date": null, "tags": []}

【禁止 - 絶対にやってはいけないこと】
- OCRに「ベースプレート」と書かれているのに part_name に「シャフト」を入れるのは**間違い**
- OCRに「SS400」と書かれているのに material に「S45C」を入れるのは**間違い**
- OCRに「黒染め」と書かれているのに surface_treatment に「無処理」を入れるのは**間違い**
- OCRに書かれていない値を推測で埋めない

【複数ページの場合】
入力に [ページ 1], [ページ 2] 等が含まれる場合は、**先頭ページのブロックのみ**を参照すること。

以下のテキストから、ラベルと値の対応を正確に抽出してください。書かれている文字だけを使い、推測は一切しないこと。
入力がすでに「ラベル: 値」の形式（例: 名称: ロックプレート）になっている場合は、その値をそのまま出力すること。
`

const multimodalPromptHeader = `あなたは図面から情報を抽出する専門家です。
図面画像とOCRテキストの**両方**を参照し、タイトルブロック・表のレイアウトを考慮して、以下の項目を抽出してください。
OCRテキストに明記されている値を優先し、画像でレイアウトの曖昧さ（例：品名と表面処理の列の取り違え）を解消してください。

【最重要ルール】
- OCRテキストに実際に書かれている文字だけを根拠に抽出すること。
- 推測・創作は一切しない。不明な項目は必ず null にする。

抽出項目:
- title: 図面のタイトル（部品図・組立図等）
- drawing_no: 図番（2509-0017 形式など）
- part_name: 品名（名称・品名ラベルの値）
- material: 材質（材質ラベルの値）
- surface_treatment: 表面処理（表面処理ラベルの値）
- process_note: 処理指示・熱処理
- issue_date: 出図日（YYYY-MM-DD形式、無ければnull）
- tags: タグ配列（無ければ[]）

出力は必ずJSON形式。書かれていない項目は null または空配列[]にすること。
`

// TextPrompt builds the text-only extraction prompt with the OCR text
// inlined and truncated.
func TextPrompt(ocrText string) string {
	return fmt.Sprintf("%s\n=== 入力テキスト ===\n%s\n=== 入力終了 ===", textPromptHeader, truncateRunes(ocrText, promptInputLimit))
}

// MultimodalPrompt builds the image-plus-text extraction prompt. The page
// image travels as a separate part next to this text.
func MultimodalPrompt(ocrText string) string {
	return fmt.Sprintf("%s\n=== OCRテキスト ===\n%s\n=== OCR終了 ===\n\n上記OCRと画像を照らし合わせ、ラベルと値の対応を正確に抽出してください。", multimodalPromptHeader, truncateRunes(ocrText, promptInputLimit))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
