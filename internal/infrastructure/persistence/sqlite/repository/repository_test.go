package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/imai1205/zumen-connect-backend/internal/infrastructure/persistence/sqlite/model"
	"github.com/imai1205/zumen-connect-backend/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&model.ProcessingJob{},
		&model.Drawing{},
		&model.DrawingFile{},
		&model.OcrToken{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func seedDrawing(t *testing.T, db *gorm.DB, drawingID string) {
	t.Helper()
	row := model.Drawing{
		DrawingID: drawingID,
		CompanyID: "c1",
		Status:    ports.DrawingStatusQueued,
		CreatedAt: nowRFC3339(),
		UpdatedAt: nowRFC3339(),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed drawing: %v", err)
	}
}

func TestJobRepositoryQueueOrdering(t *testing.T) {
	db := setupDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()

	first, err := repo.CreateQueued(ctx, "d1")
	if err != nil {
		t.Fatalf("CreateQueued: %v", err)
	}
	if first.Status != ports.JobStatusQueued {
		t.Fatalf("status = %q", first.Status)
	}
	second, err := repo.CreateQueued(ctx, "d2")
	if err != nil {
		t.Fatalf("CreateQueued: %v", err)
	}

	job, found, err := repo.FetchOldestQueued(ctx)
	if err != nil {
		t.Fatalf("FetchOldestQueued: %v", err)
	}
	if !found || job.JobID != first.JobID {
		t.Fatalf("got job %v found=%v, want oldest %s", job.JobID, found, first.JobID)
	}

	// Claiming the first job makes the second the oldest queued.
	step := "convert"
	started := nowRFC3339()
	err = repo.Update(ctx, first.JobID, ports.JobUpdate{
		Status:    ports.JobStatusRunning,
		Step:      &step,
		StartedAt: &started,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	job, found, err = repo.FetchOldestQueued(ctx)
	if err != nil {
		t.Fatalf("FetchOldestQueued: %v", err)
	}
	if !found || job.JobID != second.JobID {
		t.Fatalf("got job %v, want %s", job.JobID, second.JobID)
	}

	var row model.ProcessingJob
	if err := db.Where("job_id = ?", first.JobID).First(&row).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if row.Status != ports.JobStatusRunning || row.Step != "convert" || row.StartedAt == nil {
		t.Fatalf("claimed row = %+v", row)
	}
}

func TestJobRepositoryFetchEmptyQueue(t *testing.T) {
	repo := NewJobRepository(setupDB(t))

	_, found, err := repo.FetchOldestQueued(context.Background())
	if err != nil {
		t.Fatalf("FetchOldestQueued: %v", err)
	}
	if found {
		t.Fatal("expected empty queue")
	}
}

func TestJobRepositoryUpdateMissingJob(t *testing.T) {
	repo := NewJobRepository(setupDB(t))

	err := repo.Update(context.Background(), "missing", ports.JobUpdate{Status: ports.JobStatusError})
	if !errors.Is(err, ports.ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
}

func TestDrawingRepositoryGetAndStatus(t *testing.T) {
	db := setupDB(t)
	repo := NewDrawingRepository(db)
	ctx := context.Background()
	seedDrawing(t, db, "d1")

	drawing, err := repo.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if drawing.CompanyID != "c1" {
		t.Fatalf("company = %q", drawing.CompanyID)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ports.ErrDrawingNotFound) {
		t.Fatalf("err = %v, want ErrDrawingNotFound", err)
	}

	if err := repo.SetStatus(ctx, "d1", ports.DrawingStatusProcessing); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	drawing, err = repo.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if drawing.Status != ports.DrawingStatusProcessing {
		t.Fatalf("status = %q", drawing.Status)
	}
}

func TestDrawingRepositoryMergePreservesSiblings(t *testing.T) {
	db := setupDB(t)
	repo := NewDrawingRepository(db)
	ctx := context.Background()
	seedDrawing(t, db, "d1")

	ocrDoc := map[string]any{"ocr_text": "[ページ 1]\n材質\nSS400"}
	if err := repo.MergeExtractedJSON(ctx, "d1", "ocr", ocrDoc); err != nil {
		t.Fatalf("MergeExtractedJSON(ocr): %v", err)
	}

	aiDoc := map[string]any{"material": "SS400"}
	if err := repo.MergeExtractedJSON(ctx, "d1", "ai", aiDoc); err != nil {
		t.Fatalf("MergeExtractedJSON(ai): %v", err)
	}

	doc, err := repo.ExtractedJSON(ctx, "d1")
	if err != nil {
		t.Fatalf("ExtractedJSON: %v", err)
	}
	ocr, ok := doc["ocr"].(map[string]any)
	if !ok || ocr["ocr_text"] != "[ページ 1]\n材質\nSS400" {
		t.Fatalf("ocr key lost: %v", doc)
	}
	ai, ok := doc["ai"].(map[string]any)
	if !ok || ai["material"] != "SS400" {
		t.Fatalf("ai key = %v", doc["ai"])
	}
}

func TestDrawingRepositoryMalformedDocumentTolerated(t *testing.T) {
	db := setupDB(t)
	repo := NewDrawingRepository(db)
	ctx := context.Background()
	seedDrawing(t, db, "d1")

	err := db.Model(&model.Drawing{}).
		Where("drawing_id = ?", "d1").
		Update("extracted_json", datatypes.JSON([]byte("not json"))).Error
	if err != nil {
		t.Fatalf("corrupt document: %v", err)
	}

	doc, err := repo.ExtractedJSON(ctx, "d1")
	if err != nil {
		t.Fatalf("ExtractedJSON: %v", err)
	}
	if len(doc) != 0 {
		t.Fatalf("doc = %v, want empty", doc)
	}

	// Merging on top of a malformed document starts from scratch.
	if err := repo.MergeExtractedJSON(ctx, "d1", "ocr", map[string]any{"ocr_text": "x"}); err != nil {
		t.Fatalf("MergeExtractedJSON: %v", err)
	}
	doc, err = repo.ExtractedJSON(ctx, "d1")
	if err != nil {
		t.Fatalf("ExtractedJSON: %v", err)
	}
	if _, ok := doc["ocr"]; !ok {
		t.Fatalf("doc = %v", doc)
	}
}

func TestDrawingRepositoryUpdateColumns(t *testing.T) {
	db := setupDB(t)
	repo := NewDrawingRepository(db)
	ctx := context.Background()
	seedDrawing(t, db, "d1")

	material := "SS400"
	partName := "ベースプレート"
	if err := repo.UpdateColumns(ctx, "d1", ports.DrawingColumns{
		Material: &material,
		PartName: &partName,
		Tags:     []string{"部品"},
	}); err != nil {
		t.Fatalf("UpdateColumns: %v", err)
	}

	var row model.Drawing
	if err := db.Where("drawing_id = ?", "d1").First(&row).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if row.Material == nil || *row.Material != "SS400" {
		t.Fatalf("material = %v", row.Material)
	}
	if row.Title != nil {
		t.Fatal("title must stay null")
	}
	var tags []string
	if err := json.Unmarshal(row.Tags, &tags); err != nil || len(tags) != 1 || tags[0] != "部品" {
		t.Fatalf("tags = %s err=%v", row.Tags, err)
	}

	// An empty extracted value never clears an existing column.
	empty := ""
	if err := repo.UpdateColumns(ctx, "d1", ports.DrawingColumns{Material: &empty}); err != nil {
		t.Fatalf("UpdateColumns(empty): %v", err)
	}
	if err := db.Where("drawing_id = ?", "d1").First(&row).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if row.Material == nil || *row.Material != "SS400" {
		t.Fatalf("material after empty update = %v", row.Material)
	}
}

func TestFileRepositoryFindOriginalPDF(t *testing.T) {
	db := setupDB(t)
	repo := NewFileRepository(db)
	ctx := context.Background()

	// An "original" that is not a PDF must not match.
	if _, err := repo.Insert(ctx, ports.DrawingFileCreate{
		DrawingID: "d1", Type: ports.FileTypeOriginal, GCSPath: "a.png", Mime: "image/png",
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	_, found, err := repo.FindOriginalPDF(ctx, "d1")
	if err != nil {
		t.Fatalf("FindOriginalPDF: %v", err)
	}
	if found {
		t.Fatal("png original must not match")
	}

	if _, err := repo.Insert(ctx, ports.DrawingFileCreate{
		DrawingID: "d1", Type: ports.FileTypeOriginal, GCSPath: "a.pdf", Mime: "application/pdf",
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	pdf, found, err := repo.FindOriginalPDF(ctx, "d1")
	if err != nil {
		t.Fatalf("FindOriginalPDF: %v", err)
	}
	if !found || pdf.GCSPath != "a.pdf" {
		t.Fatalf("pdf = %+v found=%v", pdf, found)
	}
}

func TestFileRepositoryListByTypeOrdered(t *testing.T) {
	db := setupDB(t)
	repo := NewFileRepository(db)
	ctx := context.Background()

	for _, pageNo := range []int{3, 1, 2} {
		no := pageNo
		if _, err := repo.Insert(ctx, ports.DrawingFileCreate{
			DrawingID: "d1",
			Type:      ports.FileTypePageImage,
			GCSPath:   fmt.Sprintf("p%d.png", no),
			Mime:      "image/png",
			PageNo:    &no,
		}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	files, err := repo.ListByType(ctx, "d1", ports.FileTypePageImage)
	if err != nil {
		t.Fatalf("ListByType: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("files = %d", len(files))
	}
	for i, file := range files {
		if file.PageNo != i+1 {
			t.Fatalf("page order: %+v", files)
		}
	}
}

func TestFileRepositoryUpdateImageSize(t *testing.T) {
	db := setupDB(t)
	repo := NewFileRepository(db)
	ctx := context.Background()

	pageNo := 1
	file, err := repo.Insert(ctx, ports.DrawingFileCreate{
		DrawingID: "d1", Type: ports.FileTypePageImage, GCSPath: "p1.png", Mime: "image/png", PageNo: &pageNo,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := repo.UpdateImageSize(ctx, file.FileID, 1600, 1200); err != nil {
		t.Fatalf("UpdateImageSize: %v", err)
	}

	files, err := repo.ListByType(ctx, "d1", ports.FileTypePageImage)
	if err != nil {
		t.Fatalf("ListByType: %v", err)
	}
	if files[0].ImageWidth != 1600 || files[0].ImageHeight != 1200 {
		t.Fatalf("size = %dx%d", files[0].ImageWidth, files[0].ImageHeight)
	}

	if err := repo.UpdateImageSize(ctx, "missing", 1, 1); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("err = %v, want ErrFileNotFound", err)
	}
}

func TestTokenRepositoryReplacePageTokens(t *testing.T) {
	db := setupDB(t)
	repo := NewTokenRepository(db)
	ctx := context.Background()

	confidence := 0.95
	first := []ports.OCRToken{
		{Text: "材質", XMin: 10, YMin: 20, XMax: 50, YMax: 30, Confidence: &confidence},
		{Text: "SS400", XMin: 10, YMin: 35, XMax: 60, YMax: 45},
	}
	if err := repo.ReplacePageTokens(ctx, "d1", "f1", 1, first); err != nil {
		t.Fatalf("ReplacePageTokens: %v", err)
	}

	count, err := repo.CountByPage(ctx, "f1")
	if err != nil {
		t.Fatalf("CountByPage: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d", count)
	}

	// A re-run replaces, never appends.
	second := []ports.OCRToken{{Text: "図番", XMin: 1, YMin: 2, XMax: 3, YMax: 4}}
	if err := repo.ReplacePageTokens(ctx, "d1", "f1", 1, second); err != nil {
		t.Fatalf("ReplacePageTokens: %v", err)
	}
	count, err = repo.CountByPage(ctx, "f1")
	if err != nil {
		t.Fatalf("CountByPage: %v", err)
	}
	if count != 1 {
		t.Fatalf("count after replace = %d", count)
	}

	var row model.OcrToken
	if err := db.Where("page_file_id = ?", "f1").First(&row).Error; err != nil {
		t.Fatalf("reload token: %v", err)
	}
	if row.Level != "word" {
		t.Fatalf("level default = %q", row.Level)
	}

	// Replacing with no tokens clears the page.
	if err := repo.ReplacePageTokens(ctx, "d1", "f1", 1, nil); err != nil {
		t.Fatalf("ReplacePageTokens(nil): %v", err)
	}
	count, err = repo.CountByPage(ctx, "f1")
	if err != nil {
		t.Fatalf("CountByPage: %v", err)
	}
	if count != 0 {
		t.Fatalf("count after clear = %d", count)
	}
}
