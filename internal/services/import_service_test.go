package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kakakulog/kakaku-backend/internal/domain"
	"github.com/kakakulog/kakaku-backend/internal/repo"
)

func TestImportCreate_DraftWithProvenance(t *testing.T) {
	db := newTestDB(t)
	svc := NewImportService(db, NewEntryService(db))
	ctx := context.Background()

	price := int64(150)
	imp, err := svc.Create(ctx, CreateImportInput{
		UserID:           "u1",
		StoreName:        "Aスーパー",
		ReceiptImagePath: "receipt_images/u1/abc.jpg",
		RawItems: []domain.RawItem{
			{RawLine: "ｷｬﾍﾞﾂ 150", RawProductName: "ｷｬﾍﾞﾂ", RawPrice: &price},
		},
		AIModel: "gemini-3-flash-preview",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if imp.Status != domain.ImportStatusDraft {
		t.Fatalf("status = %q, want draft", imp.Status)
	}
	if imp.ID == "" {
		t.Fatal("empty import id")
	}

	got, err := repo.GetRawImport(ctx, db, imp.ID)
	if err != nil {
		t.Fatalf("GetRawImport: %v", err)
	}
	if len(got.RawItems) != 1 || got.RawItems[0].RawLine != "ｷｬﾍﾞﾂ 150" {
		t.Fatalf("rawItems = %+v, want verbatim line", got.RawItems)
	}
}

func TestImportCreate_EmptyItemsMarshalAsList(t *testing.T) {
	db := newTestDB(t)
	svc := NewImportService(db, NewEntryService(db))

	imp, err := svc.Create(context.Background(), CreateImportInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if imp.RawItems == nil {
		t.Fatal("rawItems is nil, want empty slice")
	}
	body, err := json.Marshal(imp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(body), `"raw_items":[]`) {
		t.Errorf("body = %s, want raw_items as []", body)
	}
}

func TestImportCreate_RequiresUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewImportService(db, NewEntryService(db))

	if _, err := svc.Create(context.Background(), CreateImportInput{}); !errors.Is(err, ErrUserRequired) {
		t.Fatalf("err = %v, want ErrUserRequired", err)
	}
}

func TestImportAttachImage(t *testing.T) {
	db := newTestDB(t)
	svc := NewImportService(db, NewEntryService(db))
	ctx := context.Background()

	imp, err := svc.Create(ctx, CreateImportInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	path := "receipt_images/u1/" + imp.ID + ".jpg"
	if err := svc.AttachImage(ctx, imp.ID, path); err != nil {
		t.Fatalf("AttachImage: %v", err)
	}

	got, err := svc.Get(ctx, imp.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ReceiptImagePath != path {
		t.Errorf("receiptImagePath = %q, want %q", got.ReceiptImagePath, path)
	}

	if err := svc.AttachImage(ctx, "missing", path); !errors.Is(err, ErrImportNotFound) {
		t.Errorf("err = %v, want ErrImportNotFound", err)
	}
}

func TestImportUpdateStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewImportService(db, NewEntryService(db))
	ctx := context.Background()

	imp, err := svc.Create(ctx, CreateImportInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.UpdateStatus(ctx, imp.ID, "processing"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
	if err := svc.UpdateStatus(ctx, "missing", domain.ImportStatusFailed); !errors.Is(err, ErrImportNotFound) {
		t.Fatalf("err = %v, want ErrImportNotFound", err)
	}
	if err := svc.UpdateStatus(ctx, imp.ID, domain.ImportStatusConfirmed); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	// Permissive ordering: failed may follow confirmed.
	if err := svc.UpdateStatus(ctx, imp.ID, domain.ImportStatusFailed); err != nil {
		t.Fatalf("UpdateStatus back: %v", err)
	}
}

func TestImportConfirm_PersistsEntriesAndConfirms(t *testing.T) {
	db := newTestDB(t)
	svc := NewImportService(db, NewEntryService(db))
	ctx := context.Background()

	imp, err := svc.Create(ctx, CreateImportInput{
		UserID:    "u1",
		StoreName: "Aスーパー",
		PlaceID:   "p1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ids, err := svc.Confirm(ctx, imp.ID, []RawEntry{
		{NormalizedName: "キャベツ", Price: 150},
		{NormalizedName: "牛乳", Price: 208},
	})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("entries = %d, want 2", len(ids))
	}

	for _, id := range ids {
		e, err := repo.GetEntry(ctx, db, id)
		if err != nil {
			t.Fatalf("GetEntry: %v", err)
		}
		if e.Source != domain.SourceReceipt {
			t.Fatalf("source = %q, want receipt", e.Source)
		}
		if e.ImportID != imp.ID {
			t.Fatalf("importId = %q, want %q", e.ImportID, imp.ID)
		}
		if e.UserID != "u1" {
			t.Fatalf("userId = %q, want inherited u1", e.UserID)
		}
		if e.StoreID != "p1" {
			t.Fatalf("storeId = %q, want inherited p1", e.StoreID)
		}
	}

	got, err := svc.Get(ctx, imp.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.ImportStatusConfirmed {
		t.Fatalf("status = %q, want confirmed", got.Status)
	}
}

func TestImportConfirm_FailureMarksFailed(t *testing.T) {
	db := newTestDB(t)
	svc := NewImportService(db, NewEntryService(db))
	ctx := context.Background()

	imp, err := svc.Create(ctx, CreateImportInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := db.Migrator().DropTable("entries"); err != nil {
		t.Fatalf("DropTable: %v", err)
	}

	_, cerr := svc.Confirm(ctx, imp.ID, []RawEntry{{NormalizedName: "キャベツ"}})
	if !errors.Is(cerr, ErrSaveFailed) {
		t.Fatalf("err = %v, want ErrSaveFailed", cerr)
	}

	got, err := svc.Get(ctx, imp.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.ImportStatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
}

func TestImportConfirm_MissingImport(t *testing.T) {
	db := newTestDB(t)
	svc := NewImportService(db, NewEntryService(db))

	if _, err := svc.Confirm(context.Background(), "missing", nil); !errors.Is(err, ErrImportNotFound) {
		t.Fatalf("err = %v, want ErrImportNotFound", err)
	}
}
