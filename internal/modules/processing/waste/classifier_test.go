package waste

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ecosphere/core/internal/database"
	appconfigs "github.com/ecosphere/core/internal/modules/system/core/configs"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func classifierFor(t *testing.T, endpoint string) *Classifier {
	t.Helper()
	cfgSvc := appconfigs.NewService(setupTestDB(t))
	_, err := cfgSvc.Patch(map[string]json.RawMessage{
		"inference": json.RawMessage(`{"enable":true,"endpoint":"` + endpoint + `"}`),
	})
	if err != nil {
		t.Fatalf("patch config: %v", err)
	}
	return NewClassifier(cfgSvc, nil)
}

func TestClassifyInterpretsPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/run/predict" {
			t.Errorf("path = %q, want /run/predict", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var req predictRequest
		if err := json.Unmarshal(body, &req); err != nil || len(req.Data) != 1 {
			t.Errorf("unexpected request body: %s", body)
		} else if !strings.HasPrefix(req.Data[0], "data:image/png;base64,") {
			t.Errorf("expected data url, got %.40s", req.Data[0])
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":[{"label":"plastic","confidences":[
			{"label":"plastic","confidence":0.87},
			{"label":"glass","confidence":0.09},
			{"label":"metal","confidence":0.04}
		]}]}`)
	}))
	defer srv.Close()

	cl := classifierFor(t, srv.URL)
	result, err := cl.Classify(context.Background(), "data:image/png;base64,AAAA")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if result.Label != "plastic" {
		t.Errorf("label = %q, want plastic", result.Label)
	}
	if result.Confidence != 0.87 {
		t.Errorf("confidence = %v, want 0.87", result.Confidence)
	}
	if result.Display != "plastic (87%)" {
		t.Errorf("display = %q, want %q", result.Display, "plastic (87%)")
	}
	if len(result.Confidences) != 3 {
		t.Errorf("confidences = %d entries, want 3", len(result.Confidences))
	}
}

func TestClassifyRejectsUnexpectedShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `<html>rate limited</html>`},
		{"empty data", `{"data":[]}`},
		{"missing label", `{"data":[{"confidences":[{"label":"x","confidence":1}]}]}`},
		{"missing confidences", `{"data":[{"label":"plastic"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			cl := classifierFor(t, srv.URL)
			_, err := cl.Classify(context.Background(), "data:image/png;base64,AAAA")
			if !errors.Is(err, errUnexpectedFormat) {
				t.Errorf("err = %v, want errUnexpectedFormat", err)
			}
		})
	}
}

func TestClassifyDisabled(t *testing.T) {
	cl := NewClassifier(nil, nil)
	if _, err := cl.Classify(context.Background(), "data:image/png;base64,AAAA"); !errors.Is(err, errNotEnabled) {
		t.Errorf("err = %v, want errNotEnabled", err)
	}
}

func TestClassifyUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cl := classifierFor(t, srv.URL)
	_, err := cl.Classify(context.Background(), "data:image/png;base64,AAAA")
	if err == nil {
		t.Fatal("expected error on 503 upstream")
	}
	if errors.Is(err, errUnexpectedFormat) {
		t.Errorf("status errors should not map to the shape error, got %v", err)
	}
}

func TestSaveAndListScans(t *testing.T) {
	svc := NewService(setupTestDB(t))

	first, err := svc.SaveScan("user-1", "/api/v2/objects/waste-scans/a.png", "waste-scans/a.png", &Classification{Label: "glass", Confidence: 0.6})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.SaveScan("user-1", "/api/v2/objects/waste-scans/b.png", "waste-scans/b.png", &Classification{Label: "metal", Confidence: 0.9}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.SaveScan("user-2", "", "", &Classification{Label: "paper", Confidence: 0.5}); err != nil {
		t.Fatalf("save: %v", err)
	}

	scans, err := svc.ListScans("user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(scans) != 2 {
		t.Fatalf("got %d scans, want 2", len(scans))
	}
	for _, scan := range scans {
		if scan.UserID != "user-1" {
			t.Errorf("scan %s belongs to %s", scan.ID, scan.UserID)
		}
	}
	if first.Label != "glass" || first.Confidence != 0.6 {
		t.Errorf("saved scan fields mismatch: %+v", first)
	}
}
