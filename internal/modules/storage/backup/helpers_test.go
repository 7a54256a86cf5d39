package backup

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCamelToSnake(t *testing.T) {
	cases := map[string]string{
		"likeCount":     "like_count",
		"LikeCount":     "like_count",
		"imageURL":      "image_url",
		"reporterName":  "reporter_name",
		"already_snake": "already_snake",
		"with-dash":     "with_dash",
		"With Space":    "with_space",
		"__v":           "v",
		"":              "",
	}
	for in, want := range cases {
		if got := camelToSnake(in); got != want {
			t.Errorf("camelToSnake(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderBackupObjectKey(t *testing.T) {
	now := time.Date(2026, 3, 7, 14, 5, 9, 0, time.UTC)

	got := renderBackupObjectKey("", "backup-2026.zip", now)
	if got != "backups/2026/03/backup-2026.zip" {
		t.Errorf("default template key = %q", got)
	}

	got = renderBackupObjectKey("/archive//{Y}-{m}-{d}/{H}{M}{s}/{filename}", "b.zip", now)
	if got != "archive/2026-03-07/140509/b.zip" {
		t.Errorf("custom template key = %q", got)
	}

	if got := renderBackupObjectKey("///", "b.zip", now); got != "b.zip" {
		t.Errorf("degenerate template should fall back to filename, got %q", got)
	}
}

func TestFormatSize(t *testing.T) {
	if got := formatSize(512); got != "512 B" {
		t.Errorf("bytes = %q", got)
	}
	if got := formatSize(1536); got != "1.50 KB" {
		t.Errorf("kilobytes = %q", got)
	}
	if got := formatSize(3 << 20); got != "3.00 MB" {
		t.Errorf("megabytes = %q", got)
	}
}

func TestNormalizeNewsStatusAliases(t *testing.T) {
	cases := map[string]string{
		"Accepted": "approved",
		"review":   "pending",
		"DENIED":   "rejected",
		"approved": "approved",
		"weird":    "weird",
	}
	for in, want := range cases {
		if got := normalizeNewsStatus(in); got != want {
			t.Errorf("normalizeNewsStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveRestoreTableName(t *testing.T) {
	if got := resolveRestoreTableName("Reports"); got != "news_reports" {
		t.Errorf("legacy collection alias = %q", got)
	}
	if got := resolveRestoreTableName("blog_posts"); got != "blog_posts" {
		t.Errorf("canonical name = %q", got)
	}
	if got := resolveRestoreTableName("not_a_table"); got != "" {
		t.Errorf("unknown table = %q", got)
	}
}

func TestNormalizeRestoreColumnName(t *testing.T) {
	if got := normalizeRestoreColumnName("blog_posts", "likes"); got != "like_count" {
		t.Errorf("likes alias = %q", got)
	}
	if got := normalizeRestoreColumnName("assistant_messages", "text"); got != "content" {
		t.Errorf("per-table alias = %q", got)
	}
	if got := normalizeRestoreColumnName("news_reports", "reporterName"); got != "reporter_name" {
		t.Errorf("camel alias = %q", got)
	}
	if got := normalizeRestoreColumnName("blog_posts", "__v"); got != "" {
		t.Errorf("version field should be dropped, got %q", got)
	}
	if got := normalizeRestoreColumnName("options", "_id"); got != "" {
		t.Errorf("options _id should be dropped, got %q", got)
	}
}

func TestNormalizeRestoreValueLegacyLikesArray(t *testing.T) {
	got, ok := normalizeRestoreValue("blog_posts", "like_count", []interface{}{"u1", "u2", "u3"}, "INTEGER")
	if !ok || got != 3 {
		t.Errorf("likes array = %v, %v, want 3", got, ok)
	}
}

func TestNormalizeRestoreValueTimes(t *testing.T) {
	// Millisecond epoch from document exports.
	got, ok := normalizeRestoreValue("blog_posts", "created_at", float64(1772546400000), "DATETIME")
	if !ok {
		t.Fatal("epoch millis rejected")
	}
	if ts, isTime := got.(time.Time); !isTime || ts.UnixMilli() != 1772546400000 {
		t.Errorf("epoch millis = %v", got)
	}

	got, ok = normalizeRestoreValue("blog_posts", "created_at", "2026-03-07T14:05:09Z", "DATETIME")
	if !ok {
		t.Fatal("RFC3339 string rejected")
	}
	if ts, isTime := got.(time.Time); !isTime || ts.Year() != 2026 {
		t.Errorf("RFC3339 = %v", got)
	}

	// Zero-like updated_at collapses to NULL instead of failing the row.
	got, ok = normalizeRestoreValue("blog_posts", "updated_at", "0000-00-00 00:00:00", "DATETIME")
	if !ok || got != nil {
		t.Errorf("zero time = %v, %v, want nil", got, ok)
	}
}

func TestNormalizeBSONValue(t *testing.T) {
	oid := primitive.NewObjectID()
	if got := normalizeBSONValue(oid); got != oid.Hex() {
		t.Errorf("object id = %v", got)
	}

	dt := primitive.NewDateTimeFromTime(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if got, ok := normalizeBSONValue(dt).(time.Time); !ok || got.Year() != 2026 {
		t.Errorf("datetime = %v", normalizeBSONValue(dt))
	}

	doc := primitive.D{{Key: "likes", Value: primitive.A{"u1", "u2"}}, {Key: "n", Value: primitive.Null{}}}
	got, ok := normalizeBSONValue(doc).(map[string]interface{})
	if !ok {
		t.Fatal("document not flattened to a map")
	}
	if arr := got["likes"].([]interface{}); len(arr) != 2 || arr[0] != "u1" {
		t.Errorf("nested array = %v", got["likes"])
	}
	if got["n"] != nil {
		t.Errorf("null not normalized: %v", got["n"])
	}
}

func TestBSONRowsRoundTrip(t *testing.T) {
	rows := []map[string]interface{}{
		{"id": "a-1", "title": "Rainwater harvesting", "like_count": int32(4)},
		{"id": "a-2", "tags": []interface{}{"solar", "wind"}},
	}

	payload, err := encodeBSONRows(rows)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := decodeBSONRows(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d rows, want 2", len(decoded))
	}
	if decoded[0]["title"] != "Rainwater harvesting" {
		t.Errorf("row 0 = %v", decoded[0])
	}

	if _, err := decodeBSONRows([]byte{0x01, 0x02}); err == nil {
		t.Error("truncated payload should fail")
	}

	empty, err := decodeBSONRows(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty payload = %v, %v", empty, err)
	}
}

func TestParseBackupEntry(t *testing.T) {
	if table, format, ok := parseBackupEntry("dump/blog_posts.bson"); !ok || table != "blog_posts" || format != "bson" {
		t.Errorf("bson entry = %q %q %v", table, format, ok)
	}
	if table, format, ok := parseBackupEntry("reports.json"); !ok || table != "reports" || format != "json" {
		t.Errorf("json entry = %q %q %v", table, format, ok)
	}
	if _, _, ok := parseBackupEntry("manifest.json"); ok {
		t.Error("manifest should be skipped")
	}
	if _, _, ok := parseBackupEntry("blog_posts.metadata.json"); ok {
		t.Error("metadata sidecar should be skipped")
	}
}

func TestIsDuplicateConstraintError(t *testing.T) {
	if isDuplicateConstraintError(nil) {
		t.Error("nil error flagged")
	}
	if !isDuplicateConstraintError(errDuplicate("UNIQUE constraint failed: blog_posts.id")) {
		t.Error("sqlite unique constraint not detected")
	}
	if isDuplicateConstraintError(errDuplicate("connection refused")) {
		t.Error("unrelated error flagged")
	}
}

type errDuplicate string

func (e errDuplicate) Error() string { return string(e) }
