package backup

import (
	"archive/zip"
	"bytes"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	filestore "github.com/ecosphere/core/internal/modules/storage/file"
	"github.com/ecosphere/core/internal/modules/system/core/configs"
	pkgredis "github.com/ecosphere/core/internal/pkg/redis"
)

const backupRootDir = "ecosphere"
const backupDBDir = backupRootDir + "/db"
const backupManifestFile = backupRootDir + "/manifest.json"
const backupFormat = "ecosphere-bson"
const backupFormatVersion = 1
const defaultS3PathTemplate = "backups/{Y}/{m}/{filename}"
const EnvBackupDir = "ECO_BACKUP_DIR"

// Tables included in a dump, in dependency order for restore.
var backupTableNames = []string{
	"users",
	"user_sessions",
	"api_tokens",
	"news_reports",
	"blog_posts",
	"blog_likes",
	"donations",
	"waste_scans",
	"footprint_snapshots",
	"assistant_conversations",
	"assistant_messages",
	"options",
}

var backupTableNameSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(backupTableNames))
	for _, table := range backupTableNames {
		set[table] = struct{}{}
	}
	return set
}()

// Collection names used by legacy document-store exports.
var restoreTableAliases = map[string]string{
	"sessions":      "user_sessions",
	"apitokens":     "api_tokens",
	"newsreports":   "news_reports",
	"reports":       "news_reports",
	"blogs":         "blog_posts",
	"blogposts":     "blog_posts",
	"posts":         "blog_posts",
	"likes":         "blog_likes",
	"bloglikes":     "blog_likes",
	"wastescans":    "waste_scans",
	"scans":         "waste_scans",
	"footprints":    "footprint_snapshots",
	"conversations": "assistant_conversations",
	"messages":      "assistant_messages",
}

// Field names used by legacy document exports, mapped to relational columns.
var restoreColumnAliases = map[string]string{
	"_id":          "id",
	"created":      "created_at",
	"modified":     "updated_at",
	"createdat":    "created_at",
	"updatedat":    "updated_at",
	"userid":       "user_id",
	"postid":       "post_id",
	"orderid":      "order_id",
	"paymentid":    "payment_id",
	"imageurl":     "image_url",
	"imagekey":     "image_key",
	"targetdate":   "target_date",
	"reporterid":   "reporter_id",
	"reportername": "reporter_name",
	"approvedat":   "approved_at",
	"approvedby":   "approved_by",
	"rejectedat":   "rejected_at",
	"rejectedby":   "rejected_by",
	"authorid":     "author_id",
	"authorname":   "author_name",
	"author":       "author_name",
	"reporter":     "reporter_name",
	"likecount":    "like_count",
	"likes":        "like_count",
	"content":      "text",
	"body":         "text",
	"ipaddress":    "ip",
	"useragent":    "ua",
}

var restoreColumnAliasesByTable = map[string]map[string]string{
	"assistant_messages": {
		"text": "content",
		"body": "content",
	},
}

// Legacy exports spell moderation states in assorted ways.
var restoreNewsStatusAliases = map[string]string{
	"pending":  "pending",
	"review":   "pending",
	"approved": "approved",
	"accept":   "approved",
	"accepted": "approved",
	"rejected": "rejected",
	"denied":   "rejected",
}

// Config section names from legacy option documents.
var legacyOptionKeyAliases = map[string]string{
	"site":           "site",
	"seo":            "site",
	"url":            "url",
	"mailoptions":    "mail_options",
	"s3options":      "s3_options",
	"newsapi":        "news_api",
	"newsapioptions": "news_api",
	"inference":      "inference",
	"ai":             "ai",
	"payment":        "payment",
	"paymentoptions": "payment",
	"backuppolicy":   "backup_policy",
	"backupoptions":  "backup_policy",
	"barkoptions":    "bark_options",
	"authsecurity":   "auth_security",
}

// Handler is the HTTP handler for backup operations.
type Handler struct {
	db     *gorm.DB
	cfgSvc *configs.Service
	rc     *pkgredis.Client
	store  *filestore.Service
	logger *zap.Logger
}

type backupManifest struct {
	Format    string    `json:"format"`
	Version   int       `json:"version"`
	Engine    string    `json:"engine"`
	CreatedAt time.Time `json:"created_at"`
	Tables    []string  `json:"tables"`
}

type backupEntryCandidate struct {
	File   *zip.File
	Format string
}

type tableColumn struct {
	DBType string
}

type backupItem struct {
	Filename string `json:"filename"`
	Size     string `json:"size"`
}

type backupArtifact struct {
	Filename string
	Path     string
	Buffer   *bytes.Buffer
}
