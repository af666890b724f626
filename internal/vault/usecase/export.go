package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/storage"
	"github.com/shandysiswandi/otpkeeper/internal/vault/entity"
)

const (
	ExportVersion = "1.0"

	defaultExportBucket    = "otpkeeper-exports"
	defaultSnapshotExpiry  = 15 * time.Minute
	snapshotContentType    = "application/json"
	snapshotMetadataUserID = "user_id"
)

type ExportInput struct {
	Snapshot bool
}

type ExportOutput struct {
	Version     string
	ExportedAt  time.Time
	TOTPs       []entity.TOTP
	SnapshotURL string
}

// Document is the portable export format; Import accepts its totps list back.
type Document struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Count      int              `json:"count"`
	TOTPs      []DocumentRecord `json:"totps"`

	SnapshotURL string `json:"snapshot_url,omitempty"`
}

type DocumentRecord struct {
	ID        int64          `json:"id,string"`
	Label     string         `json:"label"`
	Secret    string         `json:"secret"`
	Digits    int            `json:"digits"`
	Period    int            `json:"period"`
	Algorithm string         `json:"algorithm,omitempty"`
	Encoding  string         `json:"encoding,omitempty"`
	Icon      *string        `json:"icon"`
	Metadata  map[string]any `json:"metadata"`
	Sort      *int32         `json:"sort"`
}

// NewDocument renders entries, whose secrets must already be plaintext, in export form.
func NewDocument(exportedAt time.Time, ts []entity.TOTP) Document {
	doc := Document{
		Version:    ExportVersion,
		ExportedAt: exportedAt,
		Count:      len(ts),
		TOTPs:      make([]DocumentRecord, len(ts)),
	}
	for i, t := range ts {
		doc.TOTPs[i] = DocumentRecord{
			ID:        t.ID,
			Label:     t.Label,
			Secret:    t.Secret,
			Digits:    t.Digits,
			Period:    t.Period,
			Algorithm: t.Algorithm,
			Encoding:  t.Encoding,
			Icon:      t.Icon,
			Metadata:  t.Metadata,
			Sort:      t.Sort,
		}
	}
	return doc
}

// Export returns every entry of the caller with plaintext secrets. With Snapshot set
// the document is also written to object storage and a time limited link is returned.
func (s *Usecase) Export(ctx context.Context, in ExportInput) (*ExportOutput, error) {
	ctx, span := s.startSpan(ctx, "Export")
	defer span.End()

	p, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.repoDB.ListTOTPs(ctx, p.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list totps", "user_id", p.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if err := s.open(ctx, rows); err != nil {
		return nil, goerror.NewServer(err)
	}

	out := &ExportOutput{
		Version:    ExportVersion,
		ExportedAt: s.clock.Now().UTC(),
		TOTPs:      rows,
	}

	var key string
	if in.Snapshot {
		key, out.SnapshotURL, err = s.snapshot(ctx, p.UserID, NewDocument(out.ExportedAt, rows))
		if err != nil {
			return nil, err
		}
	}

	if err := s.repoMessaging.PublishExportCreated(ctx, ExportCreatedEvent{
		UserID:   p.UserID,
		Count:    len(rows),
		Snapshot: key,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish export created", "user_id", p.UserID, "error", err)
	}

	return out, nil
}

func (s *Usecase) snapshot(ctx context.Context, userID int64, doc Document) (key, url string, err error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", "", goerror.NewServer(err)
	}

	bucket := s.cfg.GetString("vault.export_bucket")
	if bucket == "" {
		bucket = defaultExportBucket
	}
	expiry := s.cfg.GetMinute("vault.export_url_expiry_minutes")
	if expiry <= 0 {
		expiry = defaultSnapshotExpiry
	}

	uid := strconv.FormatInt(userID, 10)
	key = "exports/" + uid + "/" + s.uuid.Generate() + ".json"

	if _, err := s.storage.Put(ctx, bucket, key, bytes.NewReader(body), storage.PutOptions{
		Size:        int64(len(body)),
		ContentType: snapshotContentType,
		Metadata:    map[string]string{snapshotMetadataUserID: uid},
	}); err != nil {
		slog.ErrorContext(ctx, "failed to store export snapshot", "user_id", userID, "key", key, "error", err)
		return "", "", goerror.NewServer(err)
	}

	url, err = s.storage.PresignGet(ctx, bucket, key, expiry)
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign export snapshot", "user_id", userID, "key", key, "error", err)
		return "", "", goerror.NewServer(err)
	}

	return key, url, nil
}
