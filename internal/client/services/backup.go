package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/client/client"
	"github.com/dmitrijs2005/paykeeper/internal/client/localstore"
	"github.com/dmitrijs2005/paykeeper/internal/client/models"
	"github.com/dmitrijs2005/paykeeper/internal/cryptox"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
	"github.com/dmitrijs2005/paykeeper/internal/netx"
	"github.com/dmitrijs2005/paykeeper/internal/records"
)

var (
	ErrNoMasterKey  = errors.New("log in to create backups")
	ErrNoLocalStore = errors.New("backups need the local store")
)

// Snapshot is the plaintext content of a backup.
type Snapshot struct {
	CreatedAt   time.Time                           `json:"createdAt"`
	Collections map[records.Entity][]records.Record `json:"collections"`
	Pending     []*models.PendingChange             `json:"pending"`
}

// BackupService uploads encrypted snapshots of the local store.
type BackupService struct {
	store  *localstore.Store
	client client.Client
	http   *http.Client
	logger logging.Logger
	now    func() time.Time
}

func NewBackupService(store *localstore.Store, c client.Client, hc *http.Client, l logging.Logger) *BackupService {
	if l == nil {
		l = logging.NopLogger{}
	}
	return &BackupService{store: store, client: c, http: hc, logger: l.With("module", "backup"), now: time.Now}
}

// Snapshot reads every collection and the pending queue.
func (b *BackupService) Snapshot(ctx context.Context) (*Snapshot, error) {
	if b.store == nil {
		return nil, ErrNoLocalStore
	}
	snap := &Snapshot{CreatedAt: b.now().UTC(), Collections: map[records.Entity][]records.Record{}}
	for _, e := range records.AllEntities() {
		recs, err := b.store.Collection(e).GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e, err)
		}
		snap.Collections[e] = recs
	}

	active, err := b.store.Repos().Pending.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	quarantined, err := b.store.Repos().Pending.ListQuarantined(ctx)
	if err != nil {
		return nil, err
	}
	snap.Pending = append(active, quarantined...)
	return snap, nil
}

// Backup encrypts a snapshot with masterKey and uploads it to the presigned
// URL issued by the server. It returns the object key.
func (b *BackupService) Backup(ctx context.Context, masterKey []byte) (string, error) {
	if len(masterKey) == 0 {
		return "", ErrNoMasterKey
	}
	snap, err := b.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	blob, err := cryptox.Seal(snap, masterKey)
	if err != nil {
		return "", fmt.Errorf("encryption error: %w", err)
	}

	key, url, err := b.client.BackupUploadURL(ctx)
	if err != nil {
		return "", fmt.Errorf("upload url: %w", err)
	}
	if err := netx.UploadToPresignedURL(ctx, b.http, url, blob); err != nil {
		return "", err
	}

	b.logger.Info(ctx, "backup uploaded", "key", key, "bytes", len(blob))
	return key, nil
}

// OpenBackup decrypts a backup blob.
func OpenBackup(blob, masterKey []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := cryptox.Open(blob, masterKey, &snap); err != nil {
		return nil, fmt.Errorf("decrypt backup: %w", err)
	}
	return &snap, nil
}
