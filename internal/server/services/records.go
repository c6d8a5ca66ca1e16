package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/records"
	"github.com/dmitrijs2005/paykeeper/internal/server/models"
	"github.com/dmitrijs2005/paykeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// RecordService serves the entity collections of one user. Ids of new records
// are assigned here; versions are assigned by the repository.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager) *RecordService {
	return &RecordService{db: db, repomanager: m}
}

func (s *RecordService) List(ctx context.Context, userID, entity string) ([]records.Record, error) {
	e, err := records.ParseEntity(entity)
	if err != nil {
		return nil, err
	}
	items, err := s.repomanager.Records(s.db).List(ctx, userID, e.String())
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", e, err)
	}
	return fromModels(items)
}

func (s *RecordService) Get(ctx context.Context, userID, entity, id string) (records.Record, error) {
	e, err := records.ParseEntity(entity)
	if err != nil {
		return nil, err
	}
	if err := requireID(id); err != nil {
		return nil, err
	}
	item, err := s.repomanager.Records(s.db).Get(ctx, userID, e.String(), id)
	if err != nil {
		return nil, err
	}
	return fromModel(item)
}

// Create stores rec. A missing or client-local id is replaced by a fresh uuid.
func (s *RecordService) Create(ctx context.Context, userID, entity string, rec records.Record) (records.Record, error) {
	e, err := records.ParseEntity(entity)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(rec.ID())
	if id == "" || records.IsTemporaryID(id) {
		id = uuid.NewString()
	}
	data, err := toData(rec)
	if err != nil {
		return nil, err
	}
	item, err := s.repomanager.Records(s.db).Create(ctx, &models.Record{UserID: userID, Entity: e.String(), ID: id, Data: data})
	if err != nil {
		return nil, err
	}
	return fromModel(item)
}

func (s *RecordService) Update(ctx context.Context, userID, entity, id string, rec records.Record, baseVersion int64) (records.Record, error) {
	e, err := records.ParseEntity(entity)
	if err != nil {
		return nil, err
	}
	if err := requireID(id); err != nil {
		return nil, err
	}
	data, err := toData(rec)
	if err != nil {
		return nil, err
	}
	item, err := s.repomanager.Records(s.db).Update(ctx, &models.Record{UserID: userID, Entity: e.String(), ID: id, Data: data}, baseVersion)
	if err != nil {
		return nil, err
	}
	return fromModel(item)
}

func (s *RecordService) Delete(ctx context.Context, userID, entity, id string, baseVersion int64) error {
	e, err := records.ParseEntity(entity)
	if err != nil {
		return err
	}
	if err := requireID(id); err != nil {
		return err
	}
	return s.repomanager.Records(s.db).Delete(ctx, userID, e.String(), id, baseVersion)
}

// Query runs a named domain query over the live records of entity, with the
// same predicates the client applies to its local copy.
func (s *RecordService) Query(ctx context.Context, userID, entity string, q records.Query) ([]records.Record, error) {
	if _, err := q.Predicate(); err != nil {
		return nil, err
	}
	all, err := s.List(ctx, userID, entity)
	if err != nil {
		return nil, err
	}
	return records.Filter(all, q)
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", common.ErrorValidation)
	}
	return nil
}

// toData strips the columns-backed fields and encodes the rest.
func toData(rec records.Record) ([]byte, error) {
	norm, err := records.Normalize(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	for _, k := range []string{records.FieldID, records.FieldVersion, records.FieldCreatedAt, records.FieldUpdatedAt} {
		delete(norm, k)
	}
	return records.Encode(norm)
}

func fromModel(m *models.Record) (records.Record, error) {
	rec, err := records.Decode(m.Data)
	if err != nil {
		return nil, err
	}
	rec.SetID(m.ID)
	rec[records.FieldVersion] = m.Version
	if !m.CreatedAt.IsZero() {
		rec[records.FieldCreatedAt] = m.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !m.UpdatedAt.IsZero() {
		rec[records.FieldUpdatedAt] = m.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return rec, nil
}

func fromModels(items []*models.Record) ([]records.Record, error) {
	out := make([]records.Record, 0, len(items))
	for _, m := range items {
		rec, err := fromModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
