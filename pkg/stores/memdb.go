package stores

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"github.com/deckhand-io/deckhand/pkg/engine"
	"github.com/deckhand-io/deckhand/pkg/policy"
)

// Table names in the document store.
const (
	tableDocks       = "docks"
	tableServers     = "servers"
	tableDomains     = "domains"
	tableWebServices = "web_services"
	tableDatabases   = "databases"
	tableRecords     = "provisioning_records"
	tableEvents      = "events"
	tableRoles       = "roles"
)

// roleDoc is the stored shape of a role: permissions keyed by org and
// role name via a composite index.
type roleDoc struct {
	ID          string
	OrgID       string
	Name        string
	Permissions policy.RolePermissions
}

// eventDoc wraps an audit event with an insertion sequence so GetEvents
// can return a stable oldest-first order even when timestamps collide.
type eventDoc struct {
	ID string
	// RecordID mirrors Event.RecordID at the top level for the memdb
	// "record" index, which only reflects on direct struct fields.
	RecordID string
	Seq      uint64
	Event    engine.Event
}

func documentSchema() *memdb.DBSchema {
	resourceTable := func(name string) *memdb.TableSchema {
		return &memdb.TableSchema{
			Name: name,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"org": {
					Name:    "org",
					Indexer: &memdb.StringFieldIndex{Field: "OrgID"},
				},
			},
		}
	}

	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableDocks:       resourceTable(tableDocks),
			tableServers:     resourceTable(tableServers),
			tableDomains:     resourceTable(tableDomains),
			tableWebServices: resourceTable(tableWebServices),
			tableDatabases:   resourceTable(tableDatabases),
			tableRecords:     resourceTable(tableRecords),
			tableEvents: {
				Name: tableEvents,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"record": {
						Name:    "record",
						Indexer: &memdb.StringFieldIndex{Field: "RecordID"},
					},
				},
			},
			tableRoles: {
				Name: tableRoles,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"org_name": {
						Name:   "org_name",
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "OrgID"},
								&memdb.StringFieldIndex{Field: "Name"},
							},
						},
					},
				},
			},
		},
	}
}

// DocumentStore is the in-memory working set. It implements
// engine.DockStore, engine.ResourceLister, engine.RecordStore, and
// policy.PermissionStore on top of go-memdb's MVCC transactions, so
// readers never block writers.
type DocumentStore struct {
	db *memdb.MemDB

	// eventSeq orders audit events within equal timestamps. memdb
	// transactions serialize writers, so a plain counter bumped inside
	// the write txn would also do; an explicit field keeps the intent
	// visible.
	eventSeq uint64
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() (*DocumentStore, error) {
	db, err := memdb.NewMemDB(documentSchema())
	if err != nil {
		return nil, engine.NewPermanentError("failed to build document store schema", err)
	}
	return &DocumentStore{db: db}, nil
}

// --- engine.DockStore ---

func (s *DocumentStore) SaveDock(ctx context.Context, dock *engine.Dock) error {
	if dock.ID == "" {
		dock.ID = uuid.New().String()
	}
	clone := *dock
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableDocks, &clone); err != nil {
		return engine.NewPermanentError("failed to save dock", err)
	}
	txn.Commit()
	return nil
}

func (s *DocumentStore) GetDock(ctx context.Context, dockID string) (*engine.Dock, error) {
	txn := s.db.Txn(false)
	raw, err := txn.First(tableDocks, "id", dockID)
	if err != nil {
		return nil, engine.NewPermanentError("failed to get dock", err)
	}
	if raw == nil {
		return nil, engine.NewPermanentError("dock not found: "+dockID, nil).
			WithCode(engine.ErrCodeNotFound)
	}
	clone := *raw.(*engine.Dock)
	return &clone, nil
}

func (s *DocumentStore) ListDocks(ctx context.Context, orgID string) ([]engine.Dock, error) {
	txn := s.db.Txn(false)
	it, err := txn.Get(tableDocks, "org", orgID)
	if err != nil {
		return nil, engine.NewPermanentError("failed to list docks", err)
	}
	var out []engine.Dock
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, *raw.(*engine.Dock))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- resource ingestion and engine.ResourceLister ---

// PutServer inserts or replaces an ingested server record.
func (s *DocumentStore) PutServer(ctx context.Context, server *engine.Server) error {
	return s.put(tableServers, func() any { clone := *server; return &clone }, server.ID)
}

// PutDomain inserts or replaces an ingested domain record.
func (s *DocumentStore) PutDomain(ctx context.Context, domain *engine.Domain) error {
	return s.put(tableDomains, func() any { clone := *domain; return &clone }, domain.ID)
}

// PutWebService inserts or replaces an ingested web service record.
func (s *DocumentStore) PutWebService(ctx context.Context, svc *engine.WebService) error {
	return s.put(tableWebServices, func() any { clone := *svc; return &clone }, svc.ID)
}

// PutDatabase inserts or replaces an ingested database record.
func (s *DocumentStore) PutDatabase(ctx context.Context, db *engine.Database) error {
	return s.put(tableDatabases, func() any { clone := *db; return &clone }, db.ID)
}

func (s *DocumentStore) put(table string, clone func() any, id string) error {
	if id == "" {
		return engine.NewPermanentError("resource record requires an ID", nil).
			WithCode(engine.ErrCodeValidation)
	}
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(table, clone()); err != nil {
		return engine.NewPermanentError("failed to save resource record", err)
	}
	txn.Commit()
	return nil
}

func (s *DocumentStore) ListServers(ctx context.Context, orgID string) ([]engine.Server, error) {
	txn := s.db.Txn(false)
	it, err := txn.Get(tableServers, "org", orgID)
	if err != nil {
		return nil, engine.NewPermanentError("failed to list servers", err)
	}
	var out []engine.Server
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, *raw.(*engine.Server))
	}
	return out, nil
}

func (s *DocumentStore) ListDomains(ctx context.Context, orgID string) ([]engine.Domain, error) {
	txn := s.db.Txn(false)
	it, err := txn.Get(tableDomains, "org", orgID)
	if err != nil {
		return nil, engine.NewPermanentError("failed to list domains", err)
	}
	var out []engine.Domain
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, *raw.(*engine.Domain))
	}
	return out, nil
}

func (s *DocumentStore) ListWebServices(ctx context.Context, orgID string) ([]engine.WebService, error) {
	txn := s.db.Txn(false)
	it, err := txn.Get(tableWebServices, "org", orgID)
	if err != nil {
		return nil, engine.NewPermanentError("failed to list web services", err)
	}
	var out []engine.WebService
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, *raw.(*engine.WebService))
	}
	return out, nil
}

func (s *DocumentStore) ListDatabases(ctx context.Context, orgID string) ([]engine.Database, error) {
	txn := s.db.Txn(false)
	it, err := txn.Get(tableDatabases, "org", orgID)
	if err != nil {
		return nil, engine.NewPermanentError("failed to list databases", err)
	}
	var out []engine.Database
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, *raw.(*engine.Database))
	}
	return out, nil
}

// --- engine.RecordStore ---

func (s *DocumentStore) SaveRecord(ctx context.Context, record *engine.ProvisioningRecord) error {
	if record.ID == "" {
		return engine.NewPermanentError("provisioning record requires an ID", nil).
			WithCode(engine.ErrCodeValidation)
	}
	clone := *record
	clone.Spec = record.Spec.Clone()
	clone.ValidatedSpec = record.ValidatedSpec.Clone()
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableRecords, &clone); err != nil {
		return engine.NewPermanentError("failed to save provisioning record", err)
	}
	txn.Commit()
	return nil
}

func (s *DocumentStore) GetRecord(ctx context.Context, recordID string) (*engine.ProvisioningRecord, error) {
	txn := s.db.Txn(false)
	raw, err := txn.First(tableRecords, "id", recordID)
	if err != nil {
		return nil, engine.NewPermanentError("failed to get provisioning record", err)
	}
	if raw == nil {
		return nil, engine.NewPermanentError("provisioning record not found: "+recordID, nil).
			WithCode(engine.ErrCodeNotFound)
	}
	clone := *raw.(*engine.ProvisioningRecord)
	clone.Spec = clone.Spec.Clone()
	clone.ValidatedSpec = clone.ValidatedSpec.Clone()
	return &clone, nil
}

func (s *DocumentStore) ListRecords(ctx context.Context, orgID string) ([]engine.ProvisioningRecord, error) {
	txn := s.db.Txn(false)
	it, err := txn.Get(tableRecords, "org", orgID)
	if err != nil {
		return nil, engine.NewPermanentError("failed to list provisioning records", err)
	}
	var out []engine.ProvisioningRecord
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, *raw.(*engine.ProvisioningRecord))
	}
	// Newest first; ID breaks timestamp ties so the order is stable
	// across memdb iteration order.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *DocumentStore) AppendEvent(ctx context.Context, event *engine.Event) error {
	if event.RecordID == "" {
		return engine.NewPermanentError("audit event requires a record ID", nil).
			WithCode(engine.ErrCodeValidation)
	}
	clone := *event
	if clone.ID == "" {
		clone.ID = uuid.New().String()
	}
	if clone.Timestamp.IsZero() {
		clone.Timestamp = time.Now()
	}

	txn := s.db.Txn(true)
	defer txn.Abort()
	s.eventSeq++
	doc := &eventDoc{ID: clone.ID, RecordID: clone.RecordID, Seq: s.eventSeq, Event: clone}
	if err := txn.Insert(tableEvents, doc); err != nil {
		return engine.NewPermanentError("failed to append audit event", err)
	}
	txn.Commit()
	event.ID = clone.ID
	return nil
}

func (s *DocumentStore) GetEvents(ctx context.Context, recordID string) ([]engine.Event, error) {
	txn := s.db.Txn(false)
	it, err := txn.Get(tableEvents, "record", recordID)
	if err != nil {
		return nil, engine.NewPermanentError("failed to get audit events", err)
	}
	var docs []*eventDoc
	for raw := it.Next(); raw != nil; raw = it.Next() {
		docs = append(docs, raw.(*eventDoc))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Seq < docs[j].Seq })
	out := make([]engine.Event, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Event)
	}
	return out, nil
}

// --- policy.PermissionStore ---

// SaveRole inserts or replaces a role's permission set.
func (s *DocumentStore) SaveRole(ctx context.Context, role *policy.Role) error {
	if role.OrgID == "" || role.Name == "" {
		return engine.NewPermanentError("role requires an org and a name", nil).
			WithCode(engine.ErrCodeValidation)
	}
	doc := &roleDoc{
		ID:          role.OrgID + "/" + role.Name,
		OrgID:       role.OrgID,
		Name:        role.Name,
		Permissions: role.Permissions.Clone(),
	}
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableRoles, doc); err != nil {
		return engine.NewPermanentError("failed to save role", err)
	}
	txn.Commit()
	return nil
}

func (s *DocumentStore) GetRolePermissions(ctx context.Context, orgID, roleName string) (policy.RolePermissions, error) {
	txn := s.db.Txn(false)
	raw, err := txn.First(tableRoles, "org_name", orgID, roleName)
	if err != nil {
		return nil, engine.NewPermanentError("failed to get role", err)
	}
	if raw == nil {
		return nil, engine.NewPermanentError("role not found: "+roleName, nil).
			WithCode(engine.ErrCodeNotFound)
	}
	return raw.(*roleDoc).Permissions.Clone(), nil
}
