package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/trustwatch/internal/interfaces"
	"github.com/ternarybob/trustwatch/internal/platform/config"
)

// Manager implements interfaces.StorageManager over one BadgerDB instance,
// with one storage struct per entity behind a composite accessor.
type Manager struct {
	db            *BadgerDB
	companies     interfaces.CompanyStorage
	crawlTargets  interfaces.CrawlTargetStorage
	claims        interfaces.ClaimStorage
	claimVersions interfaces.ClaimVersionStorage
	changeEvents  interfaces.ChangeEventStorage
	crawlRuns     interfaces.CrawlRunStorage
	evidence      interfaces.EvidenceStorage
	kv            interfaces.KeyValueStorage
}

// NewManager opens the Badger store and wires every entity store.
func NewManager(logger arbor.ILogger, cfg *config.StoreConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, cfg)
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:            db,
		companies:     NewCompanyStorage(db, logger),
		crawlTargets:  NewCrawlTargetStorage(db, logger),
		claims:        NewClaimStorage(db, logger),
		claimVersions: NewClaimVersionStorage(db, logger),
		changeEvents:  NewChangeEventStorage(db, logger),
		crawlRuns:     NewCrawlRunStorage(db, logger),
		evidence:      NewEvidenceStorage(db, logger),
		kv:            NewKVStorage(db, logger),
	}, nil
}

func (m *Manager) Companies() interfaces.CompanyStorage           { return m.companies }
func (m *Manager) CrawlTargets() interfaces.CrawlTargetStorage    { return m.crawlTargets }
func (m *Manager) Claims() interfaces.ClaimStorage                { return m.claims }
func (m *Manager) ClaimVersions() interfaces.ClaimVersionStorage  { return m.claimVersions }
func (m *Manager) ChangeEvents() interfaces.ChangeEventStorage    { return m.changeEvents }
func (m *Manager) CrawlRuns() interfaces.CrawlRunStorage          { return m.crawlRuns }
func (m *Manager) Evidence() interfaces.EvidenceStorage           { return m.evidence }
func (m *Manager) KV() interfaces.KeyValueStorage                 { return m.kv }

// Raw exposes the underlying badgerhold store for components (the queue,
// the scheduler lock) that are not entity stores but still need the one
// shared Badger instance.
func (m *Manager) Raw() *BadgerDB { return m.db }

func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
