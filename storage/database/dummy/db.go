package dummydb

import (
	"sync"

	"github.com/scholium-app/scholium/core/homework"
	"github.com/scholium-app/scholium/core/scholium"
	"github.com/scholium-app/scholium/core/session"
	"github.com/scholium-app/scholium/core/user"
)

type completionKey struct {
	userID     int
	homeworkID int
}

// DB is an in-memory stand-in for the real database, used by tests. A single
// lock guards all tables so cross-table cascades stay atomic.
type DB struct {
	mu sync.RWMutex

	users       map[int]*user.User
	sessions    map[string]*session.Session
	scholiums   map[int]*scholium.Scholium
	members     map[int]*scholium.Member
	subjects    map[int]*homework.Subject
	homework    map[int]*homework.Homework
	completions map[completionKey]*homework.Completion
	attachments map[int]*homework.Attachment

	pkCount int
}

func Open() (*DB, error) {
	db := &DB{
		users:       make(map[int]*user.User),
		sessions:    make(map[string]*session.Session),
		scholiums:   make(map[int]*scholium.Scholium),
		members:     make(map[int]*scholium.Member),
		subjects:    make(map[int]*homework.Subject),
		homework:    make(map[int]*homework.Homework),
		completions: make(map[completionKey]*homework.Completion),
		attachments: make(map[int]*homework.Attachment),
	}
	return db, nil
}

// nextPK must be called with db.mu held.
func (db *DB) nextPK() int {
	db.pkCount++
	return db.pkCount
}
