package inmemdb

import (
	"sync"

	"github.com/trezcool/masomo/core/enrollment"
	"github.com/trezcool/masomo/core/formation"
	"github.com/trezcool/masomo/core/portal"
	"github.com/trezcool/masomo/core/user"
)

type (
	// DB keeps every table in memory. It backs the development server and tests.
	DB struct {
		user         *userTable
		formation    *formationTable
		request      *requestTable
		notification *notificationTable
	}

	userTable struct {
		sync.RWMutex
		pk    int
		table map[int]*user.User
	}

	formationTable struct {
		sync.RWMutex
		table map[int]formation.Formation
	}

	requestTable struct {
		sync.RWMutex
		table map[string]enrollment.Request
	}

	notificationTable struct {
		sync.RWMutex
		pk    int
		table map[int]portal.Notification
	}
)

func Open() *DB {
	return &DB{
		user:         &userTable{table: make(map[int]*user.User)},
		formation:    &formationTable{table: make(map[int]formation.Formation)},
		request:      &requestTable{table: make(map[string]enrollment.Request)},
		notification: &notificationTable{table: make(map[int]portal.Notification)},
	}
}
