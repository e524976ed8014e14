// Package handlers implements spec §6's HTTP routes (plus the resubmit
// route SPEC_FULL.md adds for §4.8's query-surface operation), translating
// between internal/dto wire types and the application-layer collaborators
// (intake.Intake, query.Query, account.Repository, blobstore.Store).
package handlers

import (
	"github.com/techappsUT/social-publisher/internal/application/intake"
	"github.com/techappsUT/social-publisher/internal/application/query"
	"github.com/techappsUT/social-publisher/internal/blobstore"
	"github.com/techappsUT/social-publisher/internal/domain/account"
	"github.com/techappsUT/social-publisher/internal/logging"
)

// Handlers holds every collaborator the routes need.
type Handlers struct {
	intake   *intake.Intake
	query    *query.Query
	accounts account.Repository
	blob     blobstore.Store
	log      logging.Logger
}

func New(in *intake.Intake, q *query.Query, accounts account.Repository, blob blobstore.Store, log logging.Logger) *Handlers {
	return &Handlers{intake: in, query: q, accounts: accounts, blob: blob, log: log}
}
