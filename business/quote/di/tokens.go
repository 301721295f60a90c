// Package di contains dependency injection tokens for the quote context.
package di

import (
	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/infra/aggregator"
	"github.com/fd1az/quote-engine/internal/di"
)

// Public service tokens - exposed to other modules
var (
	QuoteService = di.NewToken[*app.QuoteService]("quote.QuoteService")
)

// Private dependency tokens - internal to quote module
var (
	Orchestrator = di.NewToken[*app.Orchestrator]("quote:orchestrator")
	Simulation   = di.NewToken[*app.SimulationTable]("quote:simulation")
	Delegate     = di.NewToken[*aggregator.Delegate]("quote:aggregatorDelegate")
	Venues       = di.NewToken[[]app.Venue]("quote:venues")
	// Journal is registered only when journal.database_url is set; read it
	// with di.TryGetToken.
	Journal = di.NewToken[app.Journal]("quote:journal")
)

// Helper functions for type-safe access
func GetQuoteService(c di.ServiceRegistry) *app.QuoteService {
	return di.GetToken(c, QuoteService)
}

func GetOrchestrator(c di.ServiceRegistry) *app.Orchestrator {
	return di.GetToken(c, Orchestrator)
}

func GetSimulation(c di.ServiceRegistry) *app.SimulationTable {
	return di.GetToken(c, Simulation)
}

func GetDelegate(c di.ServiceRegistry) *aggregator.Delegate {
	return di.GetToken(c, Delegate)
}

func GetVenues(c di.ServiceRegistry) []app.Venue {
	return di.GetToken(c, Venues)
}

func GetJournal(c di.ServiceRegistry) app.Journal {
	return di.GetToken(c, Journal)
}
