package httpapi

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/asset"
)

// TokenView identifies a token in responses.
type TokenView struct {
	Symbol   string         `json:"symbol"`
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
}

// SourceView is one source's outcome.
type SourceView struct {
	Source    string `json:"source"`
	Status    string `json:"status"`
	AmountOut string `json:"amountOut,omitempty"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// QuoteView is the wire form of a quote. Amounts are decimal strings in
// token units; the Raw fields carry base units.
type QuoteView struct {
	ID              string              `json:"id"`
	ChainID         uint64              `json:"chainId"`
	TokenIn         TokenView           `json:"tokenIn"`
	TokenOut        TokenView           `json:"tokenOut"`
	AmountIn        string              `json:"amountIn"`
	AmountInRaw     string              `json:"amountInRaw"`
	AmountOut       string              `json:"amountOut"`
	AmountOutRaw    string              `json:"amountOutRaw"`
	UnitPrice       string              `json:"unitPrice"`
	PriceImpactPct  *string             `json:"priceImpactPct,omitempty"`
	MinAmountOut    string              `json:"minAmountOut"`
	MinAmountOutRaw string              `json:"minAmountOutRaw"`
	SlippageBps     int64               `json:"slippageBps"`
	GasEstimate     uint64              `json:"gasEstimate"`
	GasCost         string              `json:"gasCost,omitempty"`
	Source          string              `json:"source"`
	Model           string              `json:"model,omitempty"`
	Provenance      string              `json:"provenance"`
	Outcome         string              `json:"outcome"`
	Route           []domain.Hop        `json:"route"`
	Composition     []domain.RouteSplit `json:"composition,omitempty"`
	Sources         []SourceView        `json:"sources"`
	CreatedAt       time.Time           `json:"createdAt"`
}

func tokenView(a *asset.Asset) TokenView {
	return TokenView{Symbol: a.Symbol(), Address: a.Address(), Decimals: a.Decimals()}
}

// NewQuoteView renders q with places fractional digits.
func NewQuoteView(q *domain.Quote, places int32) QuoteView {
	v := QuoteView{
		ID:              q.ID.String(),
		ChainID:         q.ChainID,
		TokenIn:         tokenView(q.TokenIn),
		TokenOut:        tokenView(q.TokenOut),
		AmountIn:        q.AmountIn.ToDisplayString(places),
		AmountInRaw:     q.AmountIn.Raw().String(),
		AmountOut:       q.AmountOut.ToDisplayString(places),
		AmountOutRaw:    q.AmountOut.Raw().String(),
		UnitPrice:       q.UnitPrice.StringFixed(places),
		MinAmountOut:    q.MinAmountOut.ToDisplayString(places),
		MinAmountOutRaw: q.MinAmountOut.Raw().String(),
		SlippageBps:     q.SlippageBps,
		GasEstimate:     q.GasEstimate,
		Source:          q.Source,
		Model:           string(q.Model),
		Provenance:      string(q.Provenance),
		Outcome:         string(q.Outcome),
		Route:           q.Route,
		Composition:     q.Composition,
		CreatedAt:       q.CreatedAt,
	}
	if v.Route == nil {
		v.Route = []domain.Hop{}
	}
	if q.PriceImpact.Valid {
		s := q.PriceImpact.Decimal.StringFixed(4)
		v.PriceImpactPct = &s
	}
	if q.GasCost != nil {
		v.GasCost = q.GasCost.String()
	}

	v.Sources = make([]SourceView, 0, len(q.Sources))
	for _, s := range q.Sources {
		sv := SourceView{
			Source:    s.Source,
			Status:    string(s.Status),
			Code:      string(s.Code),
			Error:     s.Error,
			LatencyMs: s.Latency.Milliseconds(),
		}
		if s.AmountOut != nil {
			sv.AmountOut = s.AmountOut.String()
		}
		v.Sources = append(v.Sources, sv)
	}
	return v
}

// PlanView is the wire form of a swap plan.
type PlanView struct {
	Quote           QuoteView `json:"quote"`
	SlippageBps     int64     `json:"slippageBps"`
	MinAmountOut    string    `json:"minAmountOut"`
	MinAmountOutRaw string    `json:"minAmountOutRaw"`
	Deadline        time.Time `json:"deadline"`
	DeadlineUnix    int64     `json:"deadlineUnix"`
}

// NewPlanView renders p.
func NewPlanView(p *domain.SwapPlan, places int32) PlanView {
	return PlanView{
		Quote:           NewQuoteView(p.Quote, places),
		SlippageBps:     p.SlippageBps,
		MinAmountOut:    p.MinAmountOut.ToDisplayString(places),
		MinAmountOutRaw: p.MinAmountOut.Raw().String(),
		Deadline:        p.Deadline,
		DeadlineUnix:    p.Deadline.Unix(),
	}
}

// ComparisonView is the wire form of a direct vs two-hop comparison.
type ComparisonView struct {
	Via       TokenView `json:"via"`
	Direct    QuoteView `json:"direct"`
	FirstHop  QuoteView `json:"firstHop"`
	SecondHop QuoteView `json:"secondHop"`
	Better    string    `json:"better"`
	DiffBps   int64     `json:"diffBps"`
	DiffPct   string    `json:"diffPct"`
}

// NewComparisonView renders c.
func NewComparisonView(c *app.Comparison, places int32) ComparisonView {
	return ComparisonView{
		Via:       tokenView(c.Via),
		Direct:    NewQuoteView(c.Direct, places),
		FirstHop:  NewQuoteView(c.FirstHop, places),
		SecondHop: NewQuoteView(c.SecondHop, places),
		Better:    string(c.Result.Better),
		DiffBps:   c.Result.DiffBps,
		DiffPct:   c.Result.DiffPct,
	}
}

// InspectionView is the wire form of a venue snapshot.
type InspectionView struct {
	Source    string           `json:"source"`
	Model     string           `json:"model"`
	Pair      string           `json:"pair"`
	State     domain.PoolState `json:"state"`
	SpotPrice string           `json:"spotPrice,omitempty"`
}

// NewInspectionView renders in.
func NewInspectionView(in *app.Inspection, places int32) InspectionView {
	v := InspectionView{
		Source: in.Source.Name,
		Model:  string(in.Source.Model),
		Pair:   in.Pair.String(),
		State:  in.State,
	}
	if in.SpotPrice != nil {
		v.SpotPrice = in.SpotPrice.StringFixed(places)
	}
	return v
}
