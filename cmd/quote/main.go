// Command quote prices swaps against a state snapshot and exits. One
// invocation answers either a single quote from flags or a JSON batch file,
// which is fanned out across a bounded worker pool.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dexquote/dexquote-client-go/engine"
	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator"
	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator/scalemath"
	pairindexer "github.com/dexquote/dexquote-client-go/protocols/amm/indexer"
	tokenregistry "github.com/dexquote/dexquote-client-go/protocols/tokenregistry"
	tokenindexer "github.com/dexquote/dexquote-client-go/protocols/tokenregistry/indexer"
)

// request is one quote to price. Amounts are human-readable token units.
type request struct {
	Amount string `json:"amount"`
	In     string `json:"in"`
	Out    string `json:"out"`
}

// result pairs a request with its quote or failure.
type result struct {
	req      request
	pairID   uint64
	tokenIn  tokenregistry.Token
	tokenOut tokenregistry.Token
	quote    *calculator.SwapQuote
	err      error
}

// quoter resolves and prices requests against one immutable snapshot, so
// batch workers can share it without locking.
type quoter struct {
	state       *engine.State
	tokens      tokenindexer.IndexedTokens
	pairs       pairindexer.IndexedPairs
	slippageBps uint16
}

func newQuoter(state *engine.State, slippageBps uint16) *quoter {
	return &quoter{
		state:       state,
		tokens:      tokenindexer.New().Index(state.Tokens),
		pairs:       pairindexer.New().Index(state.Pairs),
		slippageBps: slippageBps,
	}
}

func (q *quoter) resolveToken(ref string) (tokenregistry.Token, error) {
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		if t, ok := q.tokens.GetByID(id); ok {
			return t, nil
		}
		return tokenregistry.Token{}, fmt.Errorf("unknown token ID %d", id)
	}
	if t, ok := q.tokens.GetBySymbol(ref); ok {
		return t, nil
	}
	return tokenregistry.Token{}, fmt.Errorf("unknown token %q", ref)
}

func (q *quoter) run(req request) result {
	res := result{req: req}

	tokenIn, err := q.resolveToken(req.In)
	if err != nil {
		res.err = err
		return res
	}
	tokenOut, err := q.resolveToken(req.Out)
	if err != nil {
		res.err = err
		return res
	}
	res.tokenIn, res.tokenOut = tokenIn, tokenOut

	amount, err := scalemath.Parse(req.Amount)
	if err != nil {
		res.err = fmt.Errorf("amount %q: %w", req.Amount, err)
		return res
	}
	if amount.IsNegative() {
		res.err = fmt.Errorf("amount %q is negative", req.Amount)
		return res
	}
	amountIn, err := scalemath.ApplyDecimals(amount, int32(tokenIn.Decimals))
	if err != nil {
		res.err = err
		return res
	}

	candidates := q.pairs.GetByTokens(tokenIn.ID, tokenOut.ID)
	if len(candidates) == 0 {
		res.err = fmt.Errorf("no pair trades %s and %s", tokenIn.Symbol, tokenOut.Symbol)
		return res
	}
	pair := candidates[0]
	res.pairID = pair.ID

	tok0, _ := q.tokens.GetByID(pair.Token0)
	tok1, _ := q.tokens.GetByID(pair.Token1)
	calc, err := calculator.NewCalculator(pair, tok0, tok1)
	if err != nil {
		res.err = err
		return res
	}

	res.quote, res.err = calc.SimulateSwap(
		amountIn, tokenIn.ID,
		q.state.Prices[tokenIn.ID], q.state.Prices[tokenOut.ID],
		q.slippageBps,
	)
	return res
}

func main() {
	var (
		snapshotPath = flag.String("snapshot", "snapshot.json", "path to the state snapshot")
		amount       = flag.String("amount", "", "input amount in whole token units")
		in           = flag.String("in", "", "input token symbol or ID")
		out          = flag.String("out", "", "output token symbol or ID")
		slippageBps  = flag.Uint("slippage", 50, "slippage tolerance in basis points")
		batchPath    = flag.String("batch", "", "JSON file with an array of quote requests")
		workers      = flag.Int("workers", 4, "concurrent quotes for batch runs")
	)
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *slippageBps > 10000 {
		logger.Fatal("slippage exceeds 10000 bps", zap.Uint("slippage", *slippageBps))
	}

	requests, err := collectRequests(*batchPath, *amount, *in, *out)
	if err != nil {
		logger.Fatal("reading requests", zap.Error(err))
	}

	data, err := os.ReadFile(*snapshotPath)
	if err != nil {
		logger.Fatal("reading snapshot", zap.String("path", *snapshotPath), zap.Error(err))
	}
	state, err := engine.DecodeSnapshot(data)
	if err != nil {
		logger.Fatal("decoding snapshot", zap.String("path", *snapshotPath), zap.Error(err))
	}

	q := newQuoter(state, uint16(*slippageBps))

	results := make([]result, len(requests))
	var g errgroup.Group
	g.SetLimit(*workers)
	for i, req := range requests {
		g.Go(func() error {
			results[i] = q.run(req)
			return nil
		})
	}
	// Workers never return errors; failures travel in the results.
	_ = g.Wait()

	failed := render(results)
	if failed > 0 {
		logger.Warn("some quotes failed", zap.Int("failed", failed), zap.Int("total", len(results)))
		os.Exit(1)
	}
}

// collectRequests assembles the run's requests from either the batch file
// or the single-quote flags.
func collectRequests(batchPath, amount, in, out string) ([]request, error) {
	if batchPath != "" {
		data, err := os.ReadFile(batchPath)
		if err != nil {
			return nil, err
		}
		var requests []request
		if err := json.Unmarshal(data, &requests); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", batchPath, err)
		}
		if len(requests) == 0 {
			return nil, fmt.Errorf("batch file %s holds no requests", batchPath)
		}
		return requests, nil
	}

	if amount == "" || in == "" || out == "" {
		return nil, fmt.Errorf("either -batch or all of -amount, -in, -out are required")
	}
	return []request{{Amount: amount, In: in, Out: out}}, nil
}

// render prints the results table and returns the number of failed quotes.
func render(results []result) int {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Pair", "In", "Out", "Min Received", "Exec Price", "Impact", "Status"})

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			t.AppendRow(table.Row{
				"-",
				r.req.Amount + " " + r.req.In,
				"-", "-", "-", "-",
				r.err.Error(),
			})
			continue
		}
		t.AppendRow(table.Row{
			r.pairID,
			formatRaw(r.quote.AmountIn, r.tokenIn.Decimals) + " " + r.tokenIn.Symbol,
			formatRaw(r.quote.AmountOut, r.tokenOut.Decimals) + " " + r.tokenOut.Symbol,
			formatRaw(r.quote.MinimumReceived, r.tokenOut.Decimals) + " " + r.tokenOut.Symbol,
			r.quote.ExecutionPrice.String(),
			r.quote.PriceImpact.StringFixed(4) + "%",
			"ok",
		})
	}
	t.Render()
	return failed
}

func formatRaw(raw *big.Int, decimals uint8) string {
	d, err := scalemath.RemoveDecimals(raw, int32(decimals))
	if err != nil {
		return raw.String()
	}
	return d.String()
}
