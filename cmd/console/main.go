// Command console is an interactive shell over a state snapshot: browse
// tokens and pairs, quote swaps, deposits, and redemptions, and hot-reload
// the snapshot through the differ/patcher path without losing the session.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dexquote/dexquote-client-go/cmd/console/config"
	"github.com/dexquote/dexquote-client-go/differ"
	"github.com/dexquote/dexquote-client-go/engine"
	"github.com/dexquote/dexquote-client-go/patcher"
	amm "github.com/dexquote/dexquote-client-go/protocols/amm"
	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator"
	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator/scalemath"
	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator/swapmath"
	"github.com/dexquote/dexquote-client-go/protocols/amm/calculator/valuemath"
	pairindexer "github.com/dexquote/dexquote-client-go/protocols/amm/indexer"
	tokenregistry "github.com/dexquote/dexquote-client-go/protocols/tokenregistry"
	tokenindexer "github.com/dexquote/dexquote-client-go/protocols/tokenregistry/indexer"
)

// zapAdapter bridges a sugared zap logger onto the differ.Logger interface.
type zapAdapter struct {
	s *zap.SugaredLogger
}

func (z *zapAdapter) Debug(msg string, args ...any) { z.s.Debugw(msg, args...) }
func (z *zapAdapter) Info(msg string, args ...any)  { z.s.Infow(msg, args...) }
func (z *zapAdapter) Warn(msg string, args ...any)  { z.s.Warnw(msg, args...) }
func (z *zapAdapter) Error(msg string, args ...any) { z.s.Errorw(msg, args...) }

// console holds one interactive session. The state is replaced wholesale on
// load, and the indexers are rebuilt alongside it so lookups never mix
// generations.
type console struct {
	cfg *config.Config

	differ  *differ.StateDiffer
	patcher *patcher.StatePatcher

	state  *engine.State
	tokens tokenindexer.IndexedTokens
	pairs  pairindexer.IndexedPairs
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Log.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(cfg.ZapLevel())
	// Keep stdout clean for table output.
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	adapter := &zapAdapter{s: logger.Sugar()}
	registry := prometheus.NewRegistry()

	stateDiffer, err := differ.NewStateDiffer(&differ.Config{Registry: registry, Logger: adapter})
	if err != nil {
		logger.Fatal("building differ", zap.Error(err))
	}
	statePatcher, err := patcher.NewStatePatcher(&patcher.Config{Registry: registry, Logger: adapter})
	if err != nil {
		logger.Fatal("building patcher", zap.Error(err))
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			logger.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	c := &console{
		cfg:     cfg,
		differ:  stateDiffer,
		patcher: statePatcher,
	}

	if err := c.loadInitial(cfg.SnapshotPath); err != nil {
		logger.Fatal("loading snapshot", zap.String("path", cfg.SnapshotPath), zap.Error(err))
	}

	fmt.Printf("dexquote console | %d tokens, %d pairs as of %s\n",
		len(c.state.Tokens), len(c.state.Pairs), c.state.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Println(`type "help" for commands`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			break
		}
		if err := c.dispatch(fields[0], fields[1:]); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func (c *console) dispatch(cmd string, args []string) error {
	switch cmd {
	case "help":
		c.printHelp()
		return nil
	case "tokens":
		return c.cmdTokens()
	case "pairs":
		return c.cmdPairs()
	case "quote":
		return c.cmdQuote(args)
	case "deposit":
		return c.cmdDeposit(args)
	case "redeem":
		return c.cmdRedeem(args)
	case "value":
		return c.cmdValue(args)
	case "impact":
		return c.cmdImpact(args)
	case "load":
		return c.cmdLoad(args)
	default:
		return fmt.Errorf("unknown command %q, try \"help\"", cmd)
	}
}

func (c *console) printHelp() {
	fmt.Print(`commands:
  tokens                          list indexed tokens
  pairs                           list indexed pairs
  quote <amount> <in> <out>       quote a swap, symbols or token IDs
  deposit <pair> <amt0> <amt1>    quote an LP deposit into a pair
  redeem <pair> <lp>              quote the redemption of a raw LP balance
  value <amount> <symbol>         value an amount at the oracle price
  impact <in-amt> <in> <out-amt> <out>
                                  price impact of a realized in/out fill
  load [path]                     reload the snapshot via diff and patch
  exit                            leave the console
`)
}

func (c *console) loadInitial(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	state, err := engine.DecodeSnapshot(data)
	if err != nil {
		return err
	}
	c.setState(state)
	return nil
}

func (c *console) setState(state *engine.State) {
	c.state = state
	c.tokens = tokenindexer.New().Index(state.Tokens)
	c.pairs = pairindexer.New().Index(state.Pairs)
}

// cmdLoad re-reads the snapshot and applies it as a diff against the held
// state, exercising the same path an embedding client uses for live updates.
func (c *console) cmdLoad(args []string) error {
	path := c.cfg.SnapshotPath
	if len(args) > 0 {
		path = args[0]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	next, err := engine.DecodeSnapshot(data)
	if err != nil {
		return err
	}

	diff, err := c.differ.Diff(c.state, next)
	if err != nil {
		return err
	}
	patched, err := c.patcher.Patch(c.state, diff)
	if err != nil {
		return err
	}
	c.setState(patched)

	fmt.Printf("applied %d token, %d pair, %d price changes; state at %s\n",
		diff.Tokens.Size(), diff.Pairs.Size(), diff.Prices.Size(),
		patched.Timestamp.Format("2006-01-02 15:04:05 MST"))
	return nil
}

func (c *console) cmdTokens() error {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Symbol", "Name", "Decimals", "Address", "Price"})
	for _, tok := range c.tokens.All() {
		price := "-"
		if p, ok := c.state.Prices[tok.ID]; ok {
			price = p.String()
		}
		t.AppendRow(table.Row{tok.ID, tok.Symbol, tok.Name, tok.Decimals, tok.Address.Hex(), price})
	}
	t.Render()
	return nil
}

func (c *console) cmdPairs() error {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Pair", "Reserve0", "Reserve1", "LP Supply", "Fee bps"})
	for _, p := range c.pairs.All() {
		tok0, ok0 := c.tokens.GetByID(p.Token0)
		tok1, ok1 := c.tokens.GetByID(p.Token1)
		if !ok0 || !ok1 {
			continue
		}
		t.AppendRow(table.Row{
			p.ID,
			tok0.Symbol + "/" + tok1.Symbol,
			formatRaw(p.Reserve0, tok0.Decimals),
			formatRaw(p.Reserve1, tok1.Decimals),
			p.TotalSupply.String(),
			p.FeeBps,
		})
	}
	t.Render()
	return nil
}

func (c *console) cmdQuote(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: quote <amount> <in> <out>")
	}

	tokenIn, err := c.resolveToken(args[1])
	if err != nil {
		return err
	}
	tokenOut, err := c.resolveToken(args[2])
	if err != nil {
		return err
	}
	amountIn, err := parseHumanAmount(args[0], tokenIn.Decimals)
	if err != nil {
		return fmt.Errorf("amount %q: %w", args[0], err)
	}

	calc, pair, err := c.calculatorForTokens(tokenIn.ID, tokenOut.ID)
	if err != nil {
		return err
	}

	quote, err := calc.SimulateSwap(
		amountIn, tokenIn.ID,
		c.state.Prices[tokenIn.ID], c.state.Prices[tokenOut.ID],
		c.cfg.SlippageBps,
	)
	if err != nil {
		return err
	}

	t := newTable()
	t.AppendHeader(table.Row{"Pair", "In", "Out", "Min Received", "Exec Price", "Impact"})
	t.AppendRow(table.Row{
		pair.ID,
		formatRaw(quote.AmountIn, tokenIn.Decimals) + " " + tokenIn.Symbol,
		formatRaw(quote.AmountOut, tokenOut.Decimals) + " " + tokenOut.Symbol,
		formatRaw(quote.MinimumReceived, tokenOut.Decimals) + " " + tokenOut.Symbol,
		quote.ExecutionPrice.String(),
		quote.PriceImpact.StringFixed(4) + "%",
	})
	t.Render()
	return nil
}

func (c *console) cmdDeposit(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: deposit <pair> <amount0> <amount1>")
	}

	calc, pair, tok0, tok1, err := c.calculatorForPair(args[0])
	if err != nil {
		return err
	}
	amount0, err := parseHumanAmount(args[1], tok0.Decimals)
	if err != nil {
		return fmt.Errorf("amount0 %q: %w", args[1], err)
	}
	amount1, err := parseHumanAmount(args[2], tok1.Decimals)
	if err != nil {
		return fmt.Errorf("amount1 %q: %w", args[2], err)
	}

	quote, err := calc.QuoteDeposit(amount0, amount1)
	if err != nil {
		return err
	}

	t := newTable()
	t.AppendHeader(table.Row{"Pair", "LP Minted", "Share of Pool"})
	t.AppendRow(table.Row{
		pair.ID,
		quote.LPTokens.String(),
		quote.ShareOfPool.Mul(decimal.New(100, 0)).StringFixed(4) + "%",
	})
	t.Render()
	return nil
}

func (c *console) cmdRedeem(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: redeem <pair> <lp>")
	}

	calc, pair, tok0, tok1, err := c.calculatorForPair(args[0])
	if err != nil {
		return err
	}
	lp, ok := new(big.Int).SetString(args[1], 10)
	if !ok {
		return fmt.Errorf("lp balance %q is not an integer", args[1])
	}

	quote, err := calc.QuoteRedeem(lp)
	if err != nil {
		return err
	}

	t := newTable()
	t.AppendHeader(table.Row{"Pair", tok0.Symbol, tok1.Symbol})
	t.AppendRow(table.Row{
		pair.ID,
		formatRaw(quote.Amount0, tok0.Decimals),
		formatRaw(quote.Amount1, tok1.Decimals),
	})
	t.Render()
	return nil
}

func (c *console) cmdValue(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: value <amount> <symbol>")
	}

	token, err := c.resolveToken(args[1])
	if err != nil {
		return err
	}
	price, ok := c.state.Prices[token.ID]
	if !ok {
		return fmt.Errorf("no price for token %s", token.Symbol)
	}
	amount, err := scalemath.Parse(args[0])
	if err != nil {
		return fmt.Errorf("amount %q: %w", args[0], err)
	}

	fmt.Printf("%s %s = %s\n", amount.String(), token.Symbol, valuemath.ValueOf(amount, price).String())
	return nil
}

// cmdImpact values a realized fill at the oracle prices and reports the
// percentage of value lost or gained.
func (c *console) cmdImpact(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: impact <in-amount> <in> <out-amount> <out>")
	}

	tokenIn, err := c.resolveToken(args[1])
	if err != nil {
		return err
	}
	tokenOut, err := c.resolveToken(args[3])
	if err != nil {
		return err
	}
	amountIn, err := scalemath.Parse(args[0])
	if err != nil {
		return fmt.Errorf("in-amount %q: %w", args[0], err)
	}
	amountOut, err := scalemath.Parse(args[2])
	if err != nil {
		return fmt.Errorf("out-amount %q: %w", args[2], err)
	}

	impact := swapmath.PriceImpact(amountIn, amountOut, c.state.Prices[tokenIn.ID], c.state.Prices[tokenOut.ID])
	fmt.Printf("%s %s -> %s %s: %s%% impact\n",
		amountIn.String(), tokenIn.Symbol, amountOut.String(), tokenOut.Symbol, impact.StringFixed(4))
	return nil
}

// resolveToken accepts a symbol or a numeric token ID.
func (c *console) resolveToken(ref string) (tokenregistry.Token, error) {
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		if t, ok := c.tokens.GetByID(id); ok {
			return t, nil
		}
		return tokenregistry.Token{}, fmt.Errorf("unknown token ID %d", id)
	}
	if t, ok := c.tokens.GetBySymbol(ref); ok {
		return t, nil
	}
	return tokenregistry.Token{}, fmt.Errorf("unknown token %q", ref)
}

// calculatorForTokens picks the lowest-ID pair trading the two tokens.
func (c *console) calculatorForTokens(tokenA, tokenB uint64) (*calculator.Calculator, amm.Pair, error) {
	candidates := c.pairs.GetByTokens(tokenA, tokenB)
	if len(candidates) == 0 {
		return nil, amm.Pair{}, fmt.Errorf("no pair trades tokens %d and %d", tokenA, tokenB)
	}
	pair := candidates[0]

	tok0, _ := c.tokens.GetByID(pair.Token0)
	tok1, _ := c.tokens.GetByID(pair.Token1)
	calc, err := calculator.NewCalculator(pair, tok0, tok1)
	if err != nil {
		return nil, amm.Pair{}, err
	}
	return calc, pair, nil
}

func (c *console) calculatorForPair(ref string) (*calculator.Calculator, amm.Pair, tokenregistry.Token, tokenregistry.Token, error) {
	var none tokenregistry.Token

	id, err := strconv.ParseUint(ref, 10, 64)
	if err != nil {
		return nil, amm.Pair{}, none, none, fmt.Errorf("pair ID %q is not a number", ref)
	}
	pair, ok := c.pairs.GetByID(id)
	if !ok {
		return nil, amm.Pair{}, none, none, fmt.Errorf("unknown pair ID %d", id)
	}

	tok0, _ := c.tokens.GetByID(pair.Token0)
	tok1, _ := c.tokens.GetByID(pair.Token1)
	calc, err := calculator.NewCalculator(pair, tok0, tok1)
	if err != nil {
		return nil, amm.Pair{}, none, none, err
	}
	return calc, pair, tok0, tok1, nil
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}

// parseHumanAmount scales a human-readable amount into the raw domain of a
// token.
func parseHumanAmount(s string, decimals uint8) (*big.Int, error) {
	d, err := scalemath.Parse(s)
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}
	return scalemath.ApplyDecimals(d, int32(decimals))
}

// formatRaw renders a raw integer amount in whole token units.
func formatRaw(raw *big.Int, decimals uint8) string {
	d, err := scalemath.RemoveDecimals(raw, int32(decimals))
	if err != nil {
		return raw.String()
	}
	return d.String()
}
