package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/itsib/0x-swap-api/internal/config"
	"github.com/itsib/0x-swap-api/internal/feed"
	"github.com/itsib/0x-swap-api/internal/sources"
	"github.com/itsib/0x-swap-api/internal/tokens"
	"github.com/itsib/0x-swap-api/internal/types"
)

const docsURL = "https://0x.org/docs/api#swap"

// SwapService is what the handlers need from the quote assembler.
type SwapService interface {
	Quote(ctx context.Context, p *types.SwapParams) (*types.QuoteResponse, error)
	Price(ctx context.Context, p *types.SwapParams) (*types.PriceResponse, error)
	MarketDepth(ctx context.Context, p *types.DepthParams) (*types.DepthResponse, error)
}

// TokenResolver maps request token parameters to tokens.
type TokenResolver interface {
	ResolveMany(ctx context.Context, inputs ...string) ([]tokens.Token, error)
	IsNative(s string) bool
	IsWrappedNative(s string) bool
	Wrapped() tokens.Token
	List() []tokens.Token
}

// QuoteFeed receives every served quote and price.
type QuoteFeed interface {
	PublishAsync(ev feed.Event)
}

// Defaults are the request parameter defaults.
type Defaults struct {
	SlippagePercentage     decimal.Decimal
	DepthMaxSamples        int
	SampleDistributionBase decimal.Decimal
}

// SwapHandler serves the /swap/v1 routes.
type SwapHandler struct {
	logger   *zap.Logger
	service  SwapService
	tokens   TokenResolver
	feed     QuoteFeed
	chain    *config.ChainParams
	defaults Defaults
	now      func() time.Time
}

// NewSwapHandler creates a SwapHandler. feed is optional.
func NewSwapHandler(logger *zap.Logger, service SwapService, tokens TokenResolver, feed QuoteFeed, chain *config.ChainParams, defaults Defaults) *SwapHandler {
	return &SwapHandler{
		logger:   logger,
		service:  service,
		tokens:   tokens,
		feed:     feed,
		chain:    chain,
		defaults: defaults,
		now:      time.Now,
	}
}

func (h *SwapHandler) Root(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "This is the root of the Swap API. Visit " + docsURL + " for details about this API.",
	})
}

type tokenRecord struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Decimals int32  `json:"decimals"`
}

func (h *SwapHandler) Tokens(c *fiber.Ctx) error {
	list := h.tokens.List()
	records := make([]tokenRecord, 0, len(list))
	for _, t := range list {
		records = append(records, tokenRecord{Symbol: t.Symbol, Address: t.Address.Hex(), Name: t.Name, Decimals: t.Decimals})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"records": records})
}

func (h *SwapHandler) Sources(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"records": sources.Names(h.chain.EnabledSources)})
}

func (h *SwapHandler) Quote(c *fiber.Ctx) error {
	p, err := h.parseSwapParams(c, "quote")
	if err != nil {
		return err
	}
	resp, err := h.service.Quote(c.UserContext(), p)
	if err != nil {
		return err
	}
	h.publish("quote", &resp.PriceResponse, p)
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *SwapHandler) Price(c *fiber.Ctx) error {
	p, err := h.parseSwapParams(c, "price")
	if err != nil {
		return err
	}
	resp, err := h.service.Price(c.UserContext(), p)
	if err != nil {
		return err
	}
	h.logger.Info("indicativeQuoteServed",
		zap.String("taker", addrString(p.TakerAddress)),
		zap.Stringer("buyToken", p.BuyToken),
		zap.Stringer("sellToken", p.SellToken),
		zap.String("buyAmount", bigString(p.BuyAmount)),
		zap.String("sellAmount", bigString(p.SellAmount)),
		zap.String("request_id", requestID(c)),
	)
	h.publish("price", resp, p)
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *SwapHandler) Depth(c *fiber.Ctx) error {
	p, err := h.parseDepthParams(c)
	if err != nil {
		return err
	}
	resp, err := h.service.MarketDepth(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *SwapHandler) publish(endpoint string, resp *types.PriceResponse, p *types.SwapParams) {
	if h.feed == nil {
		return
	}
	h.feed.PublishAsync(feed.EventFromPrice(endpoint, resp, addrString(p.TakerAddress), h.now()))
}
